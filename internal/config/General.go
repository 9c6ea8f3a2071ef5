package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// RPCURL is the Starknet JSON-RPC endpoint used for transaction submission.
	RPCURL string
	// AccountAddress is the agent's account contract address.
	AccountAddress string

	// RiskProfile is the free-text profile label classified into a risk level
	// at the start of every cycle (e.g. "moderate yield farmer").
	RiskProfile string
	// TotalAmountUSD is the investable amount per cycle.
	TotalAmountUSD float64

	// LoopInterval is the wall-clock interval between allocation cycles.
	LoopInterval time.Duration

	// ExecutionMode gates real transaction submission. Anything other than
	// "live" runs the executor in dry-run mode.
	ExecutionMode string

	// AnthropicAPIKey enables the optional cycle narrative. Empty disables it.
	AnthropicAPIKey string
)

// SupportedTokens is the allow-list of asset symbols the allocation engine
// will consider. Pools whose primary token is not listed are filtered out.
var SupportedTokens = map[string]bool{
	"ETH":  true,
	"WBTC": true,
	"USDC": true,
	"USDT": true,
	"STRK": true,
	"DAI":  true,
}

// LoadConfig loads configuration from environment variables and sets the
// global config vars. RPC settings are required only in live execution mode.
func LoadConfig() error {
	ExecutionMode = os.Getenv("EXECUTION_MODE")

	RPCURL = os.Getenv("STARKNET_RPC_URL")
	AccountAddress = os.Getenv("STARKNET_ACCOUNT_ADDRESS")
	if ExecutionMode == "live" {
		if RPCURL == "" {
			return errors.New("STARKNET_RPC_URL is required in live mode")
		}
		if AccountAddress == "" {
			return errors.New("STARKNET_ACCOUNT_ADDRESS is required in live mode")
		}
	}

	RiskProfile = os.Getenv("RISK_PROFILE")
	if RiskProfile == "" {
		RiskProfile = "moderate"
		log.Warn().Msg("RISK_PROFILE not set, defaulting to moderate")
	}

	amountStr := os.Getenv("TOTAL_AMOUNT_USD")
	if amountStr == "" {
		return errors.New("TOTAL_AMOUNT_USD is required")
	}
	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil || amount <= 0 {
		return errors.New("TOTAL_AMOUNT_USD must be a positive number")
	}
	TotalAmountUSD = amount

	LoopInterval = 10 * time.Minute
	if intervalStr := os.Getenv("LOOP_INTERVAL"); intervalStr != "" {
		interval, err := time.ParseDuration(intervalStr)
		if err != nil || interval <= 0 {
			return errors.New("LOOP_INTERVAL must be a positive duration (e.g. 10m)")
		}
		LoopInterval = interval
	}

	AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")

	log.Info().
		Str("riskProfile", RiskProfile).
		Float64("totalAmountUSD", TotalAmountUSD).
		Str("executionMode", ExecutionMode).
		Msg("Configuration loaded")

	return nil
}
