package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/starkfolio/apa/internal/advisor"
	"github.com/starkfolio/apa/internal/agent"
	"github.com/starkfolio/apa/internal/config"
	"github.com/starkfolio/apa/internal/datafetcher"
	"github.com/starkfolio/apa/internal/executor"
	"github.com/starkfolio/apa/internal/logger"
	"github.com/starkfolio/apa/internal/state"
	"github.com/starkfolio/apa/internal/web"
)

const (
	// zkLend market and Ekubo positions contracts on Starknet mainnet.
	zkLendMarketContract    = "0x04c0a5193d58f74fbfa957d969472663579464e695865909e0555980aa8f2db7"
	ekuboPositionsContract  = "0x02e0af29598b407c8716b17f6d2795eca1b471413fa03fb145a5e33722184067"
	referenceSentimentToken = "ethereum"
)

// main is the entry point for the APA system.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := config.ValidateStrategies(); err != nil {
		log.Fatal().Err(err).Msg("Invalid strategy configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("APA Core Logic Starting...")

	// Initialize Database Connection
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}

	var store agent.Store
	if err := state.InitDB(dbCfg); err != nil {
		log.Warn().Err(err).Msg("Database unavailable, running without persistence")
	} else {
		defer state.CloseDB()
		if err := state.EnsureSchema(); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure database schema")
		}
		store = agent.NewPostgresStore()
	}

	// --- Start Web Server ---
	webPort := os.Getenv("WEB_PORT")
	if webPort == "" {
		webPort = "8080"
	}

	webServer := web.NewWebServer(webPort)
	go func() {
		log.Info().Str("port", webPort).Str("url", "http://localhost:"+webPort).Msg("Starting APA web API")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 2. Executor Initialization (with Safety Switch) ---
	registry, err := executor.NewRegistry(
		executor.NewZkLendAdapter(zkLendMarketContract),
		executor.NewEkuboAdapter(ekuboPositionsContract),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build protocol adapter registry")
	}

	var submitter executor.Submitter
	if config.ExecutionMode == "live" {
		log.Warn().Msg("Initializing APA in LIVE mode. Real transactions will be broadcast.")
		submitter = executor.NewClient(config.RPCURL, config.AccountAddress)
	} else {
		log.Info().Msg("EXECUTION_MODE is not 'live'. Running in dry-run mode, no transactions will be broadcast.")
		submitter = executor.NewDryRunSubmitter()
	}
	exec := executor.NewExecutor(submitter, registry)

	// --- 3. Create Agent Instance with Dependency Injection ---
	log.Info().Msg("Creating agent instance with dependency injection...")
	apa, err := agent.New(agent.Config{
		Fetcher:          datafetcher.NewFetcher(),
		Executor:         exec,
		Narrator:         advisor.New(config.AnthropicAPIKey),
		Store:            store,
		Strategies:       config.Strategies,
		SupportedTokens:  config.SupportedTokens,
		RiskProfile:      config.RiskProfile,
		TotalAmountUSD:   config.TotalAmountUSD,
		ReferenceTokenID: referenceSentimentToken,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create agent instance")
	}

	// --- 4. Main Loop ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	apa.RunLoop(ctx, config.LoopInterval)
	log.Info().Msg("APA shut down cleanly")
}

func mustAtoi(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
