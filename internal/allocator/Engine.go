/*

This file contains the risk-adjusted allocation engine.

Given a total investable amount, a risk-level strategy configuration and a set
of scored pools, it produces the weighted allocation recommendations that
respect per-protocol bounds and never overshoot the total amount.

*/

package allocator

import (
	"errors"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/starkfolio/apa/internal/logger"
	"github.com/starkfolio/apa/internal/scoring"
	"github.com/starkfolio/apa/internal/types"
)

var (
	ErrInvalidAllocationInput = errors.New("invalid allocation input")
	ErrNoStrategyProtocols    = errors.New("strategy configures no protocols")
)

// MaxPoolsPerProtocol caps how many top-ranked pools a protocol's allocation
// is distributed across.
const MaxPoolsPerProtocol = 3

// Engine builds allocation recommendations for one risk strategy. Construct
// once per cycle; the strategy is immutable while the cycle runs.
type Engine struct {
	strategy        types.RiskStrategyConfig
	supportedTokens map[string]bool
	history         *scoring.HistoryStore
	logger          zerolog.Logger
}

// NewEngine creates an allocation engine for the given strategy. The history
// store handle feeds confidence scoring and may be nil.
func NewEngine(strategy types.RiskStrategyConfig, supportedTokens map[string]bool, history *scoring.HistoryStore) *Engine {
	return &Engine{
		strategy:        strategy,
		supportedTokens: supportedTokens,
		history:         history,
		logger:          logger.GetForComponent("allocation_engine"),
	}
}

// BuildRecommendations produces one recommendation per selected pool.
//
// Protocols are visited in the strategy's declared order. A protocol with no
// eligible pools is skipped entirely and its allocation left unspent; no
// normalization step reclaims it. The emitted total is therefore <= totalAmount
// by construction, and per protocol <= totalAmount * maxAllocation%.
func (e *Engine) BuildRecommendations(totalAmount float64, pools []types.PoolRecord, sentiment types.Sentiment) ([]types.Recommendation, error) {
	if totalAmount <= 0 || math.IsNaN(totalAmount) || math.IsInf(totalAmount, 0) {
		e.logger.Warn().Float64("totalAmount", totalAmount).Msg("Rejecting allocation request: non-positive total amount")
		return nil, ErrInvalidAllocationInput
	}
	if len(e.strategy.Protocols) == 0 {
		return nil, errors.Join(ErrInvalidAllocationInput, ErrNoStrategyProtocols)
	}

	byProtocol := e.groupEligible(pools)

	recommendations := make([]types.Recommendation, 0, len(e.strategy.Protocols)*MaxPoolsPerProtocol)
	for _, protocol := range e.strategy.ProtocolOrder {
		bounds := e.strategy.Protocols[protocol]
		group := byProtocol[protocol]
		if len(group) == 0 {
			// Unavailable data or no eligible pools: allocation implicitly
			// left unspent, not redistributed.
			e.logger.Info().Str("protocol", protocol).Msg("No eligible pools for protocol, skipping")
			continue
		}

		recs := e.allocateProtocol(protocol, bounds, group, totalAmount, sentiment)
		recommendations = append(recommendations, recs...)
	}

	e.logger.Info().
		Int("recommendations", len(recommendations)).
		Float64("totalAmount", totalAmount).
		Msg("Allocation recommendations built")

	return recommendations, nil
}

// groupEligible keeps pools whose protocol is in the strategy and whose
// primary token is on the supported-token allow-list, grouped by protocol and
// sorted descending by risk-adjusted return.
func (e *Engine) groupEligible(pools []types.PoolRecord) map[string][]types.PoolRecord {
	byProtocol := make(map[string][]types.PoolRecord)
	for _, pool := range pools {
		if _, configured := e.strategy.Protocols[pool.Protocol]; !configured {
			continue
		}
		if e.supportedTokens != nil && !e.supportedTokens[pool.Token0] {
			e.logger.Debug().
				Str("protocol", pool.Protocol).
				Str("token", pool.Token0).
				Msg("Pool token not on allow-list, filtered out")
			continue
		}
		byProtocol[pool.Protocol] = append(byProtocol[pool.Protocol], pool)
	}

	for protocol := range byProtocol {
		group := byProtocol[protocol]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].RiskAdjustedReturn > group[j].RiskAdjustedReturn
		})
	}
	return byProtocol
}

// allocateProtocol sizes one protocol's slice of the total amount and
// distributes it across its top pools proportional to risk-adjusted return.
//
// The top-ranked pool's market fit alone drives the protocol's allocation
// fraction between the min and max bounds.
func (e *Engine) allocateProtocol(
	protocol string,
	bounds types.ProtocolBounds,
	group []types.PoolRecord,
	totalAmount float64,
	sentiment types.Sentiment,
) []types.Recommendation {
	topPool := group[0]

	fraction := bounds.MinAllocation + topPool.MarketFit*(bounds.MaxAllocation-bounds.MinAllocation)
	if fraction > bounds.MaxAllocation {
		fraction = bounds.MaxAllocation
	}
	protocolAmount := totalAmount * fraction / 100

	selected := group
	if len(selected) > MaxPoolsPerProtocol {
		selected = selected[:MaxPoolsPerProtocol]
	}

	var totalRAR float64
	for _, pool := range selected {
		totalRAR += pool.RiskAdjustedReturn
	}
	if totalRAR <= 0 {
		// Every selected pool scored zero: nothing worth funding here.
		e.logger.Info().Str("protocol", protocol).Msg("All selected pools have zero risk-adjusted return, skipping protocol")
		return nil
	}

	e.logger.Debug().
		Str("protocol", protocol).
		Float64("fraction", fraction).
		Float64("protocolAmount", protocolAmount).
		Int("selectedPools", len(selected)).
		Msg("Protocol allocation sized")

	recs := make([]types.Recommendation, 0, len(selected))
	for _, pool := range selected {
		if pool.RiskAdjustedReturn <= 0 {
			continue
		}
		amount := protocolAmount * pool.RiskAdjustedReturn / totalRAR
		if amount <= 0 {
			continue
		}
		recs = append(recs, e.buildRecommendation(pool, amount, sentiment))
	}
	return recs
}

// buildRecommendation emits one allocation line. AMM pools are labelled
// "token0/token1" and carry their pool metadata; lending pools carry the
// supplied token only.
func (e *Engine) buildRecommendation(pool types.PoolRecord, amount float64, sentiment types.Sentiment) types.Recommendation {
	riskScore, err := scoring.PoolRiskScore(pool)
	if err != nil {
		// Validation already passed during scoring; treat as maximally risky
		// rather than dropping the line.
		e.logger.Warn().Err(err).Str("protocol", pool.Protocol).Msg("Pool risk score failed at emission")
		riskScore = 1
	}

	confidence := types.ConfidenceNone
	if score, err := scoring.ConfidenceScore(pool, sentiment, e.history); err == nil {
		confidence = scoring.ConfidenceLabel(score)
	}

	token := pool.Token0
	if pool.IsAMM() {
		token = pool.Token0 + "/" + pool.Token1
	}

	rec := types.Recommendation{
		Protocol:       pool.Protocol,
		Token:          token,
		AmountUSD:      amount,
		ExpectedReturn: pool.APY,
		RiskScore:      riskScore,
		Confidence:     confidence,
	}
	if pool.IsAMM() {
		rec.PoolData = pool.AMMData
	}
	return rec
}
