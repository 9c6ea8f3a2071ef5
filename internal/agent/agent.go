package agent

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/starkfolio/apa/internal/allocator"
	"github.com/starkfolio/apa/internal/datafetcher"
	"github.com/starkfolio/apa/internal/logger"
	"github.com/starkfolio/apa/internal/portfolio"
	"github.com/starkfolio/apa/internal/scoring"
	"github.com/starkfolio/apa/internal/types"
)

// Fetcher is the market/protocol data source consumed by a cycle.
type Fetcher interface {
	GetTokenPriceData(ctx context.Context, tokenID string) types.TokenMarketData
	GetProtocolPools(ctx context.Context) []types.PoolRecord
}

// Executor submits the cycle's recommendations and reports per-item results.
type Executor interface {
	ExecuteAll(ctx context.Context, recs []types.Recommendation) []types.SubmissionResult
}

// Narrator renders a completed report into a user-facing narrative.
type Narrator interface {
	Narrate(ctx context.Context, report types.CycleReport) (string, error)
}

// Store is the persistence surface a cycle touches. Failures are logged, not
// fatal: a cycle completes even when the store is down.
type Store interface {
	IncrementCycleNumber() (int, error)
	AppendRecommendations(report types.CycleReport) error
	SaveCycleSnapshot(report types.CycleReport) error
	RecordPerformance(record types.PerformanceRecord) error
	LoadRecentPerformance(count int) ([]types.PerformanceRecord, error)
}

// Agent represents the Autonomous Portfolio Agent with all its dependencies.
type Agent struct {
	logger   zerolog.Logger
	fetcher  Fetcher
	executor Executor
	narrator Narrator
	store    Store
	history  *scoring.HistoryStore

	strategies       map[types.RiskLevel]types.RiskStrategyConfig
	supportedTokens  map[string]bool
	riskProfile      string
	totalAmountUSD   float64
	referenceTokenID string

	// Runtime state
	inProgress  atomic.Bool
	cycleCount  int
	lastRecs    []types.Recommendation
	lastMetrics *types.PortfolioMetrics
}

// Config holds the configuration for creating a new Agent instance.
type Config struct {
	Fetcher          Fetcher
	Executor         Executor
	Narrator         Narrator // optional
	Store            Store    // optional
	History          *scoring.HistoryStore
	Strategies       map[types.RiskLevel]types.RiskStrategyConfig
	SupportedTokens  map[string]bool
	RiskProfile      string
	TotalAmountUSD   float64
	ReferenceTokenID string // token whose market data drives sentiment
}

// New creates an Agent instance with dependency injection.
func New(cfg Config) (*Agent, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("agent configuration validation failed: %w", err)
	}

	history := cfg.History
	if history == nil {
		history = scoring.NewHistoryStore()
	}

	a := &Agent{
		logger:           logger.GetForComponent("agent_core"),
		fetcher:          cfg.Fetcher,
		executor:         cfg.Executor,
		narrator:         cfg.Narrator,
		store:            cfg.Store,
		history:          history,
		strategies:       cfg.Strategies,
		supportedTokens:  cfg.SupportedTokens,
		riskProfile:      cfg.RiskProfile,
		totalAmountUSD:   cfg.TotalAmountUSD,
		referenceTokenID: cfg.ReferenceTokenID,
	}

	a.warmHistory()

	a.logger.Info().
		Str("riskProfile", a.riskProfile).
		Float64("totalAmountUSD", a.totalAmountUSD).
		Msg("Agent instance created")

	return a, nil
}

func validateConfig(cfg Config) error {
	if cfg.Fetcher == nil {
		return errors.New("fetcher cannot be nil")
	}
	if cfg.Executor == nil {
		return errors.New("executor cannot be nil")
	}
	if len(cfg.Strategies) == 0 {
		return errors.New("strategies cannot be empty")
	}
	if cfg.TotalAmountUSD <= 0 {
		return errors.New("total amount must be positive")
	}
	if cfg.ReferenceTokenID == "" {
		return errors.New("reference token cannot be empty")
	}
	return nil
}

// warmHistory seeds the in-memory accuracy history from the store.
func (a *Agent) warmHistory() {
	if a.store == nil {
		return
	}
	records, err := a.store.LoadRecentPerformance(500)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Failed to warm history store, starting cold")
		return
	}
	a.history.Load(records)
	a.logger.Info().Int("records", len(records)).Msg("History store warmed from persistence")
}

// RunLoop starts the main agent loop with the specified interval. The first
// cycle runs immediately; afterwards one cycle per tick. A tick arriving while
// a cycle is still running is silently dropped, not queued.
func (a *Agent) RunLoop(ctx context.Context, interval time.Duration) {
	a.logger.Info().
		Dur("interval", interval).
		Msg("Starting agent main loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("Agent loop stopped due to context cancellation")
			return
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

// tick runs one guarded cycle. Panics inside a cycle are recovered so the
// scheduling loop keeps firing.
func (a *Agent) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error().Interface("panic", r).Msg("Cycle panicked; loop continues")
		}
	}()

	if _, ran := a.TryRunCycle(ctx); !ran {
		a.logger.Warn().Msg("Previous cycle still running, dropping tick")
	}
}

// TryRunCycle runs one cycle unless another is already in progress, in which
// case it reports ran=false and does nothing. The guard is released on every
// exit path so a failed cycle never wedges future ones.
func (a *Agent) TryRunCycle(ctx context.Context) (report types.CycleReport, ran bool) {
	if !a.inProgress.CompareAndSwap(false, true) {
		return types.CycleReport{}, false
	}
	defer a.inProgress.Store(false)

	return a.RunCycle(ctx), true
}

// RunCycle executes a complete allocation cycle: fetch, score, allocate,
// aggregate, evaluate rebalance, execute, persist. It always produces a
// report object, possibly one with an empty recommendation set.
func (a *Agent) RunCycle(ctx context.Context) types.CycleReport {
	cycleStartTime := time.Now()

	cycleID := uuid.New().String()
	cycleLogger := a.logger.With().Str("cycle_id", cycleID).Logger()

	cycleLogger.Info().Msg("--- Starting allocation cycle ---")

	riskLevel := types.ClassifyRiskLevel(a.riskProfile)
	report := types.CycleReport{
		CycleNumber:    a.nextCycleNumber(),
		CycleID:        cycleID,
		Timestamp:      cycleStartTime,
		RiskLevel:      riskLevel,
		TotalAmountUSD: a.totalAmountUSD,
	}

	strategy, ok := a.strategies[riskLevel]
	if !ok {
		report.NoActionReason = fmt.Sprintf("no strategy configured for risk level %s", riskLevel)
		cycleLogger.Warn().Str("riskLevel", string(riskLevel)).Msg("No strategy for risk level, reporting no action")
		return a.finishCycle(ctx, report, cycleStartTime, cycleLogger)
	}

	// --- Step 1: Data fetching ---
	cycleLogger.Info().Msg("Step 1: Fetching market and protocol data...")
	market := a.fetcher.GetTokenPriceData(ctx, a.referenceTokenID)
	sentiment := datafetcher.DeriveSentiment(market)
	report.Sentiment = sentiment

	pools := a.fetcher.GetProtocolPools(ctx)
	if len(pools) == 0 {
		report.NoActionReason = "no pool data available"
		cycleLogger.Warn().Msg("No pool data available, reporting no action")
		return a.finishCycle(ctx, report, cycleStartTime, cycleLogger)
	}
	cycleLogger.Info().
		Int("pools", len(pools)).
		Float64("sentiment", sentiment.Overall).
		Bool("marketFallback", market.Fallback).
		Msg("Step 1: Data fetching complete")

	// --- Step 2: Realized performance bookkeeping ---
	a.recordRealizedPerformance(pools, cycleLogger)

	// --- Step 3: Scoring ---
	cycleLogger.Info().Msg("Step 3: Scoring pools...")
	scored := scoring.ScorePools(pools, strategy, sentiment)
	if len(scored) == 0 {
		report.NoActionReason = "no pools survived scoring"
		cycleLogger.Warn().Msg("No pools survived scoring, reporting no action")
		return a.finishCycle(ctx, report, cycleStartTime, cycleLogger)
	}
	cycleLogger.Info().Int("scoredPools", len(scored)).Msg("Step 3: Scoring complete")

	// --- Step 4: Allocation ---
	cycleLogger.Info().Msg("Step 4: Building allocation recommendations...")
	engine := allocator.NewEngine(strategy, a.supportedTokens, a.history)
	recs, err := engine.BuildRecommendations(a.totalAmountUSD, scored, sentiment)
	if err != nil {
		report.NoActionReason = err.Error()
		cycleLogger.Warn().Err(err).Msg("Allocation rejected input, reporting no action")
		return a.finishCycle(ctx, report, cycleStartTime, cycleLogger)
	}
	if len(recs) == 0 {
		report.NoActionReason = "no eligible pools for any configured protocol"
		cycleLogger.Info().Msg("Empty recommendation set, reporting no action")
		return a.finishCycle(ctx, report, cycleStartTime, cycleLogger)
	}
	report.Recommendations = recs
	cycleLogger.Info().Int("recommendations", len(recs)).Msg("Step 4: Allocation complete")

	// --- Step 5: Portfolio metrics and rebalance evaluation ---
	cycleLogger.Info().Msg("Step 5: Computing portfolio metrics...")
	positions := portfolio.PositionsFromRecommendations(recs)
	metrics, err := portfolio.ComputeMetrics(positions)
	if err != nil {
		cycleLogger.Error().Err(err).Msg("Portfolio metrics failed")
	} else {
		report.Metrics = &metrics

		drawdown := portfolio.MaxDrawdown(market.PriceHistory)
		targets := targetWeights(recs, a.totalAmountUSD)
		current := metrics
		if a.lastMetrics != nil {
			// Held positions from the previous cycle are what actually drifts.
			current = *a.lastMetrics
		}
		decision := portfolio.EvaluateRebalance(current, drawdown, targets, strategy.CrossProtocol)
		report.Rebalance = &decision
		cycleLogger.Info().
			Str("state", string(decision.State)).
			Str("reason", decision.Reason).
			Float64("drawdown", drawdown).
			Msg("Step 5: Rebalance evaluated")
	}

	// --- Step 6: Execution ---
	cycleLogger.Info().Msg("Step 6: Executing recommendations...")
	report.Submissions = a.executor.ExecuteAll(ctx, recs)
	failed := 0
	for _, sub := range report.Submissions {
		if sub.Status == types.SubmissionFailed {
			failed++
		}
	}
	cycleLogger.Info().
		Int("submissions", len(report.Submissions)).
		Int("failed", failed).
		Msg("Step 6: Execution complete")

	a.lastRecs = recs
	if report.Metrics != nil {
		a.lastMetrics = report.Metrics
	}

	return a.finishCycle(ctx, report, cycleStartTime, cycleLogger)
}

// nextCycleNumber increments the persistent cycle counter, falling back to a
// local counter when the store is unavailable.
func (a *Agent) nextCycleNumber() int {
	if a.store != nil {
		n, err := a.store.IncrementCycleNumber()
		if err == nil {
			a.cycleCount = n
			return n
		}
		a.logger.Error().Err(err).Msg("Failed to increment cycle number, using local counter")
	}
	a.cycleCount++
	return a.cycleCount
}

// recordRealizedPerformance compares the previous cycle's expected returns
// with currently observed pool APYs and feeds the accuracy history.
func (a *Agent) recordRealizedPerformance(pools []types.PoolRecord, cycleLogger zerolog.Logger) {
	if len(a.lastRecs) == 0 {
		return
	}

	apyByKey := make(map[string]float64, len(pools))
	for _, pool := range pools {
		apyByKey[scoring.HistoryKey(pool.Protocol, pool.Token0)] = pool.APY
	}

	recorded := 0
	for _, rec := range a.lastRecs {
		// AMM recommendations are labelled "token0/token1"; the history key
		// uses the primary token either way.
		token := rec.Token
		for i := range token {
			if token[i] == '/' {
				token = token[:i]
				break
			}
		}
		key := scoring.HistoryKey(rec.Protocol, token)
		realized, ok := apyByKey[key]
		if !ok {
			continue
		}
		a.history.Record(key, rec.ExpectedReturn, realized)
		if a.store != nil {
			record := types.PerformanceRecord{
				Key:             key,
				PredictedReturn: rec.ExpectedReturn,
				RealizedReturn:  realized,
				Timestamp:       time.Now(),
			}
			if err := a.store.RecordPerformance(record); err != nil {
				cycleLogger.Warn().Err(err).Str("key", key).Msg("Failed to persist performance record")
			}
		}
		recorded++
	}
	if recorded > 0 {
		cycleLogger.Info().Int("records", recorded).Msg("Step 2: Realized performance recorded")
	}
}

// finishCycle persists the report, attaches the narrative, and stamps the
// duration. Persistence and narration failures are logged, never fatal.
func (a *Agent) finishCycle(ctx context.Context, report types.CycleReport, start time.Time, cycleLogger zerolog.Logger) types.CycleReport {
	if a.narrator != nil {
		narrative, err := a.narrator.Narrate(ctx, report)
		if err != nil {
			cycleLogger.Warn().Err(err).Msg("Narrative generation failed")
		} else {
			report.Narrative = narrative
		}
	}

	report.DurationMs = time.Since(start).Milliseconds()

	if a.store != nil {
		if len(report.Recommendations) > 0 {
			if err := a.store.AppendRecommendations(report); err != nil {
				cycleLogger.Error().Err(err).Msg("Failed to append recommendations to log")
			}
		}
		if err := a.store.SaveCycleSnapshot(report); err != nil {
			cycleLogger.Error().Err(err).Msg("Failed to save cycle snapshot")
		}
	}

	cycleLogger.Info().
		Int("recommendations", len(report.Recommendations)).
		Str("noActionReason", report.NoActionReason).
		Int64("durationMs", report.DurationMs).
		Msg("--- Allocation cycle completed ---")

	return report
}

// targetWeights derives per-protocol target exposure fractions from the
// freshly built recommendation set.
func targetWeights(recs []types.Recommendation, totalAmount float64) map[string]float64 {
	targets := make(map[string]float64)
	if totalAmount <= 0 {
		return targets
	}
	for _, rec := range recs {
		targets[rec.Protocol] += rec.AmountUSD / totalAmount
	}
	return targets
}
