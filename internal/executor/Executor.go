/*

This file contains the execution adapter: it maps each recommendation through
its protocol adapter and submits the resulting call with a bounded retry
budget. A failed recommendation is reported and never aborts the rest.

*/

package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/starkfolio/apa/internal/logger"
	"github.com/starkfolio/apa/internal/types"
)

const (
	// MaxAttempts is the fixed retry budget per submission.
	MaxAttempts = 3
	// retryDelay is the fixed wait between attempts.
	retryDelay = 2 * time.Second
)

// Executor submits allocation recommendations on chain.
type Executor struct {
	submitter  Submitter
	registry   *Registry
	retryDelay time.Duration
	logger     zerolog.Logger
}

// ExecutorOption overrides an Executor default.
type ExecutorOption func(*Executor)

// WithRetryDelay overrides the fixed inter-attempt delay.
func WithRetryDelay(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.retryDelay = d }
}

// NewExecutor creates an executor over a submitter and adapter registry.
func NewExecutor(submitter Submitter, registry *Registry, opts ...ExecutorOption) *Executor {
	e := &Executor{
		submitter:  submitter,
		registry:   registry,
		retryDelay: retryDelay,
		logger:     logger.GetForComponent("executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteAll submits every recommendation in order, continuing past
// per-recommendation failures, and returns one result per input.
func (e *Executor) ExecuteAll(ctx context.Context, recs []types.Recommendation) []types.SubmissionResult {
	results := make([]types.SubmissionResult, 0, len(recs))
	for _, rec := range recs {
		result := e.Execute(ctx, rec)
		if result.Status == types.SubmissionFailed {
			e.logger.Error().
				Str("protocol", rec.Protocol).
				Str("token", rec.Token).
				Str("error", result.Error).
				Msg("Submission failed, continuing with remaining recommendations")
		}
		results = append(results, result)
	}
	return results
}

// Execute submits one recommendation with up to MaxAttempts tries and a fixed
// inter-attempt delay. After exhausting the budget the submission is terminal:
// it is reported failed, not retried at a higher level within the cycle.
func (e *Executor) Execute(ctx context.Context, rec types.Recommendation) types.SubmissionResult {
	result := types.SubmissionResult{
		Recommendation: rec,
		Status:         types.SubmissionPending,
		Timestamp:      time.Now(),
	}

	adapter, ok := e.registry.Resolve(rec.Protocol)
	if !ok {
		result.Status = types.SubmissionSkipped
		result.Error = fmt.Sprintf("no adapter registered for protocol %s", rec.Protocol)
		e.logger.Warn().Str("protocol", rec.Protocol).Msg("No adapter for protocol, skipping submission")
		return result
	}

	call, err := adapter.BuildCall(rec)
	if err != nil {
		result.Status = types.SubmissionFailed
		result.Error = fmt.Sprintf("build call: %v", err)
		return result
	}

	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		result.Attempts = attempt

		txHash, err := e.submitter.Submit(ctx, call)
		if err == nil {
			result.Status = types.SubmissionSubmitted
			result.TxHash = txHash
			e.logger.Info().
				Str("protocol", rec.Protocol).
				Str("token", rec.Token).
				Float64("amountUSD", rec.AmountUSD).
				Str("txHash", txHash).
				Int("attempt", attempt).
				Msg("Transaction submitted")
			return result
		}
		lastErr = err

		e.logger.Warn().
			Err(err).
			Str("protocol", rec.Protocol).
			Int("attempt", attempt).
			Int("maxAttempts", MaxAttempts).
			Msg("Submission attempt failed")

		if attempt < MaxAttempts {
			select {
			case <-ctx.Done():
				result.Status = types.SubmissionFailed
				result.Error = ctx.Err().Error()
				return result
			case <-time.After(e.retryDelay):
			}
		}
	}

	result.Status = types.SubmissionFailed
	result.Error = fmt.Sprintf("exhausted %d attempts: %v", MaxAttempts, lastErr)
	return result
}

// DryRunSubmitter logs intended calls without touching the chain. It is the
// default submitter unless EXECUTION_MODE=live.
type DryRunSubmitter struct {
	logger zerolog.Logger
}

// NewDryRunSubmitter creates the dry-run submitter.
func NewDryRunSubmitter() *DryRunSubmitter {
	return &DryRunSubmitter{logger: logger.GetForComponent("dry_run_submitter")}
}

// Submit logs the call and returns a synthetic hash.
func (d *DryRunSubmitter) Submit(_ context.Context, call Call) (string, error) {
	d.logger.Info().
		Str("contract", call.ContractAddress).
		Str("entryPoint", call.EntryPoint).
		Strs("calldata", call.Calldata).
		Msg("Dry run: transaction not submitted")
	return "dry-run", nil
}
