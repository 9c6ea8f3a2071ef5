/*

This file contains the types for allocation recommendations and cycle reporting.

*/

package types

import "time"

// Recommendation is one allocation line produced by the allocation engine.
// AMM pools are emitted as a single "token0/token1" labelled line carrying
// PoolData; lending pools carry the supplied token only.
type Recommendation struct {
	Protocol       string       `json:"protocol"`
	Token          string       `json:"token"`
	AmountUSD      float64      `json:"amount_usd"`      // > 0
	ExpectedReturn float64      `json:"expected_return"` // pool APY, percent
	RiskScore      float64      `json:"risk_score"`
	Confidence     Confidence   `json:"confidence"`
	PoolData       *AMMPoolData `json:"pool_data,omitempty"`
}

// SubmissionStatus tracks the outcome of one on-chain submission.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionFailed    SubmissionStatus = "failed"
	SubmissionSkipped   SubmissionStatus = "skipped" // dry-run or unknown protocol
)

// SubmissionResult records the execution outcome for one recommendation.
// A failed submission never aborts processing of the remaining ones.
type SubmissionResult struct {
	Recommendation Recommendation   `json:"recommendation"`
	Status         SubmissionStatus `json:"status"`
	TxHash         string           `json:"tx_hash,omitempty"`
	Error          string           `json:"error,omitempty"`
	Attempts       int              `json:"attempts"`
	Timestamp      time.Time        `json:"timestamp"`
}

// PerformanceRecord is one historical accuracy observation for a
// protocol+token key, used by confidence scoring.
type PerformanceRecord struct {
	Key             string    `json:"key"` // "protocol:token"
	PredictedReturn float64   `json:"predicted_return"`
	RealizedReturn  float64   `json:"realized_return"`
	Timestamp       time.Time `json:"timestamp"`
}

// CycleReport is the always-produced result object of one allocation cycle.
// Empty recommendations with a NoAction reason is a valid, non-error outcome.
type CycleReport struct {
	CycleNumber     int                `json:"cycle_number"`
	CycleID         string             `json:"cycle_id"`
	Timestamp       time.Time          `json:"timestamp"`
	RiskLevel       RiskLevel          `json:"risk_level"`
	Sentiment       Sentiment          `json:"sentiment"`
	TotalAmountUSD  float64            `json:"total_amount_usd"`
	Recommendations []Recommendation   `json:"recommendations"`
	Submissions     []SubmissionResult `json:"submissions,omitempty"`
	Metrics         *PortfolioMetrics  `json:"metrics,omitempty"`
	Rebalance       *RebalanceDecision `json:"rebalance,omitempty"`
	Narrative       string             `json:"narrative,omitempty"`
	NoActionReason  string             `json:"no_action_reason,omitempty"`
	DurationMs      int64              `json:"duration_ms"`
}
