/*

This file contains the append-only recommendation log. Each cycle's
recommendation set is persisted as one immutable record and recalled most
recent first.

*/

package state

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/starkfolio/apa/internal/types"
)

// AppendRecommendations appends one cycle's recommendation set to the log.
func AppendRecommendations(report types.CycleReport) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	recsJSON, err := json.Marshal(report.Recommendations)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	query := `
		INSERT INTO recommendation_log (cycle_number, cycle_id, created_at, risk_level, total_amount_usd, recommendations)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING record_id;
	`

	var recordID int64
	err = DB.QueryRow(query,
		report.CycleNumber, report.CycleID, report.Timestamp,
		string(report.RiskLevel), report.TotalAmountUSD, recsJSON,
	).Scan(&recordID)
	if err != nil {
		return 0, fmt.Errorf("failed to append recommendations: %w", err)
	}

	log.Info().
		Int64("record_id", recordID).
		Int("cycle_number", report.CycleNumber).
		Int("recommendations", len(report.Recommendations)).
		Msg("Recommendations appended to log")

	return recordID, nil
}

// RecommendationLogEntry is one recalled log record.
type RecommendationLogEntry struct {
	RecordID        int64                  `json:"record_id"`
	CycleNumber     int                    `json:"cycle_number"`
	CycleID         string                 `json:"cycle_id"`
	RiskLevel       string                 `json:"risk_level"`
	TotalAmountUSD  float64                `json:"total_amount_usd"`
	Recommendations []types.Recommendation `json:"recommendations"`
}

// QueryRecentRecommendations returns up to count log entries, most recent
// first.
func QueryRecentRecommendations(count int) ([]RecommendationLogEntry, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if count <= 0 {
		count = 10
	}

	query := `
		SELECT record_id, cycle_number, cycle_id, risk_level, total_amount_usd, recommendations
		FROM recommendation_log
		ORDER BY created_at DESC
		LIMIT $1;
	`

	rows, err := DB.Query(query, count)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendation log: %w", err)
	}
	defer rows.Close()

	var entries []RecommendationLogEntry
	for rows.Next() {
		var entry RecommendationLogEntry
		var recsJSON []byte
		if err := rows.Scan(&entry.RecordID, &entry.CycleNumber, &entry.CycleID,
			&entry.RiskLevel, &entry.TotalAmountUSD, &recsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation log row: %w", err)
		}
		if err := json.Unmarshal(recsJSON, &entry.Recommendations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recommendations: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
