/*

This file contains the persisted prediction-accuracy history used to warm the
in-memory history store at startup.

*/

package state

import (
	"fmt"

	"github.com/starkfolio/apa/internal/types"
)

// RecordPerformance appends one predicted-vs-realized observation for a
// protocol:token key.
func RecordPerformance(record types.PerformanceRecord) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO performance_history (history_key, predicted_return, realized_return, created_at)
		VALUES ($1, $2, $3, $4);
	`
	_, err := DB.Exec(query, record.Key, record.PredictedReturn, record.RealizedReturn, record.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to record performance: %w", err)
	}
	return nil
}

// QueryRecentPerformance returns up to count observations for a key, most
// recent first.
func QueryRecentPerformance(key string, count int) ([]types.PerformanceRecord, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if count <= 0 {
		count = 50
	}

	query := `
		SELECT history_key, predicted_return, realized_return, created_at
		FROM performance_history
		WHERE history_key = $1
		ORDER BY created_at DESC
		LIMIT $2;
	`

	rows, err := DB.Query(query, key, count)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance history: %w", err)
	}
	defer rows.Close()

	var records []types.PerformanceRecord
	for rows.Next() {
		var r types.PerformanceRecord
		if err := rows.Scan(&r.Key, &r.PredictedReturn, &r.RealizedReturn, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan performance row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// QueryAllRecentPerformance returns up to count observations across all keys,
// most recent first, for warming the history store.
func QueryAllRecentPerformance(count int) ([]types.PerformanceRecord, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if count <= 0 {
		count = 500
	}

	query := `
		SELECT history_key, predicted_return, realized_return, created_at
		FROM performance_history
		ORDER BY created_at DESC
		LIMIT $1;
	`

	rows, err := DB.Query(query, count)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance history: %w", err)
	}
	defer rows.Close()

	var records []types.PerformanceRecord
	for rows.Next() {
		var r types.PerformanceRecord
		if err := rows.Scan(&r.Key, &r.PredictedReturn, &r.RealizedReturn, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan performance row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
