/*

This file contains the cycle snapshot store. One row is written per completed
allocation cycle and recalled by the dashboard API.

*/

package state

import (
	"encoding/json"
	"fmt"

	"github.com/lib/pq" // PostgreSQL driver for array support
	"github.com/rs/zerolog/log"

	"github.com/starkfolio/apa/internal/types"
)

// SaveCycleSnapshot saves a complete cycle report to the database.
func SaveCycleSnapshot(report types.CycleReport) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal cycle report: %w", err)
	}

	txHashes := make([]string, 0, len(report.Submissions))
	for _, sub := range report.Submissions {
		if sub.TxHash != "" {
			txHashes = append(txHashes, sub.TxHash)
		}
	}

	query := `
		INSERT INTO cycle_snapshots (cycle_number, snapshot_timestamp, report, transaction_hashes)
		VALUES ($1, $2, $3, $4)
		RETURNING snapshot_id;
	`

	var snapshotID int64
	err = DB.QueryRow(query, report.CycleNumber, report.Timestamp, reportJSON, pq.Array(txHashes)).Scan(&snapshotID)
	if err != nil {
		return 0, fmt.Errorf("failed to save cycle snapshot: %w", err)
	}

	log.Info().
		Int64("snapshot_id", snapshotID).
		Int("cycle_number", report.CycleNumber).
		Int("recommendations", len(report.Recommendations)).
		Msg("Cycle snapshot saved to database")

	return snapshotID, nil
}

// GetRecentCycles returns up to count cycle reports, most recent first.
func GetRecentCycles(count int) ([]types.CycleReport, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if count <= 0 {
		count = 20
	}

	query := `
		SELECT report FROM cycle_snapshots
		ORDER BY snapshot_timestamp DESC
		LIMIT $1;
	`

	rows, err := DB.Query(query, count)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycle snapshots: %w", err)
	}
	defer rows.Close()

	var reports []types.CycleReport
	for rows.Next() {
		var reportJSON []byte
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan cycle snapshot row: %w", err)
		}
		var report types.CycleReport
		if err := json.Unmarshal(reportJSON, &report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cycle report: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// GetLatestCycle returns the most recent cycle report, or nil when no cycle
// has completed yet.
func GetLatestCycle() (*types.CycleReport, error) {
	reports, err := GetRecentCycles(1)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, nil
	}
	return &reports[0], nil
}
