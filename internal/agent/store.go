package agent

import (
	"github.com/starkfolio/apa/internal/state"
	"github.com/starkfolio/apa/internal/types"
)

// PostgresStore adapts the state package's package-level persistence
// functions to the Store interface.
type PostgresStore struct{}

// NewPostgresStore returns a Store backed by the global database connection.
// state.InitDB must have been called first.
func NewPostgresStore() *PostgresStore {
	return &PostgresStore{}
}

func (s *PostgresStore) IncrementCycleNumber() (int, error) {
	return state.IncrementCycleNumber()
}

func (s *PostgresStore) AppendRecommendations(report types.CycleReport) error {
	_, err := state.AppendRecommendations(report)
	return err
}

func (s *PostgresStore) SaveCycleSnapshot(report types.CycleReport) error {
	_, err := state.SaveCycleSnapshot(report)
	return err
}

func (s *PostgresStore) RecordPerformance(record types.PerformanceRecord) error {
	return state.RecordPerformance(record)
}

func (s *PostgresStore) LoadRecentPerformance(count int) ([]types.PerformanceRecord, error) {
	return state.QueryAllRecentPerformance(count)
}
