package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starkfolio/apa/internal/types"
)

type fakeFetcher struct {
	pools   []types.PoolRecord
	market  types.TokenMarketData
	release chan struct{} // when set, GetProtocolPools blocks until closed
}

func (f *fakeFetcher) GetTokenPriceData(_ context.Context, tokenID string) types.TokenMarketData {
	return f.market
}

func (f *fakeFetcher) GetProtocolPools(_ context.Context) []types.PoolRecord {
	if f.release != nil {
		<-f.release
	}
	return f.pools
}

type fakeExecutor struct {
	mu       sync.Mutex
	executed [][]types.Recommendation
}

func (e *fakeExecutor) ExecuteAll(_ context.Context, recs []types.Recommendation) []types.SubmissionResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.executed = append(e.executed, recs)
	results := make([]types.SubmissionResult, 0, len(recs))
	for _, rec := range recs {
		results = append(results, types.SubmissionResult{
			Recommendation: rec,
			Status:         types.SubmissionSubmitted,
			TxHash:         "0xfake",
			Attempts:       1,
		})
	}
	return results
}

type memoryStore struct {
	mu        sync.Mutex
	cycle     int
	snapshots []types.CycleReport
	perf      []types.PerformanceRecord
}

func (s *memoryStore) IncrementCycleNumber() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycle++
	return s.cycle, nil
}

func (s *memoryStore) AppendRecommendations(types.CycleReport) error { return nil }

func (s *memoryStore) SaveCycleSnapshot(report types.CycleReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, report)
	return nil
}

func (s *memoryStore) RecordPerformance(record types.PerformanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.perf = append(s.perf, record)
	return nil
}

func (s *memoryStore) LoadRecentPerformance(int) ([]types.PerformanceRecord, error) {
	return nil, nil
}

func testStrategies() map[types.RiskLevel]types.RiskStrategyConfig {
	return map[types.RiskLevel]types.RiskStrategyConfig{
		types.RiskMedium: {
			Level:       types.RiskMedium,
			MaxDrawdown: 0.20,
			Protocols: map[string]types.ProtocolBounds{
				"zkLend": {MinAllocation: 40, MaxAllocation: 60},
			},
			ProtocolOrder: []string{"zkLend"},
			CrossProtocol: types.CrossProtocolMetrics{
				RebalanceThreshold:    0.10,
				TotalDrawdownLimit:    0.20,
				DiversificationTarget: 0.0,
			},
		},
	}
}

func testPools() []types.PoolRecord {
	return []types.PoolRecord{
		{
			Protocol: "zkLend", Token0: "USDC", APY: 4.5,
			TvlUSD: 8e6, Volume24h: 4e5, TotalSupply: 8e6, TotalBorrow: 4e6,
			LastUpdate: time.Now(),
		},
	}
}

func newTestAgent(t *testing.T, fetcher Fetcher, store Store) *Agent {
	t.Helper()
	a, err := New(Config{
		Fetcher:          fetcher,
		Executor:         &fakeExecutor{},
		Store:            store,
		Strategies:       testStrategies(),
		SupportedTokens:  map[string]bool{"USDC": true, "ETH": true},
		RiskProfile:      "moderate",
		TotalAmountUSD:   1000,
		ReferenceTokenID: "ethereum",
	})
	require.NoError(t, err)
	return a
}

func TestNew(t *testing.T) {
	t.Run("rejects missing fetcher", func(t *testing.T) {
		_, err := New(Config{
			Executor:         &fakeExecutor{},
			Strategies:       testStrategies(),
			TotalAmountUSD:   1000,
			ReferenceTokenID: "ethereum",
		})
		assert.Error(t, err)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := New(Config{
			Fetcher:          &fakeFetcher{},
			Executor:         &fakeExecutor{},
			Strategies:       testStrategies(),
			TotalAmountUSD:   0,
			ReferenceTokenID: "ethereum",
		})
		assert.Error(t, err)
	})
}

func TestRunCycle(t *testing.T) {
	t.Run("happy path produces recommendations and a snapshot", func(t *testing.T) {
		store := &memoryStore{}
		fetcher := &fakeFetcher{pools: testPools()}
		a := newTestAgent(t, fetcher, store)

		report := a.RunCycle(context.Background())

		assert.Equal(t, 1, report.CycleNumber)
		assert.NotEmpty(t, report.CycleID)
		assert.Equal(t, types.RiskMedium, report.RiskLevel)
		assert.Empty(t, report.NoActionReason)
		require.NotEmpty(t, report.Recommendations)
		require.NotEmpty(t, report.Submissions)
		assert.Equal(t, types.SubmissionSubmitted, report.Submissions[0].Status)
		require.NotNil(t, report.Metrics)
		require.NotNil(t, report.Rebalance)

		require.Len(t, store.snapshots, 1)
	})

	t.Run("no pools still returns a report", func(t *testing.T) {
		a := newTestAgent(t, &fakeFetcher{}, &memoryStore{})

		report := a.RunCycle(context.Background())

		assert.Equal(t, "no pool data available", report.NoActionReason)
		assert.Empty(t, report.Recommendations)
		assert.NotEmpty(t, report.CycleID)
	})

	t.Run("works without a store", func(t *testing.T) {
		a := newTestAgent(t, &fakeFetcher{pools: testPools()}, nil)

		first := a.RunCycle(context.Background())
		second := a.RunCycle(context.Background())

		assert.Equal(t, 1, first.CycleNumber)
		assert.Equal(t, 2, second.CycleNumber)
	})

	t.Run("second cycle records realized performance", func(t *testing.T) {
		store := &memoryStore{}
		a := newTestAgent(t, &fakeFetcher{pools: testPools()}, store)

		a.RunCycle(context.Background())
		a.RunCycle(context.Background())

		require.NotEmpty(t, store.perf)
		assert.Equal(t, "zkLend:USDC", store.perf[0].Key)
		assert.InDelta(t, 4.5, store.perf[0].RealizedReturn, 1e-9)
	})
}

func TestTryRunCycle(t *testing.T) {
	t.Run("overlapping cycle is dropped", func(t *testing.T) {
		release := make(chan struct{})
		fetcher := &fakeFetcher{pools: testPools(), release: release}
		a := newTestAgent(t, fetcher, nil)

		started := make(chan struct{})
		done := make(chan struct{})
		go func() {
			defer close(done)
			close(started)
			a.TryRunCycle(context.Background())
		}()

		<-started
		// Wait until the first cycle is actually holding the guard.
		require.Eventually(t, func() bool {
			return a.inProgress.Load()
		}, time.Second, time.Millisecond)

		_, ran := a.TryRunCycle(context.Background())
		assert.False(t, ran)

		close(release)
		<-done

		// Guard released: the next cycle runs.
		_, ran = a.TryRunCycle(context.Background())
		assert.True(t, ran)
	})
}
