package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starkfolio/apa/internal/types"
)

// fakeSubmitter fails a configurable number of times before succeeding.
type fakeSubmitter struct {
	failures int
	calls    int
}

func (f *fakeSubmitter) Submit(_ context.Context, _ Call) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("rpc unavailable")
	}
	return "0xabc123", nil
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := NewRegistry(
		NewZkLendAdapter("0xmarket"),
		NewEkuboAdapter("0xpositions"),
	)
	require.NoError(t, err)
	return registry
}

func lendingRec() types.Recommendation {
	return types.Recommendation{
		Protocol:  "zkLend",
		Token:     "USDC",
		AmountUSD: 500,
	}
}

func TestExecute(t *testing.T) {
	t.Run("first attempt success", func(t *testing.T) {
		submitter := &fakeSubmitter{}
		exec := NewExecutor(submitter, testRegistry(t), WithRetryDelay(time.Millisecond))

		result := exec.Execute(context.Background(), lendingRec())
		assert.Equal(t, types.SubmissionSubmitted, result.Status)
		assert.Equal(t, "0xabc123", result.TxHash)
		assert.Equal(t, 1, result.Attempts)
	})

	t.Run("retries transient failures", func(t *testing.T) {
		submitter := &fakeSubmitter{failures: 2}
		exec := NewExecutor(submitter, testRegistry(t), WithRetryDelay(time.Millisecond))

		result := exec.Execute(context.Background(), lendingRec())
		assert.Equal(t, types.SubmissionSubmitted, result.Status)
		assert.Equal(t, MaxAttempts, result.Attempts)
	})

	t.Run("exhausts the retry budget", func(t *testing.T) {
		submitter := &fakeSubmitter{failures: 10}
		exec := NewExecutor(submitter, testRegistry(t), WithRetryDelay(time.Millisecond))

		result := exec.Execute(context.Background(), lendingRec())
		assert.Equal(t, types.SubmissionFailed, result.Status)
		assert.Equal(t, MaxAttempts, result.Attempts)
		assert.Contains(t, result.Error, "exhausted 3 attempts")
		assert.Equal(t, MaxAttempts, submitter.calls)
	})

	t.Run("unknown protocol is skipped", func(t *testing.T) {
		submitter := &fakeSubmitter{}
		exec := NewExecutor(submitter, testRegistry(t), WithRetryDelay(time.Millisecond))

		rec := lendingRec()
		rec.Protocol = "Nostra"
		result := exec.Execute(context.Background(), rec)

		assert.Equal(t, types.SubmissionSkipped, result.Status)
		assert.Zero(t, submitter.calls)
	})

	t.Run("build failure does not reach the submitter", func(t *testing.T) {
		submitter := &fakeSubmitter{}
		exec := NewExecutor(submitter, testRegistry(t), WithRetryDelay(time.Millisecond))

		rec := types.Recommendation{Protocol: "Ekubo", Token: "ETH/USDC", AmountUSD: 100} // no pool data
		result := exec.Execute(context.Background(), rec)

		assert.Equal(t, types.SubmissionFailed, result.Status)
		assert.Contains(t, result.Error, "build call")
		assert.Zero(t, submitter.calls)
	})

	t.Run("cancelled context stops retries", func(t *testing.T) {
		submitter := &fakeSubmitter{failures: 10}
		exec := NewExecutor(submitter, testRegistry(t), WithRetryDelay(time.Hour))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result := exec.Execute(ctx, lendingRec())
		assert.Equal(t, types.SubmissionFailed, result.Status)
		assert.Equal(t, 1, submitter.calls)
	})
}

func TestExecuteAll(t *testing.T) {
	t.Run("continues past failures", func(t *testing.T) {
		submitter := &fakeSubmitter{}
		exec := NewExecutor(submitter, testRegistry(t), WithRetryDelay(time.Millisecond))

		recs := []types.Recommendation{
			{Protocol: "Ekubo", Token: "ETH/USDC", AmountUSD: 100}, // fails: no pool data
			lendingRec(),
		}

		results := exec.ExecuteAll(context.Background(), recs)
		require.Len(t, results, 2)
		assert.Equal(t, types.SubmissionFailed, results[0].Status)
		assert.Equal(t, types.SubmissionSubmitted, results[1].Status)
	})

	t.Run("empty input", func(t *testing.T) {
		exec := NewExecutor(&fakeSubmitter{}, testRegistry(t))
		assert.Empty(t, exec.ExecuteAll(context.Background(), nil))
	})
}

func TestAdapters(t *testing.T) {
	t.Run("zklend deposit call", func(t *testing.T) {
		adapter := NewZkLendAdapter("0xmarket")
		call, err := adapter.BuildCall(lendingRec())
		require.NoError(t, err)

		assert.Equal(t, "0xmarket", call.ContractAddress)
		assert.Equal(t, "deposit", call.EntryPoint)
		require.Len(t, call.Calldata, 2)
		assert.Equal(t, tokenAddresses["USDC"], call.Calldata[0])
		assert.Equal(t, "500000000", call.Calldata[1])
	})

	t.Run("zklend rejects unknown token", func(t *testing.T) {
		adapter := NewZkLendAdapter("0xmarket")
		rec := lendingRec()
		rec.Token = "SHADY"
		_, err := adapter.BuildCall(rec)
		assert.Error(t, err)
	})

	t.Run("ekubo mint call", func(t *testing.T) {
		adapter := NewEkuboAdapter("0xpositions")
		rec := types.Recommendation{
			Protocol:  "Ekubo",
			Token:     "ETH/USDC",
			AmountUSD: 250,
			PoolData: &types.AMMPoolData{
				Token0Address: "0x1",
				Token1Address: "0x2",
				Fee:           "0x20c49ba5e353f80000000000000000",
				TickSpacing:   5982,
			},
		}

		call, err := adapter.BuildCall(rec)
		require.NoError(t, err)
		assert.Equal(t, "mint_and_deposit", call.EntryPoint)
		require.Len(t, call.Calldata, 5)
		assert.Equal(t, "5982", call.Calldata[3])
		assert.Equal(t, "250000000", call.Calldata[4])
	})

	t.Run("duplicate adapter registration fails", func(t *testing.T) {
		_, err := NewRegistry(NewZkLendAdapter("0xa"), NewZkLendAdapter("0xb"))
		assert.Error(t, err)
	})
}
