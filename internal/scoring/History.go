/*

This file contains the prediction-accuracy history store consulted by
confidence scoring. It is an explicit handle passed into the scoring
functions rather than a module global, so history is testable and
resettable between runs.

*/

package scoring

import (
	"math"
	"sync"

	"github.com/starkfolio/apa/internal/types"
)

// HistoryKey builds the canonical "protocol:token" history key.
func HistoryKey(protocol, token string) string {
	return protocol + ":" + token
}

type accuracyStats struct {
	samples int
	sum     float64
}

// HistoryStore keeps running prediction-accuracy stats per protocol+token key.
// Safe for use from the web handlers while a cycle is writing.
type HistoryStore struct {
	mu    sync.RWMutex
	stats map[string]*accuracyStats
}

// NewHistoryStore creates an empty history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{stats: make(map[string]*accuracyStats)}
}

// Record registers one observation of predicted vs realized return for a key.
// Accuracy of the observation is 1 minus the relative prediction error,
// clamped to [0,1].
func (h *HistoryStore) Record(key string, predictedReturn, realizedReturn float64) {
	if math.IsNaN(predictedReturn) || math.IsInf(predictedReturn, 0) ||
		math.IsNaN(realizedReturn) || math.IsInf(realizedReturn, 0) {
		return
	}

	accuracy := 1.0
	if predictedReturn != 0 {
		relErr := math.Abs(predictedReturn-realizedReturn) / math.Abs(predictedReturn)
		accuracy = math.Max(0, 1-relErr)
	} else if realizedReturn != 0 {
		accuracy = 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.stats[key]
	if !ok {
		s = &accuracyStats{}
		h.stats[key] = s
	}
	s.samples++
	s.sum += accuracy
}

// Load seeds the store from persisted performance records.
func (h *HistoryStore) Load(records []types.PerformanceRecord) {
	for _, r := range records {
		h.Record(r.Key, r.PredictedReturn, r.RealizedReturn)
	}
}

// Accuracy returns the mean observed accuracy for a key, or the default when
// no history exists.
func (h *HistoryStore) Accuracy(key string) float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.stats[key]
	if !ok || s.samples == 0 {
		return DefaultHistoricalAccuracy
	}
	return s.sum / float64(s.samples)
}

// Reset clears all recorded history.
func (h *HistoryStore) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats = make(map[string]*accuracyStats)
}
