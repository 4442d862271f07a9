// Package feetracker keeps a sliding window of per-slot priority fees and
// turns them into percentile-based fee estimates.
package feetracker

import (
	"github.com/sirupsen/logrus"

	"github.com/dyxushuai/atlas-priority-fee-estimator/protocol"
)

// Tracker couples the bounded slot window with the fee ledger and exposes
// the estimation entry points. All methods are safe for concurrent use;
// queries observe a weakly consistent snapshot of ongoing ingestion.
type Tracker struct {
	window *SlotWindow
	ledger *Ledger
	logger *logrus.Entry
}

// New creates a tracker retaining fees for at most capacity slots.
func New(capacity int, logger *logrus.Entry) (*Tracker, error) {
	window, err := NewSlotWindow(capacity)
	if err != nil {
		return nil, err
	}
	return &Tracker{
		window: window,
		ledger: NewLedger(),
		logger: logger,
	}, nil
}

// Push ingests one transaction event. It never fails: admission decides
// whether an old slot must go, the evicted record is dropped, then the fee
// is appended. A query racing the eviction may briefly observe the doomed
// record; the drift is bounded and statistically irrelevant.
func (t *Tracker) Push(slot uint64, accounts []protocol.Account, fee uint64, isVote bool) {
	if evicted, ok := t.window.Admit(slot); ok {
		t.ledger.Remove(evicted)
		t.logger.WithFields(logrus.Fields{
			"slot":    slot,
			"evicted": evicted,
		}).Debug("evicted slot from fee window")
	}
	t.ledger.Append(slot, accounts, float64(fee), isVote)
}

// Estimate aggregates fees per the request and folds every bucket into a
// single level estimate.
func (t *Tracker) Estimate(req Request) LevelEstimate {
	estimate := newLevelEstimate()
	for _, samples := range collect(t.ledger, req) {
		estimate.foldMax(summarize(samples))
	}
	return estimate
}

// EstimateDetailed returns the folded estimate plus per-bucket statistics
// keyed by the bucket's display name.
func (t *Tracker) EstimateDetailed(req Request) (LevelEstimate, map[string]BucketDetail) {
	estimate := newLevelEstimate()
	details := make(map[string]BucketDetail)
	for bucket, samples := range collect(t.ledger, req) {
		detail := describe(samples)
		details[bucket.String()] = detail
		estimate.foldMax(detail.Estimates)
	}
	return estimate, details
}

// LiveSlots lists the slots currently inside the window.
func (t *Tracker) LiveSlots() []uint64 {
	return t.window.Snapshot()
}

// LiveSlotCount reports how many slots are currently inside the window.
func (t *Tracker) LiveSlotCount() int {
	return t.window.Len()
}
