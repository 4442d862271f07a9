package feetracker

import (
	"github.com/dyxushuai/atlas-priority-fee-estimator/protocol"
)

// Ledger maps live slots to their fee records. Records are reached by
// atomic get-or-insert; size stays bounded by the slot window driving
// Remove calls.
type Ledger struct {
	slots *shardedMap[uint64, *SlotFees]
}

func NewLedger() *Ledger {
	return &Ledger{slots: newShardedMap[uint64, *SlotFees](hashSlot)}
}

// Append records one transaction's fee under slot, globally and under each
// account the transaction writes.
func (l *Ledger) Append(slot uint64, accounts []protocol.Account, fee float64, isVote bool) {
	rec := l.slots.getOrInsert(slot, func() *SlotFees { return newSlotFees(slot) })
	rec.appendFee(fee, isVote)
	for _, account := range accounts {
		rec.appendAccountFee(account, fee, isVote)
	}
}

// Remove drops the record for slot. Removing an absent slot is a no-op.
func (l *Ledger) Remove(slot uint64) {
	l.slots.delete(slot)
}

// Get returns the record for slot, if still present.
func (l *Ledger) Get(slot uint64) (*SlotFees, bool) {
	return l.slots.get(slot)
}

// Slots lists the slots currently holding records. The view is weakly
// consistent with concurrent ingestion.
func (l *Ledger) Slots() []uint64 {
	return l.slots.keys()
}

// Len reports the number of slots holding records.
func (l *Ledger) Len() int {
	return l.slots.len()
}
