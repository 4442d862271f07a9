package feetracker

import (
	"sync"

	"github.com/dyxushuai/atlas-priority-fee-estimator/protocol"
)

// Fees holds the priority fees observed for one slot or one account within
// a slot, split by transaction class. Both slices are append-only for the
// lifetime of their record; order is insertion order and no consumer
// depends on it.
type Fees struct {
	NonVoteFees []float64
	VoteFees    []float64
}

func (f *Fees) add(fee float64, isVote bool) {
	if isVote {
		f.VoteFees = append(f.VoteFees, fee)
	} else {
		f.NonVoteFees = append(f.NonVoteFees, fee)
	}
}

// accountFees is one account's fees within a slot, with its own lock so
// appends for distinct accounts never contend.
type accountFees struct {
	mu   sync.Mutex
	fees Fees
}

// SlotFees accumulates fees for a single slot. The global fees are
// serialized by the record lock; the account sub-map is itself concurrent.
// The global append and the per-account appends of one ingested transaction
// are each atomic but not mutually atomic: percentile consumption is a
// multiset operation and no cross-entry invariant exists.
type SlotFees struct {
	Slot uint64

	mu       sync.Mutex
	global   Fees
	accounts *shardedMap[protocol.Account, *accountFees]
}

func newSlotFees(slot uint64) *SlotFees {
	return &SlotFees{
		Slot:     slot,
		accounts: newShardedMap[protocol.Account, *accountFees](hashAccount),
	}
}

func (s *SlotFees) appendFee(fee float64, isVote bool) {
	s.mu.Lock()
	s.global.add(fee, isVote)
	s.mu.Unlock()
}

func (s *SlotFees) appendAccountFee(account protocol.Account, fee float64, isVote bool) {
	entry := s.accounts.getOrInsert(account, func() *accountFees { return &accountFees{} })
	entry.mu.Lock()
	entry.fees.add(fee, isVote)
	entry.mu.Unlock()
}

// collectGlobal appends this slot's global fees to dst. Vote fees are
// included only when includeVote is set.
func (s *SlotFees) collectGlobal(dst []float64, includeVote bool) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if includeVote {
		dst = append(dst, s.global.VoteFees...)
	}
	return append(dst, s.global.NonVoteFees...)
}

// collectAccount appends the account's fees for this slot to dst. The
// second return reports whether the account has a record in this slot at
// all, independent of how many samples it contributed.
func (s *SlotFees) collectAccount(account protocol.Account, dst []float64, includeVote bool) ([]float64, bool) {
	entry, ok := s.accounts.get(account)
	if !ok {
		return dst, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if includeVote {
		dst = append(dst, entry.fees.VoteFees...)
	}
	return append(dst, entry.fees.NonVoteFees...), true
}
