package feetracker

import (
	"sort"

	"github.com/dyxushuai/atlas-priority-fee-estimator/protocol"
)

// Algorithm selects how account fees are bucketed during aggregation.
type Algorithm int

const (
	// AlgorithmA pools all requested accounts into one combined bucket.
	AlgorithmA Algorithm = iota
	// AlgorithmB keeps one bucket per requested account.
	AlgorithmB
)

// Request describes one aggregation query.
type Request struct {
	Algorithm Algorithm
	// Accounts filters (AlgorithmA) or breaks down (AlgorithmB) per-account
	// fees. May be empty.
	Accounts []protocol.Account
	// IncludeVote includes vote transaction fees in every bucket.
	IncludeVote bool
	// IncludeEmptySlots injects a single 0.0 sample for slots where the
	// requested accounts saw no activity.
	IncludeEmptySlots bool
	// Lookback caps how many of the newest live slots are examined. Nil
	// means all live slots; zero examines none, so AlgorithmA returns its
	// two buckets empty and AlgorithmB returns no buckets.
	Lookback *uint32
}

// BucketKind distinguishes the labeled sample sets an aggregation emits.
type BucketKind int

const (
	BucketGlobal BucketKind = iota
	BucketAllAccounts
	BucketAccount
)

// Bucket identifies one sample set in an aggregation result.
type Bucket struct {
	Kind    BucketKind
	Account protocol.Account
}

func (b Bucket) String() string {
	switch b.Kind {
	case BucketGlobal:
		return "Global"
	case BucketAllAccounts:
		return "All Accounts"
	default:
		return b.Account.String()
	}
}

// collect walks the newest slots of the ledger and gathers fee samples per
// bucket according to the request's algorithm. Slots that disappear between
// listing and resolution (lost to concurrent eviction) contribute nothing
// and do not count as empty.
func collect(ledger *Ledger, req Request) map[Bucket][]float64 {
	slots := ledger.Slots()
	sort.Slice(slots, func(i, j int) bool { return slots[i] > slots[j] })
	slots = slots[:lookbackSize(req.Lookback, len(slots))]

	if req.Algorithm == AlgorithmB {
		return collectPerAccount(ledger, slots, req)
	}
	return collectCombined(ledger, slots, req)
}

// collectCombined (AlgorithmA) pools every requested account into a single
// combined bucket. The result always carries both keys; the combined bucket
// stays empty when no accounts were requested.
func collectCombined(ledger *Ledger, slots []uint64, req Request) map[Bucket][]float64 {
	var global, combined []float64
	for _, slot := range slots {
		rec, ok := ledger.Get(slot)
		if !ok {
			continue
		}
		global = rec.collectGlobal(global, req.IncludeVote)
		if len(req.Accounts) == 0 {
			continue
		}
		hasData := false
		for _, account := range req.Accounts {
			var seen bool
			combined, seen = rec.collectAccount(account, combined, req.IncludeVote)
			hasData = hasData || seen
		}
		// One zero per slot no matter how many accounts were silent.
		if !hasData && req.IncludeEmptySlots {
			combined = append(combined, 0)
		}
	}
	return map[Bucket][]float64{
		{Kind: BucketGlobal}:      global,
		{Kind: BucketAllAccounts}: combined,
	}
}

// collectPerAccount (AlgorithmB) keeps one bucket per requested account and
// injects a zero per slot into each bucket whose account was silent, when
// the request asks for it. Buckets materialize lazily: a query over zero
// resolvable slots returns no buckets at all.
func collectPerAccount(ledger *Ledger, slots []uint64, req Request) map[Bucket][]float64 {
	data := make(map[Bucket][]float64)
	for _, slot := range slots {
		rec, ok := ledger.Get(slot)
		if !ok {
			continue
		}
		global := Bucket{Kind: BucketGlobal}
		data[global] = rec.collectGlobal(data[global], req.IncludeVote)

		for _, account := range req.Accounts {
			bucket := Bucket{Kind: BucketAccount, Account: account}
			if fees, seen := rec.collectAccount(account, data[bucket], req.IncludeVote); seen {
				data[bucket] = fees
			} else if req.IncludeEmptySlots {
				data[bucket] = append(data[bucket], 0)
			}
		}
	}
	return data
}

func lookbackSize(pref *uint32, available int) int {
	if pref == nil {
		return available
	}
	if n := int(*pref); n < available {
		return n
	}
	return available
}
