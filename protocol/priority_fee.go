// Package protocol defines the public JSON-RPC types served by the
// priority fee estimator.
package protocol

import (
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

const (
	GetPriorityFeeEstimateMethodName         = "getPriorityFeeEstimate"
	GetPriorityFeeEstimateDetailedMethodName = "getPriorityFeeEstimateDetailed"
	GetHealthMethodName                      = "getHealth"
)

// AccountSize is the length in bytes of a Solana account key.
const AccountSize = 32

// Account is a writable account key attached to a transaction.
type Account [AccountSize]byte

// AccountFromBase58 parses the canonical base58 rendering of an account key.
func AccountFromBase58(s string) (Account, error) {
	var a Account
	raw, err := base58.Decode(s)
	if err != nil {
		return a, fmt.Errorf("invalid account %q: %w", s, err)
	}
	if len(raw) != AccountSize {
		return a, fmt.Errorf("invalid account %q: expected %d bytes, got %d", s, AccountSize, len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

// String returns the canonical base58 form of the account.
func (a Account) String() string {
	return base58.Encode(a[:])
}

func (a Account) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Account) UnmarshalText(text []byte) error {
	parsed, err := AccountFromBase58(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// PriorityLevel names one of the fixed percentile points of an estimate.
type PriorityLevel int

const (
	// PriorityLevelDefault maps to the 50th percentile.
	PriorityLevelDefault PriorityLevel = iota
	// PriorityLevelMin maps to the 0th percentile.
	PriorityLevelMin
	// PriorityLevelLow maps to the 25th percentile.
	PriorityLevelLow
	// PriorityLevelMedium maps to the 50th percentile.
	PriorityLevelMedium
	// PriorityLevelHigh maps to the 75th percentile.
	PriorityLevelHigh
	// PriorityLevelVeryHigh maps to the 95th percentile.
	PriorityLevelVeryHigh
	// PriorityLevelUnsafeMax maps to the 100th percentile.
	PriorityLevelUnsafeMax
)

// ParsePriorityLevel maps a level name to a PriorityLevel. Matching is
// case-insensitive and ignores surrounding whitespace; unknown names map to
// PriorityLevelDefault.
func ParsePriorityLevel(s string) PriorityLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NONE":
		return PriorityLevelMin
	case "LOW":
		return PriorityLevelLow
	case "MEDIUM":
		return PriorityLevelMedium
	case "HIGH":
		return PriorityLevelHigh
	case "VERY_HIGH":
		return PriorityLevelVeryHigh
	case "UNSAFE_MAX":
		return PriorityLevelUnsafeMax
	default:
		return PriorityLevelDefault
	}
}

// Percentile returns the percentile point the level selects.
func (l PriorityLevel) Percentile() int {
	switch l {
	case PriorityLevelMin:
		return 0
	case PriorityLevelLow:
		return 25
	case PriorityLevelMedium, PriorityLevelDefault:
		return 50
	case PriorityLevelHigh:
		return 75
	case PriorityLevelVeryHigh:
		return 95
	case PriorityLevelUnsafeMax:
		return 100
	default:
		return 50
	}
}

// GetPriorityFeeEstimateOptions tunes a fee estimate query.
type GetPriorityFeeEstimateOptions struct {
	// PriorityLevel selects which percentile point to return when the
	// caller wants a single fee instead of all levels.
	PriorityLevel string `json:"priorityLevel,omitempty"`
	// IncludeAllPriorityFeeLevels returns the full level breakdown.
	IncludeAllPriorityFeeLevels bool `json:"includeAllPriorityFeeLevels,omitempty"`
	// LookbackSlots caps how many of the newest live slots are examined.
	LookbackSlots *uint32 `json:"lookbackSlots,omitempty"`
	// IncludeVote includes vote transaction fees in the samples.
	IncludeVote bool `json:"includeVote,omitempty"`
	// IncludeEmptySlots injects zero samples for accounts with no
	// activity in an examined slot.
	IncludeEmptySlots bool `json:"includeEmptySlots,omitempty"`
	// Recommended applies the recommended floor to the medium estimate.
	Recommended bool `json:"recommended,omitempty"`
	// EvaluateEmptySlotAsZero is an alias of IncludeEmptySlots kept for
	// older clients.
	EvaluateEmptySlotAsZero bool `json:"evaluateEmptySlotAsZero,omitempty"`
}

// GetPriorityFeeEstimateRequest is the body of getPriorityFeeEstimate and
// getPriorityFeeEstimateDetailed.
type GetPriorityFeeEstimateRequest struct {
	AccountKeys []string                       `json:"accountKeys,omitempty"`
	Options     *GetPriorityFeeEstimateOptions `json:"options,omitempty"`
}

// MicroLamportPriorityFeeLevels is the per-level estimate in micro-lamports.
type MicroLamportPriorityFeeLevels struct {
	Min       float64 `json:"min"`
	Low       float64 `json:"low"`
	Medium    float64 `json:"medium"`
	High      float64 `json:"high"`
	VeryHigh  float64 `json:"veryHigh"`
	UnsafeMax float64 `json:"unsafeMax"`
}

// GetPriorityFeeEstimateResponse carries either a single estimate or the
// full level breakdown.
type GetPriorityFeeEstimateResponse struct {
	PriorityFeeEstimate *float64                       `json:"priorityFeeEstimate,omitempty"`
	PriorityFeeLevels   *MicroLamportPriorityFeeLevels `json:"priorityFeeLevels,omitempty"`
}

// PriorityFeeDetail describes the sample distribution behind one bucket.
type PriorityFeeDetail struct {
	Estimates MicroLamportPriorityFeeLevels `json:"estimates"`
	Mean      float64                       `json:"mean"`
	Stdev     float64                       `json:"stdev"`
	Skew      float64                       `json:"skew"`
	Count     int                           `json:"count"`
}

// GetPriorityFeeEstimateDetailedResponse is the detailed variant: the folded
// levels plus per-bucket statistics keyed by bucket name ("Global",
// "All Accounts", or a base58 account).
type GetPriorityFeeEstimateDetailedResponse struct {
	PriorityFeeLevels MicroLamportPriorityFeeLevels `json:"priorityFeeLevels"`
	Details           map[string]PriorityFeeDetail  `json:"details"`
}

// GetHealthResponse is the body of getHealth.
type GetHealthResponse struct {
	Status    string `json:"status"`
	LiveSlots int    `json:"liveSlots"`
}
