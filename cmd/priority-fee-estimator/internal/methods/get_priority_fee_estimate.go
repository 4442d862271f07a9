package methods

import (
	"context"
	"math"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/sirupsen/logrus"

	"github.com/dyxushuai/atlas-priority-fee-estimator/cmd/priority-fee-estimator/internal/feetracker"
	"github.com/dyxushuai/atlas-priority-fee-estimator/protocol"
)

// Limits bounds what a single fee estimate request may ask for.
type Limits struct {
	MaxAccounts         uint
	MaxLookbackSlots    uint
	RecommendedFeeFloor uint64
}

// NewGetPriorityFeeEstimateHandler returns the getPriorityFeeEstimate
// handler: the combined-bucket estimate, optionally reduced to a single
// priority level.
func NewGetPriorityFeeEstimateHandler(logger *logrus.Entry, tracker *feetracker.Tracker, limits Limits) jrpc2.Handler {
	return handler.New(func(ctx context.Context, request protocol.GetPriorityFeeEstimateRequest) (protocol.GetPriorityFeeEstimateResponse, error) {
		req, options, err := buildRequest(request, limits, feetracker.AlgorithmA)
		if err != nil {
			return protocol.GetPriorityFeeEstimateResponse{}, err
		}

		levels := sanitizeLevels(tracker.Estimate(req))
		if options.IncludeAllPriorityFeeLevels {
			return protocol.GetPriorityFeeEstimateResponse{PriorityFeeLevels: &levels}, nil
		}

		level := protocol.ParsePriorityLevel(options.PriorityLevel)
		fee := levelValue(levels, level)
		if options.Recommended {
			fee = math.Max(levels.Medium, float64(limits.RecommendedFeeFloor))
		}
		logger.WithFields(logrus.Fields{
			"accounts": len(req.Accounts),
			"level":    options.PriorityLevel,
			"fee":      fee,
		}).Debug("computed priority fee estimate")
		return protocol.GetPriorityFeeEstimateResponse{PriorityFeeEstimate: &fee}, nil
	})
}

// NewGetPriorityFeeEstimateDetailedHandler returns the
// getPriorityFeeEstimateDetailed handler: per-account buckets with full
// distribution statistics.
func NewGetPriorityFeeEstimateDetailedHandler(logger *logrus.Entry, tracker *feetracker.Tracker, limits Limits) jrpc2.Handler {
	return handler.New(func(ctx context.Context, request protocol.GetPriorityFeeEstimateRequest) (protocol.GetPriorityFeeEstimateDetailedResponse, error) {
		req, _, err := buildRequest(request, limits, feetracker.AlgorithmB)
		if err != nil {
			return protocol.GetPriorityFeeEstimateDetailedResponse{}, err
		}

		estimate, buckets := tracker.EstimateDetailed(req)
		details := make(map[string]protocol.PriorityFeeDetail, len(buckets))
		for name, bucket := range buckets {
			details[name] = protocol.PriorityFeeDetail{
				Estimates: sanitizeLevels(bucket.Estimates),
				Mean:      sanitize(bucket.Mean),
				Stdev:     sanitize(bucket.Stdev),
				Skew:      sanitize(bucket.Skew),
				Count:     bucket.Count,
			}
		}
		logger.WithField("buckets", len(details)).Debug("computed detailed priority fee estimate")
		return protocol.GetPriorityFeeEstimateDetailedResponse{
			PriorityFeeLevels: sanitizeLevels(estimate),
			Details:           details,
		}, nil
	})
}

func buildRequest(request protocol.GetPriorityFeeEstimateRequest, limits Limits, algorithm feetracker.Algorithm) (feetracker.Request, protocol.GetPriorityFeeEstimateOptions, error) {
	var options protocol.GetPriorityFeeEstimateOptions
	if request.Options != nil {
		options = *request.Options
	}

	if uint(len(request.AccountKeys)) > limits.MaxAccounts {
		return feetracker.Request{}, options, jrpc2.Errorf(jrpc2.InvalidParams,
			"too many account keys: %d > %d", len(request.AccountKeys), limits.MaxAccounts)
	}
	accounts := make([]protocol.Account, 0, len(request.AccountKeys))
	for _, key := range request.AccountKeys {
		account, err := protocol.AccountFromBase58(key)
		if err != nil {
			return feetracker.Request{}, options, jrpc2.Errorf(jrpc2.InvalidParams, "%s", err.Error())
		}
		accounts = append(accounts, account)
	}

	if options.LookbackSlots != nil && uint(*options.LookbackSlots) > limits.MaxLookbackSlots {
		return feetracker.Request{}, options, jrpc2.Errorf(jrpc2.InvalidParams,
			"lookback of %d slots exceeds the maximum of %d", *options.LookbackSlots, limits.MaxLookbackSlots)
	}

	return feetracker.Request{
		Algorithm:         algorithm,
		Accounts:          accounts,
		IncludeVote:       options.IncludeVote,
		IncludeEmptySlots: options.IncludeEmptySlots || options.EvaluateEmptySlotAsZero,
		Lookback:          options.LookbackSlots,
	}, options, nil
}

func levelValue(levels protocol.MicroLamportPriorityFeeLevels, level protocol.PriorityLevel) float64 {
	switch level {
	case protocol.PriorityLevelMin:
		return levels.Min
	case protocol.PriorityLevelLow:
		return levels.Low
	case protocol.PriorityLevelHigh:
		return levels.High
	case protocol.PriorityLevelVeryHigh:
		return levels.VeryHigh
	case protocol.PriorityLevelUnsafeMax:
		return levels.UnsafeMax
	default:
		return levels.Medium
	}
}

// sanitize maps the core's NaN markers to zero at the JSON edge.
func sanitize(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func sanitizeLevels(estimate feetracker.LevelEstimate) protocol.MicroLamportPriorityFeeLevels {
	return protocol.MicroLamportPriorityFeeLevels{
		Min:       sanitize(estimate.Min),
		Low:       sanitize(estimate.Low),
		Medium:    sanitize(estimate.Medium),
		High:      sanitize(estimate.High),
		VeryHigh:  sanitize(estimate.VeryHigh),
		UnsafeMax: sanitize(estimate.UnsafeMax),
	}
}
