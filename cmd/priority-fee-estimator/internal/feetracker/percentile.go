package feetracker

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// LevelEstimate is the folded priority-level estimate, in micro-lamports.
// Levels are independent percentile points; a level is NaN only when no
// bucket produced a sample for it.
type LevelEstimate struct {
	Min       float64
	Low       float64
	Medium    float64
	High      float64
	VeryHigh  float64
	UnsafeMax float64
}

func newLevelEstimate() LevelEstimate {
	nan := math.NaN()
	return LevelEstimate{Min: nan, Low: nan, Medium: nan, High: nan, VeryHigh: nan, UnsafeMax: nan}
}

// foldMax merges another bucket's levels into the estimate, level by level.
// A fresh value wins whenever the accumulator is NaN or the value is
// strictly greater, so bucket iteration order cannot affect the result and
// a NaN bucket never suppresses a real value.
func (e *LevelEstimate) foldMax(o LevelEstimate) {
	e.Min = maxOrReplaceNaN(e.Min, o.Min)
	e.Low = maxOrReplaceNaN(e.Low, o.Low)
	e.Medium = maxOrReplaceNaN(e.Medium, o.Medium)
	e.High = maxOrReplaceNaN(e.High, o.High)
	e.VeryHigh = maxOrReplaceNaN(e.VeryHigh, o.VeryHigh)
	e.UnsafeMax = maxOrReplaceNaN(e.UnsafeMax, o.UnsafeMax)
}

func maxOrReplaceNaN(acc, v float64) float64 {
	if math.IsNaN(acc) || v > acc {
		return v
	}
	return acc
}

// Percentile returns the level matching a percentile point p, or the medium
// level for unknown points.
func (e LevelEstimate) Percentile(p int) float64 {
	switch p {
	case 0:
		return e.Min
	case 25:
		return e.Low
	case 75:
		return e.High
	case 95:
		return e.VeryHigh
	case 100:
		return e.UnsafeMax
	default:
		return e.Medium
	}
}

// BucketDetail is the per-bucket statistics of the detailed query.
type BucketDetail struct {
	Estimates LevelEstimate
	Mean      float64
	Stdev     float64
	Skew      float64
	Count     int
}

// percentile computes the p-th percentile of sorted by linear interpolation
// between closest ranks (the type-7 quantile). Empty samples yield NaN.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p / 100
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// summarize sorts samples in place and computes the fixed level points.
func summarize(samples []float64) LevelEstimate {
	sort.Float64s(samples)
	return LevelEstimate{
		Min:       percentile(samples, 0),
		Low:       percentile(samples, 25),
		Medium:    percentile(samples, 50),
		High:      percentile(samples, 75),
		VeryHigh:  percentile(samples, 95),
		UnsafeMax: percentile(samples, 100),
	}
}

// describe sorts samples in place and computes the detailed statistics for
// one bucket. Mean and stdev fall back to NaN on insufficient data, as does
// skewness for fewer than three samples or zero variance.
func describe(samples []float64) BucketDetail {
	detail := BucketDetail{
		Estimates: summarize(samples),
		Mean:      math.NaN(),
		Stdev:     math.NaN(),
		Skew:      math.NaN(),
		Count:     len(samples),
	}
	data := stats.Float64Data(samples)
	if mean, err := stats.Mean(data); err == nil {
		detail.Mean = mean
	}
	if stdev, err := stats.StandardDeviationSample(data); err == nil && len(samples) > 1 {
		detail.Stdev = stdev
	}
	detail.Skew = skewness(samples, detail.Mean, detail.Stdev)
	return detail
}

// skewness is the bias-adjusted sample skewness (third standardized
// moment).
func skewness(samples []float64, mean, stdev float64) float64 {
	n := float64(len(samples))
	if len(samples) < 3 || stdev == 0 || math.IsNaN(stdev) || math.IsNaN(mean) {
		return math.NaN()
	}
	var m3 float64
	for _, v := range samples {
		d := (v - mean) / stdev
		m3 += d * d * d
	}
	return n / ((n - 1) * (n - 2)) * m3
}
