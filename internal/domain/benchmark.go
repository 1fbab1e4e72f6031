package domain

import (
	"math"
	"time"
)

// MarketBenchmark is an externally maintained market rate observation for
// one (category, seniority, region) combination.
type MarketBenchmark struct {
	CategoryID       int64     `json:"category_id"`
	SeniorityLevel   Seniority `json:"seniority_level"`
	MedianHourlyRate float64   `json:"median_hourly_rate"`
	Percentile75Rate float64   `json:"percentile_75_rate"`
	SampleSize       int       `json:"sample_size"`
	Region           string    `json:"region"`
	LastUpdated      time.Time `json:"last_updated"`
}

// Validate checks the benchmark invariants: non-negative rates,
// p75 >= median, non-negative sample size.
func (b *MarketBenchmark) Validate() error {
	if b.MedianHourlyRate < 0 {
		return &ErrValidation{Field: "median_hourly_rate", Message: "must not be negative"}
	}
	if b.Percentile75Rate < b.MedianHourlyRate {
		return &ErrValidation{Field: "percentile_75_rate", Message: "must be at least the median rate"}
	}
	if b.SampleSize < 0 {
		return &ErrValidation{Field: "sample_size", Message: "must not be negative"}
	}
	return nil
}

// Confidence buckets benchmark reliability by sample size.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ConfidenceLevel derives the reliability bucket from the sample size.
func (b *MarketBenchmark) ConfidenceLevel() Confidence {
	switch {
	case b.SampleSize < 10:
		return ConfidenceLow
	case b.SampleSize < 30:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

// RatePosition situates a user's rate relative to the benchmark median.
type RatePosition string

const (
	PositionBelowMedian RatePosition = "below_median"
	PositionAtMedian    RatePosition = "at_median"
	PositionAboveMedian RatePosition = "above_median"
)

// rateTolerance is the dollar band treated as "at median".
const rateTolerance = 0.50

// CompareRate classifies a rate against the benchmark median with a
// +-$0.50 tolerance.
func (b *MarketBenchmark) CompareRate(rate float64) RatePosition {
	if math.Abs(rate-b.MedianHourlyRate) <= rateTolerance {
		return PositionAtMedian
	}
	if rate < b.MedianHourlyRate {
		return PositionBelowMedian
	}
	return PositionAboveMedian
}

// Category is a service category benchmarks are keyed by.
type Category struct {
	ID   int64  `json:"category_id"`
	Name string `json:"category_name"`
}
