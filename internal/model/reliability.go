package model

import "time"

// MetricKind names a reliability statistic.
type MetricKind string

const (
	MetricCronbachAlpha MetricKind = "cronbachs_alpha"
	MetricTestRetest    MetricKind = "test_retest"
	MetricSplitHalf     MetricKind = "split_half"
)

// ReliabilityMetric is a historized scalar reliability measurement.
type ReliabilityMetric struct {
	ID           int64
	Kind         MetricKind
	Value        float64
	SampleSize   int
	Details      map[string]any
	CalculatedAt time.Time
}

// FitCategory categorizes calibration validation quality.
type FitCategory string

const (
	FitGood     FitCategory = "good"
	FitModerate FitCategory = "moderate"
	FitPoor     FitCategory = "poor"
)

// CalibrationValidation is the result of validating a calibration run
// against classical item statistics.
type CalibrationValidation struct {
	PearsonR   float64
	RMSE       float64
	Category   FitCategory
	ItemsUsed  int
	Sufficient bool // had >= MIN_ITEMS_FOR_VALIDATION items with both values
}
