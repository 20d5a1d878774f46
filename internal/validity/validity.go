// Package validity implements the person-fit (aberrance) heuristic of
// spec §4.J: a lightweight annotation computed from a completed session's
// per-tier accuracy, with no dependency on IRT residuals or the store
// layer, so it stays unit-testable in isolation like internal/cat.
package validity

import (
	"math"

	"github.com/gioe/aiq-assessment/internal/model"
)

// PercentileBucket is the examinee's own-test performance bucket.
type PercentileBucket string

const (
	BucketLow    PercentileBucket = "low"
	BucketMedium PercentileBucket = "medium"
	BucketHigh   PercentileBucket = "high"
)

// deviationThreshold is the minimum |observed - expected| rate before a
// tier contributes to the aberrance count.
const deviationThreshold = 0.30

// aberrantRatio is the fit_ratio at or above which a session is flagged.
const aberrantRatio = 0.25

// expectedRates is the fixed (percentile, tier) table from spec §4.J.
var expectedRates = map[PercentileBucket]map[model.DifficultyTier]float64{
	BucketLow: {
		model.TierEasy:   0.60,
		model.TierMedium: 0.30,
		model.TierHard:   0.15,
	},
	BucketMedium: {
		model.TierEasy:   0.80,
		model.TierMedium: 0.50,
		model.TierHard:   0.30,
	},
	BucketHigh: {
		model.TierEasy:   0.95,
		model.TierMedium: 0.80,
		model.TierHard:   0.60,
	},
}

// TierOutcome is one difficulty tier's served/correct tally within a
// single session.
type TierOutcome struct {
	Tier    model.DifficultyTier
	Served  int
	Correct int
}

func (o TierOutcome) rate() float64 {
	if o.Served == 0 {
		return 0
	}
	return float64(o.Correct) / float64(o.Served)
}

// Report is the person-fit annotation for one completed session.
type Report struct {
	Bucket              PercentileBucket
	UnexpectedCorrect   int
	UnexpectedIncorrect int
	FitRatio            float64
	Aberrant            bool
}

// Bucket classifies an examinee's own-test performance, per spec §4.J
// step 1: high above 70% correct, medium from 40% to 70% inclusive, low
// below 40%.
func Bucket(totalCorrect, totalItems int) PercentileBucket {
	if totalItems == 0 {
		return BucketMedium
	}
	rate := float64(totalCorrect) / float64(totalItems)
	switch {
	case rate > 0.70:
		return BucketHigh
	case rate >= 0.40:
		return BucketMedium
	default:
		return BucketLow
	}
}

// Analyze computes the person-fit report for a completed session's
// per-tier outcomes, per spec §4.J steps 2-5.
//
// unexpected_correct only accrues on the hardest tier for low/medium
// examinees, and only when the examinee did unexpectedly BETTER than the
// expected rate (a signal of possible foreknowledge); unexpected_incorrect
// is the mirror image on the easiest tier for high/medium examinees, where
// doing unexpectedly WORSE than expected is the aberrant signal. Both
// require the deviation's magnitude to exceed deviationThreshold.
func Analyze(bucket PercentileBucket, outcomes []TierOutcome) Report {
	totalResponses := 0
	for _, o := range outcomes {
		totalResponses += o.Served
	}

	var unexpectedCorrect, unexpectedIncorrect int
	for _, o := range outcomes {
		expected, ok := expectedRates[bucket][o.Tier]
		if !ok {
			continue
		}
		deviation := o.rate() - expected

		if o.Tier == model.TierHard && (bucket == BucketLow || bucket == BucketMedium) {
			if deviation > deviationThreshold {
				unexpectedCorrect += int(math.Floor(deviation * float64(o.Served)))
			}
		}
		if o.Tier == model.TierEasy && (bucket == BucketHigh || bucket == BucketMedium) {
			if -deviation > deviationThreshold {
				unexpectedIncorrect += int(math.Floor(-deviation * float64(o.Served)))
			}
		}
	}

	var fitRatio float64
	if totalResponses > 0 {
		fitRatio = float64(unexpectedCorrect+unexpectedIncorrect) / float64(totalResponses)
	}

	return Report{
		Bucket:              bucket,
		UnexpectedCorrect:   unexpectedCorrect,
		UnexpectedIncorrect: unexpectedIncorrect,
		FitRatio:            fitRatio,
		Aberrant:            fitRatio >= aberrantRatio,
	}
}
