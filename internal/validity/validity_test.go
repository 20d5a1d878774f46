package validity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gioe/aiq-assessment/internal/model"
)

func TestBucket_Boundaries(t *testing.T) {
	assert.Equal(t, BucketHigh, Bucket(71, 100))
	assert.Equal(t, BucketMedium, Bucket(70, 100))
	assert.Equal(t, BucketMedium, Bucket(40, 100))
	assert.Equal(t, BucketLow, Bucket(39, 100))
	assert.Equal(t, BucketMedium, Bucket(0, 0))
}

func TestAnalyze_NormalProfileIsNotAberrant(t *testing.T) {
	outcomes := []TierOutcome{
		{Tier: model.TierEasy, Served: 5, Correct: 4},
		{Tier: model.TierMedium, Served: 5, Correct: 2},
		{Tier: model.TierHard, Served: 5, Correct: 1},
	}
	report := Analyze(BucketLow, outcomes)
	assert.Equal(t, 0, report.UnexpectedCorrect)
	assert.Equal(t, 0, report.UnexpectedIncorrect)
	assert.False(t, report.Aberrant)
}

// A low-ability examinee acing the hardest tier, far past the expected
// 0.15 rate, should accrue unexpected_correct and may flag as aberrant.
func TestAnalyze_LowAbilityAcingHardTierIsUnexpectedCorrect(t *testing.T) {
	outcomes := []TierOutcome{
		{Tier: model.TierEasy, Served: 3, Correct: 2},
		{Tier: model.TierMedium, Served: 3, Correct: 1},
		{Tier: model.TierHard, Served: 4, Correct: 4}, // rate 1.0 vs expected 0.15
	}
	report := Analyze(BucketLow, outcomes)
	assert.Greater(t, report.UnexpectedCorrect, 0)
	assert.Equal(t, 0, report.UnexpectedIncorrect)
}

// A high-ability examinee missing most easy items, far below the
// expected 0.95 rate, should accrue unexpected_incorrect.
func TestAnalyze_HighAbilityMissingEasyTierIsUnexpectedIncorrect(t *testing.T) {
	outcomes := []TierOutcome{
		{Tier: model.TierEasy, Served: 4, Correct: 0}, // rate 0 vs expected 0.95
		{Tier: model.TierMedium, Served: 3, Correct: 3},
		{Tier: model.TierHard, Served: 3, Correct: 2},
	}
	report := Analyze(BucketHigh, outcomes)
	assert.Greater(t, report.UnexpectedIncorrect, 0)
	assert.Equal(t, 0, report.UnexpectedCorrect)
}

func TestAnalyze_SmallDeviationDoesNotAccrue(t *testing.T) {
	outcomes := []TierOutcome{
		{Tier: model.TierHard, Served: 10, Correct: 3}, // rate 0.30 vs expected 0.15: deviation 0.15, below threshold
	}
	report := Analyze(BucketLow, outcomes)
	assert.Equal(t, 0, report.UnexpectedCorrect)
}

func TestAnalyze_FitRatioAboveThresholdIsAberrant(t *testing.T) {
	outcomes := []TierOutcome{
		{Tier: model.TierHard, Served: 4, Correct: 4}, // deviation 0.85 * 4 served = floor(3.4) = 3
	}
	report := Analyze(BucketLow, outcomes)
	assert.Equal(t, 3, report.UnexpectedCorrect)
	assert.InDelta(t, 0.75, report.FitRatio, 1e-9)
	assert.True(t, report.Aberrant)
}

func TestAnalyze_EmptySessionIsNormal(t *testing.T) {
	report := Analyze(BucketMedium, nil)
	assert.Equal(t, 0.0, report.FitRatio)
	assert.False(t, report.Aberrant)
}
