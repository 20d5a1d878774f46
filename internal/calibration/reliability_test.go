package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCronbachAlpha_TooFewItemsIsZero(t *testing.T) {
	rows := []ExamineeResponses{{1: true}, {1: false}}
	assert.Equal(t, 0.0, CronbachAlpha(rows))
}

func TestCronbachAlpha_ConsistentRespondersYieldsHighAlpha(t *testing.T) {
	rows := []ExamineeResponses{
		{1: true, 2: true, 3: true, 4: false},
		{1: true, 2: true, 3: true, 4: false},
		{1: false, 2: false, 3: false, 4: true},
		{1: false, 2: false, 3: false, 4: true},
		{1: true, 2: true, 3: false, 4: false},
		{1: false, 2: false, 3: true, 4: true},
	}
	alpha := CronbachAlpha(rows)
	assert.Greater(t, alpha, 0.0)
	assert.LessOrEqual(t, alpha, 1.0)
}

func TestTestRetestReliability_IdenticalSeriesIsOne(t *testing.T) {
	first := []float64{-1.2, 0.3, 1.5, 0.8, -0.4}
	assert.InDelta(t, 1.0, TestRetestReliability(first, first), 1e-9)
}

func TestTestRetestReliability_MismatchedLengthIsZero(t *testing.T) {
	assert.Equal(t, 0.0, TestRetestReliability([]float64{1, 2}, []float64{1}))
}

func TestSplitHalfReliability_TooFewItemsIsZero(t *testing.T) {
	rows := []ExamineeResponses{{1: true}, {1: false}}
	assert.Equal(t, 0.0, SplitHalfReliability(rows))
}

func TestSplitHalfReliability_BoundedByOne(t *testing.T) {
	rows := []ExamineeResponses{
		{1: true, 2: true, 3: false, 4: false},
		{1: true, 2: false, 3: true, 4: false},
		{1: false, 2: true, 3: false, 4: true},
		{1: false, 2: false, 3: true, 4: true},
	}
	r := SplitHalfReliability(rows)
	assert.LessOrEqual(t, r, 1.0)
	assert.GreaterOrEqual(t, r, -1.0)
}
