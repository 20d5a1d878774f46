package calibration

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_SkipsBelowMinResponses(t *testing.T) {
	report := Run([]ResponseTuple{{UserID: 1, ItemID: 1, Correct: true}}, DefaultTunables)
	assert.False(t, report.Sufficient)
	assert.NotEmpty(t, report.SkipReason)
}

// syntheticTuples generates a response matrix for nItems items and
// nExaminees examinees from a true 2PL model, so Run has something
// realistic to fit.
func syntheticTuples(nItems, nExaminees int, seed int64) []ResponseTuple {
	rng := rand.New(rand.NewSource(seed))
	trueA := make([]float64, nItems)
	trueB := make([]float64, nItems)
	for i := range trueA {
		trueA[i] = 0.8 + rng.Float64()*1.2
		trueB[i] = -2 + rng.Float64()*4
	}

	var tuples []ResponseTuple
	for u := 0; u < nExaminees; u++ {
		theta := rng.NormFloat64()
		for i := 0; i < nItems; i++ {
			p := prob2PL(theta, trueA[i], trueB[i])
			correct := rng.Float64() < p
			tuples = append(tuples, ResponseTuple{UserID: int64(u), ItemID: int64(i), Correct: correct})
		}
	}
	return tuples
}

func TestRun_FitsAndValidatesWithEnoughData(t *testing.T) {
	tunables := DefaultTunables
	tunables.MinExamineesForBootstrap = 10000 // skip bootstrap, keep the test fast
	tunables.BootstrapIterations = 1

	tuples := syntheticTuples(10, 60, 7)
	report := Run(tuples, tunables)

	require.True(t, report.Sufficient, report.SkipReason)
	assert.Equal(t, 10, report.ItemCount)
	assert.Equal(t, 60, report.ExamineeCount)
	assert.Len(t, report.Fitted, 10)
	for _, f := range report.Fitted {
		assert.Greater(t, f.A, 0.0)
		assert.Equal(t, f.B, f.PeakInformation)
	}
	assert.True(t, report.Validation.Sufficient)
}

func TestRun_SkipsSparseMatrix(t *testing.T) {
	tunables := DefaultTunables
	tunables.MinResponsesForCalibration = 1
	tunables.MaxSparsityThreshold = 0.1

	// Only one (item, examinee) pair answered out of a much larger
	// implied grid, so sparsity stays near 1.0.
	var tuples []ResponseTuple
	for i := int64(0); i < 20; i++ {
		tuples = append(tuples, ResponseTuple{UserID: i, ItemID: i, Correct: true})
	}
	report := Run(tuples, tunables)
	assert.False(t, report.Sufficient)
	assert.Equal(t, "response matrix too sparse", report.SkipReason)
}
