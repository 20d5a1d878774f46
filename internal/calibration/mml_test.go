package calibration

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitWeightedLogistic_RecoversKnownSlope(t *testing.T) {
	x := []float64{-2, -1, 0, 1, 2}
	n := []float64{100, 100, 100, 100, 100}
	r := make([]float64, len(x))
	for i, xi := range x {
		p := 1.0 / (1.0 + math.Exp(-1.5*xi))
		r[i] = n[i] * p
	}
	slope, intercept := fitWeightedLogistic(x, n, r, 1.0, 0.0)
	assert.InDelta(t, 1.5, slope, 0.05)
	assert.InDelta(t, 0.0, intercept, 0.05)
}

func TestFitMML2PL_NegativeDiscriminationIsFlippedPositive(t *testing.T) {
	m := Matrix{
		Cells: map[int64]map[int64]bool{
			1: {1: true, 2: false, 3: true, 4: false},
		},
		ItemIDs:     []int64{1},
		ExamineeIDs: []int64{1, 2, 3, 4},
	}
	result := FitMML2PL(m, nil, 5)
	assert.Greater(t, result.Params[1].A, 0.0)
}

// Parameter recovery: fitting a bank of synthetic 2PL items against
// synthetic examinee responses generated from known parameters should
// recover discriminations and difficulties that correlate strongly with
// the generating values.
func TestFitMML2PL_RecoversSyntheticParameters(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	const nItems = 30
	const nExaminees = 300

	trueA := make([]float64, nItems)
	trueB := make([]float64, nItems)
	for i := range trueA {
		trueA[i] = 0.6 + rng.Float64()*1.4
		trueB[i] = -2.0 + rng.Float64()*4.0
	}

	thetas := make([]float64, nExaminees)
	for i := range thetas {
		thetas[i] = rng.NormFloat64()
	}

	cells := make(map[int64]map[int64]bool, nItems)
	var itemIDs []int64
	var examineeIDs []int64
	for i := 0; i < nItems; i++ {
		itemID := int64(i + 1)
		itemIDs = append(itemIDs, itemID)
		row := make(map[int64]bool, nExaminees)
		for u := 0; u < nExaminees; u++ {
			p := prob2PL(thetas[u], trueA[i], trueB[i])
			row[int64(u+1)] = rng.Float64() < p
		}
		cells[itemID] = row
	}
	for u := 0; u < nExaminees; u++ {
		examineeIDs = append(examineeIDs, int64(u+1))
	}

	m := Matrix{Cells: cells, ItemIDs: itemIDs, ExamineeIDs: examineeIDs}
	result := FitMML2PL(m, nil, 20)

	fittedA := make([]float64, nItems)
	fittedB := make([]float64, nItems)
	for i := 0; i < nItems; i++ {
		p, ok := result.Params[int64(i+1)]
		require.True(t, ok)
		fittedA[i] = p.A
		fittedB[i] = p.B
	}

	rA := correlate(trueA, fittedA)
	rB := correlate(trueB, fittedB)

	assert.Greater(t, rB, 0.90, "b recovery correlation too low: %f", rB)
	assert.Greater(t, rA, 0.70, "a recovery correlation too low: %f", rA)
}

func correlate(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
		sumYY += ys[i] * ys[i]
	}
	return pearsonR(n, sumX, sumY, sumXY, sumXX, sumYY)
}
