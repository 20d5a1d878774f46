package calibration

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBootstrapSE_SkipsBelowMinExaminees(t *testing.T) {
	m := Matrix{
		Cells: map[int64]map[int64]bool{
			1: {1: true, 2: false},
		},
		ItemIDs:     []int64{1},
		ExamineeIDs: []int64{1, 2},
	}
	tunables := DefaultTunables
	tunables.MinExamineesForBootstrap = 30
	result := BootstrapSE(m, nil, 5, tunables)
	assert.Equal(t, ItemSE{}, result[1])
}

// Invariant 10: bootstrap SEs are non-negative and finite.
func TestBootstrapSE_NonNegativeAndFinite(t *testing.T) {
	cells := map[int64]map[int64]bool{1: {}}
	var examinees []int64
	for u := int64(1); u <= 40; u++ {
		examinees = append(examinees, u)
		cells[1][u] = u%2 == 0
	}
	m := Matrix{Cells: cells, ItemIDs: []int64{1}, ExamineeIDs: examinees}

	tunables := DefaultTunables
	tunables.MinExamineesForBootstrap = 30
	tunables.BootstrapIterations = 20

	result := BootstrapSE(m, nil, 5, tunables)
	se := result[1]
	assert.GreaterOrEqual(t, se.SEA, 0.0)
	assert.GreaterOrEqual(t, se.SEB, 0.0)
	assert.False(t, math.IsInf(se.SEA, 0))
	assert.False(t, math.IsInf(se.SEB, 0))
	assert.False(t, math.IsNaN(se.SEA))
	assert.False(t, math.IsNaN(se.SEB))
}

func TestBootstrapSE_Deterministic(t *testing.T) {
	cells := map[int64]map[int64]bool{1: {}}
	var examinees []int64
	for u := int64(1); u <= 35; u++ {
		examinees = append(examinees, u)
		cells[1][u] = u%3 != 0
	}
	m := Matrix{Cells: cells, ItemIDs: []int64{1}, ExamineeIDs: examinees}

	tunables := DefaultTunables
	tunables.MinExamineesForBootstrap = 30
	tunables.BootstrapIterations = 15

	a := BootstrapSE(m, nil, 5, tunables)
	b := BootstrapSE(m, nil, 5, tunables)
	assert.Equal(t, a, b)
}

func TestStddev_SingleValueIsZero(t *testing.T) {
	assert.Equal(t, 0.0, stddev([]float64{1.0}))
	assert.Equal(t, 0.0, stddev(nil))
}
