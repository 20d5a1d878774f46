package cat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateEAP_NoResponses_ReturnsPrior(t *testing.T) {
	est := EstimateEAP(nil)
	assert.Equal(t, 0.0, est.Theta)
	assert.Equal(t, 1.0, est.SE)
}

func TestEstimateEAP_AllCorrect_PushesThetaPositive(t *testing.T) {
	responses := []Response{
		{A: 1.5, B: -1.0, Correct: true},
		{A: 1.5, B: 0.0, Correct: true},
		{A: 1.5, B: 1.0, Correct: true},
	}
	est := EstimateEAP(responses)
	assert.Greater(t, est.Theta, 0.0)
	assert.Less(t, est.SE, 1.0)
}

func TestEstimateEAP_AllIncorrect_PushesThetaNegative(t *testing.T) {
	responses := []Response{
		{A: 1.5, B: -1.0, Correct: false},
		{A: 1.5, B: 0.0, Correct: false},
		{A: 1.5, B: 1.0, Correct: false},
	}
	est := EstimateEAP(responses)
	assert.Less(t, est.Theta, 0.0)
}

// Determinism (spec invariant 5): the same sequence of (item, correct)
// pairs must reproduce the same theta within numerical tolerance.
func TestEstimateEAP_Deterministic(t *testing.T) {
	responses := []Response{
		{A: 1.2, B: -0.5, Correct: true},
		{A: 0.9, B: 0.3, Correct: false},
		{A: 1.8, B: 1.2, Correct: true},
	}
	a := EstimateEAP(responses)
	b := EstimateEAP(responses)
	assert.Equal(t, a.Theta, b.Theta)
	assert.Equal(t, a.SE, b.SE)
}

func TestEstimateEAP_SEDecreasesWithMoreResponses(t *testing.T) {
	few := []Response{{A: 1.5, B: 0, Correct: true}}
	many := []Response{
		{A: 1.5, B: -1, Correct: true},
		{A: 1.5, B: -0.5, Correct: true},
		{A: 1.5, B: 0, Correct: true},
		{A: 1.5, B: 0.5, Correct: true},
		{A: 1.5, B: 1, Correct: true},
		{A: 1.5, B: 1.5, Correct: false},
	}
	assert.Greater(t, EstimateEAP(few).SE, EstimateEAP(many).SE)
}
