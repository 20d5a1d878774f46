package cat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProb2PL_MidpointIsHalf(t *testing.T) {
	// P_i(theta) at theta == b is always 0.5 regardless of discrimination.
	assert.InDelta(t, 0.5, Prob2PL(1.0, 1.7, 1.0), 1e-9)
	assert.InDelta(t, 0.5, Prob2PL(-2.0, 0.3, -2.0), 1e-9)
}

func TestProb2PL_MonotonicInTheta(t *testing.T) {
	low := Prob2PL(-1, 1.5, 0)
	high := Prob2PL(1, 1.5, 0)
	assert.Less(t, low, high)
}

func TestInformation2PL_PeaksAtB(t *testing.T) {
	a, b := 1.8, 0.5
	atB := Information2PL(b, a, b)
	nearby := Information2PL(b+1.0, a, b)
	assert.Greater(t, atB, nearby)
}
