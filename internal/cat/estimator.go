package cat

import "math"

// The quadrature constants control the theta grid used by the EAP estimator:
// 61 points uniformly spaced on [-4, +4], matching spec §4.H.
const (
	quadratureMin    = -4.0
	quadratureMax    = 4.0
	quadratureCount  = 61
	quadratureStep   = (quadratureMax - quadratureMin) / (quadratureCount - 1)
	priorMean        = 0.0
	priorSD          = 1.0
)

// quadratureGrid returns the fixed 61-point theta grid.
func quadratureGrid() [quadratureCount]float64 {
	var grid [quadratureCount]float64
	for i := range grid {
		grid[i] = quadratureMin + float64(i)*quadratureStep
	}
	return grid
}

// standardNormalLogPDF is the log density of N(priorMean, priorSD) at x.
func standardNormalLogPDF(x float64) float64 {
	z := (x - priorMean) / priorSD
	return -0.5*z*z - math.Log(priorSD*math.Sqrt(2*math.Pi))
}

// EAPEstimate is the posterior mean and SD of ability given responses.
type EAPEstimate struct {
	Theta float64
	SE    float64
}

// EstimateEAP computes the Expected-a-Posteriori ability estimate over the
// fixed quadrature grid with a standard normal prior, per spec §4.H.
//
// With zero responses it returns the prior mean and SD unchanged. Log
// accumulation with subtract-max normalization keeps the algorithm stable
// even with tens of extreme responses (a long run of items far from the
// examinee's ability).
func EstimateEAP(responses []Response) EAPEstimate {
	if len(responses) == 0 {
		return EAPEstimate{Theta: priorMean, SE: priorSD}
	}

	grid := quadratureGrid()
	logWeights := make([]float64, len(grid))

	maxLog := math.Inf(-1)
	for k, theta := range grid {
		lw := standardNormalLogPDF(theta)
		for _, r := range responses {
			p := Prob2PL(theta, r.A, r.B)
			// Clamp away from exact 0/1 to avoid -Inf in Log for items
			// whose parameters put p at the float64 boundary.
			p = math.Min(math.Max(p, 1e-12), 1-1e-12)
			if r.Correct {
				lw += math.Log(p)
			} else {
				lw += math.Log(1 - p)
			}
		}
		logWeights[k] = lw
		if lw > maxLog {
			maxLog = lw
		}
	}

	sum := 0.0
	weights := make([]float64, len(grid))
	for k, lw := range logWeights {
		w := math.Exp(lw - maxLog)
		weights[k] = w
		sum += w
	}
	for k := range weights {
		weights[k] /= sum
	}

	theta := 0.0
	for k, thetaK := range grid {
		theta += thetaK * weights[k]
	}

	variance := 0.0
	for k, thetaK := range grid {
		d := thetaK - theta
		variance += d * d * weights[k]
	}

	return EAPEstimate{Theta: theta, SE: math.Sqrt(variance)}
}
