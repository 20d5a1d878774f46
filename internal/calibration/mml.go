package calibration

import (
	"math"
	"sort"
)

// quadrature mirrors the 61-point grid on [-4,4] used by the CAT engine's
// EAP estimator (internal/cat), kept local rather than imported so the
// calibration pipeline has no dependency on the hot-path package.
const (
	quadMin   = -4.0
	quadMax   = 4.0
	quadCount = 61
	quadStep  = (quadMax - quadMin) / (quadCount - 1)
)

func quadGrid() [quadCount]float64 {
	var g [quadCount]float64
	for i := range g {
		g[i] = quadMin + float64(i)*quadStep
	}
	return g
}

func stdNormalLogPDF(x float64) float64 {
	return -0.5*x*x - math.Log(math.Sqrt(2*math.Pi))
}

func prob2PL(theta, a, b float64) float64 {
	return 1.0 / (1.0 + math.Exp(-a*(theta-b)))
}

// ItemParams is a fitted (or seeded) 2PL item parameter pair.
type ItemParams struct {
	A, B float64
}

// PeakInformation is the 2PL item information function's maximum, which
// occurs at theta=b where p=0.5: a^2 * 0.5 * (1-0.5) = a^2/4.
func PeakInformation(a float64) float64 {
	return a * a / 4.0
}

// FitResult is the outcome of running MML over a response matrix.
type FitResult struct {
	Params map[int64]ItemParams
}

// priorsOrDefault seeds an item's starting (a,b) from classical stats
// when available, else a weakly-informative default.
func priorsOrDefault(priors map[int64]ClassicalStats, itemID int64) ItemParams {
	if s, ok := priors[itemID]; ok {
		a, b := PriorFromClassical(s)
		return ItemParams{A: a, B: b}
	}
	return ItemParams{A: 1.0, B: 0.0}
}

// FitMML2PL estimates 2PL item parameters from a response matrix using a
// Bock-Aitkin marginal maximum likelihood EM algorithm: the E-step
// computes each examinee's posterior ability distribution over a fixed
// quadrature grid from their current-iteration item parameters, and the
// M-step refits every item's (a,b) against the grid-aggregated expected
// counts via iteratively reweighted least squares (equivalent to a
// single-predictor logistic regression in (theta - b)).
//
// priors seeds the starting values; items absent from priors start at
// (a=1, b=0). iterations bounds the EM loop (30 is generally ample for
// this scale of item bank).
func FitMML2PL(m Matrix, priors map[int64]ClassicalStats, iterations int) FitResult {
	grid := quadGrid()
	params := make(map[int64]ItemParams, len(m.ItemIDs))
	for _, id := range m.ItemIDs {
		params[id] = priorsOrDefault(priors, id)
	}

	// Sum over examinees in a fixed order so repeated fits of the same
	// matrix give bit-identical results.
	examinees := append([]int64(nil), m.ExamineeIDs...)
	sort.Slice(examinees, func(i, j int) bool { return examinees[i] < examinees[j] })

	for iter := 0; iter < iterations; iter++ {
		// E-step: posterior weight per examinee over the grid.
		posterior := make(map[int64][quadCount]float64, len(m.ExamineeIDs))
		for _, uid := range m.ExamineeIDs {
			var logW [quadCount]float64
			maxLog := math.Inf(-1)
			for k, theta := range grid {
				lw := stdNormalLogPDF(theta)
				for _, id := range m.ItemIDs {
					row := m.Cells[id]
					correct, answered := row[uid]
					if !answered {
						continue
					}
					p := prob2PL(theta, params[id].A, params[id].B)
					p = math.Min(math.Max(p, 1e-9), 1-1e-9)
					if correct {
						lw += math.Log(p)
					} else {
						lw += math.Log(1 - p)
					}
				}
				logW[k] = lw
				if lw > maxLog {
					maxLog = lw
				}
			}
			var sum float64
			var w [quadCount]float64
			for k, lw := range logW {
				w[k] = math.Exp(lw - maxLog)
				sum += w[k]
			}
			for k := range w {
				w[k] /= sum
			}
			posterior[uid] = w
		}

		// M-step: refit every item against grid-aggregated expected counts.
		for _, id := range m.ItemIDs {
			row := m.Cells[id]
			var nk, rk [quadCount]float64
			for _, uid := range examinees {
				correct, answered := row[uid]
				if !answered {
					continue
				}
				w := posterior[uid]
				for k := range grid {
					nk[k] += w[k]
					if correct {
						rk[k] += w[k]
					}
				}
			}
			slope, intercept := fitWeightedLogistic(grid[:], nk[:], rk[:], params[id].A, -params[id].A*params[id].B)
			a, b := slope, 0.0
			if slope != 0 {
				b = -intercept / slope
			}
			if a <= 0 {
				// Spec §9 resolution: never persist a non-positive
				// discrimination. Flip to the model-equivalent positive
				// form rather than discarding the item's fitted location.
				a = -a
				b = -b
			}
			params[id] = ItemParams{A: a, B: b}
		}
	}

	return FitResult{Params: params}
}

// fitWeightedLogistic fits logit(p_k) = intercept + slope*x_k against
// aggregate counts (n_k trials, r_k successes per point) via IRLS,
// starting from (slope0, intercept0).
func fitWeightedLogistic(x, n, r []float64, slope0, intercept0 float64) (slope, intercept float64) {
	slope, intercept = slope0, intercept0
	if slope == 0 {
		slope = 1.0
	}

	for iter := 0; iter < 25; iter++ {
		var sw, swx, swz, swxx, swxz float64
		for k := range x {
			if n[k] <= 0 {
				continue
			}
			eta := intercept + slope*x[k]
			p := 1.0 / (1.0 + math.Exp(-eta))
			p = math.Min(math.Max(p, 1e-6), 1-1e-6)
			w := n[k] * p * (1 - p)
			if w < 1e-9 {
				continue
			}
			z := eta + (r[k]-n[k]*p)/w
			sw += w
			swx += w * x[k]
			swz += w * z
			swxx += w * x[k] * x[k]
			swxz += w * x[k] * z
		}
		denom := sw*swxx - swx*swx
		if sw <= 0 || math.Abs(denom) < 1e-12 {
			break
		}
		newSlope := (sw*swxz - swx*swz) / denom
		newIntercept := (swxx*swz - swx*swxz) / denom
		if math.Abs(newSlope-slope) < 1e-8 && math.Abs(newIntercept-intercept) < 1e-8 {
			slope, intercept = newSlope, newIntercept
			break
		}
		slope, intercept = newSlope, newIntercept
	}
	return slope, intercept
}
