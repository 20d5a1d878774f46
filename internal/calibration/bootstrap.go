package calibration

import (
	"math"
	"math/rand"
)

// ItemSE holds bootstrap standard errors for one item's parameters.
type ItemSE struct {
	SEA, SEB float64
}

// BootstrapSE estimates (SE_a, SE_b) per item via non-parametric
// bootstrap resampling of examinees, per spec §4.I: refit the model on
// each resample and take the sample standard deviation of the resulting
// parameter estimates. Skips estimation (returning zeros) when the
// examinee count is below MinExamineesForBootstrap, per spec.
func BootstrapSE(m Matrix, priors map[int64]ClassicalStats, fitIterations int, t Tunables) map[int64]ItemSE {
	result := make(map[int64]ItemSE, len(m.ItemIDs))
	if len(m.ExamineeIDs) < t.MinExamineesForBootstrap {
		for _, id := range m.ItemIDs {
			result[id] = ItemSE{}
		}
		return result
	}

	rng := rand.New(rand.NewSource(int64(t.BootstrapSeed)))
	n := len(m.ExamineeIDs)

	samplesA := make(map[int64][]float64, len(m.ItemIDs))
	samplesB := make(map[int64][]float64, len(m.ItemIDs))

	for iter := 0; iter < t.BootstrapIterations; iter++ {
		resample := make([]int64, n)
		for i := range resample {
			resample[i] = m.ExamineeIDs[rng.Intn(n)]
		}
		sub := resampleMatrix(m, resample)
		fit := FitMML2PL(sub, priors, fitIterations)
		for id, p := range fit.Params {
			samplesA[id] = append(samplesA[id], p.A)
			samplesB[id] = append(samplesB[id], p.B)
		}
	}

	for _, id := range m.ItemIDs {
		result[id] = ItemSE{SEA: stddev(samplesA[id]), SEB: stddev(samplesB[id])}
	}
	return result
}

// resampleMatrix rebuilds Cells restricted to (and duplicated across) the
// given resample of examinee ids, preserving duplicate draws by
// synthesizing distinct pseudo-ids so repeated examinees contribute
// independent observations to the resampled matrix, matching standard
// bootstrap-over-examinees semantics.
func resampleMatrix(m Matrix, resample []int64) Matrix {
	out := Matrix{Cells: make(map[int64]map[int64]bool)}
	examineeSeen := make(map[int64]bool)
	for i, uid := range resample {
		pseudoID := int64(i) // unique per draw
		examineeSeen[pseudoID] = true
		for _, itemID := range m.ItemIDs {
			correct, ok := m.Cells[itemID][uid]
			if !ok {
				continue
			}
			if out.Cells[itemID] == nil {
				out.Cells[itemID] = make(map[int64]bool)
				out.ItemIDs = append(out.ItemIDs, itemID)
			}
			out.Cells[itemID][pseudoID] = correct
		}
	}
	for uid := range examineeSeen {
		out.ExamineeIDs = append(out.ExamineeIDs, uid)
	}
	return out
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var sumSq float64
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)-1))
}
