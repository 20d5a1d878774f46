package calibration

// ExamineeResponses is one examinee's 0/1 item scores, keyed by item id,
// for a single test administration.
type ExamineeResponses map[int64]bool

// CronbachAlpha computes coefficient alpha over a set of examinees' item
// scores: alpha = k/(k-1) * (1 - sum(item variances)/total-score variance).
// Returns 0 when fewer than two items or two examinees are present.
func CronbachAlpha(rows []ExamineeResponses) float64 {
	itemIDs := uniqueItems(rows)
	k := len(itemIDs)
	if k < 2 || len(rows) < 2 {
		return 0
	}

	itemVar := 0.0
	for _, id := range itemIDs {
		vals := make([]float64, 0, len(rows))
		for _, r := range rows {
			if v, ok := r[id]; ok {
				vals = append(vals, boolToF(v))
			}
		}
		itemVar += variance(vals)
	}

	totals := make([]float64, 0, len(rows))
	for _, r := range rows {
		sum := 0.0
		for _, v := range r {
			sum += boolToF(v)
		}
		totals = append(totals, sum)
	}
	totalVar := variance(totals)
	if totalVar == 0 {
		return 0
	}

	kf := float64(k)
	return (kf / (kf - 1)) * (1 - itemVar/totalVar)
}

// TestRetestReliability is the Pearson correlation between two theta
// estimates per examinee taken on separate occasions.
func TestRetestReliability(first, second []float64) float64 {
	if len(first) != len(second) || len(first) < 2 {
		return 0
	}
	n := float64(len(first))
	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i := range first {
		x, y := first[i], second[i]
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
		sumYY += y * y
	}
	return pearsonR(n, sumX, sumY, sumXY, sumXX, sumYY)
}

// SplitHalfReliability splits each examinee's responses into odd/even
// item halves, correlates the two half-scores across examinees, and
// applies the Spearman-Brown correction to project to full-test length.
func SplitHalfReliability(rows []ExamineeResponses) float64 {
	itemIDs := uniqueItems(rows)
	if len(itemIDs) < 2 || len(rows) < 2 {
		return 0
	}

	odd := make([]float64, 0, len(rows))
	even := make([]float64, 0, len(rows))
	for _, r := range rows {
		var oddSum, evenSum float64
		for i, id := range itemIDs {
			v, ok := r[id]
			if !ok {
				continue
			}
			if i%2 == 0 {
				evenSum += boolToF(v)
			} else {
				oddSum += boolToF(v)
			}
		}
		odd = append(odd, oddSum)
		even = append(even, evenSum)
	}

	half := TestRetestReliability(odd, even)
	return spearmanBrown(half)
}

// spearmanBrown projects a half-test correlation to full-test reliability.
func spearmanBrown(rHalf float64) float64 {
	denom := 1 + rHalf
	if denom == 0 {
		return 0
	}
	return (2 * rHalf) / denom
}

func uniqueItems(rows []ExamineeResponses) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, r := range rows {
		for id := range r {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func variance(xs []float64) float64 {
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
	return sumSq / float64(len(xs)-1)
}

func boolToF(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
