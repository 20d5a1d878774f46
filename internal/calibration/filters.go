package calibration

import "math"

// Matrix is a sparse items x examinees response matrix: Cells[itemID][userID] = correct.
type Matrix struct {
	Cells       map[int64]map[int64]bool
	ItemIDs     []int64
	ExamineeIDs []int64
}

// BuildMatrix groups response tuples by item, keeping only items whose
// total response count meets minResponses, per spec §4.I filter 1.
func BuildMatrix(tuples []ResponseTuple, minResponses int) Matrix {
	byItem := make(map[int64]map[int64]bool)
	counts := make(map[int64]int)
	for _, t := range tuples {
		counts[t.ItemID]++
	}
	examineeSet := make(map[int64]bool)
	for _, t := range tuples {
		if counts[t.ItemID] < minResponses {
			continue
		}
		if byItem[t.ItemID] == nil {
			byItem[t.ItemID] = make(map[int64]bool)
		}
		byItem[t.ItemID][t.UserID] = t.Correct
		examineeSet[t.UserID] = true
	}

	m := Matrix{Cells: byItem}
	for id := range byItem {
		m.ItemIDs = append(m.ItemIDs, id)
	}
	for id := range examineeSet {
		m.ExamineeIDs = append(m.ExamineeIDs, id)
	}
	return m
}

// Sparsity is the fraction of missing cells in the dense items x
// examinees grid implied by m.
func (m Matrix) Sparsity() float64 {
	total := len(m.ItemIDs) * len(m.ExamineeIDs)
	if total == 0 {
		return 1.0
	}
	present := 0
	for _, row := range m.Cells {
		present += len(row)
	}
	return 1.0 - float64(present)/float64(total)
}

// DropSparseItems removes items with fewer than minPerItem observed
// cells, per spec §4.I filter 5. Returns the retained matrix and how many
// items were dropped (for logging).
func (m Matrix) DropSparseItems(minPerItem int) (Matrix, int) {
	kept := Matrix{Cells: make(map[int64]map[int64]bool)}
	dropped := 0
	examineeSet := make(map[int64]bool)
	for _, id := range m.ItemIDs {
		row := m.Cells[id]
		if len(row) < minPerItem {
			dropped++
			continue
		}
		kept.Cells[id] = row
		kept.ItemIDs = append(kept.ItemIDs, id)
		for uid := range row {
			examineeSet[uid] = true
		}
	}
	for uid := range examineeSet {
		kept.ExamineeIDs = append(kept.ExamineeIDs, uid)
	}
	return kept, dropped
}

// ClassicalStats computes the p-value (fraction correct) and
// point-biserial correlation (item score vs. rest-of-test total) for
// every item in m, seeding the MML priors and later feeding Validate.
func (m Matrix) ClassicalStats() map[int64]ClassicalStats {
	total := make(map[int64]float64, len(m.ExamineeIDs))
	for _, row := range m.Cells {
		for uid, correct := range row {
			if correct {
				total[uid]++
			}
		}
	}

	out := make(map[int64]ClassicalStats, len(m.ItemIDs))
	for _, id := range m.ItemIDs {
		row := m.Cells[id]
		if len(row) == 0 {
			out[id] = ClassicalStats{}
			continue
		}
		var correctCount float64
		itemScores := make([]float64, 0, len(row))
		restScores := make([]float64, 0, len(row))
		for uid, correct := range row {
			v := boolToF(correct)
			itemScores = append(itemScores, v)
			restScores = append(restScores, total[uid]-v)
			if correct {
				correctCount++
			}
		}
		out[id] = ClassicalStats{
			PValue:        correctCount / float64(len(row)),
			PointBiserial: pointBiserial(itemScores, restScores),
		}
	}
	return out
}

// pointBiserial is an ordinary Pearson correlation between a dichotomous
// item score and a continuous rest-score; the point-biserial coefficient
// is mathematically identical to Pearson's r in this special case.
func pointBiserial(item, rest []float64) float64 {
	n := float64(len(item))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i := range item {
		x, y := item[i], rest[i]
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
		sumYY += y * y
	}
	num := n*sumXY - sumX*sumY
	den := math.Sqrt((n*sumXX - sumX*sumX) * (n*sumYY - sumY*sumY))
	if den == 0 {
		return 0
	}
	return num / den
}
