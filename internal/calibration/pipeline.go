package calibration

import "github.com/gioe/aiq-assessment/internal/model"

// FittedItem is one item's freshly estimated parameters, ready to hand
// to a store.CalibrationUpdate by the caller (this package never imports
// internal/store, so it stays testable with plain slices).
type FittedItem struct {
	ItemID          int64
	A, B            float64
	SEA, SEB        float64
	PeakInformation float64
	ResponseCount   int
}

// Report is the full outcome of one calibration run.
type Report struct {
	Sufficient    bool
	SkipReason    string
	Fitted        []FittedItem
	DroppedSparse int
	ItemCount     int
	ExamineeCount int
	Sparsity      float64
	Validation    model.CalibrationValidation
	CronbachAlpha float64
}

// Run executes one full calibration cycle: filter the response matrix,
// fit a 2PL model by MML, bootstrap standard errors, and validate the
// fit against classical statistics, per spec §4.I. tuples must already
// be restricted to completed fixed-form sessions (spec §4.B).
func Run(tuples []ResponseTuple, t Tunables) Report {
	if len(tuples) < t.MinResponsesForCalibration {
		return Report{SkipReason: "below MinResponsesForCalibration"}
	}

	// Filter 1 (spec §4.I): candidate items must have at least
	// MinResponsesForCalibration total responses before anything else is
	// computed on them — a coarser, earlier cut than filter 5 below.
	m := BuildMatrix(tuples, t.MinResponsesForCalibration)
	sparsity := m.Sparsity()
	if sparsity > t.MaxSparsityThreshold {
		return Report{SkipReason: "response matrix too sparse", Sparsity: sparsity}
	}

	// Filter 5: drop items whose *observed cell count after filter 1*
	// still falls below MinResponsesPerItem (a separate, smaller floor).
	m, dropped := m.DropSparseItems(t.MinResponsesPerItem)
	if len(m.ItemIDs) < t.MinItemsFor2PL {
		return Report{SkipReason: "fewer than MinItemsFor2PL survived filtering", DroppedSparse: dropped}
	}
	if len(m.ExamineeIDs) < t.MinExamineesForCalibration {
		return Report{SkipReason: "fewer than MinExamineesForCalibration", DroppedSparse: dropped}
	}

	classical := m.ClassicalStats()
	const emIterations = 30
	fit := FitMML2PL(m, classical, emIterations)
	ses := BootstrapSE(m, classical, emIterations, t)

	pairs := make([]ParamPair, 0, len(m.ItemIDs))
	fitted := make([]FittedItem, 0, len(m.ItemIDs))
	for _, id := range m.ItemIDs {
		p := fit.Params[id]
		se := ses[id]
		_, bPrior := PriorFromClassical(classical[id])
		pairs = append(pairs, ParamPair{ClassicalB: bPrior, FittedB: p.B})
		fitted = append(fitted, FittedItem{
			ItemID: id, A: p.A, B: p.B, SEA: se.SEA, SEB: se.SEB,
			PeakInformation: p.B, ResponseCount: len(m.Cells[id]),
		})
	}

	return Report{
		Sufficient:    true,
		Fitted:        fitted,
		DroppedSparse: dropped,
		ItemCount:     len(m.ItemIDs),
		ExamineeCount: len(m.ExamineeIDs),
		Sparsity:      sparsity,
		Validation:    Validate(pairs, t),
		CronbachAlpha: CronbachAlpha(examineeRows(m)),
	}
}

// examineeRows regroups a Matrix by examinee, the shape CronbachAlpha
// consumes.
func examineeRows(m Matrix) []ExamineeResponses {
	rows := make(map[int64]ExamineeResponses, len(m.ExamineeIDs))
	for _, uid := range m.ExamineeIDs {
		rows[uid] = ExamineeResponses{}
	}
	for itemID, row := range m.Cells {
		for uid, correct := range row {
			rows[uid][itemID] = correct
		}
	}
	out := make([]ExamineeResponses, 0, len(rows))
	for _, r := range rows {
		out = append(out, r)
	}
	return out
}
