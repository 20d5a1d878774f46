// Package calibration implements the off-line IRT calibration pipeline
// (spec §4.I): filtering candidate items, fitting a 2PL model by marginal
// maximum likelihood, bootstrapping standard errors, and validating fit
// against classical statistics. It never touches the hot path; the
// dispatcher and CAT engine depend on nothing in this package.
package calibration

import "math"

// Tunables mirrors the named constants in spec §4.I.
type Tunables struct {
	MinResponsesForCalibration int
	MinItemsFor2PL             int
	MinExamineesForCalibration int
	MaxSparsityThreshold       float64
	MinResponsesPerItem        int
	BootstrapIterations        int
	BootstrapSeed              uint64
	MinExamineesForBootstrap   int
	MinItemsForValidation      int
}

// DefaultTunables matches the defaults named in spec §4.I.
var DefaultTunables = Tunables{
	MinResponsesForCalibration: 50,
	MinItemsFor2PL:             2,
	MinExamineesForCalibration: 10,
	MaxSparsityThreshold:       0.95,
	MinResponsesPerItem:        10,
	BootstrapIterations:        2000,
	BootstrapSeed:              42,
	MinExamineesForBootstrap:   30,
	MinItemsForValidation:      3,
}

// ResponseTuple is the projection the calibration pipeline consumes: one
// row per (examinee, item) observation from completed fixed-form
// sessions. Adaptive-session responses must never appear here (spec
// §4.B: they'd bake in the very item parameters being re-estimated).
type ResponseTuple struct {
	UserID  int64
	ItemID  int64
	Correct bool
}

// ClassicalStats are the pre-calibration stats used to seed priors and to
// validate the fit afterward.
type ClassicalStats struct {
	PValue              float64
	PointBiserial       float64
}

// logit computes the negated log-odds, -log(p/(1-p)), with p clamped to
// [0.01, 0.99], which puts a p-value on the difficulty (b) scale.
func logit(p float64) float64 {
	p = math.Min(math.Max(p, 0.01), 0.99)
	return -math.Log(p / (1 - p))
}

// PriorFromClassical converts classical statistics into 2PL priors, per
// spec §4.I: b = -log(p/(1-p)) with p clamped to [0.01, 0.99]; a uses the
// point-biserial directly when positive, else falls back to 1.0.
func PriorFromClassical(s ClassicalStats) (aPrior, bPrior float64) {
	bPrior = logit(s.PValue)
	aPrior = 1.0
	if s.PointBiserial > 0 {
		aPrior = s.PointBiserial
	}
	return aPrior, bPrior
}
