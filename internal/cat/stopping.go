package cat

import "github.com/gioe/aiq-assessment/internal/model"

// Tunables holds the stopping-rule constants (spec §4.H), overridable via
// configuration. The selection floors live in selector.go as constants.
type Tunables struct {
	MinItems     int
	MaxItems     int
	SEThreshold  float64
}

// DefaultTunables matches the defaults named in spec §4.H.
var DefaultTunables = Tunables{
	MinItems:    8,
	MaxItems:    15,
	SEThreshold: 0.30,
}

// EvaluateStopping applies the stopping-rule priority table from spec
// §4.H. poolEmpty must reflect whether the eligible pool (after the
// just-answered item is added to served) is empty.
func EvaluateStopping(itemsAdministered int, se float64, counts map[model.Domain]*model.DomainCount, poolEmpty bool, t Tunables) (model.StoppingReason, bool) {
	// Rule 1: max items dominates everything else.
	if itemsAdministered >= t.MaxItems {
		return model.StopMaxItems, true
	}
	// Rule 2: floor overrides rules 3-4 until met.
	if itemsAdministered < t.MinItems {
		return model.StopNone, false
	}
	// Rule 3: strictly less-than threshold, and content balance satisfied.
	if se < t.SEThreshold && ContentBalanceSatisfied(counts, itemsAdministered) {
		return model.StopSEThreshold, true
	}
	// Rule 4: pool exhaustion.
	if poolEmpty {
		return model.StopPoolExhausted, true
	}
	// Rule 5: continue.
	return model.StopNone, false
}
