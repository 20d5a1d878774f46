package cat

import "github.com/gioe/aiq-assessment/internal/model"

// MinItemsPerDomain is the content-balance floor used by item selection.
// The floor is 1 while fewer than lateThresholdItems items have been
// administered and 2 from then on, per the decision recorded in
// DESIGN.md.
const (
	MinItemsPerDomainEarly = 1
	MinItemsPerDomainLate  = 2
	// lateThresholdItems is the items-administered count at or above which
	// the stricter per-domain floor applies.
	lateThresholdItems = 8
)

// Candidate is an eligible item reduced to what selection needs.
type Candidate struct {
	ID     int64
	Domain model.Domain
	A      float64
	B      float64
}

// EligibleCandidates filters bank items down to those that may be served:
// active, quality normal, calibrated, and not already served in session.
func EligibleCandidates(items []*model.Item, served map[int64]bool) []Candidate {
	out := make([]Candidate, 0, len(items))
	for _, it := range items {
		if !it.Eligible() {
			continue
		}
		if served[it.ID] {
			continue
		}
		out = append(out, Candidate{ID: it.ID, Domain: it.Domain, A: *it.A, B: *it.B})
	}
	return out
}

// domainFloor returns the minimum per-domain serve count required at the
// current items-administered count.
func domainFloor(itemsAdministered int) int {
	if itemsAdministered >= lateThresholdItems {
		return MinItemsPerDomainLate
	}
	return MinItemsPerDomainEarly
}

// underservedDomains returns the set of domains whose served count is
// below the floor, but only when at least one other domain already meets
// it (spec §4.H: "while other domains have more"). A pool where every
// domain is equally below the floor (e.g. the very first items of a
// session) is not restricted — there is nothing to rebalance against yet.
func underservedDomains(counts map[model.Domain]*model.DomainCount, floor int) map[model.Domain]bool {
	under := make(map[model.Domain]bool)
	anyAtFloor := false
	for _, d := range model.Domains {
		c := 0
		if dc, ok := counts[d]; ok {
			c = dc.Served
		}
		if c < floor {
			under[d] = true
		} else {
			anyAtFloor = true
		}
	}
	if len(under) == 0 || !anyAtFloor {
		return nil
	}
	return under
}

// SelectNext picks the next item to serve, maximizing Fisher information
// at theta subject to content-balance restriction, with a deterministic
// tie-break (higher information, then lower item id). Returns ok=false if
// the eligible pool is empty.
func SelectNext(candidates []Candidate, theta float64, domainCounts map[model.Domain]*model.DomainCount, itemsAdministered int) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}

	pool := candidates
	floor := domainFloor(itemsAdministered)
	if under := underservedDomains(domainCounts, floor); under != nil {
		restricted := make([]Candidate, 0, len(candidates))
		for _, c := range candidates {
			if under[c.Domain] {
				restricted = append(restricted, c)
			}
		}
		if len(restricted) > 0 {
			pool = restricted
		}
	}

	best := pool[0]
	bestInfo := Information2PL(theta, best.A, best.B)
	for _, c := range pool[1:] {
		info := Information2PL(theta, c.A, c.B)
		if info > bestInfo || (info == bestInfo && c.ID < best.ID) {
			best = c
			bestInfo = info
		}
	}
	return best, true
}

// ContentBalanceSatisfied reports whether every domain meets the current
// floor, used by the SE-threshold stopping rule (spec §4.H rule 3).
func ContentBalanceSatisfied(counts map[model.Domain]*model.DomainCount, itemsAdministered int) bool {
	floor := domainFloor(itemsAdministered)
	for _, d := range model.Domains {
		c := 0
		if dc, ok := counts[d]; ok {
			c = dc.Served
		}
		if c < floor {
			return false
		}
	}
	return true
}
