package cat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gioe/aiq-assessment/internal/model"
)

func domainCounts(served map[model.Domain]int) map[model.Domain]*model.DomainCount {
	out := make(map[model.Domain]*model.DomainCount, len(model.Domains))
	for _, d := range model.Domains {
		out[d] = &model.DomainCount{Served: served[d]}
	}
	return out
}

func TestSelectNext_EmptyPool(t *testing.T) {
	_, ok := SelectNext(nil, 0, nil, 0)
	assert.False(t, ok)
}

func TestSelectNext_PicksHighestInformation(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, Domain: model.DomainMath, A: 0.5, B: 0.0},
		{ID: 2, Domain: model.DomainMath, A: 2.0, B: 0.0}, // much more informative at theta=0
		{ID: 3, Domain: model.DomainMath, A: 1.0, B: 3.0},
	}
	best, ok := SelectNext(candidates, 0.0, domainCounts(map[model.Domain]int{model.DomainMath: 5}), 10)
	require.True(t, ok)
	assert.Equal(t, int64(2), best.ID)
}

func TestSelectNext_TieBreaksOnLowerID(t *testing.T) {
	candidates := []Candidate{
		{ID: 5, Domain: model.DomainMath, A: 1.0, B: 0.0},
		{ID: 2, Domain: model.DomainMath, A: 1.0, B: 0.0},
	}
	best, ok := SelectNext(candidates, 0.0, domainCounts(map[model.Domain]int{model.DomainMath: 5}), 10)
	require.True(t, ok)
	assert.Equal(t, int64(2), best.ID)
}

func TestSelectNext_RestrictsToUnderservedDomain(t *testing.T) {
	counts := domainCounts(map[model.Domain]int{
		model.DomainPattern: 3,
		model.DomainLogic:   3,
		model.DomainSpatial: 3,
		model.DomainMath:    3,
		model.DomainVerbal:  3,
		model.DomainMemory:  0, // underserved
	})
	candidates := []Candidate{
		{ID: 1, Domain: model.DomainMath, A: 3.0, B: 0.0},   // highest raw info but balanced domain
		{ID: 2, Domain: model.DomainMemory, A: 0.5, B: 0.0}, // lower info but underserved domain
	}
	best, ok := SelectNext(candidates, 0.0, counts, 15)
	require.True(t, ok)
	assert.Equal(t, int64(2), best.ID, "content balance should prefer the underserved domain over raw information")
}

func TestSelectNext_NoRestrictionWhenAllDomainsEquallyLow(t *testing.T) {
	counts := domainCounts(nil) // every domain at zero
	candidates := []Candidate{
		{ID: 1, Domain: model.DomainMath, A: 3.0, B: 0.0},
		{ID: 2, Domain: model.DomainMemory, A: 0.5, B: 0.0},
	}
	best, ok := SelectNext(candidates, 0.0, counts, 0)
	require.True(t, ok)
	assert.Equal(t, int64(1), best.ID, "with no domain ahead of another, raw information should win")
}

func TestContentBalanceSatisfied(t *testing.T) {
	early := domainCounts(map[model.Domain]int{model.DomainMath: 1})
	assert.False(t, ContentBalanceSatisfied(early, 3)) // other 5 domains still at 0 < floor(1)

	allOne := domainCounts(map[model.Domain]int{
		model.DomainPattern: 1, model.DomainLogic: 1, model.DomainSpatial: 1,
		model.DomainMath: 1, model.DomainVerbal: 1, model.DomainMemory: 1,
	})
	assert.True(t, ContentBalanceSatisfied(allOne, 6))   // early floor is 1
	assert.False(t, ContentBalanceSatisfied(allOne, 10)) // late floor is 2
}
