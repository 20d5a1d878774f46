package cat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gioe/aiq-assessment/internal/model"
)

// buildBank creates perDomain items for each of the six domains with
// discrimination/difficulty evenly spread across [aLo, aHi] x [bLo, bHi].
func buildBank(perDomain int, aLo, aHi, bLo, bHi float64) []Candidate {
	var bank []Candidate
	id := int64(1)
	for _, d := range model.Domains {
		for i := 0; i < perDomain; i++ {
			frac := 0.0
			if perDomain > 1 {
				frac = float64(i) / float64(perDomain-1)
			}
			bank = append(bank, Candidate{
				ID:     id,
				Domain: d,
				A:      aLo + frac*(aHi-aLo),
				B:      bLo + frac*(bHi-bLo),
			})
			id++
		}
	}
	return bank
}

func unserved(bank []Candidate, served map[int64]bool) []Candidate {
	out := make([]Candidate, 0, len(bank))
	for _, c := range bank {
		if !served[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

// simulate drives the engine against a fixed bank, deciding correctness
// per served item via correctFn, and returns the final AdvanceResult plus
// how many items were administered and the final per-domain counts.
func simulate(t *testing.T, e *Engine, bank []Candidate, correctFn func(seq int, c Candidate) bool) (AdvanceResult, int, map[model.Domain]*model.DomainCount) {
	t.Helper()

	served := map[int64]bool{}
	var responses []Response
	counts := domainCounts(nil)

	cands := unserved(bank, served)
	next, ok := e.InitialSelection(cands)
	require.True(t, ok, "bank must have at least one eligible item")

	administered := 0
	var last AdvanceResult
	for administered < e.Tunables.MaxItems+1 {
		correct := correctFn(administered, next)
		responses = append(responses, Response{A: next.A, B: next.B, Correct: correct})
		served[next.ID] = true
		counts[next.Domain].Served++
		if correct {
			counts[next.Domain].Correct++
		}
		administered++

		cands = unserved(bank, served)
		last = e.Advance(responses, cands, counts, administered)
		if last.Stopped {
			return last, administered, counts
		}
		next = last.Next
	}
	t.Fatalf("engine did not stop within %d items", e.Tunables.MaxItems+1)
	return AdvanceResult{}, 0, nil
}

// S1 — adaptive finish by SE threshold: answering every item correctly
// with matched difficulty terminates within MAX_ITEMS at se_threshold,
// with a positive final theta, IQ > 100 and every domain served >= 2.
func TestScenario_S1_FinishesBySEThreshold(t *testing.T) {
	e := NewEngine(DefaultTunables)
	bank := buildBank(5, 1.0, 2.0, -2.0, 2.0)

	result, administered, counts := simulate(t, e, bank, func(seq int, c Candidate) bool {
		return true
	})

	assert.LessOrEqual(t, administered, DefaultTunables.MaxItems)
	assert.Equal(t, model.StopSEThreshold, result.StoppingReason)
	assert.Greater(t, result.Theta, 0.0)

	scored := ScoreResult(1, result.Theta, result.SE, administered, result.StoppingReason, counts)
	assert.Greater(t, scored.IQ, 100)
	for _, ds := range scored.DomainScores {
		assert.GreaterOrEqual(t, ds.Items, 2, "domain %s under-served", ds.Domain)
	}
}

// S2 — adaptive finish by max items: low-discrimination items never pull
// SE below threshold, so the engine must run to exactly MAX_ITEMS.
func TestScenario_S2_FinishesByMaxItems(t *testing.T) {
	e := NewEngine(DefaultTunables)
	bank := buildBank(5, 0.3, 0.3, -2.0, 2.0)

	result, administered, _ := simulate(t, e, bank, func(seq int, c Candidate) bool {
		return seq%2 == 0
	})

	assert.Equal(t, DefaultTunables.MaxItems, administered)
	assert.Equal(t, model.StopMaxItems, result.StoppingReason)
	assert.GreaterOrEqual(t, result.SE, DefaultTunables.SEThreshold)
}

// S3 — pool exhaustion: exactly six eligible items (one per domain)
// exhausts the pool after the sixth response and still produces a valid
// score.
func TestScenario_S3_PoolExhaustion(t *testing.T) {
	e := NewEngine(DefaultTunables)
	bank := buildBank(1, 1.0, 1.8, -1.0, 1.0)
	require.Len(t, bank, 6)

	result, administered, counts := simulate(t, e, bank, func(seq int, c Candidate) bool {
		return seq%2 == 0
	})

	assert.Equal(t, 6, administered)
	assert.Equal(t, model.StopPoolExhausted, result.StoppingReason)

	scored := ScoreResult(1, result.Theta, result.SE, administered, result.StoppingReason, counts)
	assert.GreaterOrEqual(t, scored.IQ, 40)
	assert.LessOrEqual(t, scored.IQ, 160)
}

func TestThetaToIQ_ClampsToBounds(t *testing.T) {
	assert.Equal(t, iqMax, ThetaToIQ(100))
	assert.Equal(t, iqMin, ThetaToIQ(-100))
	assert.Equal(t, 100, ThetaToIQ(0))
}
