package cat

import "github.com/gioe/aiq-assessment/internal/model"

// Engine is the stateless (pure-function) adaptive engine. It holds only
// tunables; all session state is passed in and returned explicitly so it
// never needs a store to be tested (spec §9).
type Engine struct {
	Tunables Tunables
}

// NewEngine constructs an Engine with the given tunables.
func NewEngine(t Tunables) *Engine {
	return &Engine{Tunables: t}
}

// InitialSelection picks the first item of an adaptive session: theta=0,
// no responses yet, no domain restriction possible (every domain is
// equally at zero).
func (e *Engine) InitialSelection(candidates []Candidate) (Candidate, bool) {
	return SelectNext(candidates, 0, nil, 0)
}

// AdvanceResult is the outcome of scoring the responses submitted so far
// and deciding whether to stop or continue.
type AdvanceResult struct {
	Theta          float64
	SE             float64
	Stopped        bool
	StoppingReason model.StoppingReason
	Next           Candidate
	HasNext        bool
}

// Advance re-estimates theta/SE from every response in the session so
// far, evaluates the stopping rules, and selects the next item if the
// session continues. candidates must already exclude served items.
func (e *Engine) Advance(responses []Response, candidates []Candidate, domainCounts map[model.Domain]*model.DomainCount, itemsAdministered int) AdvanceResult {
	est := EstimateEAP(responses)

	poolEmpty := len(candidates) == 0
	reason, stop := EvaluateStopping(itemsAdministered, est.SE, domainCounts, poolEmpty, e.Tunables)
	if stop {
		return AdvanceResult{Theta: est.Theta, SE: est.SE, Stopped: true, StoppingReason: reason}
	}

	next, ok := SelectNext(candidates, est.Theta, domainCounts, itemsAdministered)
	if !ok {
		return AdvanceResult{Theta: est.Theta, SE: est.SE, Stopped: true, StoppingReason: model.StopPoolExhausted}
	}
	return AdvanceResult{Theta: est.Theta, SE: est.SE, Next: next, HasNext: true}
}

// Finalize converts a stopped Advance outcome into a reportable Result.
func (e *Engine) Finalize(sessionID int64, r AdvanceResult, itemsAdministered int, counts map[model.Domain]*model.DomainCount) model.Result {
	return ScoreResult(sessionID, r.Theta, r.SE, itemsAdministered, r.StoppingReason, counts)
}
