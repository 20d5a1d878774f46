package memory

import (
	"context"
	"sync"

	"github.com/gioe/aiq-assessment/internal/model"
	"github.com/gioe/aiq-assessment/internal/store"
)

type responseKey struct {
	sessionID int64
	itemID    int64
}

// ResponseLog is a goroutine-safe in-memory response ledger. fixedFormSessions
// names the sessions whose responses are calibration-eligible (spec §4.B:
// adaptive responses must never feed calibration). It does not track
// session state: CalibrationTuples returns the responses of every marked
// session, whether or not that session has completed.
type ResponseLog struct {
	mu                sync.Mutex
	seen              map[responseKey]bool
	responses         []*model.Response
	fixedFormSessions map[int64]bool
}

// NewResponseLog constructs an empty ledger. fixedFormSessionIDs marks
// which session ids are fixed-form (and thus calibration-eligible).
func NewResponseLog(fixedFormSessionIDs ...int64) *ResponseLog {
	marked := make(map[int64]bool, len(fixedFormSessionIDs))
	for _, id := range fixedFormSessionIDs {
		marked[id] = true
	}
	return &ResponseLog{
		seen:              make(map[responseKey]bool),
		fixedFormSessions: marked,
	}
}

// MarkFixedForm records sessionID as eligible for calibration tuple
// projection; call this when a fixed-form session is created.
func (l *ResponseLog) MarkFixedForm(sessionID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fixedFormSessions[sessionID] = true
}

func (l *ResponseLog) Insert(_ context.Context, r *model.Response) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := responseKey{sessionID: r.SessionID, itemID: r.ItemID}
	if l.seen[key] {
		return store.ErrConflict
	}
	l.seen[key] = true
	l.responses = append(l.responses, r)
	return nil
}

func (l *ResponseLog) CalibrationTuples(_ context.Context) ([]store.CalibrationTuple, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []store.CalibrationTuple
	for _, r := range l.responses {
		if !l.fixedFormSessions[r.SessionID] {
			continue
		}
		out = append(out, store.CalibrationTuple{UserID: r.UserID, ItemID: r.ItemID, Correct: r.Correct})
	}
	return out, nil
}
