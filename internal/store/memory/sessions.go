package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gioe/aiq-assessment/internal/model"
	"github.com/gioe/aiq-assessment/internal/store"
)

// Sessions is a goroutine-safe in-memory session store enforcing spec
// §4.G invariant 1 (at most one non-terminal session per user) at the
// application level; a Postgres-backed implementation additionally
// carries the unique partial index as a second line of defense.
type Sessions struct {
	mu            sync.Mutex
	byID          map[int64]*model.Session
	inProgressFor map[int64]int64 // userID -> sessionID
	nextID        int64
}

func NewSessions() *Sessions {
	return &Sessions{
		byID:          make(map[int64]*model.Session),
		inProgressFor: make(map[int64]int64),
	}
}

func (s *Sessions) Start(_ context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.inProgressFor[session.UserID]; exists {
		return store.ErrConflict
	}
	s.nextID++
	session.ID = s.nextID
	s.byID[session.ID] = session
	s.inProgressFor[session.UserID] = session.ID
	return nil
}

func (s *Sessions) LoadInProgress(_ context.Context, userID int64) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.inProgressFor[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.byID[id], nil
}

func (s *Sessions) Load(_ context.Context, sessionID int64) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.byID[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return session, nil
}

func (s *Sessions) AppendResponse(_ context.Context, sessionID, itemID int64, _ *model.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.byID[sessionID]
	if !ok {
		return store.ErrNotFound
	}
	if session.HasServed(itemID) {
		return store.ErrConflict
	}
	return nil
}

func (s *Sessions) UpdateAdaptive(_ context.Context, sessionID int64, theta, se float64, newItemID int64, domain model.Domain, correct bool, nextPendingItemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.byID[sessionID]
	if !ok {
		return store.ErrNotFound
	}

	session.ServedItems = append(session.ServedItems, newItemID)
	session.ServedCorrect = append(session.ServedCorrect, correct)
	session.ThetaHistory = append(session.ThetaHistory, theta)
	session.Theta = theta
	session.SE = se
	session.ItemsAdministered++
	session.PendingItemID = nextPendingItemID
	if correct {
		session.CorrectCount++
	}

	dc, ok := session.DomainCounts[domain]
	if !ok {
		dc = &model.DomainCount{}
		session.DomainCounts[domain] = dc
	}
	dc.Served++
	if correct {
		dc.Correct++
	}
	return nil
}

func (s *Sessions) Finalize(_ context.Context, sessionID int64, reason model.StoppingReason, finalTheta, finalSE float64, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.byID[sessionID]
	if !ok {
		return store.ErrNotFound
	}

	session.State = model.SessionCompleted
	session.StoppingReason = reason
	session.FinalTheta = &finalTheta
	session.FinalSE = &finalSE
	session.CompletedAt = &completedAt
	delete(s.inProgressFor, session.UserID)
	return nil
}
