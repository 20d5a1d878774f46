package model

import "time"

// Mode is the test mode: adaptive (CAT-driven) or fixed-form.
type Mode string

const (
	ModeAdaptive Mode = "adaptive"
	ModeFixed    Mode = "fixed"
)

// SessionState is where a session sits in its lifecycle.
type SessionState string

const (
	SessionInProgress SessionState = "in_progress"
	SessionCompleted  SessionState = "completed"
	SessionAbandoned  SessionState = "abandoned"
)

// StoppingReason records why an adaptive session terminated.
type StoppingReason string

const (
	StopNone          StoppingReason = ""
	StopMaxItems      StoppingReason = "max_items"
	StopSEThreshold   StoppingReason = "se_threshold"
	StopPoolExhausted StoppingReason = "item_pool_exhausted"
	StopUserAbandoned StoppingReason = "abandoned"
)

// DomainCount tracks served/correct counts for one cognitive domain.
type DomainCount struct {
	Served  int
	Correct int
}

// Session is the mutable adaptive-or-fixed test session. Every mutation
// to a session must happen while its per-session lock is held (see
// internal/store.SessionLocker); the version field backs optimistic
// concurrency control in the Postgres store.
type Session struct {
	ID     int64
	UserID int64
	Mode   Mode
	State  SessionState

	// Adaptive state.
	Theta             float64
	SE                float64
	ServedItems       []int64
	ServedCorrect     []bool // parallel to ServedItems; needed to replay EAP estimation
	ThetaHistory      []float64
	DomainCounts      map[Domain]*DomainCount
	ItemsAdministered int
	CorrectCount      int

	// PendingItemID is the one item currently offered to the examinee and
	// not yet answered (adaptive mode only; 0 once the session has no
	// outstanding item, e.g. just after Start for fixed-form sessions,
	// which hand out their whole item list instead). /test/next must
	// reject any submission whose question_id doesn't match this.
	PendingItemID int64

	StoppingReason StoppingReason
	FinalTheta     *float64
	FinalSE        *float64

	StartedAt   time.Time
	CompletedAt *time.Time

	// Version backs optimistic concurrency (Postgres store); incremented
	// on every mutating write.
	Version int64
}

// NewSession constructs a fresh in_progress session with CAT priors.
func NewSession(id, userID int64, mode Mode, startedAt time.Time) *Session {
	counts := make(map[Domain]*DomainCount, len(Domains))
	for _, d := range Domains {
		counts[d] = &DomainCount{}
	}
	return &Session{
		ID:           id,
		UserID:       userID,
		Mode:         mode,
		State:        SessionInProgress,
		Theta:        0,
		SE:           1.0,
		ServedItems:  nil,
		ThetaHistory: nil,
		DomainCounts: counts,
		StartedAt:    startedAt,
	}
}

// Terminal reports whether the session can no longer be mutated.
func (s *Session) Terminal() bool {
	return s.State != SessionInProgress
}

// HasServed reports whether itemID was already served in this session.
func (s *Session) HasServed(itemID int64) bool {
	for _, id := range s.ServedItems {
		if id == itemID {
			return true
		}
	}
	return false
}

// DomainServedCount returns how many items have been served for d.
func (s *Session) DomainServedCount(d Domain) int {
	if c, ok := s.DomainCounts[d]; ok {
		return c.Served
	}
	return 0
}
