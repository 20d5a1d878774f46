package audit

import (
	"sync"
	"time"
)

// SecurityEvent is one entry in the in-process forensic timeline backing
// the admin logout-all/password-reset correlation view (spec.md §6).
type SecurityEvent struct {
	Kind      string // "logout_all" | "password_reset"
	UserID    int64
	Timestamp time.Time
}

// Timeline is a small in-process ring buffer of recent security events.
// It exists to serve the admin forensic endpoint without adding a new
// persisted schema for what is, per spec.md, a best-effort correlation
// view rather than an audit-of-record (the audit Logger already owns
// that via structured log lines).
type Timeline struct {
	mu       sync.Mutex
	capacity int
	events   []SecurityEvent
}

func NewTimeline(capacity int) *Timeline {
	if capacity <= 0 {
		capacity = 10000
	}
	return &Timeline{capacity: capacity}
}

func (t *Timeline) Record(kind string, userID int64, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, SecurityEvent{Kind: kind, UserID: userID, Timestamp: at})
	if len(t.events) > t.capacity {
		t.events = t.events[len(t.events)-t.capacity:]
	}
}

// CorrelatedPair is a logout-all event paired with a password reset for
// the same user within window of each other.
type CorrelatedPair struct {
	UserID          int64
	LogoutAllAt     time.Time
	PasswordResetAt time.Time
}

// Correlate returns every (logout_all, password_reset) pair for the same
// user whose timestamps fall within window of each other, per spec.md
// §6's "±24h" forensic view.
func (t *Timeline) Correlate(window time.Duration) []CorrelatedPair {
	t.mu.Lock()
	events := make([]SecurityEvent, len(t.events))
	copy(events, t.events)
	t.mu.Unlock()

	var logouts, resets []SecurityEvent
	for _, e := range events {
		switch e.Kind {
		case "logout_all":
			logouts = append(logouts, e)
		case "password_reset":
			resets = append(resets, e)
		}
	}

	var pairs []CorrelatedPair
	for _, l := range logouts {
		for _, r := range resets {
			if l.UserID != r.UserID {
				continue
			}
			delta := l.Timestamp.Sub(r.Timestamp)
			if delta < 0 {
				delta = -delta
			}
			if delta <= window {
				pairs = append(pairs, CorrelatedPair{UserID: l.UserID, LogoutAllAt: l.Timestamp, PasswordResetAt: r.Timestamp})
			}
		}
	}
	return pairs
}
