package audit

import (
	"testing"
	"time"
)

func TestTimeline_CorrelatesWithinWindow(t *testing.T) {
	tl := NewTimeline(0)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tl.Record("password_reset", 1, base)
	tl.Record("logout_all", 1, base.Add(2*time.Hour))
	tl.Record("logout_all", 2, base.Add(48*time.Hour)) // different user, no matching reset

	pairs := tl.Correlate(24 * time.Hour)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 correlated pair, got %d", len(pairs))
	}
	if pairs[0].UserID != 1 {
		t.Errorf("expected user 1, got %d", pairs[0].UserID)
	}
}

func TestTimeline_NoCorrelationOutsideWindow(t *testing.T) {
	tl := NewTimeline(0)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tl.Record("password_reset", 1, base)
	tl.Record("logout_all", 1, base.Add(48*time.Hour))

	pairs := tl.Correlate(24 * time.Hour)
	if len(pairs) != 0 {
		t.Fatalf("expected 0 correlated pairs, got %d", len(pairs))
	}
}

func TestTimeline_EvictsOldestBeyondCapacity(t *testing.T) {
	tl := NewTimeline(2)
	tl.Record("logout_all", 1, time.Now())
	tl.Record("logout_all", 2, time.Now())
	tl.Record("logout_all", 3, time.Now())

	if len(tl.events) != 2 {
		t.Fatalf("expected capacity-bounded length 2, got %d", len(tl.events))
	}
	if tl.events[0].UserID != 2 {
		t.Errorf("expected oldest event evicted, got user %d first", tl.events[0].UserID)
	}
}
