// Package store defines the narrow repository interfaces every component
// depends on instead of a concrete database. The CAT engine, calibration
// pipeline, and validity analyzer never import this package at all; only
// the dispatcher and the calibration CLI wire a concrete implementation
// (memory or postgres) in.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/gioe/aiq-assessment/internal/model"
)

// ErrNotFound is returned by single-entity lookups that find nothing.
var ErrNotFound = errors.New("store: not found")

// ErrConflict is returned when a uniqueness constraint would be violated:
// a duplicate (session, item) response, or a second non-terminal session
// for a user.
var ErrConflict = errors.New("store: conflict")

// ItemFilter narrows an item bank query.
type ItemFilter struct {
	Domain   model.Domain         // zero value matches any domain
	Tier     model.DifficultyTier // zero value matches any tier
	Excluded []int64              // item ids to omit (already served)
}

// ItemBank is the read-mostly item catalog (spec §4.A).
type ItemBank interface {
	// EligibleItems returns active, normal-quality, calibrated items
	// matching filter.
	EligibleItems(ctx context.Context, filter ItemFilter) ([]*model.Item, error)
	// ByIDs bulk-loads items for calibration updates.
	ByIDs(ctx context.Context, ids []int64) ([]*model.Item, error)
	// UpdateCalibration transactionally applies fitted parameters to a
	// batch of items, avoiding torn reads mid-calibration commit.
	UpdateCalibration(ctx context.Context, updates []CalibrationUpdate) error
	// ListAnchors returns the stable equating subset preserved across
	// calibrations (spec §4.A, admin anchor-item endpoints).
	ListAnchors(ctx context.Context) ([]*model.Item, error)
	// SetAnchor toggles an item's anchor designation.
	SetAnchor(ctx context.Context, itemID int64, anchor bool, at time.Time) error
}

// CalibrationUpdate is one item's freshly fitted parameters.
type CalibrationUpdate struct {
	ItemID          int64
	A, B            float64
	SEA, SEB        float64
	PeakInformation float64
	CalibratedAt    time.Time
	CalibrationN    int
}

// ResponseLog is the append-only response ledger (spec §4.B).
type ResponseLog interface {
	// Insert records one response. Returns ErrConflict on a duplicate
	// (session, item) pair without mutating anything.
	Insert(ctx context.Context, r *model.Response) error
	// CalibrationTuples projects (user, item, correct) for completed
	// fixed-form sessions only; adaptive responses must never be
	// returned here (they'd bake in the parameters being re-estimated).
	CalibrationTuples(ctx context.Context) ([]CalibrationTuple, error)
}

// CalibrationTuple is one (user, item, correct) observation eligible for
// re-estimation.
type CalibrationTuple struct {
	UserID  int64
	ItemID  int64
	Correct bool
}

// Blacklist revokes and checks bearer-token jtis (spec §4.C). Two
// implementations share this interface: an in-process map for
// single-worker deployments, and a Postgres-backed shared table for
// multi-worker ones.
type Blacklist interface {
	// Revoke records jti as revoked until expiresAt. Entries for
	// already-expired tokens are no-ops. Recorded reports whether the
	// entry was newly written (false if it was already present or
	// already expired).
	Revoke(ctx context.Context, jti string, expiresAt time.Time) (recorded bool, err error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Users is the identity store (spec §4.D).
type Users interface {
	ByID(ctx context.Context, id int64) (*model.User, error)
	ByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	// AdvanceRevocation sets TokenRevokedBefore to now; the second step
	// of logout-all, committed alongside the access-token revocation.
	AdvanceRevocation(ctx context.Context, userID int64, now time.Time) error
	// UpdatePasswordHash replaces a user's stored credential, used by the
	// password-reset completion flow.
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
}

// Sessions is the test-session store (spec §4.G).
type Sessions interface {
	Start(ctx context.Context, s *model.Session) error
	// LoadInProgress returns the user's sole non-terminal session, or
	// ErrNotFound if none exists.
	LoadInProgress(ctx context.Context, userID int64) (*model.Session, error)
	Load(ctx context.Context, sessionID int64) (*model.Session, error)
	// AppendResponse enforces uniqueness on (session, item); returns
	// ErrConflict on a duplicate without mutating session state.
	AppendResponse(ctx context.Context, sessionID, itemID int64, r *model.Response) error
	// UpdateAdaptive appends to the served list/theta history, bumps the
	// domain counter, increments served/correct counts, and records
	// nextPendingItemID as the one item now offered to the examinee (0 if
	// the session has just stopped and nothing more is pending).
	UpdateAdaptive(ctx context.Context, sessionID int64, theta, se float64, newItemID int64, domain model.Domain, correct bool, nextPendingItemID int64) error
	Finalize(ctx context.Context, sessionID int64, reason model.StoppingReason, finalTheta, finalSE float64, completedAt time.Time) error
}

// SessionLocker serializes concurrent requests against the same session
// id (spec §5: "sufficient to serialize concurrent requests for the same
// session"). A pessimistic in-process implementation is provided in
// memory.Locker; it composes with either store backend.
type SessionLocker interface {
	// Lock blocks until the session's lock is acquired or ctx is done,
	// returning a release function.
	Lock(ctx context.Context, sessionID int64) (release func(), err error)
}

// PasswordResets stores single-use password reset tokens.
type PasswordResets interface {
	Create(ctx context.Context, rt *model.ResetToken) error
	// Consume atomically loads and marks a token used; returns
	// ErrNotFound if absent, expired, or already used.
	Consume(ctx context.Context, token string, now time.Time) (*model.ResetToken, error)
	// InvalidateForUser marks every outstanding token for a user used,
	// called before issuing a fresh one.
	InvalidateForUser(ctx context.Context, userID int64, now time.Time) error
}

// ReliabilityMetrics historizes calibration reliability snapshots.
type ReliabilityMetrics interface {
	Record(ctx context.Context, m *model.ReliabilityMetric) error
	History(ctx context.Context, kind model.MetricKind, limit int) ([]*model.ReliabilityMetric, error)
}
