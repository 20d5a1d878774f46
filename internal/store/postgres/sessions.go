package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gioe/aiq-assessment/internal/model"
	"github.com/gioe/aiq-assessment/internal/store"
)

// Sessions is a pgx-backed session store. UpdateAdaptive uses optimistic
// concurrency on the version column: its UPDATE is conditioned on the
// version last read, it retries from a fresh Load up to three times, and
// only then returns store.ErrConflict — the race SessionLocker exists to
// avoid in the common case, with this as the store's own backstop against
// any caller that bypasses the lock. Finalize bumps the version but is
// not conditioned on it.
type Sessions struct {
	pool *pgxpool.Pool
}

func NewSessions(pool *pgxpool.Pool) *Sessions {
	return &Sessions{pool: pool}
}

const sessionColumns = `id, user_id, mode, state, theta, se, served_items, served_correct, theta_history,
	domain_counts, items_administered, correct_count, stopping_reason, final_theta, final_se,
	started_at, completed_at, version, pending_item_id`

func scanSession(row pgx.Row) (*model.Session, error) {
	s := &model.Session{}
	var domainCountsJSON []byte
	var pendingItemID *int64
	if err := row.Scan(
		&s.ID, &s.UserID, &s.Mode, &s.State, &s.Theta, &s.SE, &s.ServedItems, &s.ServedCorrect, &s.ThetaHistory,
		&domainCountsJSON, &s.ItemsAdministered, &s.CorrectCount, &s.StoppingReason, &s.FinalTheta, &s.FinalSE,
		&s.StartedAt, &s.CompletedAt, &s.Version, &pendingItemID,
	); err != nil {
		return nil, err
	}
	if pendingItemID != nil {
		s.PendingItemID = *pendingItemID
	}
	s.DomainCounts = make(map[model.Domain]*model.DomainCount, len(model.Domains))
	for _, d := range model.Domains {
		s.DomainCounts[d] = &model.DomainCount{}
	}
	if len(domainCountsJSON) > 0 {
		var raw map[model.Domain]*model.DomainCount
		if err := json.Unmarshal(domainCountsJSON, &raw); err != nil {
			return nil, fmt.Errorf("unmarshal domain counts: %w", err)
		}
		for d, c := range raw {
			s.DomainCounts[d] = c
		}
	}
	return s, nil
}

func (s *Sessions) Start(ctx context.Context, session *model.Session) error {
	domainCountsJSON, err := json.Marshal(session.DomainCounts)
	if err != nil {
		return fmt.Errorf("marshal domain counts: %w", err)
	}

	var pendingItemID *int64
	if session.PendingItemID != 0 {
		pendingItemID = &session.PendingItemID
	}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO sessions (user_id, mode, state, theta, se, domain_counts, started_at, pending_item_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, version`,
		session.UserID, session.Mode, session.State, session.Theta, session.SE, domainCountsJSON, session.StartedAt, pendingItemID,
	).Scan(&session.ID, &session.Version)
	if err != nil {
		var pgErr *pgconn.PgError
		// Invariant 1 (spec §4.G): the partial unique index rejects a
		// second concurrent non-terminal session for the same user even
		// when the app-level pre-check raced and missed it.
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return store.ErrConflict
		}
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

func (s *Sessions) LoadInProgress(ctx context.Context, userID int64) (*model.Session, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1 AND state = 'in_progress'`, userID)
	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load in-progress session: %w", err)
	}
	return session, nil
}

func (s *Sessions) Load(ctx context.Context, sessionID int64) (*model.Session, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, sessionID)
	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return session, nil
}

// AppendResponse leaves uniqueness on (session, item) to the responses
// table's UNIQUE constraint, which ResponseLog.Insert translates to
// store.ErrConflict; this method only confirms the session exists.
func (s *Sessions) AppendResponse(ctx context.Context, sessionID, itemID int64, _ *model.Response) error {
	var state string
	err := s.pool.QueryRow(ctx, `SELECT state FROM sessions WHERE id = $1`, sessionID).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check session state: %w", err)
	}
	return nil
}

func (s *Sessions) UpdateAdaptive(ctx context.Context, sessionID int64, theta, se float64, newItemID int64, domain model.Domain, correct bool, nextPendingItemID int64) error {
	for attempt := 0; attempt < 3; attempt++ {
		session, err := s.Load(ctx, sessionID)
		if err != nil {
			return err
		}

		session.ServedItems = append(session.ServedItems, newItemID)
		session.ServedCorrect = append(session.ServedCorrect, correct)
		session.ThetaHistory = append(session.ThetaHistory, theta)
		session.ItemsAdministered++
		if correct {
			session.CorrectCount++
		}
		dc := session.DomainCounts[domain]
		if dc == nil {
			dc = &model.DomainCount{}
			session.DomainCounts[domain] = dc
		}
		dc.Served++
		if correct {
			dc.Correct++
		}
		domainCountsJSON, err := json.Marshal(session.DomainCounts)
		if err != nil {
			return fmt.Errorf("marshal domain counts: %w", err)
		}

		var pendingItemID *int64
		if nextPendingItemID != 0 {
			pendingItemID = &nextPendingItemID
		}
		tag, err := s.pool.Exec(ctx, `
			UPDATE sessions SET theta = $1, se = $2, served_items = $3, served_correct = $4, theta_history = $5,
				domain_counts = $6, items_administered = $7, correct_count = $8, pending_item_id = $9, version = version + 1
			WHERE id = $10 AND version = $11`,
			theta, se, session.ServedItems, session.ServedCorrect, session.ThetaHistory, domainCountsJSON,
			session.ItemsAdministered, session.CorrectCount, pendingItemID, sessionID, session.Version,
		)
		if err != nil {
			return fmt.Errorf("update adaptive state: %w", err)
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
		// Lost the optimistic race against a concurrent writer; retry
		// from a fresh load. SessionLocker is expected to make this rare.
	}
	return store.ErrConflict
}

func (s *Sessions) Finalize(ctx context.Context, sessionID int64, reason model.StoppingReason, finalTheta, finalSE float64, completedAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions SET state = 'completed', stopping_reason = $1, final_theta = $2, final_se = $3,
			completed_at = $4, version = version + 1
		WHERE id = $5`,
		reason, finalTheta, finalSE, completedAt, sessionID,
	)
	if err != nil {
		return fmt.Errorf("finalize session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
