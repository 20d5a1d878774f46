package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gioe/aiq-assessment/internal/model"
	"github.com/gioe/aiq-assessment/internal/store"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint breach.
const uniqueViolation = "23505"

// ResponseLog is a pgx-backed append-only response ledger.
type ResponseLog struct {
	pool *pgxpool.Pool
}

func NewResponseLog(pool *pgxpool.Pool) *ResponseLog {
	return &ResponseLog{pool: pool}
}

// Insert enforces uniqueness on (session, item) at the database level (a
// UNIQUE constraint in migration 000003), translating the resulting
// unique-violation into store.ErrConflict per spec §4.B.
func (l *ResponseLog) Insert(ctx context.Context, r *model.Response) error {
	err := l.pool.QueryRow(ctx, `
		INSERT INTO responses (user_id, session_id, item_id, submitted_answer, correct, latency_seconds, answered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		r.UserID, r.SessionID, r.ItemID, r.SubmittedAnswer, r.Correct, r.LatencySeconds, r.AnsweredAt,
	).Scan(&r.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return store.ErrConflict
		}
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

// CalibrationTuples projects (user, item, correct) for completed
// fixed-form sessions only, per spec §4.B.
func (l *ResponseLog) CalibrationTuples(ctx context.Context) ([]store.CalibrationTuple, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT r.user_id, r.item_id, r.correct
		FROM responses r
		JOIN sessions s ON s.id = r.session_id
		WHERE s.mode = 'fixed' AND s.state = 'completed'`)
	if err != nil {
		return nil, fmt.Errorf("query calibration tuples: %w", err)
	}
	defer rows.Close()

	var out []store.CalibrationTuple
	for rows.Next() {
		var t store.CalibrationTuple
		if err := rows.Scan(&t.UserID, &t.ItemID, &t.Correct); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
