package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gioe/aiq-assessment/internal/model"
	"github.com/gioe/aiq-assessment/internal/store"
)

// PasswordResets is a pgx-backed single-use reset token store.
type PasswordResets struct {
	pool *pgxpool.Pool
}

func NewPasswordResets(pool *pgxpool.Pool) *PasswordResets {
	return &PasswordResets{pool: pool}
}

func (p *PasswordResets) Create(ctx context.Context, rt *model.ResetToken) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO password_resets (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		rt.Token, rt.UserID, rt.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}
	return nil
}

// Consume atomically marks a token used and returns it, failing when
// absent, expired, or already used — all collapsed into ErrNotFound so
// callers can't distinguish a burned token from one that never existed.
func (p *PasswordResets) Consume(ctx context.Context, token string, now time.Time) (*model.ResetToken, error) {
	rt := &model.ResetToken{}
	err := p.pool.QueryRow(ctx, `
		UPDATE password_resets SET used_at = $1
		WHERE token = $2 AND used_at IS NULL AND expires_at > $1
		RETURNING token, user_id, expires_at, used_at`,
		now, token,
	).Scan(&rt.Token, &rt.UserID, &rt.ExpiresAt, &rt.UsedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("consume reset token: %w", err)
	}
	return rt, nil
}

func (p *PasswordResets) InvalidateForUser(ctx context.Context, userID int64, now time.Time) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE password_resets SET used_at = $1 WHERE user_id = $2 AND used_at IS NULL`,
		now, userID)
	if err != nil {
		return fmt.Errorf("invalidate reset tokens: %w", err)
	}
	return nil
}
