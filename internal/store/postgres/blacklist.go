package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Blacklist is the shared, out-of-process token revocation table (spec
// §4.C) backing multi-worker deployments. Its unavailability is not a
// correctness prerequisite: callers are expected to treat connection
// errors as fail-open and log a warning rather than deny the request.
type Blacklist struct {
	pool *pgxpool.Pool
}

func NewBlacklist(pool *pgxpool.Pool) *Blacklist {
	return &Blacklist{pool: pool}
}

func (b *Blacklist) Revoke(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	if !expiresAt.After(time.Now()) {
		return false, nil
	}
	tag, err := b.pool.Exec(ctx, `
		INSERT INTO revoked_tokens (jti, expires_at) VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING`, jti, expiresAt)
	if err != nil {
		return false, fmt.Errorf("revoke token: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (b *Blacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var expiresAt time.Time
	err := b.pool.QueryRow(ctx, `SELECT expires_at FROM revoked_tokens WHERE jti = $1`, jti).Scan(&expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	if !expiresAt.After(time.Now()) {
		return false, nil
	}
	return true, nil
}
