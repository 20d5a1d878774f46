package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gioe/aiq-assessment/internal/model"
	"github.com/gioe/aiq-assessment/internal/store"
)

// Users is a pgx-backed identity store.
type Users struct {
	pool *pgxpool.Pool
}

func NewUsers(pool *pgxpool.Pool) *Users {
	return &Users{pool: pool}
}

const userColumns = `id, email, password_hash, first_name, last_name, birth_year,
	education, country, region, token_revoked_before, push_token, push_enabled, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	if err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.BirthYear,
		&u.Education, &u.Country, &u.Region, &u.TokenRevokedBefore, &u.PushToken, &u.PushEnabled, &u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *Users) ByID(ctx context.Context, id int64) (*model.User, error) {
	row := u.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user by id: %w", err)
	}
	return user, nil
}

func (u *Users) ByEmail(ctx context.Context, email string) (*model.User, error) {
	row := u.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user by email: %w", err)
	}
	return user, nil
}

func (u *Users) Create(ctx context.Context, user *model.User) error {
	err := u.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, birth_year, education, country, region, push_token, push_enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`,
		user.Email, user.PasswordHash, user.FirstName, user.LastName, user.BirthYear,
		user.Education, user.Country, user.Region, user.PushToken, user.PushEnabled,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return store.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// AdvanceRevocation is the second step of logout-all (spec §4.F). It runs
// as a single statement against the pool, separately from the
// access-token revocation that precedes it.
func (u *Users) AdvanceRevocation(ctx context.Context, userID int64, now time.Time) error {
	tag, err := u.pool.Exec(ctx, `UPDATE users SET token_revoked_before = $1 WHERE id = $2`, now, userID)
	if err != nil {
		return fmt.Errorf("advance revocation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (u *Users) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	tag, err := u.pool.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, userID)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
