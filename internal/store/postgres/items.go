package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gioe/aiq-assessment/internal/model"
	"github.com/gioe/aiq-assessment/internal/store"
)

// ItemBank is a pgx-backed item catalog.
type ItemBank struct {
	pool *pgxpool.Pool
}

func NewItemBank(pool *pgxpool.Pool) *ItemBank {
	return &ItemBank{pool: pool}
}

const itemColumns = `id, prompt, stimulus, options, correct_idx, domain, difficulty,
	p_value, point_biserial, discrimination, difficulty_param, se_discrimination,
	se_difficulty, peak_information, last_calibrated_at, calibration_n,
	active, quality, anchor, anchor_designated_at`

func scanItem(row pgx.Row) (*model.Item, error) {
	it := &model.Item{}
	var optionsJSON []byte
	if err := row.Scan(
		&it.ID, &it.Prompt, &it.Stimulus, &optionsJSON, &it.CorrectIdx, &it.Domain, &it.Difficulty,
		&it.PValue, &it.PointBiserial, &it.A, &it.B, &it.SEA,
		&it.SEB, &it.PeakInformation, &it.LastCalibratedAt, &it.CalibrationN,
		&it.Active, &it.Quality, &it.Anchor, &it.AnchorDesignatedAt,
	); err != nil {
		return nil, err
	}
	if len(optionsJSON) > 0 {
		if err := json.Unmarshal(optionsJSON, &it.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
	}
	return it, nil
}

func (b *ItemBank) EligibleItems(ctx context.Context, filter store.ItemFilter) ([]*model.Item, error) {
	q := strings.Builder{}
	q.WriteString(`SELECT ` + itemColumns + ` FROM items WHERE active AND quality = 'normal'
		AND discrimination IS NOT NULL AND difficulty_param IS NOT NULL`)
	args := []any{}
	argN := 1

	if filter.Domain != "" {
		argN++
		q.WriteString(fmt.Sprintf(" AND domain = $%d", argN-1))
		args = append(args, string(filter.Domain))
	}
	if filter.Tier != "" {
		argN++
		q.WriteString(fmt.Sprintf(" AND difficulty = $%d", argN-1))
		args = append(args, string(filter.Tier))
	}
	if len(filter.Excluded) > 0 {
		argN++
		q.WriteString(fmt.Sprintf(" AND id != ALL($%d)", argN-1))
		args = append(args, filter.Excluded)
	}
	q.WriteString(" ORDER BY id")

	rows, err := b.pool.Query(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query eligible items: %w", err)
	}
	defer rows.Close()

	var out []*model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (b *ItemBank) ByIDs(ctx context.Context, ids []int64) ([]*model.Item, error) {
	rows, err := b.pool.Query(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("query items by id: %w", err)
	}
	defer rows.Close()

	var out []*model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// UpdateCalibration applies the whole batch inside one transaction, so no
// concurrent reader ever observes half-updated item parameters mid-commit.
func (b *ItemBank) UpdateCalibration(ctx context.Context, updates []store.CalibrationUpdate) error {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, u := range updates {
		_, err := tx.Exec(ctx, `
			UPDATE items SET
				discrimination = $1, difficulty_param = $2,
				se_discrimination = $3, se_difficulty = $4,
				peak_information = $5, last_calibrated_at = $6, calibration_n = $7
			WHERE id = $8`,
			u.A, u.B, u.SEA, u.SEB, u.PeakInformation, u.CalibratedAt, u.CalibrationN, u.ItemID,
		)
		if err != nil {
			return fmt.Errorf("update item %d calibration: %w", u.ItemID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit calibration batch: %w", err)
	}
	return nil
}

// ListAnchors returns the stable equating subset preserved across
// calibrations.
func (b *ItemBank) ListAnchors(ctx context.Context) ([]*model.Item, error) {
	rows, err := b.pool.Query(ctx, `SELECT `+itemColumns+` FROM items WHERE anchor ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query anchor items: %w", err)
	}
	defer rows.Close()

	var out []*model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// SetAnchor toggles an item's anchor designation.
func (b *ItemBank) SetAnchor(ctx context.Context, itemID int64, anchor bool, at time.Time) error {
	var designatedAt *time.Time
	if anchor {
		designatedAt = &at
	}
	tag, err := b.pool.Exec(ctx, `UPDATE items SET anchor = $1, anchor_designated_at = $2 WHERE id = $3`, anchor, designatedAt, itemID)
	if err != nil {
		return fmt.Errorf("set anchor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
