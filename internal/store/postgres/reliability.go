package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gioe/aiq-assessment/internal/model"
)

// ReliabilityMetrics is a pgx-backed historized metric store.
type ReliabilityMetrics struct {
	pool *pgxpool.Pool
}

func NewReliabilityMetrics(pool *pgxpool.Pool) *ReliabilityMetrics {
	return &ReliabilityMetrics{pool: pool}
}

func (r *ReliabilityMetrics) Record(ctx context.Context, m *model.ReliabilityMetric) error {
	detailsJSON, err := json.Marshal(m.Details)
	if err != nil {
		return fmt.Errorf("marshal metric details: %w", err)
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO reliability_metrics (kind, value, sample_size, details, calculated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		m.Kind, m.Value, m.SampleSize, detailsJSON, m.CalculatedAt,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("record reliability metric: %w", err)
	}
	return nil
}

func (r *ReliabilityMetrics) History(ctx context.Context, kind model.MetricKind, limit int) ([]*model.ReliabilityMetric, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, value, sample_size, details, calculated_at
		FROM reliability_metrics WHERE kind = $1 ORDER BY calculated_at DESC LIMIT $2`,
		kind, limit)
	if err != nil {
		return nil, fmt.Errorf("query reliability history: %w", err)
	}
	defer rows.Close()

	var out []*model.ReliabilityMetric
	for rows.Next() {
		m := &model.ReliabilityMetric{}
		var detailsJSON []byte
		if err := rows.Scan(&m.ID, &m.Kind, &m.Value, &m.SampleSize, &detailsJSON, &m.CalculatedAt); err != nil {
			return nil, err
		}
		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &m.Details); err != nil {
				return nil, fmt.Errorf("unmarshal metric details: %w", err)
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
