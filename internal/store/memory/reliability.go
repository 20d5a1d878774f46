package memory

import (
	"context"
	"sync"

	"github.com/gioe/aiq-assessment/internal/model"
)

// ReliabilityMetrics is an in-memory historized metric store, append-only
// per kind, newest first on read.
type ReliabilityMetrics struct {
	mu     sync.Mutex
	byKind map[model.MetricKind][]*model.ReliabilityMetric
	nextID int64
}

func NewReliabilityMetrics() *ReliabilityMetrics {
	return &ReliabilityMetrics{byKind: make(map[model.MetricKind][]*model.ReliabilityMetric)}
}

func (r *ReliabilityMetrics) Record(_ context.Context, m *model.ReliabilityMetric) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = r.nextID
	r.byKind[m.Kind] = append(r.byKind[m.Kind], m)
	return nil
}

func (r *ReliabilityMetrics) History(_ context.Context, kind model.MetricKind, limit int) ([]*model.ReliabilityMetric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.byKind[kind]
	out := make([]*model.ReliabilityMetric, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}
