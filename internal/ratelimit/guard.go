package ratelimit

import (
	"context"
	"log/slog"
)

// Guard composes a Limiter with a policy Table, implementing the
// admission contract of spec §4.E end to end: skip-list, per-path
// policy resolution, and fail-open on limiter errors (logged at an
// elevated level rather than denying the request).
type Guard struct {
	limiter Limiter
	table   Table
}

func NewGuard(limiter Limiter, table Table) *Guard {
	return &Guard{limiter: limiter, table: table}
}

// Admit checks whether a request identified by key against path should
// proceed. A limiter error always admits the request (fail open) and
// logs at Error level; a skip-listed path always admits without
// consulting the limiter at all.
func (g *Guard) Admit(ctx context.Context, path, key string) Decision {
	if g.table.Skipped(path) {
		return Decision{Allowed: true}
	}

	policy := g.table.PolicyFor(path)
	decision, err := g.limiter.Allow(ctx, key, policy.Limit, policy.Window)
	if err != nil {
		slog.Error("rate limiter backend failure, admitting request", "path", path, "key", key, "error", err)
		return Decision{Allowed: true}
	}
	return decision
}
