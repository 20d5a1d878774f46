package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gioe/aiq-assessment/internal/model"
	"github.com/gioe/aiq-assessment/internal/store"
)

// PasswordResets is an in-memory single-use reset token store.
type PasswordResets struct {
	mu      sync.Mutex
	byToken map[string]*model.ResetToken
	byUser  map[int64][]string
}

func NewPasswordResets() *PasswordResets {
	return &PasswordResets{
		byToken: make(map[string]*model.ResetToken),
		byUser:  make(map[int64][]string),
	}
}

func (p *PasswordResets) Create(_ context.Context, rt *model.ResetToken) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byToken[rt.Token] = rt
	p.byUser[rt.UserID] = append(p.byUser[rt.UserID], rt.Token)
	return nil
}

func (p *PasswordResets) Consume(_ context.Context, token string, now time.Time) (*model.ResetToken, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rt, ok := p.byToken[token]
	if !ok || !rt.Valid(now) {
		return nil, store.ErrNotFound
	}
	rt.UsedAt = &now
	return rt, nil
}

func (p *PasswordResets) InvalidateForUser(_ context.Context, userID int64, now time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, token := range p.byUser[userID] {
		rt := p.byToken[token]
		if rt.UsedAt == nil {
			rt.UsedAt = &now
		}
	}
	return nil
}
