package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gioe/aiq-assessment/internal/model"
	"github.com/gioe/aiq-assessment/internal/store"
)

// Users is a goroutine-safe in-memory identity store.
type Users struct {
	mu      sync.RWMutex
	byID    map[int64]*model.User
	byEmail map[string]int64
	nextID  int64
}

func NewUsers() *Users {
	return &Users{byID: make(map[int64]*model.User), byEmail: make(map[string]int64)}
}

func (u *Users) ByID(_ context.Context, id int64) (*model.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	user, ok := u.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return user, nil
}

func (u *Users) ByEmail(_ context.Context, email string) (*model.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	id, ok := u.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u.byID[id], nil
}

func (u *Users) Create(_ context.Context, user *model.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, exists := u.byEmail[user.Email]; exists {
		return store.ErrConflict
	}
	u.nextID++
	user.ID = u.nextID
	u.byID[user.ID] = user
	u.byEmail[user.Email] = user.ID
	return nil
}

func (u *Users) AdvanceRevocation(_ context.Context, userID int64, now time.Time) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byID[userID]
	if !ok {
		return store.ErrNotFound
	}
	user.TokenRevokedBefore = &now
	return nil
}

func (u *Users) UpdatePasswordHash(_ context.Context, userID int64, hash string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byID[userID]
	if !ok {
		return store.ErrNotFound
	}
	user.PasswordHash = hash
	return nil
}
