// Package memory implements every internal/store interface purely
// in-process, so the dispatcher (and its tests) can run without a
// database — mirroring the CAT engine's own no-persistence design.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gioe/aiq-assessment/internal/model"
	"github.com/gioe/aiq-assessment/internal/store"
)

// ItemBank is a goroutine-safe in-memory item catalog.
type ItemBank struct {
	mu    sync.RWMutex
	items map[int64]*model.Item
}

// NewItemBank seeds a bank from the given items, keyed by ID.
func NewItemBank(items ...*model.Item) *ItemBank {
	b := &ItemBank{items: make(map[int64]*model.Item, len(items))}
	for _, it := range items {
		b.items[it.ID] = it
	}
	return b
}

func (b *ItemBank) EligibleItems(_ context.Context, filter store.ItemFilter) ([]*model.Item, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	excluded := make(map[int64]bool, len(filter.Excluded))
	for _, id := range filter.Excluded {
		excluded[id] = true
	}

	var out []*model.Item
	for _, it := range b.items {
		if !it.Eligible() || excluded[it.ID] {
			continue
		}
		if filter.Domain != "" && it.Domain != filter.Domain {
			continue
		}
		if filter.Tier != "" && it.Difficulty != filter.Tier {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *ItemBank) ByIDs(_ context.Context, ids []int64) ([]*model.Item, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*model.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := b.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

// UpdateCalibration applies every update under a single write lock, so a
// concurrent EligibleItems/ByIDs call never observes a partial batch.
func (b *ItemBank) UpdateCalibration(_ context.Context, updates []store.CalibrationUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, u := range updates {
		it, ok := b.items[u.ItemID]
		if !ok {
			continue
		}
		a, bb, sea, seb, peak := u.A, u.B, u.SEA, u.SEB, u.PeakInformation
		it.A = &a
		it.B = &bb
		it.SEA = &sea
		it.SEB = &seb
		it.PeakInformation = &peak
		calibratedAt := u.CalibratedAt
		it.LastCalibratedAt = &calibratedAt
		it.CalibrationN = u.CalibrationN
	}
	return nil
}

// ListAnchors returns every item currently designated as an anchor, the
// stable equating subset preserved across calibrations.
func (b *ItemBank) ListAnchors(_ context.Context) ([]*model.Item, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []*model.Item
	for _, it := range b.items {
		if it.Anchor {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetAnchor flips an item's anchor flag, recording the designation time
// when newly set and clearing it when unset.
func (b *ItemBank) SetAnchor(_ context.Context, itemID int64, anchor bool, at time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	it, ok := b.items[itemID]
	if !ok {
		return store.ErrNotFound
	}
	it.Anchor = anchor
	if anchor {
		it.AnchorDesignatedAt = &at
	} else {
		it.AnchorDesignatedAt = nil
	}
	return nil
}
