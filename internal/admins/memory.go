package admins

import (
	"context"
	"sync"
	"time"
)

// MemoryRegistry is an in-process Registry.
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryRegistry creates a registry pre-populated with ids.
func NewMemoryRegistry(ids ...int64) *MemoryRegistry {
	r := &MemoryRegistry{}
	for _, id := range ids {
		_ = r.Add(context.Background(), Entry{UserID: id})
	}
	return r
}

// Add inserts e unless the user is already present.
func (r *MemoryRegistry) Add(_ context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.entries {
		if existing.UserID == e.UserID {
			return nil
		}
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	r.entries = append(r.entries, e)
	return nil
}

// Remove deletes the user if present.
func (r *MemoryRegistry) Remove(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.UserID == userID {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

// Contains reports membership.
func (r *MemoryRegistry) Contains(_ context.Context, userID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// ListAll returns a copy of all entries.
func (r *MemoryRegistry) ListAll(context.Context) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.entries...), nil
}
