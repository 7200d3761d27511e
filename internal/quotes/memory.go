package quotes

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryRepository keeps quotes in process memory. It backs tests and local runs.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  []Quote
	limit  int
	now    func() time.Time
}

// NewMemoryRepository creates an empty repository with the given search limit.
func NewMemoryRepository(searchLimit int) *MemoryRepository {
	if searchLimit <= 0 {
		searchLimit = DefaultSearchLimit
	}
	return &MemoryRepository{limit: searchLimit, now: time.Now}
}

// Add stores a new quote unless the media is already present.
func (r *MemoryRepository) Add(_ context.Context, mediaRef, title string, opts ...AddOption) (Quote, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Quote{}, ErrEmptyTitle
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.items {
		if q.MediaRef == mediaRef {
			return Quote{}, ErrDuplicateMedia
		}
	}
	r.nextID++
	q := Quote{ID: r.nextID, MediaRef: mediaRef, Title: title, CreatedAt: r.now().UTC()}
	for _, opt := range opts {
		opt(&q)
	}
	r.items = append(r.items, q)
	return q, nil
}

// Search returns quotes whose title contains query, ignoring case.
func (r *MemoryRepository) Search(_ context.Context, query string) ([]Quote, error) {
	needle := strings.ToLower(query)
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Quote, 0)
	for _, q := range r.items {
		if len(out) >= r.limit {
			break
		}
		if strings.Contains(strings.ToLower(q.Title), needle) {
			out = append(out, q)
		}
	}
	return out, nil
}

// ListAll returns every quote.
func (r *MemoryRepository) ListAll(context.Context) ([]Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Quote(nil), r.items...), nil
}

// ListPage returns a window of quotes and the total count.
func (r *MemoryRepository) ListPage(_ context.Context, limit, offset int) ([]Quote, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := len(r.items)
	if offset < 0 {
		offset = 0
	}
	if offset >= total || limit <= 0 {
		return []Quote{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return append([]Quote(nil), r.items[offset:end]...), total, nil
}

// HasMedia reports whether the media reference is stored.
func (r *MemoryRepository) HasMedia(_ context.Context, mediaRef string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, q := range r.items {
		if q.MediaRef == mediaRef {
			return true, nil
		}
	}
	return false, nil
}

// PublishedFrom reports whether a stored quote came from the channel message.
func (r *MemoryRepository) PublishedFrom(_ context.Context, messageID int) (bool, error) {
	if messageID == 0 {
		return false, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, q := range r.items {
		if q.BroadcastRef == messageID {
			return true, nil
		}
	}
	return false, nil
}

// DeleteByID removes the quote if present.
func (r *MemoryRepository) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, q := range r.items {
		if q.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return nil
}
