package state

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/m3rciful/voicequotes/core/logger"
)

const mirrorTimeout = 3 * time.Second

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session

	locks  *keyLocker
	mirror Mirror
}

// Option customises the memory store.
type Option func(*memoryStore)

// WithMirror enables write-through persistence of every session change.
func WithMirror(m Mirror) Option {
	return func(s *memoryStore) {
		s.mirror = m
	}
}

// MemoryStore is the in-process session store, optionally backed by a Mirror.
type MemoryStore interface {
	Store
	// Restore loads mirrored sessions into memory.
	Restore(ctx context.Context) (int, error)
}

// NewMemoryStore constructs an in-memory Store.
func NewMemoryStore(opts ...Option) MemoryStore {
	s := &memoryStore{
		sessions: make(map[int64]Session),
		locks:    newKeyLocker(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Get returns a copy of the user's session, or the idle default.
func (m *memoryStore) Get(userID int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if session, ok := m.sessions[userID]; ok {
		return session
	}
	return Idle(userID)
}

// Set stores a normalized copy of s for the user.
func (m *memoryStore) Set(userID int64, s Session) {
	norm := s.normalized(userID)
	if !s.Consistent() {
		logger.Warn(context.Background(), "session", "session.normalized",
			slog.Int64("user_id", userID),
			slog.String("phase", string(s.Phase)),
		)
	}

	m.mu.Lock()
	m.sessions[userID] = norm
	m.mu.Unlock()

	m.persist(norm)
}

// Reset returns the user to the idle phase and drops pending references.
func (m *memoryStore) Reset(userID int64) {
	m.mu.Lock()
	m.sessions[userID] = Idle(userID)
	m.mu.Unlock()

	if m.mirror == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := m.mirror.Delete(ctx, userID); err != nil {
		logger.Warn(ctx, "session", "mirror.delete.fail",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
}

// Lock acquires the per-user lock.
func (m *memoryStore) Lock(userID int64) func() {
	return m.locks.Lock(userID)
}

// Active returns non-idle sessions ordered by user id.
func (m *memoryStore) Active() []Session {
	m.mu.RLock()
	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if s.Phase != PhaseIdle {
			out = append(out, s)
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Restore loads sessions from the mirror. Invalid entries are normalized.
func (m *memoryStore) Restore(ctx context.Context) (int, error) {
	if m.mirror == nil {
		return 0, nil
	}
	loaded, err := m.mirror.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	for _, s := range loaded {
		if s.UserID == 0 {
			continue
		}
		m.sessions[s.UserID] = s.normalized(s.UserID)
	}
	m.mu.Unlock()

	logger.Info(ctx, "session", "session.restore",
		slog.String("status", "ok"),
		slog.Int("count", len(loaded)),
	)
	return len(loaded), nil
}

func (m *memoryStore) persist(s Session) {
	if m.mirror == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()

	var err error
	if s.Phase == PhaseIdle {
		err = m.mirror.Delete(ctx, s.UserID)
	} else {
		err = m.mirror.Save(ctx, s)
	}
	if err != nil {
		logger.Warn(ctx, "session", "mirror.save.fail",
			slog.Int64("user_id", s.UserID),
			slog.String("phase", string(s.Phase)),
			slog.String("err", err.Error()),
		)
	}
}
