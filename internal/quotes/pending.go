package quotes

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PendingBroadcast records a channel post that has no caption and no quote yet.
type PendingBroadcast struct {
	ID        uuid.UUID `db:"id"`
	UserID    int64     `db:"user_id"`
	MessageID int       `db:"message_id"`
	MediaRef  string    `db:"media_ref"`
	CreatedAt time.Time `db:"created_at"`
}

// NewPendingBroadcast stamps a fresh journal entry.
func NewPendingBroadcast(userID int64, messageID int, mediaRef string) PendingBroadcast {
	return PendingBroadcast{
		ID:        uuid.New(),
		UserID:    userID,
		MessageID: messageID,
		MediaRef:  mediaRef,
		CreatedAt: time.Now().UTC(),
	}
}

// Journal tracks captionless channel posts so they can be reconciled.
type Journal interface {
	Record(ctx context.Context, p PendingBroadcast) error
	// Resolve drops the entry for the channel message; missing entries are ignored.
	Resolve(ctx context.Context, messageID int) error
	// List returns entries oldest first.
	List(ctx context.Context) ([]PendingBroadcast, error)
}

// MemoryJournal is an in-process Journal.
type MemoryJournal struct {
	mu      sync.Mutex
	entries map[int]PendingBroadcast
}

// NewMemoryJournal creates an empty journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{entries: make(map[int]PendingBroadcast)}
}

// Record stores p, replacing any entry for the same message.
func (j *MemoryJournal) Record(_ context.Context, p PendingBroadcast) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[p.MessageID] = p
	return nil
}

// Resolve removes the entry for messageID.
func (j *MemoryJournal) Resolve(_ context.Context, messageID int) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.entries, messageID)
	return nil
}

// List returns entries ordered by creation time.
func (j *MemoryJournal) List(context.Context) ([]PendingBroadcast, error) {
	j.mu.Lock()
	out := make([]PendingBroadcast, 0, len(j.entries))
	for _, p := range j.entries {
		out = append(out, p)
	}
	j.mu.Unlock()
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].MessageID < out[b].MessageID
		}
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return out, nil
}

// PostgresJournal stores entries in "pending_broadcasts".
type PostgresJournal struct {
	db *sqlx.DB
}

// NewPostgresJournal wraps an open connection.
func NewPostgresJournal(db *sqlx.DB) *PostgresJournal {
	return &PostgresJournal{db: db}
}

// Record upserts the entry keyed by message id.
func (j *PostgresJournal) Record(ctx context.Context, p PendingBroadcast) error {
	_, err := j.db.NamedExecContext(ctx,
		`INSERT INTO pending_broadcasts (id, user_id, message_id, media_ref, created_at)
		 VALUES (:id, :user_id, :message_id, :media_ref, :created_at)
		 ON CONFLICT (message_id) DO UPDATE
		 SET id = EXCLUDED.id, user_id = EXCLUDED.user_id,
		     media_ref = EXCLUDED.media_ref, created_at = EXCLUDED.created_at`,
		p,
	)
	if err != nil {
		return fmt.Errorf("record pending broadcast: %w", err)
	}
	return nil
}

// Resolve deletes the entry for messageID.
func (j *PostgresJournal) Resolve(ctx context.Context, messageID int) error {
	if _, err := j.db.ExecContext(ctx,
		`DELETE FROM pending_broadcasts WHERE message_id = $1`, messageID,
	); err != nil {
		return fmt.Errorf("resolve pending broadcast: %w", err)
	}
	return nil
}

// List returns every entry, oldest first.
func (j *PostgresJournal) List(ctx context.Context) ([]PendingBroadcast, error) {
	out := make([]PendingBroadcast, 0)
	if err := j.db.SelectContext(ctx, &out,
		`SELECT id, user_id, message_id, media_ref, created_at
		 FROM pending_broadcasts ORDER BY created_at, message_id`,
	); err != nil {
		return nil, fmt.Errorf("list pending broadcasts: %w", err)
	}
	return out, nil
}
