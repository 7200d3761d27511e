// Package admins keeps the set of users allowed to publish quotes.
package admins

import (
	"context"
	"time"
)

// Entry is one authorized operator.
type Entry struct {
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"`
	CreatedAt time.Time `db:"created_at"`
}

// Registry is the durable admin set. Every operation is idempotent.
type Registry interface {
	Add(ctx context.Context, e Entry) error
	Remove(ctx context.Context, userID int64) error
	Contains(ctx context.Context, userID int64) (bool, error)
	// ListAll returns entries in the order they were added.
	ListAll(ctx context.Context) ([]Entry, error)
}
