// Package quotes stores published voice quotes and the journal of channel
// posts that are still waiting for their caption.
package quotes

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultSearchLimit caps inline search results.
	DefaultSearchLimit = 50
)

var (
	// ErrDuplicateMedia is returned by Add when the voice file is already stored.
	ErrDuplicateMedia = errors.New("quotes: media already stored")
	// ErrEmptyTitle is returned by Add for a blank caption.
	ErrEmptyTitle = errors.New("quotes: empty title")
)

// Quote is one published voice clip.
type Quote struct {
	ID        int64     `db:"id"`
	MediaRef  string    `db:"media_ref"`
	Title     string    `db:"title"`
	CreatedAt time.Time `db:"created_at"`
	// BroadcastRef is the channel message the quote was captioned on, 0 if unknown.
	BroadcastRef int `db:"broadcast_ref"`
}

// AddOption sets optional fields on a quote being added.
type AddOption func(*Quote)

// FromBroadcast records the channel message the quote was published from.
func FromBroadcast(messageID int) AddOption {
	return func(q *Quote) { q.BroadcastRef = messageID }
}

// Repository is the durable quote store. Results are in insertion order.
type Repository interface {
	Add(ctx context.Context, mediaRef, title string, opts ...AddOption) (Quote, error)
	// Search matches title case-insensitively as a literal substring, capped at the search limit.
	Search(ctx context.Context, query string) ([]Quote, error)
	ListAll(ctx context.Context) ([]Quote, error)
	// ListPage returns one page and the total number of quotes.
	ListPage(ctx context.Context, limit, offset int) ([]Quote, int, error)
	HasMedia(ctx context.Context, mediaRef string) (bool, error)
	// PublishedFrom reports whether a quote was captioned on the channel message.
	PublishedFrom(ctx context.Context, messageID int) (bool, error)
	// DeleteByID is a no-op when the quote does not exist.
	DeleteByID(ctx context.Context, id int64) error
}
