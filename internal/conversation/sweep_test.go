package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/voicequotes/internal/quotes"
)

func newReconciler(f *fixture) *Reconciler {
	return NewReconciler(f.sessions, f.quotes, f.journal, f.channel)
}

func TestSweepKeepsLiveCaptionSessions(t *testing.T) {
	f := newFixture(t)
	f.send(adminID, Action{Name: ActionAddQuote})
	f.send(adminID, Voice{MediaRef: "file-1"})

	rep, err := newReconciler(f).Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, SweepReport{Checked: 1, Kept: 1}, rep)
	assert.Equal(t, 1, f.channel.live())
	assert.Len(t, f.pending(t), 1)
}

func TestSweepDeletesOrphanedPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.send(adminID, Action{Name: ActionAddQuote})
	f.send(adminID, Voice{MediaRef: "file-1"})
	f.sessions.Reset(adminID)

	rep, err := newReconciler(f).Sweep(ctx)

	require.NoError(t, err)
	assert.Equal(t, SweepReport{Checked: 1, Deleted: 1}, rep)
	assert.Zero(t, f.channel.live())
	assert.Empty(t, f.pending(t))
}

func TestSweepResolvesStoredQuotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.journal.Record(ctx, quotes.NewPendingBroadcast(adminID, 500, "file-1")))
	_, err := f.quotes.Add(ctx, "file-1", "Saved", quotes.FromBroadcast(500))
	require.NoError(t, err)

	rep, err := newReconciler(f).Sweep(ctx)

	require.NoError(t, err)
	assert.Equal(t, SweepReport{Checked: 1, Resolved: 1}, rep)
	assert.Empty(t, f.channel.deleted)
	assert.Empty(t, f.pending(t))
}

func TestSweepDeletesPostWhenMediaWasStoredFromAnotherPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.quotes.Add(ctx, "file-1", "Saved", quotes.FromBroadcast(400))
	require.NoError(t, err)
	require.NoError(t, f.journal.Record(ctx, quotes.NewPendingBroadcast(adminID, 500, "file-1")))

	rep, err := newReconciler(f).Sweep(ctx)

	require.NoError(t, err)
	assert.Equal(t, SweepReport{Checked: 1, Deleted: 1}, rep)
	assert.Equal(t, []int{500}, f.channel.deleted)
	assert.Empty(t, f.pending(t))
}

func TestSweepResolvesPostAfterPublishFlow(t *testing.T) {
	f := newFixture(t)
	f.send(adminID, Action{Name: ActionAddQuote})
	f.send(adminID, Voice{MediaRef: "file-1"})
	ref := f.sessions.Get(adminID).PendingBroadcastRef
	f.send(adminID, Text{Text: "Hello"})
	// Simulates a crash between storing the quote and clearing the journal.
	require.NoError(t, f.journal.Record(context.Background(), quotes.NewPendingBroadcast(adminID, ref, "file-1")))

	rep, err := newReconciler(f).Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, SweepReport{Checked: 1, Resolved: 1}, rep)
	assert.Empty(t, f.channel.deleted)
}

func TestSweepRetainsEntryWhenDeleteFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.journal.Record(ctx, quotes.NewPendingBroadcast(adminID, 500, "file-1")))
	f.channel.deleteErr = errors.New("timeout")

	rep, err := newReconciler(f).Sweep(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, rep.Failed)
	assert.Len(t, f.pending(t), 1)
}
