package conversation

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedQuotes(t *testing.T, f *fixture, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		_, err := f.quotes.Add(context.Background(), fmt.Sprintf("file-%d", i), fmt.Sprintf("Quote %d", i))
		require.NoError(t, err)
	}
}

func countActions(out Outcome, name string) int {
	n := 0
	for _, got := range buttonNames(out) {
		if got == name {
			n++
		}
	}
	return n
}

func TestListQuotesPaginates(t *testing.T) {
	f := newFixture(t)
	seedQuotes(t, f, 5)

	out := f.send(adminID, Action{Name: ActionListQuotes, Payload: "0"})

	require.NoError(t, out.Err)
	require.Len(t, out.Replies, 1)
	assert.True(t, out.Replies[0].EditMenu)
	assert.Contains(t, out.Replies[0].Text, "page 1 of 3")
	assert.Contains(t, out.Replies[0].Text, "Quote 1")
	assert.NotContains(t, out.Replies[0].Text, "Quote 3")
	assert.Equal(t, 2, countActions(out, ActionDeleteQuote))
	assert.Equal(t, 1, countActions(out, ActionListQuotes))
	assert.Equal(t, 1, countActions(out, ActionMenu))

	out = f.send(adminID, Action{Name: ActionListQuotes, Payload: "1"})
	assert.Contains(t, out.Replies[0].Text, "page 2 of 3")
	assert.Equal(t, 2, countActions(out, ActionListQuotes))
}

func TestListQuotesClampsToLastPage(t *testing.T) {
	f := newFixture(t)
	seedQuotes(t, f, 3)

	out := f.send(adminID, Action{Name: ActionListQuotes, Payload: "9"})

	assert.Contains(t, out.Replies[0].Text, "page 2 of 2")
	assert.Contains(t, out.Replies[0].Text, "Quote 3")
}

func TestListQuotesEmpty(t *testing.T) {
	f := newFixture(t)

	out := f.send(adminID, Action{Name: ActionListQuotes})

	require.NoError(t, out.Err)
	assert.Equal(t, textNoQuotes, out.Replies[0].Text)
}

func TestDeleteQuoteRerendersClampedPage(t *testing.T) {
	f := newFixture(t)
	seedQuotes(t, f, 3)

	out := f.send(adminID, Action{Name: ActionDeleteQuote, Payload: "3|1"})

	require.NoError(t, out.Err)
	assert.Contains(t, out.Replies[0].Text, "page 1 of 1")
	all, _ := f.quotes.ListAll(context.Background())
	assert.Len(t, all, 2)
}

func TestDeleteMissingQuoteIsNoop(t *testing.T) {
	f := newFixture(t)
	seedQuotes(t, f, 2)

	out := f.send(adminID, Action{Name: ActionDeleteQuote, Payload: "999|0"})

	require.NoError(t, out.Err)
	all, _ := f.quotes.ListAll(context.Background())
	assert.Len(t, all, 2)
}

func TestDeleteQuoteRejectsBadPayload(t *testing.T) {
	f := newFixture(t)

	out := f.send(adminID, Action{Name: ActionDeleteQuote, Payload: "x"})

	assert.Equal(t, KindInvalidInput, KindOf(out.Err))
}

func TestManagementRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	seedQuotes(t, f, 1)

	out := f.send(strangerID, Action{Name: ActionDeleteQuote, Payload: "1|0"})

	assert.Equal(t, KindUnauthorized, KindOf(out.Err))
	all, _ := f.quotes.ListAll(context.Background())
	assert.Len(t, all, 1)
}

func TestAdminManagement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out := f.send(adminID, Action{Name: ActionListAdmins})
	require.NoError(t, out.Err)
	assert.Equal(t, 1, countActions(out, ActionRemoveAdmin))

	out = f.send(adminID, Action{Name: ActionRemoveAdmin, Payload: fmt.Sprint(adminID)})
	assert.Equal(t, KindInvalidInput, KindOf(out.Err))
	ok, _ := f.admins.Contains(ctx, adminID)
	assert.True(t, ok)

	out = f.send(adminID, Action{Name: ActionRemoveAdmin, Payload: fmt.Sprint(otherAdmin)})
	require.NoError(t, out.Err)
	ok, _ = f.admins.Contains(ctx, otherAdmin)
	assert.False(t, ok)
	assert.Equal(t, 0, countActions(out, ActionRemoveAdmin))
}
