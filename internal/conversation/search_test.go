package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/voicequotes/internal/quotes"
)

type brokenSearch struct {
	quotes.Repository
}

func (brokenSearch) Search(context.Context, string) ([]quotes.Quote, error) {
	return nil, errors.New("db down")
}

func TestQueryReturnsMatches(t *testing.T) {
	f := newFixture(t)
	seedQuotes(t, f, 3)

	out := f.send(strangerID, Query{ID: "q1", Text: " quote 2 "})

	require.NoError(t, out.Err)
	require.NotNil(t, out.Answer)
	assert.Equal(t, "q1", out.Answer.QueryID)
	assert.True(t, out.Answer.Personal)
	require.Len(t, out.Answer.Results, 1)
	assert.Equal(t, InlineResult{ID: "2", MediaRef: "file-2", Title: "Quote 2"}, out.Answer.Results[0])
	assert.Empty(t, f.sessions.Active())
}

func TestEmptyQueryListsAllCapped(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < quotes.DefaultSearchLimit+5; i++ {
		_, err := f.quotes.Add(context.Background(), fmt.Sprintf("f%d", i), fmt.Sprintf("T%d", i))
		require.NoError(t, err)
	}

	out := f.send(strangerID, Query{ID: "q"})

	assert.Len(t, out.Answer.Results, quotes.DefaultSearchLimit)
	assert.Equal(t, "T0", out.Answer.Results[0].Title)
}

func TestQueryFailureAnswersEmpty(t *testing.T) {
	s := NewSearcher(brokenSearch{}, 10)

	out := s.Answer(context.Background(), Query{ID: "q"})

	require.NotNil(t, out.Answer)
	assert.Empty(t, out.Answer.Results)
	assert.Equal(t, 10, out.Answer.CacheTTL)
	assert.Equal(t, KindTransport, KindOf(out.Err))
}

func TestQueryIgnoresSessionLocks(t *testing.T) {
	f := newFixture(t)
	seedQuotes(t, f, 1)
	unlock := f.sessions.Lock(strangerID)
	defer unlock()

	done := make(chan Outcome, 1)
	go func() { done <- f.send(strangerID, Query{ID: "q", Text: "quote"}) }()

	select {
	case out := <-done:
		assert.Len(t, out.Answer.Results, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("query blocked on session lock")
	}
}

func TestConcurrentQueriesIndependentOfCapture(t *testing.T) {
	f := newFixture(t)
	seedQuotes(t, f, 2)
	f.send(adminID, Action{Name: ActionAddQuote})
	f.send(adminID, Voice{MediaRef: "file-new"})

	var wg sync.WaitGroup
	results := make([]int, 2)
	for i, user := range []int64{20, 21} {
		wg.Add(1)
		go func(i int, user int64) {
			defer wg.Done()
			out := f.send(user, Query{ID: fmt.Sprint(user), Text: "quote"})
			results[i] = len(out.Answer.Results)
		}(i, user)
	}
	wg.Wait()

	assert.Equal(t, []int{2, 2}, results)
	assert.True(t, f.sessions.Get(adminID).HasPending())
}
