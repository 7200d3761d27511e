package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/m3rciful/voicequotes/core/telegram/state"
	"github.com/m3rciful/voicequotes/internal/admins"
	"github.com/m3rciful/voicequotes/internal/quotes"
)

const (
	adminID    int64 = 1
	strangerID int64 = 2
	otherAdmin int64 = 3
)

type fakeChannel struct {
	mu        sync.Mutex
	nextID    int
	sent      map[int]string
	captions  map[int]string
	deleted   []int
	sendErr   error
	editErr   error
	deleteErr error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{nextID: 100, sent: map[int]string{}, captions: map[int]string{}}
}

func (f *fakeChannel) SendVoice(_ context.Context, mediaRef string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.nextID++
	f.sent[f.nextID] = mediaRef
	return f.nextID, nil
}

func (f *fakeChannel) EditCaption(_ context.Context, messageID int, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return f.editErr
	}
	if _, ok := f.sent[messageID]; !ok {
		return errors.New("message not found")
	}
	f.captions[messageID] = caption
	return nil
}

func (f *fakeChannel) DeleteMessage(_ context.Context, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.sent, messageID)
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeChannel) live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// failingRepo wraps a repository and fails Add with addErr.
type failingRepo struct {
	quotes.Repository
	addErr error
}

func (r *failingRepo) Add(ctx context.Context, mediaRef, title string, opts ...quotes.AddOption) (quotes.Quote, error) {
	if r.addErr != nil {
		return quotes.Quote{}, r.addErr
	}
	return r.Repository.Add(ctx, mediaRef, title, opts...)
}

type fixture struct {
	sessions   state.MemoryStore
	quotes     *quotes.MemoryRepository
	admins     *admins.MemoryRegistry
	journal    *quotes.MemoryJournal
	channel    *fakeChannel
	machine    *Machine
	dispatcher *Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sessions: state.NewMemoryStore(),
		quotes:   quotes.NewMemoryRepository(quotes.DefaultSearchLimit),
		admins:   admins.NewMemoryRegistry(adminID, otherAdmin),
		journal:  quotes.NewMemoryJournal(),
		channel:  newFakeChannel(),
	}
	f.rebuild(f.quotes)
	return f
}

func (f *fixture) rebuild(repo quotes.Repository) {
	f.machine = NewMachine(Deps{
		Sessions: f.sessions,
		Quotes:   repo,
		Admins:   f.admins,
		Journal:  f.journal,
		Channel:  f.channel,
		PageSize: 2,
	})
	f.dispatcher = NewDispatcher(f.sessions, f.admins, f.machine, NewSearcher(repo, 0))
}

func (f *fixture) send(userID int64, ev Event) Outcome {
	return f.dispatcher.Dispatch(context.Background(), Inbound{UserID: userID, Event: ev})
}

func (f *fixture) phase(userID int64) state.Phase {
	return f.sessions.Get(userID).Phase
}

func (f *fixture) pending(t *testing.T) []quotes.PendingBroadcast {
	t.Helper()
	list, err := f.journal.List(context.Background())
	if err != nil {
		t.Fatalf("journal list: %v", err)
	}
	return list
}

func buttonNames(out Outcome) []string {
	var names []string
	for _, r := range out.Replies {
		for _, row := range r.Buttons {
			for _, b := range row {
				names = append(names, b.Action.Name)
			}
		}
	}
	return names
}
