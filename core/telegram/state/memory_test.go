package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMirror struct {
	mu      sync.Mutex
	saved   map[int64]Session
	deletes int
	failing bool
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{saved: make(map[int64]Session)}
}

func (f *fakeMirror) Save(_ context.Context, s Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("mirror down")
	}
	f.saved[s.UserID] = s
	return nil
}

func (f *fakeMirror) Delete(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("mirror down")
	}
	f.deletes++
	delete(f.saved, userID)
	return nil
}

func (f *fakeMirror) LoadAll(context.Context) ([]Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Session, 0, len(f.saved))
	for _, s := range f.saved {
		out = append(out, s)
	}
	return out, nil
}

func TestGetReturnsIdleDefault(t *testing.T) {
	store := NewMemoryStore()

	s := store.Get(42)
	assert.Equal(t, Idle(42), s)
	assert.Empty(t, store.Active(), "Get must not create sessions")
}

func TestSetAndIsolation(t *testing.T) {
	store := NewMemoryStore()

	store.Set(1, Idle(1).AwaitCaption(100, "file-a"))
	store.Set(2, Idle(2).WithPhase(PhaseAwaitingVoice))

	one := store.Get(1)
	two := store.Get(2)
	assert.Equal(t, PhaseAwaitingCaption, one.Phase)
	assert.Equal(t, 100, one.PendingBroadcastRef)
	assert.Equal(t, "file-a", one.PendingMediaRef)
	assert.Equal(t, PhaseAwaitingVoice, two.Phase)
	assert.False(t, two.HasPending())

	store.Reset(2)
	assert.Equal(t, PhaseAwaitingCaption, store.Get(1).Phase)
}

func TestSetNormalizesInvariant(t *testing.T) {
	store := NewMemoryStore()

	store.Set(7, Session{Phase: PhaseAwaitingVoice, PendingBroadcastRef: 5, PendingMediaRef: "x"})
	got := store.Get(7)
	assert.Equal(t, Session{UserID: 7, Phase: PhaseAwaitingVoice}, got)
	assert.True(t, got.Consistent())

	store.Set(7, Session{Phase: PhaseAwaitingCaption, PendingBroadcastRef: 5})
	assert.Equal(t, Idle(7), store.Get(7))

	store.Set(7, Session{Phase: "bogus"})
	assert.Equal(t, Idle(7), store.Get(7))
}

func TestResetIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	store.Set(3, Idle(3).AwaitCaption(9, "f"))

	store.Reset(3)
	first := store.Get(3)
	store.Reset(3)
	assert.Equal(t, first, store.Get(3))
	assert.Equal(t, Idle(3), first)
}

func TestLockSerializesSameUser(t *testing.T) {
	store := NewMemoryStore()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := store.Lock(11)
			defer unlock()
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestLockDoesNotBlockOtherUsers(t *testing.T) {
	store := NewMemoryStore()
	unlock := store.Lock(1)
	defer unlock()

	done := make(chan struct{})
	go func() {
		release := store.Lock(2)
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for user 2 blocked on user 1")
	}
}

func TestKeyLockerForgetsReleasedKeys(t *testing.T) {
	k := newKeyLocker()
	unlock := k.Lock(5)
	assert.Equal(t, 1, k.size())
	unlock()
	unlock()
	assert.Equal(t, 0, k.size())
}

func TestMirrorWriteThroughAndRestore(t *testing.T) {
	mirror := newFakeMirror()
	store := NewMemoryStore(WithMirror(mirror))

	store.Set(1, Idle(1).AwaitCaption(10, "voice"))
	store.Set(2, Idle(2).WithPhase(PhaseAwaitingVoice))
	store.Reset(2)

	require.Len(t, mirror.saved, 1)
	assert.Equal(t, 10, mirror.saved[1].PendingBroadcastRef)

	restored := NewMemoryStore(WithMirror(mirror))
	n, err := restored.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, Idle(1).AwaitCaption(10, "voice"), restored.Get(1))
}

func TestMirrorFailureDoesNotBreakStore(t *testing.T) {
	mirror := newFakeMirror()
	mirror.failing = true
	store := NewMemoryStore(WithMirror(mirror))

	store.Set(4, Idle(4).WithPhase(PhaseAwaitingAdminForward))
	assert.Equal(t, PhaseAwaitingAdminForward, store.Get(4).Phase)
	store.Reset(4)
	assert.Equal(t, Idle(4), store.Get(4))
}

func TestActiveListsNonIdleSessions(t *testing.T) {
	store := NewMemoryStore()
	store.Set(9, Idle(9).WithPhase(PhaseAwaitingVoice))
	store.Set(3, Idle(3).AwaitCaption(1, "m"))
	store.Reset(5)

	active := store.Active()
	require.Len(t, active, 2)
	assert.Equal(t, int64(3), active[0].UserID)
	assert.Equal(t, int64(9), active[1].UserID)
}
