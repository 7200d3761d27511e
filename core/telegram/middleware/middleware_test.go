package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/voicequotes/core/config"
)

type fakeContext struct {
	tele.Context
	upd   tele.Update
	store map[string]any
	sent  int
}

func newContext(upd tele.Update) *fakeContext {
	return &fakeContext{upd: upd, store: map[string]any{}}
}

func message(userID int64) tele.Update {
	return tele.Update{ID: int(userID), Message: &tele.Message{Sender: &tele.User{ID: userID}, Text: "hi"}}
}

func (c *fakeContext) Update() tele.Update    { return c.upd }
func (c *fakeContext) Chat() *tele.Chat       { return nil }
func (c *fakeContext) Get(key string) any     { return c.store[key] }
func (c *fakeContext) Set(key string, v any)  { c.store[key] = v }
func (c *fakeContext) Send(any, ...any) error { c.sent++; return nil }

func (c *fakeContext) Sender() *tele.User {
	switch {
	case c.upd.Message != nil:
		return c.upd.Message.Sender
	case c.upd.Query != nil:
		return c.upd.Query.Sender
	}
	return nil
}

func TestRateLimitDropsBurstsPerUser(t *testing.T) {
	cfg := coreconfig.RateLimitConfig{IntervalMS: int(time.Hour / time.Millisecond), ExcludeUpdates: []string{coreconfig.UpdateInlineQuery}}
	var handled, limited int
	h := RateLimit(cfg, func(tele.Context) error { limited++; return nil })(func(tele.Context) error {
		handled++
		return nil
	})

	require.NoError(t, h(newContext(message(1))))
	require.NoError(t, h(newContext(message(1))))
	require.NoError(t, h(newContext(message(2))))
	query := tele.Update{Query: &tele.Query{Sender: &tele.User{ID: 1}, Text: "q"}}
	require.NoError(t, h(newContext(query)))

	assert.Equal(t, 3, handled)
	assert.Equal(t, 1, limited)
}

func TestRateLimitDisabledWithoutInterval(t *testing.T) {
	var handled int
	h := RateLimit(coreconfig.RateLimitConfig{}, nil)(func(tele.Context) error {
		handled++
		return nil
	})
	for i := 0; i < 3; i++ {
		require.NoError(t, h(newContext(message(1))))
	}
	assert.Equal(t, 3, handled)
}

func TestUserLimiterPrunesIdleUsers(t *testing.T) {
	l := newUserLimiter(time.Nanosecond)
	for id := int64(0); id < pruneAbove; id++ {
		l.allow(id)
	}
	time.Sleep(time.Millisecond)
	l.allow(pruneAbove)
	assert.Len(t, l.users, 1)
}

func TestCountersTrackReplies(t *testing.T) {
	c := newContext(message(1))
	h := Counters(func(c tele.Context) error {
		if err := c.Send("plain"); err != nil {
			return err
		}
		return c.Send("menu", &tele.ReplyMarkup{})
	})

	require.NoError(t, h(c))
	msgs, kb := GetCounters(c)
	assert.Equal(t, 2, msgs)
	assert.True(t, kb)
	assert.Equal(t, 2, c.sent)

	msgs, kb = GetCounters(newContext(message(2)))
	assert.Zero(t, msgs)
	assert.False(t, kb)
}

func TestRecoverReturnsPanicAsError(t *testing.T) {
	h := Recover(func(tele.Context) error { panic("boom") })

	err := h(newContext(message(1)))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestLoggingMarksUpdateOnce(t *testing.T) {
	c := newContext(message(1))
	var calls int
	h := Logging(Logging(func(tele.Context) error { calls++; return nil }))

	require.NoError(t, h(c))
	assert.Equal(t, 1, calls)
	assert.Equal(t, true, c.Get(receivedKey))
	assert.NotNil(t, c.Get("logger_ctx"))
}
