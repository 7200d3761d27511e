package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const countersKey = "tg.counters"

// counters track the replies of one update. Sends may run on the sender
// goroutines, hence the atomics.
type counters struct {
	messages atomic.Int32
	keyboard atomic.Bool
}

func (n *counters) sent(opts []any) {
	n.messages.Add(1)
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				n.keyboard.Store(true)
			}
		case *tele.ReplyMarkup:
			if v != nil {
				n.keyboard.Store(true)
			}
		}
	}
}

// countingContext counts successful replies made through it.
type countingContext struct {
	tele.Context
	n *counters
}

func (c countingContext) count(err error, opts []any) error {
	if err == nil {
		c.n.sent(opts)
	}
	return err
}

func (c countingContext) Send(what any, opts ...any) error {
	return c.count(c.Context.Send(what, opts...), opts)
}

func (c countingContext) Reply(what any, opts ...any) error {
	return c.count(c.Context.Reply(what, opts...), opts)
}

func (c countingContext) Edit(what any, opts ...any) error {
	return c.count(c.Context.Edit(what, opts...), opts)
}

func (c countingContext) EditOrSend(what any, opts ...any) error {
	return c.count(c.Context.EditOrSend(what, opts...), opts)
}

func (c countingContext) EditOrReply(what any, opts ...any) error {
	return c.count(c.Context.EditOrReply(what, opts...), opts)
}

func (c countingContext) Answer(resp *tele.QueryResponse) error {
	return c.count(c.Context.Answer(resp), nil)
}

// Counters makes the reply count of an update available to GetCounters.
func Counters(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		n := &counters{}
		c.Set(countersKey, n)
		return next(countingContext{Context: c, n: n})
	}
}

// GetCounters returns how many replies were sent and whether any carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	n, _ := c.Get(countersKey).(*counters)
	if n == nil {
		return 0, false
	}
	return int(n.messages.Load()), n.keyboard.Load()
}
