package helpers

import (
	"context"

	"github.com/m3rciful/voicequotes/core/logger"

	tele "gopkg.in/telebot.v4"
)

const ctxStoreKey = "logger_ctx"

// BuildContext returns the request context of c, creating it on first use with
// the update identifiers that every log line of the update carries.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(ctxStoreKey).(context.Context); ok && ctx != nil {
		return ctx
	}

	m := logger.Meta{UpdateID: c.Update().ID}
	if user := c.Sender(); user != nil {
		m.UserID = user.ID
	}
	if chat := c.Chat(); chat != nil {
		m.ChatID = chat.ID
	}
	ctx := logger.WithMeta(context.Background(), m)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	c.Set(ctxStoreKey, ctx)
	return ctx
}

// WithHandler adds the handler name to the request context of c.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := logger.WithHandler(BuildContext(c), handler)
	c.Set(ctxStoreKey, ctx)
	return ctx
}
