package middleware

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/voicequotes/core/logger"
	"github.com/m3rciful/voicequotes/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/voicequotes/core/telegram/helpers"
)

const receivedKey = "tg.received"

// Logging creates the request context of the update and writes a sampled
// debug receipt. It runs both globally and per route; the receipt is written once.
func Logging(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		if c.Get(receivedKey) == nil {
			c.Set(receivedKey, true)
			if logger.ShouldSampleDebug() {
				logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", receiptAttrs(c)...)
			}
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil && user.Username != "" {
		attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
	}

	upd := c.Update()
	switch {
	case upd.Callback != nil:
		key, payload := callbacks.Parse(upd.Callback)
		attrs = append(attrs,
			slog.String("cb_key", logger.SanitizeLimit(key, 128)),
			slog.String("payload", logger.SanitizeLimit(payload, 256)),
		)
	case upd.Query != nil:
		attrs = append(attrs, slog.String("query", logger.SanitizeLimit(upd.Query.Text, 256)))
	case upd.Message != nil:
		msg := upd.Message
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(msg.Text, 256)))
		if msg.Voice != nil {
			attrs = append(attrs, slog.String("media_ref", msg.Voice.FileID))
		}
		if msg.Origin != nil {
			attrs = append(attrs, slog.Bool("forwarded", true))
		}
	}
	return attrs
}
