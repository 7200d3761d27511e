package helpers

import (
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/m3rciful/voicequotes/core/logger"
	"github.com/m3rciful/voicequotes/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var outbox atomic.Pointer[sender.Dispatcher]

// SetDispatcher sets the queue replies go through. With nil, replies are
// sent inline.
func SetDispatcher(d *sender.Dispatcher) {
	outbox.Store(d)
}

// deliver queues send, or runs it inline when there is no queue or the
// queue refuses the job.
func deliver(c tele.Context, action, method string, send func() error) error {
	d := outbox.Load()
	if d == nil {
		return send()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, action, method, send)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("method", method),
			slog.String("err", err.Error()),
		)
		return send()
	}
	return err
}

// SendText sends plain text to the current chat. Only the first of opts is used.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var args []any
	if len(opts) > 0 && opts[0] != nil {
		args = append(args, opts[0])
	}
	return deliver(c, "send.text", "sendMessage", func() error {
		return c.Send(text, args...)
	})
}

// EditOrSendText edits the message behind the current callback, or sends a
// new message when there is none or Telegram refuses the edit. An edit that
// changes nothing is not an error.
func EditOrSendText(c tele.Context, text string, opts *tele.SendOptions) error {
	if opts == nil {
		opts = &tele.SendOptions{}
	}
	if cb := c.Callback(); cb != nil && cb.Message != nil {
		err := c.Edit(text, opts)
		if err == nil || IsNotModified(err) {
			return nil
		}
		if !IsNotEditable(err) {
			return err
		}
	}
	return SendText(c, text, opts)
}

// IsNotModified reports an edit that left the message unchanged.
func IsNotModified(err error) bool {
	return errors.Is(err, tele.ErrSameMessageContent) || hasDescription(err, "message is not modified")
}

// IsNotEditable reports an edit refused because the message can no longer be edited.
func IsNotEditable(err error) bool {
	return hasDescription(err, "message can't be edited")
}

// IsMessageGone reports a delete of a message that no longer exists.
func IsMessageGone(err error) bool {
	return hasDescription(err, "message to delete not found")
}

// hasDescription matches the API description for errors telebot has no value for.
func hasDescription(err error, text string) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), text)
}
