package transport

import (
	"context"
	"errors"

	tghelpers "github.com/m3rciful/voicequotes/core/telegram/helpers"
	"github.com/m3rciful/voicequotes/internal/conversation"

	tele "gopkg.in/telebot.v4"
)

// Dispatcher handles decoded events.
type Dispatcher interface {
	Dispatch(ctx context.Context, in conversation.Inbound) conversation.Outcome
}

// Handler is the single telebot handler behind every route of the bot.
type Handler struct {
	dispatcher Dispatcher
	commands   Commands
}

// NewHandler wraps a Dispatcher.
func NewHandler(d Dispatcher) *Handler {
	return &Handler{dispatcher: d}
}

// UseCommands makes command aliases decode like their canonical command.
// It must be called before the bot starts handling updates.
func (h *Handler) UseCommands(c Commands) {
	h.commands = c
}

// Handle decodes the update, dispatches it and delivers the outcome. The
// classified error of the outcome is returned for the handler summary.
func (h *Handler) Handle(c tele.Context) error {
	in, ok := Decode(c.Update(), h.commands)
	if !ok {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	out := h.dispatcher.Dispatch(ctx, in)
	if err := Deliver(c, out); err != nil {
		return err
	}
	return out.Err
}

// Deliver sends the replies and the inline answer of an outcome.
func Deliver(c tele.Context, out conversation.Outcome) error {
	var errs []error
	for _, r := range out.Replies {
		if err := deliverReply(c, r); err != nil {
			errs = append(errs, err)
		}
	}
	if out.Answer != nil {
		if err := c.Answer(queryResponse(out.Answer)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func deliverReply(c tele.Context, r conversation.Reply) error {
	opts := &tele.SendOptions{}
	if markup := Markup(r.Buttons); markup != nil {
		opts.ReplyMarkup = markup
	}
	if r.EditMenu {
		return tghelpers.EditOrSendText(c, r.Text, opts)
	}
	return tghelpers.SendText(c, r.Text, opts)
}

// Markup converts button rows to an inline keyboard.
func Markup(rows [][]conversation.Button) *tele.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	m := &tele.ReplyMarkup{}
	kb := make([]tele.Row, len(rows))
	for i, row := range rows {
		for _, b := range row {
			kb[i] = append(kb[i], m.Data(b.Label, b.Action.Name, b.Action.Payload))
		}
	}
	m.Inline(kb...)
	return m
}

func queryResponse(a *conversation.InlineAnswer) *tele.QueryResponse {
	results := make(tele.Results, 0, len(a.Results))
	for _, r := range a.Results {
		v := &tele.VoiceResult{Title: r.Title, Cache: r.MediaRef}
		v.SetResultID(r.ID)
		results = append(results, v)
	}
	// cache_time is omitted when zero, which Telegram reads as 300 seconds.
	ttl := a.CacheTTL
	if ttl <= 0 {
		ttl = 1
	}
	return &tele.QueryResponse{
		QueryID:    a.QueryID,
		Results:    results,
		CacheTime:  ttl,
		IsPersonal: a.Personal,
	}
}
