// Package conversation drives the per-user quote publishing workflow and
// the stateless inline search.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/voicequotes/core/logger"
	"github.com/m3rciful/voicequotes/core/telegram/state"
	"github.com/m3rciful/voicequotes/internal/admins"
	"github.com/m3rciful/voicequotes/internal/quotes"
)

const (
	// DefaultPageSize is the number of quotes per management page.
	DefaultPageSize = 5
	component       = "conversation"
)

// Deps are the collaborators of the state machine.
type Deps struct {
	Sessions state.Store
	Quotes   quotes.Repository
	Admins   admins.Registry
	Journal  quotes.Journal
	Channel  Channel
	PageSize int
}

// Machine interprets events against the caller's session.
// Callers must hold the session lock of the user for the duration of Handle.
type Machine struct {
	sessions state.Store
	quotes   quotes.Repository
	admins   admins.Registry
	journal  quotes.Journal
	channel  Channel
	pageSize int
}

// NewMachine builds a Machine. A nil journal disables journaling.
func NewMachine(d Deps) *Machine {
	if d.PageSize <= 0 {
		d.PageSize = DefaultPageSize
	}
	return &Machine{
		sessions: d.Sessions,
		quotes:   d.Quotes,
		admins:   d.Admins,
		journal:  d.Journal,
		channel:  d.Channel,
		pageSize: d.PageSize,
	}
}

// Handle processes one stateful event.
func (m *Machine) Handle(ctx context.Context, in Inbound) Outcome {
	before := m.sessions.Get(in.UserID).Phase
	out := m.handle(ctx, in)
	after := m.sessions.Get(in.UserID).Phase
	out.Phase = after
	if before != after {
		logger.Info(ctx, component, "phase.transition",
			slog.Int64("user_id", in.UserID),
			slog.String("phase", string(before)),
			slog.String("next_phase", string(after)),
			slog.String("cause", Kind(in.Event)),
		)
	}
	return out
}

func (m *Machine) handle(ctx context.Context, in Inbound) Outcome {
	switch ev := in.Event.(type) {
	case Start:
		return m.menu(false)
	case Cancel:
		return m.finish(ctx, in)
	case Action:
		return m.action(ctx, in, ev)
	case Voice:
		return m.voice(ctx, in, ev)
	case Text:
		return m.text(ctx, in, ev)
	case Forward:
		return m.forward(ctx, in, ev)
	}
	return Outcome{}
}

func (m *Machine) menu(edit bool) Outcome {
	out := reply(textWelcome,
		row(button(labelAddQuote, ActionAddQuote)),
		row(button(labelQuotes, ActionListQuotes, "0"), button(labelAdmins, ActionListAdmins)),
		row(button(labelAddAdmin, ActionAddAdmin)),
	)
	out.Replies[0].EditMenu = edit
	return out
}

func finishRow() []Button {
	return row(button(labelFinish, ActionFinish))
}

func (m *Machine) action(ctx context.Context, in Inbound, ev Action) Outcome {
	switch ev.Name {
	case ActionMenu:
		return m.menu(true)
	case ActionAddQuote:
		return m.enter(in.UserID, state.PhaseAwaitingVoice, textAskVoice)
	case ActionAddAdmin:
		return m.enter(in.UserID, state.PhaseAwaitingAdminForward, textAskForward)
	case ActionFinish:
		return m.finish(ctx, in)
	case ActionListQuotes:
		return m.listQuotes(ctx, ev)
	case ActionDeleteQuote:
		return m.deleteQuote(ctx, ev)
	case ActionListAdmins:
		return m.listAdmins(ctx, in)
	case ActionRemoveAdmin:
		return m.removeAdmin(ctx, in, ev)
	}
	return failed(newError(KindInvalidInput, "action."+ev.Name, nil), textUnknownAction)
}

// enter starts a workflow unless a published clip is still waiting for its caption.
func (m *Machine) enter(userID int64, phase state.Phase, prompt string) Outcome {
	sess := m.sessions.Get(userID)
	if sess.Phase == state.PhaseAwaitingCaption {
		return failed(newError(KindInvalidInput, "enter."+string(phase), nil), textCaptionExpected, finishRow())
	}
	m.sessions.Set(userID, sess.WithPhase(phase))
	return reply(prompt, finishRow())
}

func (m *Machine) finish(ctx context.Context, in Inbound) Outcome {
	sess := m.sessions.Get(in.UserID)
	if sess.HasPending() {
		m.discard(ctx, sess)
	}
	m.sessions.Reset(in.UserID)
	return reply(textFinished)
}

func (m *Machine) voice(ctx context.Context, in Inbound, ev Voice) Outcome {
	sess := m.sessions.Get(in.UserID)
	switch sess.Phase {
	case state.PhaseAwaitingVoice:
	case state.PhaseAwaitingCaption:
		return reply(textCaptionExpected, finishRow())
	case state.PhaseAwaitingAdminForward:
		return failed(newError(KindInvalidInput, "voice", nil), textForwardExpected, finishRow())
	default:
		ok, err := m.admins.Contains(ctx, in.UserID)
		if err != nil {
			return m.storageFailure(ctx, "admins.contains", err)
		}
		if !ok {
			return failed(newError(KindUnauthorized, "voice", nil), textUseSearch)
		}
		return reply(textVoiceFirst, row(button(labelAddQuote, ActionAddQuote)))
	}

	if out, ok := m.stillAdmin(ctx, in.UserID); !ok {
		return out
	}

	dup, err := m.quotes.HasMedia(ctx, ev.MediaRef)
	if err != nil {
		return m.storageFailure(ctx, "quotes.has_media", err)
	}
	if dup {
		return failed(newError(KindDuplicateMedia, "voice", quotes.ErrDuplicateMedia), textDuplicate, finishRow())
	}

	msgID, err := m.channel.SendVoice(ctx, ev.MediaRef)
	if err != nil {
		logger.Warn(ctx, component, "channel.send_voice",
			slog.String("status", "fail"),
			slog.Int64("user_id", in.UserID),
			slog.String("err", err.Error()),
		)
		return failed(newError(KindTransport, "channel.send_voice", err),
			fmt.Sprintf(textSendFailed, err.Error()), finishRow())
	}
	m.record(ctx, quotes.NewPendingBroadcast(in.UserID, msgID, ev.MediaRef))

	sess = m.sessions.Get(in.UserID)
	m.sessions.Set(in.UserID, sess.AwaitCaption(msgID, ev.MediaRef))
	return reply(textAskCaption, finishRow())
}

func (m *Machine) text(ctx context.Context, in Inbound, ev Text) Outcome {
	sess := m.sessions.Get(in.UserID)
	switch sess.Phase {
	case state.PhaseAwaitingCaption:
		return m.caption(ctx, in, sess, ev.Text)
	case state.PhaseAwaitingVoice:
		return reply(textVoiceExpected, finishRow())
	case state.PhaseAwaitingAdminForward:
		return failed(newError(KindInvalidInput, "forward", nil), textForwardExpected, finishRow())
	}
	return Outcome{}
}

func (m *Machine) caption(ctx context.Context, in Inbound, sess state.Session, text string) Outcome {
	title := strings.TrimSpace(text)
	if title == "" {
		return failed(newError(KindInvalidInput, "caption", quotes.ErrEmptyTitle), textEmptyCaption, finishRow())
	}
	if out, ok := m.stillAdmin(ctx, in.UserID); !ok {
		return out
	}

	if err := m.channel.EditCaption(ctx, sess.PendingBroadcastRef, title); err != nil {
		logger.Warn(ctx, component, "channel.edit_caption",
			slog.String("status", "fail"),
			slog.Int("message_id", sess.PendingBroadcastRef),
			slog.String("err", err.Error()),
		)
		return failed(newError(KindTransport, "channel.edit_caption", err),
			fmt.Sprintf(textEditFailed, err.Error()), finishRow())
	}

	q, err := m.quotes.Add(ctx, sess.PendingMediaRef, title, quotes.FromBroadcast(sess.PendingBroadcastRef))
	switch {
	case errors.Is(err, quotes.ErrDuplicateMedia):
		m.resolve(ctx, sess.PendingBroadcastRef)
		m.sessions.Reset(in.UserID)
		return failed(newError(KindDuplicateMedia, "quotes.add", err), textDuplicate, m.publishedRow())
	case err != nil:
		logger.Error(ctx, component, "quotes.add",
			slog.String("status", "fail"),
			slog.Int("message_id", sess.PendingBroadcastRef),
			slog.String("err", err.Error()),
		)
		return failed(newError(KindTransport, "quotes.add", err), textStoreFailed, finishRow())
	}

	m.resolve(ctx, sess.PendingBroadcastRef)
	if cur := m.sessions.Get(in.UserID); cur.PendingBroadcastRef == sess.PendingBroadcastRef {
		m.sessions.Reset(in.UserID)
	}
	logger.Info(ctx, component, "quote.published",
		slog.String("status", "ok"),
		slog.Int64("quote_id", q.ID),
		slog.Int("message_id", sess.PendingBroadcastRef),
	)
	return reply(textPublished, m.publishedRow())
}

func (m *Machine) publishedRow() []Button {
	return row(button(labelAddAnother, ActionAddQuote), button(labelFinish, ActionFinish))
}

func (m *Machine) forward(ctx context.Context, in Inbound, ev Forward) Outcome {
	sess := m.sessions.Get(in.UserID)
	if sess.Phase != state.PhaseAwaitingAdminForward {
		if ev.Inner == nil {
			return Outcome{}
		}
		return m.handle(ctx, Inbound{UserID: in.UserID, Username: in.Username, Event: ev.Inner})
	}
	if out, ok := m.stillAdmin(ctx, in.UserID); !ok {
		return out
	}

	origin := ev.Origin
	if origin == nil || origin.UserID == 0 {
		return failed(newError(KindInvalidInput, "promote", errors.New("hidden forward origin")), textHiddenSender, finishRow())
	}
	if origin.UserID == in.UserID {
		return failed(newError(KindInvalidInput, "promote", errors.New("self promotion")), textSelfPromotion, finishRow())
	}

	name := displayName(origin.UserID, origin.Username)
	exists, err := m.admins.Contains(ctx, origin.UserID)
	if err != nil {
		return m.storageFailure(ctx, "admins.contains", err)
	}
	if exists {
		return reply(fmt.Sprintf(textAlreadyAdmin, name), finishRow())
	}
	if err := m.admins.Add(ctx, admins.Entry{UserID: origin.UserID, Username: origin.Username}); err != nil {
		return m.storageFailure(ctx, "admins.add", err)
	}

	m.sessions.Reset(in.UserID)
	logger.Info(ctx, component, "admin.promoted",
		slog.String("status", "ok"),
		slog.Int64("user_id", in.UserID),
		slog.Int64("target_user_id", origin.UserID),
	)
	out := m.menu(false)
	out.Replies = append([]Reply{{Text: fmt.Sprintf(textPromoted, name)}}, out.Replies...)
	return out
}

// stillAdmin re-checks authorization before a privileged transition and resets the caller otherwise.
func (m *Machine) stillAdmin(ctx context.Context, userID int64) (Outcome, bool) {
	ok, err := m.admins.Contains(ctx, userID)
	if err != nil {
		return m.storageFailure(ctx, "admins.contains", err), false
	}
	if ok {
		return Outcome{}, true
	}
	sess := m.sessions.Get(userID)
	if sess.HasPending() {
		m.discard(ctx, sess)
	}
	m.sessions.Reset(userID)
	return failed(newError(KindUnauthorized, "privileged", nil), textNotAdminAnymore), false
}

func (m *Machine) storageFailure(ctx context.Context, op string, err error) Outcome {
	logger.Error(ctx, component, op,
		slog.String("status", "fail"),
		slog.String("err", err.Error()),
	)
	return failed(newError(KindTransport, op, err), textStorageFailed)
}

// discard removes a captionless channel post. The journal entry stays when deletion fails
// so that the reconciliation sweep retries it.
func (m *Machine) discard(ctx context.Context, sess state.Session) {
	if err := m.channel.DeleteMessage(ctx, sess.PendingBroadcastRef); err != nil {
		logger.Warn(ctx, component, "channel.discard",
			slog.String("status", "fail"),
			slog.Int("message_id", sess.PendingBroadcastRef),
			slog.String("err", err.Error()),
		)
		return
	}
	m.resolve(ctx, sess.PendingBroadcastRef)
}

func (m *Machine) record(ctx context.Context, p quotes.PendingBroadcast) {
	if m.journal == nil {
		return
	}
	if err := m.journal.Record(ctx, p); err != nil {
		logger.Warn(ctx, component, "journal.record",
			slog.String("status", "fail"),
			slog.Int("message_id", p.MessageID),
			slog.String("err", err.Error()),
		)
	}
}

func (m *Machine) resolve(ctx context.Context, messageID int) {
	if m.journal == nil {
		return
	}
	if err := m.journal.Resolve(ctx, messageID); err != nil {
		logger.Warn(ctx, component, "journal.resolve",
			slog.String("status", "fail"),
			slog.Int("message_id", messageID),
			slog.String("err", err.Error()),
		)
	}
}

func displayName(userID int64, username string) string {
	if username != "" {
		return "@" + username
	}
	return fmt.Sprintf("User %d", userID)
}
