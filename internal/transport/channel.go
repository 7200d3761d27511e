package transport

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"

	tghelpers "github.com/m3rciful/voicequotes/core/telegram/helpers"
	tgsender "github.com/m3rciful/voicequotes/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// ErrNotBound is returned by Channel calls made before Bind.
var ErrNotBound = errors.New("transport: channel is not bound to a bot")

// BotAPI is the subset of *tele.Bot used for channel posts.
type BotAPI interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	EditCaption(msg tele.Editable, caption string, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
}

type apiHolder struct{ api BotAPI }

// Channel publishes voice quotes to a Telegram channel.
type Channel struct {
	chatID int64
	api    atomic.Pointer[apiHolder]
	exec   *tgsender.Dispatcher
}

// NewChannel creates a Channel for chatID. Calls go through exec with its
// retry policy when exec is not nil.
func NewChannel(chatID int64, exec *tgsender.Dispatcher) *Channel {
	return &Channel{chatID: chatID, exec: exec}
}

// Bind attaches the bot once it has been created.
func (ch *Channel) Bind(api BotAPI) {
	if api == nil {
		ch.api.Store(nil)
		return
	}
	ch.api.Store(&apiHolder{api: api})
}

func (ch *Channel) bot() (BotAPI, error) {
	h := ch.api.Load()
	if h == nil {
		return nil, ErrNotBound
	}
	return h.api, nil
}

func (ch *Channel) do(ctx context.Context, action, endpoint string, run func() error) error {
	if ch.exec == nil {
		return run()
	}
	return ch.exec.Do(ctx, action, endpoint, run)
}

func (ch *Channel) ref(messageID int) tele.StoredMessage {
	return tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: ch.chatID}
}

// SendVoice posts a previously uploaded voice file and returns the channel message id.
func (ch *Channel) SendVoice(ctx context.Context, mediaRef string) (int, error) {
	api, err := ch.bot()
	if err != nil {
		return 0, err
	}
	var msg *tele.Message
	err = ch.do(ctx, "channel.send_voice", "sendVoice", func() error {
		var sendErr error
		msg, sendErr = api.Send(tele.ChatID(ch.chatID), &tele.Voice{File: tele.File{FileID: mediaRef}})
		return sendErr
	})
	if err != nil {
		return 0, err
	}
	if msg == nil {
		return 0, errors.New("transport: empty send response")
	}
	return msg.ID, nil
}

// EditCaption sets the caption of a channel post. An unchanged caption is not an error.
func (ch *Channel) EditCaption(ctx context.Context, messageID int, caption string) error {
	api, err := ch.bot()
	if err != nil {
		return err
	}
	err = ch.do(ctx, "channel.edit_caption", "editMessageCaption", func() error {
		_, editErr := api.EditCaption(ch.ref(messageID), caption)
		return editErr
	})
	if tghelpers.IsNotModified(err) {
		return nil
	}
	return err
}

// DeleteMessage removes a channel post. A post that is already gone is not an error.
func (ch *Channel) DeleteMessage(ctx context.Context, messageID int) error {
	api, err := ch.bot()
	if err != nil {
		return err
	}
	err = ch.do(ctx, "channel.delete", "deleteMessage", func() error {
		return api.Delete(ch.ref(messageID))
	})
	if tghelpers.IsMessageGone(err) {
		return nil
	}
	return err
}
