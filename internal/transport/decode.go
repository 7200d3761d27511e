// Package transport adapts Telegram updates and API calls to the conversation package.
package transport

import (
	"strings"

	"github.com/m3rciful/voicequotes/core/telegram/callbacks"
	"github.com/m3rciful/voicequotes/core/telegram/commands"
	"github.com/m3rciful/voicequotes/internal/conversation"

	tele "gopkg.in/telebot.v4"
)

// Commands resolves a command name or alias to its registered key.
type Commands interface {
	LookupCommand(name string) (string, commands.Command, bool)
}

// Decode maps an update to a conversation event. It reports false for updates
// the bot does not react to, such as group messages or unknown commands.
// Command aliases are resolved through cmds when it is not nil.
func Decode(u tele.Update, cmds Commands) (conversation.Inbound, bool) {
	switch {
	case u.Query != nil:
		q := u.Query
		if q.Sender == nil {
			return conversation.Inbound{}, false
		}
		return inbound(q.Sender, conversation.Query{ID: q.ID, Text: q.Text}), true

	case u.Callback != nil:
		cb := u.Callback
		if cb.Sender == nil {
			return conversation.Inbound{}, false
		}
		name, payload := callbacks.Parse(cb)
		if name == "" {
			return conversation.Inbound{}, false
		}
		return inbound(cb.Sender, conversation.Action{Name: name, Payload: payload}), true

	case u.Message != nil:
		msg := u.Message
		if msg.Sender == nil || msg.Chat == nil || msg.Chat.Type != tele.ChatPrivate {
			return conversation.Inbound{}, false
		}
		if msg.Origin != nil {
			return inbound(msg.Sender, conversation.Forward{
				Origin: forwardOrigin(msg.Origin),
				Inner:  content(msg),
			}), true
		}
		if cmd, ok := command(msg.Text); ok {
			if cmds != nil {
				if key, _, found := cmds.LookupCommand(cmd); found {
					cmd = strings.TrimPrefix(key, "/")
				}
			}
			switch cmd {
			case "start":
				return inbound(msg.Sender, conversation.Start{}), true
			case "cancel":
				return inbound(msg.Sender, conversation.Cancel{}), true
			}
			return conversation.Inbound{}, false
		}
		if ev := content(msg); ev != nil {
			return inbound(msg.Sender, ev), true
		}
	}
	return conversation.Inbound{}, false
}

func inbound(u *tele.User, ev conversation.Event) conversation.Inbound {
	return conversation.Inbound{UserID: u.ID, Username: u.Username, Event: ev}
}

func content(msg *tele.Message) conversation.Event {
	if msg.Voice != nil && msg.Voice.FileID != "" {
		return conversation.Voice{MediaRef: msg.Voice.FileID}
	}
	if msg.Text != "" {
		return conversation.Text{Text: msg.Text}
	}
	return nil
}

// forwardOrigin returns nil when the original author is hidden or is not a user.
func forwardOrigin(o *tele.MessageOrigin) *conversation.ForwardOrigin {
	if o == nil || o.Sender == nil || o.Sender.ID == 0 {
		return nil
	}
	return &conversation.ForwardOrigin{UserID: o.Sender.ID, Username: o.Sender.Username}
}

// command extracts "start" from "/start", "/start@bot" or "/start payload".
func command(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	name := strings.TrimPrefix(strings.Fields(text)[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name), name != ""
}
