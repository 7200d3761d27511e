package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/voicequotes/core/telegram"
	"github.com/m3rciful/voicequotes/core/telegram/commands"
	"github.com/m3rciful/voicequotes/internal/conversation"
)

var (
	alice   = &tele.User{ID: 10, Username: "alice"}
	private = &tele.Chat{ID: 10, Type: tele.ChatPrivate}
)

func message(m tele.Message) tele.Update {
	m.Sender = alice
	m.Chat = private
	return tele.Update{Message: &m}
}

func testCommands() *tg.Registry {
	reg := tg.NewRegistry()
	noop := func(tele.Context) error { return nil }
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Open the admin menu"})
	reg.RegisterCommand("/cancel", commands.Command{Handler: noop, Description: "Cancel", Aliases: []string{"stop"}})
	return reg
}

func TestDecode(t *testing.T) {
	cases := []struct {
		name string
		u    tele.Update
		want conversation.Event
	}{
		{"start", message(tele.Message{Text: "/start"}), conversation.Start{}},
		{"start with bot name", message(tele.Message{Text: "/start@quotebot deep"}), conversation.Start{}},
		{"cancel", message(tele.Message{Text: "/cancel"}), conversation.Cancel{}},
		{"cancel alias", message(tele.Message{Text: "/stop"}), conversation.Cancel{}},
		{"cancel alias with bot name", message(tele.Message{Text: "/Stop@quotebot"}), conversation.Cancel{}},
		{"text", message(tele.Message{Text: "Hello"}), conversation.Text{Text: "Hello"}},
		{"voice", message(tele.Message{Voice: &tele.Voice{File: tele.File{FileID: "v1"}}}), conversation.Voice{MediaRef: "v1"}},
		{
			"forward from user",
			message(tele.Message{Text: "hi", Origin: &tele.MessageOrigin{Sender: &tele.User{ID: 42, Username: "bob"}}}),
			conversation.Forward{Origin: &conversation.ForwardOrigin{UserID: 42, Username: "bob"}, Inner: conversation.Text{Text: "hi"}},
		},
		{
			"forward from hidden user",
			message(tele.Message{Voice: &tele.Voice{File: tele.File{FileID: "v2"}}, Origin: &tele.MessageOrigin{SenderUsername: "Hidden"}}),
			conversation.Forward{Inner: conversation.Voice{MediaRef: "v2"}},
		},
		{
			"callback",
			tele.Update{Callback: &tele.Callback{Sender: alice, Data: "\fquote_del|7|1"}},
			conversation.Action{Name: "quote_del", Payload: "7|1"},
		},
		{
			"inline query",
			tele.Update{Query: &tele.Query{ID: "q1", Sender: alice, Text: "hey"}},
			conversation.Query{ID: "q1", Text: "hey"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in, ok := Decode(tc.u, testCommands())
			require.True(t, ok)
			assert.Equal(t, int64(10), in.UserID)
			assert.Equal(t, "alice", in.Username)
			assert.Equal(t, tc.want, in.Event)
		})
	}
}

func TestDecodeIgnored(t *testing.T) {
	group := tele.Update{Message: &tele.Message{Text: "hi", Sender: alice, Chat: &tele.Chat{ID: -1, Type: tele.ChatGroup}}}
	cases := map[string]tele.Update{
		"empty":           {},
		"unknown command": message(tele.Message{Text: "/help"}),
		"photo":           message(tele.Message{Photo: &tele.Photo{}}),
		"group message":   group,
		"channel post":    {ChannelPost: &tele.Message{Text: "x"}},
		"empty callback":  {Callback: &tele.Callback{Sender: alice}},
	}
	for name, u := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := Decode(u, testCommands())
			assert.False(t, ok)
		})
	}
}

func TestDecodeWithoutCommandsKeepsCanonicalNames(t *testing.T) {
	in, ok := Decode(message(tele.Message{Text: "/cancel"}), nil)
	require.True(t, ok)
	assert.Equal(t, conversation.Cancel{}, in.Event)

	_, ok = Decode(message(tele.Message{Text: "/stop"}), nil)
	assert.False(t, ok)
}
