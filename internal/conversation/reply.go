package conversation

import "github.com/m3rciful/voicequotes/core/telegram/state"

// Button is an inline keyboard button bound to an Action.
type Button struct {
	Label  string
	Action Action
}

// Reply is a message to the user.
type Reply struct {
	Text    string
	Buttons [][]Button
	// EditMenu asks the transport to replace the message the pressed button belongs to.
	EditMenu bool
}

// InlineResult is one voice quote offered in inline search.
type InlineResult struct {
	ID       string
	MediaRef string
	Title    string
}

// InlineAnswer is the response to a Query.
type InlineAnswer struct {
	QueryID  string
	Results  []InlineResult
	CacheTTL int
	Personal bool
}

// Outcome is everything the transport has to deliver for one event.
type Outcome struct {
	Replies []Reply
	Answer  *InlineAnswer
	// Phase is the caller's phase after handling; empty for stateless events.
	Phase state.Phase
	// Err is the classified failure reported to the user, if any.
	Err error
}

func reply(text string, rows ...[]Button) Outcome {
	return Outcome{Replies: []Reply{{Text: text, Buttons: rows}}}
}

func failed(err error, text string, rows ...[]Button) Outcome {
	out := reply(text, rows...)
	out.Err = err
	return out
}

func row(buttons ...Button) []Button {
	return buttons
}

func button(label, name string, payload ...string) Button {
	b := Button{Label: label, Action: Action{Name: name}}
	if len(payload) > 0 {
		b.Action.Payload = payload[0]
	}
	return b
}
