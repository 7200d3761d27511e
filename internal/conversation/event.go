package conversation

// Inbound is one decoded update from a user.
type Inbound struct {
	UserID   int64
	Username string
	Event    Event
}

// Event is the closed set of inbound update kinds.
type Event interface {
	kind() string
}

// Start is the /start command.
type Start struct{}

// Cancel is the /cancel command.
type Cancel struct{}

// Action is an inline button press.
type Action struct {
	Name    string
	Payload string
}

// Voice is a voice attachment.
type Voice struct {
	MediaRef string
}

// Text is a plain text message.
type Text struct {
	Text string
}

// ForwardOrigin identifies the original sender of a forwarded message.
type ForwardOrigin struct {
	UserID   int64
	Username string
}

// Forward is a forwarded message. Origin is nil when the sender hides their account.
// Inner carries the forwarded content (Voice or Text) when it has one.
type Forward struct {
	Origin *ForwardOrigin
	Inner  Event
}

// Query is an inline search request.
type Query struct {
	ID   string
	Text string
}

func (Start) kind() string   { return "start" }
func (Cancel) kind() string  { return "cancel" }
func (Action) kind() string  { return "action" }
func (Voice) kind() string   { return "voice" }
func (Text) kind() string    { return "text" }
func (Forward) kind() string { return "forward" }
func (Query) kind() string   { return "inline_query" }

// Kind names the event for logs.
func Kind(e Event) string {
	if e == nil {
		return "unknown"
	}
	return e.kind()
}

// Button press names carried as the callback unique key.
const (
	ActionMenu        = "menu"
	ActionAddQuote    = "add_quote"
	ActionAddAdmin    = "add_admin"
	ActionFinish      = "finish"
	ActionListQuotes  = "quotes"
	ActionDeleteQuote = "quote_del"
	ActionListAdmins  = "admins"
	ActionRemoveAdmin = "admin_del"
)

// requiresAdmin reports whether the event may only come from an admin.
func requiresAdmin(e Event) bool {
	switch e.(type) {
	case Start, Cancel, Action:
		return true
	}
	return false
}
