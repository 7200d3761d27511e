package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/voicequotes/core/logger"
	tg "github.com/m3rciful/voicequotes/core/telegram"
	"github.com/m3rciful/voicequotes/core/telegram/callbacks"
)

// CommandRoutes binds every registered command to its own endpoint.
// Authorization is left to the handlers.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}
	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for name, def := range cmds {
		s := step{name: handlerName("command", name), run: def.Handler}
		routes = append(routes, bind(name, func(tele.Context) (step, bool) { return s, true }))
	}
	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(cmds)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}

// MessageOptions controls fallback behaviour for text messages.
type MessageOptions struct {
	// UnknownCommand handles slash commands missing from the registry.
	UnknownCommand tele.HandlerFunc
}

// MessageRoutes binds text and media updates to handle. Media of every kind
// lands on OnMedia; only voices carry content of their own. Text matching a
// registered command or alias goes to that command unless it was forwarded.
func MessageRoutes(handle tele.HandlerFunc, reg *tg.Registry, opts MessageOptions) []tg.Route {
	if handle == nil {
		return nil
	}
	media := bind(tele.OnMedia, func(c tele.Context) (step, bool) {
		name := "media"
		if msg := c.Message(); msg != nil && msg.Voice != nil {
			name = "voice"
		}
		return step{name: name, run: handle}, true
	})
	return []tg.Route{bind(tele.OnText, textStep(handle, reg, opts)), media}
}

func textStep(handle tele.HandlerFunc, reg *tg.Registry, opts MessageOptions) pick {
	return func(c tele.Context) (step, bool) {
		msg := c.Message()
		if msg == nil || msg.Origin != nil {
			return step{name: "text", run: handle}, true
		}
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				return step{name: handlerName("command", key), run: cmd.Handler}, true
			}
		}
		if isCommand(msg) && opts.UnknownCommand != nil {
			return step{name: "unknown_command", run: opts.UnknownCommand}, true
		}
		return step{name: "text", run: handle}, true
	}
}

func isCommand(msg *tele.Message) bool {
	for _, e := range msg.Entities {
		if e.Type == tele.EntityCommand && e.Offset == 0 {
			return true
		}
	}
	return false
}

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute routes button presses through the registry by unique key.
// Every press is acknowledged before the handler runs.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	return bind(tele.OnCallback, func(c tele.Context) (step, bool) {
		cb := c.Callback()
		if cb == nil {
			return step{}, false
		}
		key, _ := callbacks.Parse(cb)
		_ = c.Respond()

		s := step{name: handlerName("callback", key), attrs: []slog.Attr{slog.String("cb_key", key)}}
		if h, ok := reg.GetCallback(key); ok {
			s.run = h
			return s, true
		}
		s.attrs = append(s.attrs, slog.String("reason", "not_found"))
		s.run = opts.NotFound
		if s.run == nil {
			s.run = reg.CallbackNotFound()
		}
		return s, true
	})
}

// QueryRoute binds inline queries to handle.
func QueryRoute(handle tele.HandlerFunc) tg.Route {
	return bind(tele.OnQuery, func(c tele.Context) (step, bool) {
		q := c.Query()
		if q == nil {
			return step{}, false
		}
		return step{
			name:  "inline_query",
			run:   handle,
			attrs: []slog.Attr{slog.String("query", logger.SanitizeLimit(q.Text, 128))},
		}, true
	})
}
