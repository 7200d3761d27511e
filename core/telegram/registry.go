package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/voicequotes/core/logger"
	"github.com/m3rciful/voicequotes/core/telegram/commands"
)

// Registry maps command names and callback keys to handlers. It is filled
// while wiring and only read once the bot runs.
type Registry struct {
	mu        sync.RWMutex
	commands  map[string]commands.Command
	aliases   map[string]string
	callbacks map[string]tele.HandlerFunc
	notFound  tele.HandlerFunc
}

// NewRegistry returns an empty registry whose unknown-callback fallback
// answers with a short notice.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		aliases:   make(map[string]string),
		callbacks: make(map[string]tele.HandlerFunc),
		notFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "This button is no longer supported"})
		},
	}
}

// RegisterCommand adds cmd under name, which must start with a slash.
// Invalid or duplicate registrations are logged and rejected.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	err := r.addCommand(name, cmd)
	if err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("err", err.Error()),
		)
	}
	return err
}

func (r *Registry) addCommand(name string, cmd commands.Command) error {
	switch {
	case name == "" || name[0] != '/':
		return fmt.Errorf("command %q must start with a slash", name)
	case cmd.Handler == nil || cmd.Description == "":
		return fmt.Errorf("command %q needs a handler and a description", name)
	}
	key := commands.Canonical(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.commands[key]; dup {
		return fmt.Errorf("command %q already registered", key)
	}
	if owner, dup := r.aliases[key]; dup {
		return fmt.Errorf("command %q is an alias of %s", key, owner)
	}
	r.commands[key] = cmd
	for _, a := range cmd.Aliases {
		r.aliases[commands.Canonical(a)] = key
	}
	return nil
}

// ListCommands returns the menu entries sorted by name.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]tele.Command, 0, len(r.commands))
	for name, cmd := range r.commands {
		if visibleOnly && cmd.Hidden {
			continue
		}
		list = append(list, tele.Command{Text: name, Description: cmd.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand resolves a name or alias, with or without the slash, to the
// registered key.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	key := commands.Canonical(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if owner, ok := r.aliases[key]; ok {
		key = owner
	}
	cmd, ok := r.commands[key]
	if !ok {
		return "", commands.Command{}, false
	}
	return key, cmd, true
}

// Commands returns a copy of the registered commands keyed by name.
func (r *Registry) Commands() map[string]commands.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]commands.Command, len(r.commands))
	for k, v := range r.commands {
		out[k] = v
	}
	return out
}

// RegisterCallback binds a callback unique key to handler.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if key == "" || handler == nil {
		return fmt.Errorf("callback %q needs a key and a handler", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.callbacks[key]; dup {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.callback.duplicate",
			slog.String("key", key),
		)
		return fmt.Errorf("callback already registered: %s", key)
	}
	r.callbacks[key] = handler
	return nil
}

// GetCallback returns the handler bound to key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns the registered keys sorted.
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SetCallbackNotFound replaces the fallback for unknown callback keys.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.notFound = h
	r.mu.Unlock()
}

// CallbackNotFound returns the fallback for unknown callback keys.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.notFound
}
