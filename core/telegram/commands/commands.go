// Package commands describes slash commands shown in the bot menu.
package commands

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command is one slash command. Aliases are accepted as typed text but are
// not listed in the menu.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	Hidden      bool
	Aliases     []string
}

// Canonical returns the command word of name lowercased with a leading
// slash. Arguments and an @botname suffix are dropped.
func Canonical(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		name = f[0]
	}
	name, _, _ = strings.Cut(strings.ToLower(name), "@")
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	return name
}
