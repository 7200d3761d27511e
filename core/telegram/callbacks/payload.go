// Package callbacks encodes and decodes inline button data. Telebot sends a
// button's data as "\f<unique>|<payload>"; the payload itself holds fields
// separated by Sep.
package callbacks

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Sep separates fields inside callback data.
const Sep = "|"

// Parse splits cb into its unique key and payload. Data already split by
// telebot keeps cb.Unique as the key.
func Parse(cb *tele.Callback) (unique, payload string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	unique, payload, _ = strings.Cut(strings.TrimPrefix(cb.Data, "\f"), Sep)
	return strings.TrimSpace(unique), payload
}

// Join builds a multi-field payload such as "12|3".
func Join(parts ...string) string {
	return strings.Join(parts, Sep)
}

// Field returns the i-th field of a payload, or "" when absent.
func Field(payload string, i int) string {
	if payload == "" || i < 0 {
		return ""
	}
	for ; i > 0; i-- {
		var ok bool
		if _, payload, ok = strings.Cut(payload, Sep); !ok {
			return ""
		}
	}
	f, _, _ := strings.Cut(payload, Sep)
	return f
}

// Int64At parses the i-th payload field.
func Int64At(payload string, i int) (int64, error) {
	return strconv.ParseInt(Field(payload, i), 10, 64)
}

// IntAt parses the i-th payload field.
func IntAt(payload string, i int) (int, error) {
	return strconv.Atoi(Field(payload, i))
}
