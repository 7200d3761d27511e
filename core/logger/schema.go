package logger

import (
	"log/slog"
	"strings"
)

// defaultKeyOrder puts the identifying keys first; the rest follow sorted.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "chat_type", "handler",
	"op", "cb_key", "outcome", "duration_ms",
	"phase", "next_phase",
	"quote_id", "message_id", "media_ref", "target_user_id",
	"query", "results", "count", "page", "pages", "cache",
	"mode", "listen", "public_url", "http_code",
	"db", "host", "port",
	"err", "err_code", "cause", "retryable", "attempts", "backoff_ms",
	"rate_limited", "pending_count", "swept",
}

// enum lists the values a key may take. Unknown values are lowercased and
// kept unless strict is set, in which case the key is dropped.
type enum struct {
	values []string
	strict bool
}

var phases = []string{"idle", "awaiting_voice", "awaiting_caption", "awaiting_admin_forward"}

var enums = map[string]enum{
	"status":     {values: []string{"ok", "fail", "skip", "retry", "rate_limited", "cancelled"}},
	"phase":      {values: phases},
	"next_phase": {values: phases},
	"err_code":   {values: []string{"unauthorized", "transport_failure", "duplicate_media", "not_found", "invalid_input"}},
	"cache":      {values: []string{"hit", "miss", "refresh"}, strict: true},
	"outcome":    {values: []string{"ok", "fail", "cancelled", "rate_limited"}, strict: true},
}

func (e enum) normalize(v string) (string, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, known := range e.values {
		if v == known {
			return v, true
		}
	}
	return v, !e.strict && v != ""
}

func normalizeEnums(f fields) {
	for key, e := range enums {
		raw, ok := f[key].(string)
		if !ok {
			continue
		}
		if v, keep := e.normalize(raw); keep {
			f[key] = v
		} else {
			delete(f, key)
		}
	}
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError+4:
		return "FATAL"
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN"
	case l >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}
