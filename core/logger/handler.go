package logger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type fields map[string]any

type handlerOptions struct {
	level  slog.Leveler
	out    *lineWriter
	format logFormat
	order  []string
}

// recordHandler flattens records into a single level of keys and writes them
// as JSON or key=value lines.
type recordHandler struct {
	opts   handlerOptions
	preset fields
	prefix string
}

func newRecordHandler(opts handlerOptions) *recordHandler {
	if opts.level == nil {
		opts.level = slog.LevelInfo
	}
	if len(opts.order) == 0 {
		opts.order = defaultKeyOrder
	}
	return &recordHandler{opts: opts}
}

func (h *recordHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level.Level()
}

func (h *recordHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.opts.out == nil {
		return fmt.Errorf("logger: writer not initialized")
	}
	json := h.opts.format == formatJSON

	f := make(fields, len(h.preset)+r.NumAttrs()+8)
	for k, v := range h.preset {
		f[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		f.add(h.prefix, a)
		return true
	})
	MetaFrom(ctx).fields(f)

	ts := r.Time.UTC()
	f["ts"] = ts.Truncate(time.Millisecond).Format(timeLayout)
	f["level"] = levelName(r.Level)
	if json {
		f["ts_unix_nano"] = ts.UnixNano()
	}
	if rid, _ := f["rid"].(string); rid != "" {
		if short := CompactRID(rid); short != rid {
			f["rid"] = short
			if _, set := f["rid_full"]; json && !set {
				f["rid_full"] = rid
			}
		}
	}
	if ev, _ := f["event"].(string); ev == "" {
		f["event"] = r.Message
		if r.Message == "" {
			f["event"] = "unknown"
		}
	}
	if c, _ := f["component"].(string); c == "" {
		f["component"] = "app"
	}
	normalizeEnums(f)
	f.prune()

	var line []byte
	if json {
		var err error
		if line, err = encodeJSON(f, h.opts.order); err != nil {
			return err
		}
	} else {
		line = encodeKV(f, h.opts.order)
	}
	return h.opts.out.Write(r.Level, append(line, '\n'))
}

func (h *recordHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.preset = make(fields, len(h.preset)+len(attrs))
	for k, v := range h.preset {
		clone.preset[k] = v
	}
	for _, a := range attrs {
		clone.preset.add(h.prefix, a)
	}
	return &clone
}

func (h *recordHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

// add stores a under prefix, flattening groups into dotted keys.
func (f fields) add(prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	key := joinKey(prefix, a.Key)
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			f.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if k, val, ok := normalizeValue(key, v); ok {
		f[k] = val
	}
}

func (f fields) prune() {
	for k, v := range f {
		switch x := v.(type) {
		case nil:
			delete(f, k)
		case string:
			if x == "" {
				delete(f, k)
			}
		}
	}
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

// normalizeValue converts v to a JSON-friendly value. Durations are written
// as whole milliseconds under a key ending in _ms.
func normalizeValue(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String()), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindDuration:
		return millisKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return key, nil, false
	case time.Duration:
		return millisKey(key), RoundMS(x).Milliseconds(), true
	case error:
		return key, x.Error(), true
	case string:
		return key, strings.TrimSpace(x), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}

func millisKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	}
	return key + "_ms"
}
