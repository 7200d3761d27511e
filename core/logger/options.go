package logger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	coreconfig "github.com/m3rciful/voicequotes/core/config"
)

type logFormat int

const (
	formatJSON logFormat = iota
	formatKV
)

// options is the logging section of the config after defaults are applied.
type options struct {
	level     slog.Level
	format    logFormat
	order     []string
	profile   string
	sampleNum int
	sampleDen int
	dir       string
	botFile   string
	errFile   string
	trace     bool
}

func optionsFrom(cfg *coreconfig.Config) options {
	o := options{
		level:     slog.LevelInfo,
		format:    formatJSON,
		order:     defaultKeyOrder,
		profile:   "prod",
		sampleNum: 1,
		sampleDen: 50,
		trace:     envFlag("TRACE") || envFlag("LOG_TRACE"),
	}
	if o.trace {
		o.sampleNum, o.sampleDen = 0, 0
	}
	if cfg == nil {
		return o
	}
	lc := cfg.Logging
	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		o.profile = p
	}
	switch strings.ToLower(strings.TrimSpace(lc.Level)) {
	case "debug":
		o.level = slog.LevelDebug
	case "warn", "warning":
		o.level = slog.LevelWarn
	case "error":
		o.level = slog.LevelError
	}
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		o.format = formatKV
	case "json":
	default:
		if o.profile == "debug" || o.profile == "dev" {
			o.format = formatKV
		}
	}
	if order := splitKeys(lc.KeysOrder); len(order) > 0 {
		o.order = order
	}
	if !o.trace && strings.TrimSpace(lc.DebugSample) != "" {
		o.sampleNum, o.sampleDen = parseRatio(lc.DebugSample)
	}
	o.dir = strings.TrimSpace(lc.Dir)
	o.botFile = strings.TrimSpace(lc.BotFile)
	o.errFile = strings.TrimSpace(lc.ErrorsFile)
	return o
}

// openSinks returns stdout plus the configured log files. The errors file only
// receives lines at error level.
func (o options) openSinks() ([]sink, error) {
	sinks := []sink{newSink(os.Stdout, slog.LevelDebug)}
	if o.dir == "" || (o.botFile == "" && o.errFile == "") {
		return sinks, nil
	}
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return nil, fmt.Errorf("logger: create log dir: %w", err)
	}
	for _, f := range []struct {
		name string
		min  slog.Level
	}{
		{o.botFile, slog.LevelDebug},
		{o.errFile, slog.LevelError},
	} {
		if f.name == "" {
			continue
		}
		path := filepath.Join(o.dir, f.name)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			closeSinks(sinks)
			return nil, fmt.Errorf("logger: open %s: %w", path, err)
		}
		sinks = append(sinks, newSink(file, f.min))
	}
	return sinks, nil
}

func splitKeys(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "default" {
		return nil
	}
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// parseRatio accepts "n/d" or "d" (meaning 1/d). Zero or negative values
// disable sampling; garbage falls back to 1/50.
func parseRatio(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	num, den := 1, 0
	var err error
	if a, b, ok := strings.Cut(spec, "/"); ok {
		if num, err = strconv.Atoi(strings.TrimSpace(a)); err == nil {
			den, err = strconv.Atoi(strings.TrimSpace(b))
		}
	} else {
		den, err = strconv.Atoi(spec)
	}
	switch {
	case err != nil:
		return 1, 50
	case num <= 0 || den <= 0:
		return 0, 0
	}
	return num, den
}

func envFlag(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
