// Package router turns registry entries and update handlers into telebot
// routes. Every routed handler writes one handler.handled summary line.
package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/voicequotes/core/logger"
	tg "github.com/m3rciful/voicequotes/core/telegram"
	tghelpers "github.com/m3rciful/voicequotes/core/telegram/helpers"
	"github.com/m3rciful/voicequotes/core/telegram/middleware"
)

// step is the handler picked for one update.
type step struct {
	name  string
	run   tele.HandlerFunc
	attrs []slog.Attr
}

// pick chooses the step for c. Returning false skips the update silently.
type pick func(c tele.Context) (step, bool)

func bind(endpoint any, choose pick) tg.Route {
	h := func(c tele.Context) error {
		start := time.Now()
		s, ok := choose(c)
		if !ok || s.run == nil {
			return nil
		}
		return s.handle(c, start)
	}
	return tg.Route{Endpoint: endpoint, Handler: middleware.Recover(middleware.Logging(h))}
}

// handle runs the step and logs its summary. Errors carrying a Code were
// already reported to the user and are not passed on to the bot.
func (s step) handle(c tele.Context, start time.Time) error {
	ctx := tghelpers.WithHandler(c, s.name)
	err := s.run(c)

	msgs, kb := middleware.GetCounters(c)
	status := "ok"
	if err != nil {
		status = "fail"
	}
	attrs := append([]slog.Attr{
		slog.String("status", status),
		slog.String("handler", s.name),
		slog.String("outcome", status),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	}, s.attrs...)
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.LogEvent(ctx, logger.Component("tg"), slog.LevelInfo, "handler.handled", attrs...)

	var reported coder
	if errors.As(err, &reported) {
		return nil
	}
	return err
}

type coder interface{ Code() string }

// errorCode is the upper-cased Code of err, or its type name.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var c coder
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return upperSnake(code)
		}
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return upperSnake(t.Name())
}

func upperSnake(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, " ", "_"))
}

// handlerName maps "/Start" to "start" and "add quote" to "add_quote".
func handlerName(prefix, name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if name == "" {
		name = "unknown"
	}
	name = strings.ToLower(strings.ReplaceAll(name, " ", "_"))
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
