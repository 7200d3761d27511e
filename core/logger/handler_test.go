package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// capture returns a logger writing to buf and a func that drains the writer.
func capture(buf *bytes.Buffer, format logFormat, component string) (*slog.Logger, func()) {
	w := newLineWriter([]sink{newSink(buf, slog.LevelDebug)})
	h := newRecordHandler(handlerOptions{level: slog.LevelInfo, out: w, format: format})
	return slog.New(h).With("component", component), func() {
		if err := w.Close(); err != nil {
			panic(err)
		}
	}
}

func TestKVLineStartsWithIdentifyingKeys(t *testing.T) {
	buf := &bytes.Buffer{}
	log, done := capture(buf, formatKV, "app")
	ctx := WithMeta(context.Background(), Meta{RID: "rid-123", UpdateID: 42, UserID: 7, ChatID: 9})

	LogEvent(ctx, log, slog.LevelInfo, "test.event",
		slog.String("status", "ok"),
		slog.String("cause", "unit"),
	)
	done()

	tokens := strings.Split(strings.TrimSpace(buf.String()), " ")
	expected := []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok", "rid=rid-123", "update_id=42"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected line: %s", buf.String())
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestJSONLineKeepsKeyOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	log, done := capture(buf, formatJSON, "service.test")
	ctx := WithMeta(context.Background(), Meta{RID: "rid-json", UpdateID: 11, UserID: 22, ChatID: 33})

	LogEvent(ctx, log, slog.LevelError, "service.failed",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
		slog.Duration("duration", 1500*time.Microsecond),
	)
	done()

	line := strings.TrimSpace(buf.String())
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"service.test"`, `"event":"service.failed"`, `"status":"fail"`, `"rid":"rid-json"`, `"duration_ms":2`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestUpdateRIDIsCompacted(t *testing.T) {
	rawRID := "123:456:789"

	buf := &bytes.Buffer{}
	log, done := capture(buf, formatKV, "app")
	LogEvent(WithMeta(context.Background(), Meta{RID: rawRID}), log, slog.LevelInfo, "rid.test")
	done()
	line := buf.String()
	if !strings.Contains(line, "rid="+CompactRID(rawRID)) {
		t.Fatalf("expected compact rid, got %s", line)
	}
	if strings.Contains(line, "rid_full=") || strings.Contains(line, "ts_unix_nano") {
		t.Fatalf("json-only keys in kv output: %s", line)
	}

	buf.Reset()
	log, done = capture(buf, formatJSON, "app")
	LogEvent(WithMeta(context.Background(), Meta{RID: rawRID}), log, slog.LevelInfo, "rid.test")
	done()
	line = buf.String()
	for _, want := range []string{`"rid":"3f.co.lx"`, `"rid_full":"123:456:789"`, `"ts_unix_nano"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in %s", want, line)
		}
	}
}

func TestConversationEnumsAreNormalized(t *testing.T) {
	buf := &bytes.Buffer{}
	log, done := capture(buf, formatKV, "conversation")

	LogEvent(context.Background(), log, slog.LevelInfo, "phase.transition",
		slog.String("phase", "Awaiting_Voice"),
		slog.String("next_phase", "awaiting_caption"),
		slog.String("err_code", "DUPLICATE_MEDIA"),
		slog.String("outcome", "sideways"),
	)
	done()

	line := buf.String()
	for _, want := range []string{"phase=awaiting_voice", "next_phase=awaiting_caption", "err_code=duplicate_media"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %s", want, line)
		}
	}
	if strings.Contains(line, "outcome=") {
		t.Fatalf("unknown outcome should be dropped: %s", line)
	}
}

func TestGroupsFlattenIntoDottedKeys(t *testing.T) {
	buf := &bytes.Buffer{}
	log, done := capture(buf, formatKV, "app")

	log.WithGroup("db").With("host", "pg").Info("", slog.String("event", "db.ping"))
	done()

	if line := buf.String(); !strings.Contains(line, "db.host=pg") {
		t.Fatalf("expected grouped key in %s", line)
	}
}

func TestErrorSinkOnlyGetsErrors(t *testing.T) {
	all, errs := &bytes.Buffer{}, &bytes.Buffer{}
	w := newLineWriter([]sink{newSink(all, slog.LevelDebug), newSink(errs, slog.LevelError)})
	log := slog.New(newRecordHandler(handlerOptions{level: slog.LevelDebug, out: w}))

	LogEvent(context.Background(), log, slog.LevelInfo, "quiet")
	LogEvent(context.Background(), log, slog.LevelError, "loud")
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if strings.Count(all.String(), "\n") != 2 {
		t.Fatalf("main sink: %q", all.String())
	}
	if strings.Contains(errs.String(), "quiet") || !strings.Contains(errs.String(), "loud") {
		t.Fatalf("error sink: %q", errs.String())
	}
	if err := w.Write(slog.LevelInfo, []byte("late\n")); err != errWriterClosed {
		t.Fatalf("write after close: %v", err)
	}
}

func TestDebugSampler(t *testing.T) {
	s := newDebugSampler(1, 3)
	var got []bool
	for i := 0; i < 6; i++ {
		got = append(got, s.allow())
	}
	want := []bool{true, false, false, true, false, false}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("allow #%d = %v, want %v", i, got[i], want[i])
		}
	}

	s.set(0, 0)
	if !s.allow() {
		t.Fatal("disabled sampler must allow everything")
	}
}

func TestParseRatio(t *testing.T) {
	cases := map[string][2]int{
		"1/50": {1, 50},
		"2/3":  {2, 3},
		"10":   {1, 10},
		"0":    {0, 0},
		"-1/5": {0, 0},
		"junk": {1, 50},
	}
	for spec, want := range cases {
		num, den := parseRatio(spec)
		if num != want[0] || den != want[1] {
			t.Fatalf("parseRatio(%q) = %d/%d, want %d/%d", spec, num, den, want[0], want[1])
		}
	}
}

func TestMetaDerivesRIDAndKeepsRecordFields(t *testing.T) {
	ctx := WithMeta(context.Background(), Meta{UpdateID: 5, UserID: 7, ChatID: 7})
	ctx = WithHandler(ctx, "command.start")

	m := MetaFrom(ctx)
	if m.RID != "5:7:7" || m.Handler != "command.start" {
		t.Fatalf("unexpected meta: %+v", m)
	}

	f := fields{"user_id": int64(99)}
	m.fields(f)
	if f["user_id"] != int64(99) {
		t.Fatalf("record field overwritten: %v", f["user_id"])
	}
	if f["update_id"] != 5 || f["handler"] != "command.start" {
		t.Fatalf("missing context fields: %v", f)
	}
	if _, ok := f["chat_id"]; !ok {
		t.Fatalf("chat_id missing: %v", f)
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("a\x00b\u200bc\td", 10); got != "abc\td" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got := SanitizeLimit("привет", 3); got != "при" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
}
