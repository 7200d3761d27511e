package logger

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
)

var errWriterClosed = errors.New("logger: writer closed")

// sink is one output and the lowest level it accepts.
type sink struct {
	buf *bufio.Writer
	raw io.Writer
	min slog.Level
}

func newSink(w io.Writer, min slog.Level) sink {
	return sink{buf: bufio.NewWriterSize(w, 32*1024), raw: w, min: min}
}

func closeSinks(sinks []sink) {
	for _, s := range sinks {
		if c, ok := s.raw.(io.Closer); ok && !isStdStream(s.raw) {
			_ = c.Close()
		}
	}
}

func isStdStream(w io.Writer) bool {
	return w == io.Writer(os.Stdout) || w == io.Writer(os.Stderr)
}

// op is either a line to write or a flush request.
type op struct {
	line  []byte
	level slog.Level
	ack   chan error
}

// lineWriter serializes lines onto its sinks from one goroutine. Buffers are
// flushed whenever the queue runs empty.
type lineWriter struct {
	ops   chan op
	done  chan struct{}
	sinks []sink

	mu     sync.RWMutex
	closed bool

	errMu sync.Mutex
	err   error
}

func newLineWriter(sinks []sink) *lineWriter {
	w := &lineWriter{
		ops:   make(chan op, 256),
		done:  make(chan struct{}),
		sinks: sinks,
	}
	go w.run()
	return w
}

func (w *lineWriter) run() {
	defer close(w.done)
	for o := range w.ops {
		if o.ack != nil {
			o.ack <- w.flush()
			continue
		}
		w.write(o)
		if len(w.ops) == 0 {
			w.keep(w.flush())
		}
	}
	w.keep(w.flush())
	closeSinks(w.sinks)
}

// Write queues a copy of line. It blocks while the queue is full.
func (w *lineWriter) Write(level slog.Level, line []byte) error {
	if err := w.firstErr(); err != nil {
		return err
	}
	if len(line) == 0 {
		return nil
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.ops <- op{line: append([]byte(nil), line...), level: level}
	return nil
}

// Flush waits until every queued line has reached the sinks.
func (w *lineWriter) Flush() error {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return w.firstErr()
	}
	ack := make(chan error, 1)
	w.ops <- op{ack: ack}
	w.mu.RUnlock()
	return <-ack
}

// Close drains the queue, closes file sinks and returns the first write error.
func (w *lineWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.ops)
	}
	w.mu.Unlock()
	<-w.done
	return w.firstErr()
}

func (w *lineWriter) write(o op) {
	for _, s := range w.sinks {
		if o.level < s.min {
			continue
		}
		if _, err := s.buf.Write(o.line); err != nil {
			w.keep(err)
		}
	}
}

func (w *lineWriter) flush() error {
	var errs []error
	for _, s := range w.sinks {
		if err := s.buf.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *lineWriter) keep(err error) {
	if err == nil {
		return
	}
	w.errMu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.errMu.Unlock()
}

func (w *lineWriter) firstErr() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}
