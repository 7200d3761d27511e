// Package sender runs outbound Telegram calls with a bounded retry policy.
// Chat replies go through a worker queue; calls whose result is needed, such
// as channel posts, run synchronously through Do.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/voicequotes/core/logger"
	"github.com/m3rciful/voicequotes/core/telegram/netutil"
)

const component = "tg.sender"

var (
	// ErrQueueClosed is returned when enqueue is attempted after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")

	errNilRun = errors.New("telegram sender: nil run function")
	tokenRe   = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options controls the behaviour of the dispatcher. Zero values select defaults.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

// job is one Bot API call. method is the API method name, which decides
// whether the call may be repeated.
type job struct {
	ctx    context.Context
	action string
	method string
	call   func() error
}

// Dispatcher executes outbound Telegram calls. Whether a failed call is
// repeated depends on its API method, see netutil.ShouldRetry.
type Dispatcher struct {
	opts Options
	jobs chan job
	errs atomic.Uint64
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts the worker pool.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	opts.MaxRetries = max(opts.MaxRetries, 0)
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}

	d := &Dispatcher{opts: opts, jobs: make(chan job, opts.QueueSize)}
	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go func() {
			defer d.wg.Done()
			for j := range d.jobs {
				_ = d.execute(j)
			}
		}()
	}
	return d
}

// Enqueue schedules run for asynchronous execution.
func (d *Dispatcher) Enqueue(ctx context.Context, action, method string, run func() error) error {
	if run == nil {
		return errNilRun
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.jobs <- job{ctx: ctx, action: action, method: method, call: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Do runs the call synchronously under the same retry policy and returns the last error.
func (d *Dispatcher) Do(ctx context.Context, action, method string, run func() error) error {
	if run == nil {
		return errNilRun
	}
	return d.execute(job{ctx: ctx, action: action, method: method, call: run})
}

// ErrorCount returns the number of calls that failed after all attempts.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close stops accepting jobs and waits for the queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) execute(j job) error {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	deadline, cancel := context.WithTimeout(ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := d.opts.MaxRetries + 1
	var err error
retry:
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = j.call(); err == nil {
			logger.Debug(ctx, component, "send.success",
				slog.String("action", j.action),
				slog.String("method", j.method),
				slog.Int("attempts", attempt),
				slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
			)
			return nil
		}
		if attempt == attempts || !netutil.ShouldRetry(j.method, err) {
			break retry
		}

		delay := d.opts.RetryBackoff * time.Duration(attempt)
		logger.Debug(ctx, component, "send.retry",
			slog.String("action", j.action),
			slog.Int("attempts", attempt),
			slog.Int64("backoff_ms", delay.Milliseconds()),
			slog.String("cause", netutil.Kind(err)),
		)
		timer := time.NewTimer(delay)
		select {
		case <-deadline.Done():
			timer.Stop()
			err = errors.Join(err, deadline.Err())
			break retry
		case <-timer.C:
		}
	}

	d.errs.Add(1)
	logger.Error(ctx, component, "send.fail",
		slog.String("action", j.action),
		slog.String("method", j.method),
		slog.String("err", tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")),
		slog.String("cause", netutil.Kind(err)),
		slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
	)
	return err
}
