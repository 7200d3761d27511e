package conversation

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/voicequotes/core/logger"
	"github.com/m3rciful/voicequotes/core/telegram/state"
	"github.com/m3rciful/voicequotes/internal/quotes"
)

// SweepReport summarizes one reconciliation pass.
type SweepReport struct {
	Checked  int
	Kept     int
	Deleted  int
	Resolved int
	Failed   int
}

// Reconciler removes channel posts that were published but never captioned.
type Reconciler struct {
	sessions state.Store
	quotes   quotes.Repository
	journal  quotes.Journal
	channel  Channel
}

// NewReconciler builds a Reconciler.
func NewReconciler(sessions state.Store, repo quotes.Repository, journal quotes.Journal, channel Channel) *Reconciler {
	return &Reconciler{sessions: sessions, quotes: repo, journal: journal, channel: channel}
}

// Sweep checks every journaled post once. A post still owned by a live
// AwaitingCaption session is kept. A post that a stored quote was captioned
// on is only resolved. Any other post is deleted from the channel, including
// one whose media was stored from a different post.
func (r *Reconciler) Sweep(ctx context.Context) (SweepReport, error) {
	var rep SweepReport
	pending, err := r.journal.List(ctx)
	if err != nil {
		return rep, err
	}
	for _, p := range pending {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		rep.Checked++
		r.reconcile(ctx, p, &rep)
	}
	logger.Info(ctx, component, "sweep.done",
		slog.Int("checked", rep.Checked),
		slog.Int("kept", rep.Kept),
		slog.Int("swept", rep.Deleted),
		slog.Int("failed", rep.Failed),
	)
	return rep, nil
}

func (r *Reconciler) reconcile(ctx context.Context, p quotes.PendingBroadcast, rep *SweepReport) {
	unlock := r.sessions.Lock(p.UserID)
	defer unlock()

	sess := r.sessions.Get(p.UserID)
	if sess.Phase == state.PhaseAwaitingCaption && sess.PendingBroadcastRef == p.MessageID {
		rep.Kept++
		return
	}

	stored, err := r.quotes.PublishedFrom(ctx, p.MessageID)
	if err != nil {
		rep.Failed++
		logger.Warn(ctx, component, "sweep.check",
			slog.String("status", "fail"),
			slog.Int("message_id", p.MessageID),
			slog.String("err", err.Error()),
		)
		return
	}
	if !stored {
		if err := r.channel.DeleteMessage(ctx, p.MessageID); err != nil {
			rep.Failed++
			logger.Warn(ctx, component, "sweep.delete",
				slog.String("status", "fail"),
				slog.Int("message_id", p.MessageID),
				slog.String("err", err.Error()),
			)
			return
		}
		rep.Deleted++
	} else {
		rep.Resolved++
	}

	if err := r.journal.Resolve(ctx, p.MessageID); err != nil {
		rep.Failed++
		logger.Warn(ctx, component, "sweep.resolve",
			slog.String("status", "fail"),
			slog.Int("message_id", p.MessageID),
			slog.String("err", err.Error()),
		)
	}
}

// Run sweeps immediately and then every interval until ctx is done.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
		logger.Warn(ctx, component, "sweep.fail", slog.String("err", err.Error()))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
				logger.Warn(ctx, component, "sweep.fail", slog.String("err", err.Error()))
			}
		}
	}
}
