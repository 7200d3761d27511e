package conversation

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/voicequotes/core/logger"
	"github.com/m3rciful/voicequotes/internal/quotes"
)

// Searcher answers inline queries straight from the quote repository.
type Searcher struct {
	quotes   quotes.Repository
	cacheTTL int
}

// NewSearcher builds a Searcher. cacheTTL is in seconds; 0 disables client caching.
func NewSearcher(repo quotes.Repository, cacheTTL int) *Searcher {
	if cacheTTL < 0 {
		cacheTTL = 0
	}
	return &Searcher{quotes: repo, cacheTTL: cacheTTL}
}

// Answer returns matching quotes. A storage failure yields an empty answer.
func (s *Searcher) Answer(ctx context.Context, q Query) Outcome {
	text := strings.TrimSpace(q.Text)
	answer := &InlineAnswer{
		QueryID:  q.ID,
		Results:  []InlineResult{},
		CacheTTL: s.cacheTTL,
		Personal: true,
	}

	found, err := s.quotes.Search(ctx, text)
	if err != nil {
		logger.Warn(ctx, component, "inline.search",
			slog.String("status", "fail"),
			slog.String("query", text),
			slog.String("err", err.Error()),
		)
		return Outcome{Answer: answer, Err: newError(KindTransport, "quotes.search", err)}
	}
	for _, item := range found {
		answer.Results = append(answer.Results, InlineResult{
			ID:       strconv.FormatInt(item.ID, 10),
			MediaRef: item.MediaRef,
			Title:    item.Title,
		})
	}
	logger.Debug(ctx, component, "inline.search",
		slog.String("status", "ok"),
		slog.String("query", text),
		slog.Int("results", len(answer.Results)),
	)
	return Outcome{Answer: answer}
}
