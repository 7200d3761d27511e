package middleware

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/voicequotes/core/config"
	"github.com/m3rciful/voicequotes/core/logger"
	tghelpers "github.com/m3rciful/voicequotes/core/telegram/helpers"
)

// pruneAbove is the number of tracked users after which idle limiters are dropped.
const pruneAbove = 1024

// userLimiter keeps one token bucket per user.
type userLimiter struct {
	mu    sync.Mutex
	every rate.Limit
	users map[int64]*rate.Limiter
}

func newUserLimiter(interval time.Duration) *userLimiter {
	return &userLimiter{every: rate.Every(interval), users: make(map[int64]*rate.Limiter)}
}

func (l *userLimiter) allow(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.users[userID]
	if !ok {
		if len(l.users) >= pruneAbove {
			l.prune()
		}
		lim = rate.NewLimiter(l.every, 1)
		l.users[userID] = lim
	}
	return lim.Allow()
}

// prune forgets users whose bucket has refilled.
func (l *userLimiter) prune() {
	for id, lim := range l.users {
		if lim.Tokens() >= 1 {
			delete(l.users, id)
		}
	}
}

func updateKind(u tele.Update) string {
	switch {
	case u.Callback != nil:
		return coreconfig.UpdateCallback
	case u.Query != nil:
		return coreconfig.UpdateInlineQuery
	case u.Message != nil:
		return coreconfig.UpdateMessage
	}
	return ""
}

// RateLimit drops updates of a user that arrive sooner than the configured
// interval after the previous one. onLimited, when set, is called instead.
func RateLimit(cfg coreconfig.RateLimitConfig, onLimited tele.HandlerFunc) tele.MiddlewareFunc {
	limiter := newUserLimiter(cfg.Interval())
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || cfg.Interval() <= 0 || cfg.Excludes(updateKind(c.Update())) {
				return next(c)
			}
			if limiter.allow(user.ID) {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit",
				slog.String("status", "rate_limited"),
				slog.String("kind", updateKind(c.Update())),
			)
			if onLimited != nil {
				return onLimited(c)
			}
			return nil
		}
	}
}
