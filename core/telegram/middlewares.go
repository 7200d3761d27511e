package telegram

import (
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/voicequotes/core/config"
	"github.com/m3rciful/voicequotes/core/telegram/middleware"
)

// DefaultMiddlewares returns the global chain: panic recovery, the per-user
// rate limit when configured, request logging and reply counters.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc) []Middleware {
	mws := []Middleware{{Name: "recover", Use: middleware.Recover}}
	if cfg != nil && cfg.RateLimit.Interval() > 0 {
		mws = append(mws, Middleware{Name: "rate_limit", Use: middleware.RateLimit(cfg.RateLimit, onLimited)})
	}
	return append(mws,
		Middleware{Name: "logger", Use: middleware.Logging},
		Middleware{Name: "counters", Use: middleware.Counters},
	)
}
