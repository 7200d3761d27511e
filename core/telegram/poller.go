package telegram

import (
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/voicequotes/core/config"
)

// allowedUpdates are the update types the bot has handlers for. Channel posts
// and edits are never requested.
var allowedUpdates = []string{"message", "callback_query", "inline_query"}

// NewPoller returns a webhook or a long poller for the configured run mode.
func NewPoller(cfg *coreconfig.Config) tele.Poller {
	if cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:         cfg.Webhook.Addr(),
			SecretToken:    cfg.Webhook.SecretToken,
			AllowedUpdates: allowedUpdates,
			Endpoint:       &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}
	}
	return &tele.LongPoller{
		Timeout:        cfg.Telegram.LongPollTimeout(),
		AllowedUpdates: allowedUpdates,
	}
}
