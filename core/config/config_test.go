package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "1:a", RunMode: " Polling "}}
	cfg.RateLimit.ExcludeUpdates = []string{" Inline_Query ", ""}

	require.NoError(t, Normalize(cfg))
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, 10*time.Second, cfg.Telegram.LongPollTimeout())
	assert.Equal(t, []string{UpdateInlineQuery}, cfg.RateLimit.ExcludeUpdates)
	assert.True(t, cfg.RateLimit.Excludes(UpdateInlineQuery))
	assert.False(t, cfg.RateLimit.Excludes(UpdateMessage))
}

func TestNormalizeWebhookNeedsEndpoint(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "1:a", RunMode: "webhook"}}
	cfg.Webhook.Listen = "0.0.0.0"

	err := Normalize(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook.url")
	assert.Contains(t, err.Error(), "webhook.port")

	cfg.Webhook.URL = "https://bot.example.org/hook"
	cfg.Webhook.Port = 8443
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, "0.0.0.0:8443", cfg.Webhook.Addr())
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]Config{
		"missing token":  {},
		"bad run mode":   {Telegram: TelegramConfig{Token: "1:a", RunMode: "push"}},
		"negative poll":  {Telegram: TelegramConfig{Token: "1:a", LongPollTimeoutSeconds: -1}},
		"unknown update": {Telegram: TelegramConfig{Token: "1:a"}, RateLimit: RateLimitConfig{ExcludeUpdates: []string{"poll"}}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, Normalize(&cfg))
		})
	}
	assert.Error(t, Normalize(nil))
}
