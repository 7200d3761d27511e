// Package config loads the quote bot configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/voicequotes/core/config"
	coredatabase "github.com/m3rciful/voicequotes/core/database"
)

const (
	DefaultPageSize             = 5
	DefaultSearchLimit          = 50
	DefaultSweepIntervalMinutes = 30
	DefaultDBPort               = "5432"
)

// RedisConfig enables the session mirror. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
	Prefix   string `yaml:"prefix" envconfig:"REDIS_PREFIX"`
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

// QuotesConfig holds publishing and search settings.
type QuotesConfig struct {
	// ChannelID is the broadcast channel, usually a negative -100... id.
	ChannelID            int64   `yaml:"channel_id" envconfig:"QUOTES_CHANNEL_ID"`
	PageSize             int     `yaml:"page_size" envconfig:"QUOTES_PAGE_SIZE"`
	SearchLimit          int     `yaml:"search_limit" envconfig:"QUOTES_SEARCH_LIMIT"`
	InlineCacheSeconds   int     `yaml:"inline_cache_seconds" envconfig:"QUOTES_INLINE_CACHE_SECONDS"`
	SweepIntervalMinutes int     `yaml:"sweep_interval_minutes" envconfig:"QUOTES_SWEEP_INTERVAL_MINUTES"`
	BootstrapAdmins      []int64 `yaml:"bootstrap_admins" envconfig:"QUOTES_BOOTSTRAP_ADMINS"`
}

// SweepInterval converts the configured minutes to a duration.
func (q QuotesConfig) SweepInterval() time.Duration {
	return time.Duration(q.SweepIntervalMinutes) * time.Minute
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Redis    RedisConfig         `yaml:"redis"`
	Quotes   QuotesConfig        `yaml:"quotes"`
}

// CoreConfig exposes the transport and logging part.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// AdminSeeds lists the owner and the configured bootstrap admins without duplicates.
func (c *Config) AdminSeeds() []int64 {
	seen := make(map[int64]struct{})
	var out []int64
	for _, id := range append([]int64{c.Telegram.AdminID}, c.Quotes.BootstrapAdmins...) {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the application sections and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	q := &cfg.Quotes
	if q.ChannelID == 0 {
		return fmt.Errorf("quotes.channel_id is required")
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.SearchLimit <= 0 {
		q.SearchLimit = DefaultSearchLimit
	}
	if q.InlineCacheSeconds < 0 {
		return fmt.Errorf("quotes.inline_cache_seconds must be >= 0")
	}
	if q.SweepIntervalMinutes == 0 {
		q.SweepIntervalMinutes = DefaultSweepIntervalMinutes
	}
	if q.SweepIntervalMinutes < 0 {
		return fmt.Errorf("quotes.sweep_interval_minutes must be >= 0")
	}

	db := &cfg.Database
	if strings.TrimSpace(db.Host) == "" {
		return fmt.Errorf("database.host is required")
	}
	if strings.TrimSpace(db.Name) == "" {
		return fmt.Errorf("database.name is required")
	}
	if db.Port == "" {
		db.Port = DefaultDBPort
	}

	if cfg.Redis.DB < 0 {
		return fmt.Errorf("redis.db must be >= 0")
	}
	return nil
}
