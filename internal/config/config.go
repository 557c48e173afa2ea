// Package config defines the pipeline configuration and how it is loaded.
package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/touchline/internal/domain/weights"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Season, CompetitionID and CompetitionSlug locate the FBref pages.
	Season          string `koanf:"season"`
	CompetitionID   string `koanf:"competition_id"`
	CompetitionSlug string `koanf:"competition_slug"`

	// League is the ASA league path segment, e.g. "mls".
	League string `koanf:"league"`

	// Min90s is the inclusive export threshold in full-match equivalents.
	Min90s float64 `koanf:"min_90s"`

	// OutDir receives the exported files.
	OutDir string `koanf:"out_dir"`

	FBrefBaseURL string `koanf:"fbref_base_url"`
	ASABaseURL   string `koanf:"asa_base_url"`
	ASAEnabled   bool   `koanf:"asa_enabled"`

	// Polite fetching.
	UserAgent         string `koanf:"user_agent"`
	RequestDelayMS    int    `koanf:"request_delay_ms"`
	RequestTimeoutMS  int    `koanf:"request_timeout_ms"`
	MaxAttempts       int    `koanf:"max_attempts"`
	BackoffBaseMS     int    `koanf:"backoff_base_ms"`
	BackoffMaxMS      int    `koanf:"backoff_max_ms"`
	BreakerFailures   int    `koanf:"breaker_failures"`
	BreakerCooldownMS int    `koanf:"breaker_cooldown_ms"`
	MaxBodyBytes      int64  `koanf:"max_body_bytes"`

	// Addr configures the HTTP listen address used by serve mode, e.g. ":9080".
	Addr string `koanf:"addr"`

	// RefreshSchedule is the cron spec of scheduled runs in serve mode.
	RefreshSchedule string `koanf:"refresh_schedule"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// Weights overrides default weights per set and term.
	Weights map[string]map[string]float64 `koanf:"weights"`

	// SquadAliases renames ASA team names to FBref squad names.
	SquadAliases map[string]string `koanf:"squad_aliases"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Season:              "2026",
		CompetitionID:       "22",
		CompetitionSlug:     "Major-League-Soccer-Stats",
		League:              "mls",
		Min90s:              1,
		OutDir:              ".",
		FBrefBaseURL:        "https://fbref.com",
		ASABaseURL:          "https://app.americansocceranalysis.com/api/v1",
		ASAEnabled:          true,
		UserAgent:           "Mozilla/5.0 (compatible; touchline/1.0)",
		RequestDelayMS:      5000,
		RequestTimeoutMS:    25000,
		MaxAttempts:         3,
		BackoffBaseMS:       5000,
		BackoffMaxMS:        60000,
		BreakerFailures:     5,
		BreakerCooldownMS:   120000,
		MaxBodyBytes:        8 << 20,
		Addr:                ":9080",
		RefreshSchedule:     "0 6 * * *",
		MaxLeaderboardLimit: 100,
		SquadAliases: map[string]string{
			"Inter Miami CF":       "Inter Miami",
			"Los Angeles FC":       "LAFC",
			"Minnesota United FC":  "Minnesota Utd",
			"New York City FC":     "NYCFC",
			"New York Red Bulls":   "NY Red Bulls",
			"Sporting Kansas City": "Sporting KC",
		},
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Season == "":
		return invalid("season", "must not be empty")
	case c.CompetitionID == "":
		return invalid("competition_id", "must not be empty")
	case c.OutDir == "":
		return invalid("out_dir", "must not be empty")
	case c.Min90s < 0:
		return invalid("min_90s", "must not be negative")
	case c.Addr == "":
		return invalid("addr", "must not be empty")
	case c.MaxAttempts < 1:
		return invalid("max_attempts", "must be at least 1")
	case c.RequestDelayMS < 0:
		return invalid("request_delay_ms", "must not be negative")
	case c.BreakerFailures < 1:
		return invalid("breaker_failures", "must be at least 1")
	case c.BackoffMaxMS < c.BackoffBaseMS:
		return invalid("backoff_max_ms", "must not be below backoff_base_ms")
	case c.MaxLeaderboardLimit < 1:
		return invalid("max_leaderboard_limit", "must be at least 1")
	}
	if c.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
			return fmt.Errorf("%w: refresh_schedule: %w", ErrInvalidConfig, err)
		}
	}
	if _, err := c.WeightRegistry(); err != nil {
		return fmt.Errorf("%w: weights: %w", ErrInvalidConfig, err)
	}
	return nil
}

// WeightRegistry returns the default weight sets with the configured
// overrides applied.
func (c *Config) WeightRegistry() (weights.Registry, error) {
	return weights.Defaults().Apply(c.Weights)
}

// RequestDelay returns the minimum spacing between requests.
func (c *Config) RequestDelay() time.Duration { return ms(c.RequestDelayMS) }

// RequestTimeout returns the per-attempt timeout.
func (c *Config) RequestTimeout() time.Duration { return ms(c.RequestTimeoutMS) }

// Backoff returns the base and cap of retry backoff.
func (c *Config) Backoff() (base, limit time.Duration) {
	return ms(c.BackoffBaseMS), ms(c.BackoffMaxMS)
}

// BreakerCooldown returns how long an open breaker stays open.
func (c *Config) BreakerCooldown() time.Duration { return ms(c.BreakerCooldownMS) }

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func invalid(field, msg string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidConfig, field, msg)
}
