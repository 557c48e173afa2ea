package asa

import (
	"time"

	"github.com/okian/touchline/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL sets the API root, e.g. https://app.americansocceranalysis.com/api/v1.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithLeague sets the league path segment.
func WithLeague(league string) Option {
	return func(c *Client) {
		if league != "" {
			c.league = league
		}
	}
}

// WithSeason restricts seasonal endpoints to one season.
func WithSeason(season string) Option {
	return func(c *Client) {
		c.season = season
	}
}

// WithSquadAliases renames API team names to the names used by the other
// sources.
func WithSquadAliases(aliases map[string]string) Option {
	return func(c *Client) {
		if aliases != nil {
			c.aliases = aliases
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithLookupTTL sets how long resolved names are reused. Zero keeps them
// until Reset.
func WithLookupTTL(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.ttl = d
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}
