// Package asa reads American Soccer Analysis API endpoints into raw tables.
package asa

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/okian/touchline/internal/domain/table"
	"github.com/okian/touchline/pkg/logger"
)

const (
	defaultBaseURL = "https://app.americansocceranalysis.com/api/v1"
	defaultLeague  = "mls"

	// new signings appear in the players endpoint during the season
	defaultLookupTTL = 12 * time.Hour
)

// Getter fetches a document.
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// Client reads stats endpoints and resolves team and player ids to names.
type Client struct {
	getter  Getter
	baseURL string
	league  string
	season  string
	aliases map[string]string
	log     logger.Logger
	ttl     time.Duration
	now     func() time.Time

	mu     sync.Mutex
	names  *names
	loaded time.Time
}

// New creates a Client over g.
func New(g Getter, opts ...Option) *Client {
	c := &Client{
		getter:  g,
		baseURL: defaultBaseURL,
		league:  defaultLeague,
		aliases: map[string]string{},
		log:     logger.Get().Named("asa"),
		ttl:     defaultLookupTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	return c
}

// URL returns the address of ep.
func (c *Client) URL(ep Endpoint) string {
	u := fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(c.league), ep.Path)
	if ep.Seasonal && c.season != "" {
		u += "?" + url.Values{"season_name": {c.season}}.Encode()
	}
	return u
}

// Fetch reads one endpoint into a raw table named after its source.
func (c *Client) Fetch(ctx context.Context, ep Endpoint) (table.RawTable, error) {
	body, err := c.getter.Get(ctx, c.URL(ep))
	if err != nil {
		return table.RawTable{}, err
	}
	objs, err := decode(body)
	if err != nil {
		return table.RawTable{}, fmt.Errorf("%s: %w", ep.Source, err)
	}
	return toTable(ep.Source, objs, ep.Flatten, c.lookups(ctx)), nil
}

// Reset drops cached name lookups so the next fetch reloads them.
func (c *Client) Reset() {
	c.mu.Lock()
	c.names = nil
	c.mu.Unlock()
}

// lookups loads the team and player name indexes and keeps them for the
// lookup TTL. A failed lookup is logged and leaves ids unresolved; it is
// retried on the next fetch.
func (c *Client) lookups(ctx context.Context) names {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.names != nil && (c.ttl <= 0 || c.now().Sub(c.loaded) < c.ttl) {
		return *c.names
	}

	n := names{teams: map[string]string{}, players: map[string]string{}}
	complete := true
	load := func(path, idField, nameField string) map[string]string {
		body, err := c.getter.Get(ctx, c.URL(Endpoint{Path: path}))
		if err == nil {
			var objs []object
			if objs, err = decode(body); err == nil {
				return lookup(objs, idField, nameField, c.aliases)
			}
		}
		complete = false
		c.log.Warn(ctx, "name lookup failed", logger.String("path", path), logger.Error(err))
		return map[string]string{}
	}
	n.teams = load(pathTeams, "team_id", "team_name")
	n.players = load(pathPlayers, "player_id", "player_name")
	if complete {
		c.names, c.loaded = &n, c.now()
	}
	return n
}

// Source adapts one endpoint to the pipeline source interface.
type Source struct {
	client *Client
	ep     Endpoint
}

// Name returns the source name.
func (s *Source) Name() string { return s.ep.Source }

// Fetch reads the endpoint.
func (s *Source) Fetch(ctx context.Context) (table.RawTable, error) {
	return s.client.Fetch(ctx, s.ep)
}

// Sources returns one source per endpoint in fetch order.
func (c *Client) Sources() []*Source {
	eps := Endpoints()
	out := make([]*Source, 0, len(eps))
	for _, ep := range eps {
		out = append(out, &Source{client: c, ep: ep})
	}
	return out
}

// SourceFor returns the source reading name.
func (c *Client) SourceFor(name string) (*Source, error) {
	for _, ep := range Endpoints() {
		if ep.Source == name {
			return &Source{client: c, ep: ep}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSource, name)
}
