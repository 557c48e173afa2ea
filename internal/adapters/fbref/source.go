// Package fbref acquires player tables from FBref competition pages.
package fbref

import (
	"context"
	"fmt"
	"net/url"

	"github.com/okian/touchline/internal/domain/catalog"
	"github.com/okian/touchline/internal/domain/table"
)

// Getter fetches a document.
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// Page identifies one competition season on FBref.
type Page struct {
	BaseURL       string
	CompetitionID string
	Season        string
	Slug          string
}

// URL returns the address of the stats page.
func (p Page) URL(page string) string {
	return fmt.Sprintf("%s/en/comps/%s/%s/%s/%s",
		p.BaseURL,
		url.PathEscape(p.CompetitionID),
		url.PathEscape(p.Season),
		url.PathEscape(page),
		url.PathEscape(p.Slug))
}

// Source fetches one FBref page and returns its widest table.
type Source struct {
	name   string
	url    string
	getter Getter
}

// NewSource creates a source named name reading rawURL.
func NewSource(name, rawURL string, g Getter) *Source {
	return &Source{name: name, url: rawURL, getter: g}
}

// Name returns the source name.
func (s *Source) Name() string { return s.name }

// URL returns the page address.
func (s *Source) URL() string { return s.url }

// Fetch downloads the page and selects the widest candidate table.
func (s *Source) Fetch(ctx context.Context) (table.RawTable, error) {
	body, err := s.getter.Get(ctx, s.url)
	if err != nil {
		return table.RawTable{}, err
	}
	candidates, err := Extract(body)
	if err != nil {
		return table.RawTable{}, fmt.Errorf("%s: %w", s.name, err)
	}
	raw, err := table.SelectWidest(candidates)
	if err != nil {
		return table.RawTable{}, fmt.Errorf("%s: %w", s.name, err)
	}
	raw.Name = s.name
	return raw, nil
}

// Sources returns one source per FBref page in fetch order.
func Sources(p Page, g Getter) []*Source {
	pages := catalog.FBrefPages()
	order := catalog.FBrefOrder()
	out := make([]*Source, 0, len(order))
	for _, name := range order {
		out = append(out, NewSource(name, p.URL(pages[name]), g))
	}
	return out
}
