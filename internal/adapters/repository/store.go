// Package repository holds the published results of the latest run and
// ranks them on demand.
package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/touchline/internal/domain/export"
	"github.com/okian/touchline/internal/domain/model"
	"github.com/okian/touchline/internal/domain/types"
	"github.com/okian/touchline/pkg/metrics"
)

// Store provides read/write access to the published results.
type Store interface {
	// Publish replaces the records of class with res. SortKey is the default
	// ranking field.
	Publish(ctx context.Context, class, sortKey string, res export.Result)

	// TopN returns the top-N entries of class ordered by field desc. An empty
	// field uses the class sort key.
	TopN(ctx context.Context, class, field string, n int) ([]types.Entry, error)

	// Rank returns the entry of name in class. Squad narrows the match when
	// set. Returns ErrNotFound if the name is unknown.
	Rank(ctx context.Context, class, field, name, squad string) (types.Entry, error)

	// Count returns the number of records published for class.
	Count(ctx context.Context, class string) int

	// Classes returns the published classes with their publish time.
	Classes(ctx context.Context) map[string]time.Time
}

// board is one published class. It is never mutated after publish.
type board struct {
	sortKey   string
	columns   []string
	records   []*model.Record
	published time.Time
}

// MemoryStore keeps the latest board per class in memory.
type MemoryStore struct {
	mu     sync.RWMutex
	boards map[string]*board
	now    func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{boards: make(map[string]*board), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish implements Store.Publish.
func (s *MemoryStore) Publish(_ context.Context, class, sortKey string, res export.Result) {
	b := &board{
		sortKey:   sortKey,
		columns:   append([]string(nil), res.Columns...),
		records:   make([]*model.Record, len(res.Records)),
		published: s.now(),
	}
	for i, rec := range res.Records {
		b.records[i] = rec.Clone()
	}

	s.mu.Lock()
	s.boards[class] = b
	s.mu.Unlock()

	metrics.UpdateStoreRecords(class, len(b.records))
}

// TopN implements Store.TopN.
func (s *MemoryStore) TopN(_ context.Context, class, field string, n int) ([]types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		return nil, ErrInvalidLimit
	}
	entries, err := s.ranked(class, field)
	if err != nil {
		return nil, err
	}
	if n < len(entries) {
		entries = entries[:n]
	}
	return entries, nil
}

// Rank implements Store.Rank.
func (s *MemoryStore) Rank(_ context.Context, class, field, name, squad string) (types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	entries, err := s.ranked(class, field)
	if err != nil {
		return types.Entry{}, err
	}
	name = strings.TrimSpace(name)
	squad = strings.TrimSpace(squad)
	for _, e := range entries {
		if !strings.EqualFold(e.Name, name) {
			continue
		}
		if squad != "" && !strings.EqualFold(e.Squad, squad) {
			continue
		}
		return e, nil
	}
	return types.Entry{}, fmt.Errorf("%s in %s: %w", name, class, ErrNotFound)
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context, class string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.boards[class]; ok {
		return len(b.records)
	}
	return 0
}

// Classes implements Store.Classes.
func (s *MemoryStore) Classes(_ context.Context) map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]time.Time, len(s.boards))
	for name, b := range s.boards {
		out[name] = b.published
	}
	return out
}

// ranked returns every entry of class ordered by field desc, then name asc.
func (s *MemoryStore) ranked(class, field string) ([]types.Entry, error) {
	s.mu.RLock()
	b, ok := s.boards[class]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", class, ErrUnknownClass)
	}
	if field == "" {
		field = b.sortKey
	}
	if !model.AnyHas(b.records, field) {
		return nil, fmt.Errorf("%s.%s: %w", class, field, ErrUnknownField)
	}

	entries := make([]types.Entry, 0, len(b.records))
	for _, rec := range b.records {
		v, ok := rec.Lookup(field)
		if !ok {
			continue
		}
		e := types.Entry{
			Name:   rec.Text("Player"),
			Squad:  rec.Text("Squad"),
			Score:  v,
			Fields: make(map[string]string, len(b.columns)),
		}
		if e.Name == "" {
			e.Name, e.Squad = e.Squad, ""
		}
		for _, col := range b.columns {
			e.Fields[col] = rec.Text(col)
		}
		entries = append(entries, e)
	}
	sortEntries(entries)
	assignRanksWithTies(entries)
	return entries, nil
}

// sortEntries sorts entries by score descending. Ties keep publish order,
// which is the order of the exported file.
func sortEntries(entries []types.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
}

// assignRanksWithTies gives equal scores the same rank. Ranks are
// consecutive: 1, 1, 2.
func assignRanksWithTies(entries []types.Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Score != entries[i-1].Score {
			rank++
		}
		entries[i].Rank = rank
	}
}
