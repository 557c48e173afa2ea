// Package service runs the acquisition and scoring pipeline and serves the
// published results to the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/okian/touchline/internal/adapters/csvout"
	repository "github.com/okian/touchline/internal/adapters/repository"
	"github.com/okian/touchline/internal/domain/catalog"
	"github.com/okian/touchline/internal/domain/scoring"
	"github.com/okian/touchline/internal/domain/table"
	"github.com/okian/touchline/internal/domain/types"
	"github.com/okian/touchline/internal/domain/weights"
	"github.com/okian/touchline/pkg/logger"
)

// Source yields one raw table per run.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (table.RawTable, error)
}

// Writer persists one export.
type Writer interface {
	Write(name string, header []string, rows [][]string) (string, error)
}

// Service runs the pipeline and exposes its latest results.
type Service struct {
	mu     sync.RWMutex
	runMu  sync.Mutex
	last   *Summary
	cron   *cron.Cron
	runCtx context.CancelFunc

	// Pipeline
	sources []Source
	classes []catalog.Class
	teamSet weights.Set
	scorer  *scoring.Scorer
	min90s  float64
	writer  Writer
	store   repository.Store

	// Scheduling
	schedule string

	now     func() time.Time
	newID   func() string
	logger  logger.Logger
	optErrs []error
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSources sets the sources fetched on every run, in order.
func WithSources(src ...Source) Option {
	return func(s *Service) {
		s.sources = append(s.sources, src...)
	}
}

// WithWeights builds the player classes and team set from reg. An invalid
// registry is reported by Err and fails every run.
func WithWeights(reg weights.Registry) Option {
	return func(s *Service) {
		classes, err := catalog.Classes(reg)
		if err != nil {
			s.optErrs = append(s.optErrs, fmt.Errorf("weights: %w", err))
			return
		}
		set, err := reg.Get(weights.Team)
		if err != nil {
			s.optErrs = append(s.optErrs, fmt.Errorf("weights: %w", err))
			return
		}
		s.classes, s.teamSet = classes, set
	}
}

// WithMinNineties sets the inclusive export threshold in full-match
// equivalents. Negative values are reported by Err.
func WithMinNineties(v float64) Option {
	return func(s *Service) {
		if v < 0 || math.IsNaN(v) {
			s.optErrs = append(s.optErrs, fmt.Errorf("min 90s %v: %w", v, ErrInvalidOption))
			return
		}
		s.min90s = v
	}
}

// WithWriter sets the export writer.
func WithWriter(w Writer) Option {
	return func(s *Service) {
		if w != nil {
			s.writer = w
		}
	}
}

// WithStore sets the results store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithSchedule sets the cron spec used by Start.
func WithSchedule(spec string) Option {
	return func(s *Service) {
		s.schedule = spec
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRunIDs replaces the run id generator.
func WithRunIDs(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.newID = next
		}
	}
}

// New constructs a Service with default weights and an in-memory store.
func New(opts ...Option) *Service {
	classes, err := catalog.Classes(weights.Defaults())
	s := &Service{
		classes: classes,
		teamSet: weights.TeamSet(),
		scorer:  scoring.NewScorer(),
		min90s:  1,
		writer:  csvout.New("."),
		store:   repository.NewMemoryStore(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	if err != nil {
		s.optErrs = append(s.optErrs, fmt.Errorf("default weights: %w", err))
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("pipeline")
	}
	if err := s.Err(); err != nil {
		s.logger.Error(context.Background(), "invalid service options", logger.Error(err))
	}
	return s
}

// Err reports the options New could not apply.
func (s *Service) Err() error {
	return errors.Join(s.optErrs...)
}

// Start schedules runs on the configured cron spec. Without a schedule it
// does nothing. Overlapping triggers are skipped.
func (s *Service) Start(ctx context.Context) error {
	if err := s.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil || s.schedule == "" {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(s.schedule, func() {
		if _, err := s.Run(runCtx); err != nil {
			s.logger.Error(runCtx, "scheduled run failed", logger.Error(err))
		}
	}); err != nil {
		cancel()
		return err
	}
	c.Start()
	s.cron = c
	s.runCtx = cancel
	s.logger.Info(ctx, "refresh scheduled", logger.String("schedule", s.schedule))
	return nil
}

// Stop cancels scheduled runs and waits for a running one to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.runCtx
	s.cron, s.runCtx = nil, nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
	s.logger.Info(context.Background(), "refresh schedule stopped")
}

// LastRun returns the summary of the latest finished run.
func (s *Service) LastRun() (Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return Summary{}, false
	}
	return *s.last, true
}

// TopN returns the top n entries of class ranked by field.
func (s *Service) TopN(ctx context.Context, class, field string, n int) ([]types.Entry, error) {
	return s.store.TopN(ctx, class, field, n)
}

// Rank returns the entry of name in class ranked by field.
func (s *Service) Rank(ctx context.Context, class, field, name, squad string) (types.Entry, error) {
	return s.store.Rank(ctx, class, field, name, squad)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	ctx := context.Background()
	s.mu.RLock()
	scheduled := s.cron != nil
	s.mu.RUnlock()

	counts := make(map[string]int)
	for class := range s.store.Classes(ctx) {
		counts[class] = s.store.Count(ctx, class)
	}
	stats := map[string]interface{}{
		"scheduled": scheduled,
		"schedule":  s.schedule,
		"sources":   len(s.sources),
		"published": counts,
	}
	if last, ok := s.LastRun(); ok {
		stats["last_run"] = last
	}
	return stats
}
