// Package scoring turns derived metrics into batch-relative 0-100 scores.
package scoring

import (
	"math"

	"github.com/okian/touchline/internal/domain/model"
	"github.com/okian/touchline/internal/domain/weights"
)

// Scoring constants.
const (
	// Neutral is the score of every record when a metric does not vary.
	Neutral = 50.0

	minScoreValue    = 0
	maxScoreValue    = 100
	defaultPrecision = 2
)

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithPrecision sets the decimal places of stored scores.
func WithPrecision(places int) Option {
	return func(s *Scorer) {
		if places > 0 {
			s.precision = places
		}
	}
}

// Scorer writes efficiency scores onto records.
type Scorer struct {
	precision int
}

// NewScorer creates a Scorer.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{precision: defaultPrecision}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MinMax maps values onto 0-100 relative to the batch minimum and maximum.
// When every value is equal each result is exactly Neutral. Invert negates
// the values first so lower raw values score higher. NaN counts as zero and
// infinities as the largest finite values. Results are unrounded.
func MinMax(values []float64, invert bool) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	vals := make([]float64, len(values))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, v := range values {
		v = finite(v)
		if invert {
			v = -v
		}
		vals[i] = v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		for i := range out {
			out[i] = Neutral
		}
		return out
	}
	// halve everything when the range itself overflows
	scale := 1.0
	if math.IsInf(hi-lo, 0) {
		scale = 0.5
	}
	span := hi*scale - lo*scale
	for i, v := range vals {
		out[i] = (v*scale - lo*scale) / span * maxScoreValue
	}
	return out
}

func finite(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	default:
		return v
	}
}

// Normalize is MinMax rounded to the scorer's precision.
func (s *Scorer) Normalize(values []float64, invert bool) []float64 {
	out := MinMax(values, invert)
	for i, v := range out {
		out[i] = s.finish(v)
	}
	return out
}

// ScorePreScores normalizes the metric source across records and stores the
// result as target.
func (s *Scorer) ScorePreScores(records []*model.Record, source, target string) {
	values := make([]float64, len(records))
	for i, rec := range records {
		values[i] = rec.Metric(source)
	}
	for i, v := range s.Normalize(values, false) {
		records[i].SetFloat(target, v)
	}
}

// ScoreComposite normalizes each term of set independently, combines them
// by weight, and stores the rounded result as target.
func (s *Scorer) ScoreComposite(records []*model.Record, set weights.Set, target string) error {
	if err := set.Validate(); err != nil {
		return err
	}
	totals := make([]float64, len(records))
	values := make([]float64, len(records))
	for _, term := range set.Terms {
		for i, rec := range records {
			values[i] = rec.Metric(term.Field)
		}
		for i, v := range MinMax(values, term.Invert) {
			totals[i] += v * term.Weight
		}
	}
	for i, rec := range records {
		rec.SetFloat(target, s.finish(totals[i]))
	}
	return nil
}

func (s *Scorer) finish(v float64) float64 {
	if math.IsNaN(v) {
		return Neutral
	}
	v = model.Round(v, s.precision)
	return math.Max(minScoreValue, math.Min(maxScoreValue, v))
}
