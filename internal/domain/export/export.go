// Package export ranks scored records and projects them onto a fixed
// column layout.
package export

import (
	"sort"

	"github.com/okian/touchline/internal/domain/model"
)

// Option configures an Exporter.
type Option func(*Exporter)

// WithThreshold drops records whose exposure is below min. The comparison is
// inclusive: exposure equal to min is kept.
func WithThreshold(exposureField string, minimum float64) Option {
	return func(e *Exporter) {
		e.exposure = exposureField
		e.threshold = minimum
	}
}

// WithSortKey ranks by field, highest first. Ties keep input order.
func WithSortKey(field string) Option {
	return func(e *Exporter) { e.sortKey = field }
}

// WithColumns sets the ordered output layout.
func WithColumns(cols ...string) Option {
	return func(e *Exporter) { e.columns = append([]string(nil), cols...) }
}

// Exporter filters, ranks, and projects one record set.
type Exporter struct {
	exposure  string
	threshold float64
	sortKey   string
	columns   []string
}

// New creates an Exporter. Without a threshold nothing is filtered; without
// a sort key input order is kept.
func New(opts ...Option) *Exporter {
	e := &Exporter{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is a ranked record set with the columns it should be written with.
type Result struct {
	Columns []string
	Records []*model.Record
}

// Len returns the number of ranked records.
func (r Result) Len() int { return len(r.Records) }

// Rows renders each record over Columns. Missing values render empty.
func (r Result) Rows() [][]string {
	out := make([][]string, len(r.Records))
	for i, rec := range r.Records {
		row := make([]string, len(r.Columns))
		for j, col := range r.Columns {
			row[j] = rec.Text(col)
		}
		out[i] = row
	}
	return out
}

// Export applies the threshold, sorts, and resolves the output columns.
// Columns carried by no surviving record are omitted. Zero survivors yield
// ErrEmptyExport.
func (e *Exporter) Export(records []*model.Record) (Result, error) {
	kept := make([]*model.Record, 0, len(records))
	for _, rec := range records {
		if e.exposure != "" && rec.Metric(e.exposure) < e.threshold {
			continue
		}
		kept = append(kept, rec)
	}
	if len(kept) == 0 {
		return Result{}, ErrEmptyExport
	}

	if e.sortKey != "" {
		sort.SliceStable(kept, func(i, j int) bool {
			return kept[i].Metric(e.sortKey) > kept[j].Metric(e.sortKey)
		})
	}

	cols := make([]string, 0, len(e.columns))
	for _, col := range e.columns {
		if model.AnyHas(kept, col) {
			cols = append(cols, col)
		}
	}
	return Result{Columns: cols, Records: kept}, nil
}
