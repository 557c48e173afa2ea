// Package model contains domain models passed between layers.
package model

import (
	"math"

	"github.com/okian/touchline/internal/domain/table"
)

// Record is one merged row: an ordered set of named cells plus unexported
// working values used between derivation and scoring.
type Record struct {
	cols    []string
	vals    map[string]table.Cell
	scratch map[string]float64
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{
		vals:    make(map[string]table.Cell),
		scratch: make(map[string]float64),
	}
}

// FromTable converts every row of t into a record, in row order.
func FromTable(t table.Table) []*Record {
	out := make([]*Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		r := NewRecord()
		for j, col := range t.Columns {
			c := table.Missing()
			if j < len(row) {
				c = row[j]
			}
			r.Set(col, c)
		}
		out = append(out, r)
	}
	return out
}

// Columns returns the column names in insertion order.
func (r *Record) Columns() []string {
	return append([]string(nil), r.cols...)
}

// Has reports whether col is present and not missing.
func (r *Record) Has(col string) bool {
	c, ok := r.vals[col]
	return ok && !c.IsMissing()
}

// Get returns the cell for col; missing when absent.
func (r *Record) Get(col string) table.Cell {
	if c, ok := r.vals[col]; ok {
		return c
	}
	return table.Missing()
}

// Float returns col as a number. Absent, missing, and non-numeric values
// read as 0.
func (r *Record) Float(col string) float64 {
	v, ok := r.Get(col).Float()
	if !ok {
		return 0
	}
	return v
}

// Lookup returns col as a number and whether it held one.
func (r *Record) Lookup(col string) (float64, bool) {
	return r.Get(col).Float()
}

// Text returns col as text; "" when absent.
func (r *Record) Text(col string) string {
	return r.Get(col).String()
}

// Set stores c under col, appending col to the order on first use.
func (r *Record) Set(col string, c table.Cell) {
	if _, ok := r.vals[col]; !ok {
		r.cols = append(r.cols, col)
	}
	r.vals[col] = c
}

// SetFloat stores a numeric value under col.
func (r *Record) SetFloat(col string, v float64) {
	r.Set(col, table.Number(v))
}

// SetScratch stores an unexported working value.
func (r *Record) SetScratch(name string, v float64) {
	r.scratch[name] = v
}

// Metric returns the working value name when set, otherwise the numeric
// value of the column with that name.
func (r *Record) Metric(name string) float64 {
	if v, ok := r.scratch[name]; ok {
		return v
	}
	return r.Float(name)
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := &Record{
		cols:    append([]string(nil), r.cols...),
		vals:    make(map[string]table.Cell, len(r.vals)),
		scratch: make(map[string]float64, len(r.scratch)),
	}
	for k, v := range r.vals {
		c.vals[k] = v
	}
	for k, v := range r.scratch {
		c.scratch[k] = v
	}
	return c
}

// AnyHas reports whether at least one record holds a value for col.
func AnyHas(records []*Record, col string) bool {
	for _, r := range records {
		if r.Has(col) {
			return true
		}
	}
	return false
}

// Round rounds v to places decimal places, halves away from zero.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
