// Package derive computes per-90 rates, ratios, and composite pre-scores on
// merged records.
package derive

import (
	"github.com/okian/touchline/internal/domain/model"
	"github.com/okian/touchline/internal/domain/weights"
)

// Defaults.
const (
	DefaultPrecision      = 3
	DefaultMinutesColumn  = "Min"
	DefaultNinetiesColumn = "90s"

	// ExposureField is the working value holding each record's exposure.
	ExposureField = "exposure"

	minExposure       = 0.01
	minutesPerNinety  = 90.0
	ninetiesPrecision = 1
)

// Kind selects how a rate is computed from its source.
type Kind uint8

// Rate kinds.
const (
	// PerNinety divides the raw value by exposure.
	PerNinety Kind = iota
	// Passthrough keeps the raw value, for percentages and other rates.
	Passthrough
)

// RateSpec maps a raw column to a derived field.
type RateSpec struct {
	Source    string
	Target    string
	Kind      Kind
	Precision int // 0 means DefaultPrecision
}

// RatioSpec derives Target = Numerator / (Denominator / Scale). A
// non-positive denominator yields 0. Records lacking either input are left
// without Target.
type RatioSpec struct {
	Numerator   string
	Denominator string
	Target      string
	Scale       float64
	Precision   int
}

// CompositeSpec stores the weighted sum of a set's fields as a working
// value named Target.
type CompositeSpec struct {
	Set    weights.Set
	Target string
}

// Option configures a Deriver.
type Option func(*Deriver)

// WithMinutesColumn sets the column holding minutes played.
func WithMinutesColumn(col string) Option {
	return func(d *Deriver) {
		if col != "" {
			d.minutes = col
		}
	}
}

// WithNinetiesColumn sets the column holding 90-minute units, used when
// minutes are absent and filled when missing.
func WithNinetiesColumn(col string) Option {
	return func(d *Deriver) {
		if col != "" {
			d.nineties = col
		}
	}
}

// WithRates appends rate specs.
func WithRates(specs ...RateSpec) Option {
	return func(d *Deriver) { d.rates = append(d.rates, specs...) }
}

// WithRatios appends ratio specs.
func WithRatios(specs ...RatioSpec) Option {
	return func(d *Deriver) { d.ratios = append(d.ratios, specs...) }
}

// WithComposites appends composite pre-score specs.
func WithComposites(specs ...CompositeSpec) Option {
	return func(d *Deriver) { d.composites = append(d.composites, specs...) }
}

// Deriver adds derived fields to records in place.
type Deriver struct {
	minutes    string
	nineties   string
	rates      []RateSpec
	ratios     []RatioSpec
	composites []CompositeSpec
}

// New creates a Deriver.
func New(opts ...Option) *Deriver {
	d := &Deriver{minutes: DefaultMinutesColumn, nineties: DefaultNinetiesColumn}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Exposure converts minutes to 90-minute units with a floor of 0.01.
func Exposure(minutes float64) float64 {
	e := minutes / minutesPerNinety
	if e < minExposure {
		return minExposure
	}
	return e
}

// Minutes returns the minutes played by rec. Without a minutes value the
// 90s column is scaled back; unknown playing time reads as 0.
func (d *Deriver) Minutes(rec *model.Record) float64 {
	if v, ok := rec.Lookup(d.minutes); ok {
		return v
	}
	if v, ok := rec.Lookup(d.nineties); ok {
		return v * minutesPerNinety
	}
	return 0
}

// DropUnplayed returns the records with positive minutes.
func (d *Deriver) DropUnplayed(records []*model.Record) []*model.Record {
	out := make([]*model.Record, 0, len(records))
	for _, rec := range records {
		if d.Minutes(rec) > 0 {
			out = append(out, rec)
		}
	}
	return out
}

// Derive computes every configured field on each record. Rates are stored
// rounded and kept unrounded as working values, which composites read.
func (d *Deriver) Derive(records []*model.Record) {
	for _, rec := range records {
		d.deriveOne(rec)
	}
}

func (d *Deriver) deriveOne(rec *model.Record) {
	minutes := d.Minutes(rec)
	exposure := Exposure(minutes)
	rec.SetScratch(ExposureField, exposure)
	if !rec.Has(d.nineties) {
		rec.SetFloat(d.nineties, model.Round(minutes/minutesPerNinety, ninetiesPrecision))
	}

	for _, spec := range d.rates {
		v := rec.Float(spec.Source)
		if spec.Kind == PerNinety {
			v /= exposure
		}
		rec.SetScratch(spec.Target, v)
		rec.SetFloat(spec.Target, model.Round(v, precision(spec.Precision)))
	}

	for _, spec := range d.ratios {
		if !rec.Has(spec.Numerator) || !rec.Has(spec.Denominator) {
			continue
		}
		var v float64
		den := rec.Float(spec.Denominator)
		scale := spec.Scale
		if scale == 0 {
			scale = 1
		}
		if den > 0 {
			v = rec.Float(spec.Numerator) / (den / scale)
		}
		rec.SetScratch(spec.Target, v)
		rec.SetFloat(spec.Target, model.Round(v, precision(spec.Precision)))
	}

	for _, spec := range d.composites {
		var sum float64
		for _, term := range spec.Set.Terms {
			sum += term.Weight * rec.Metric(term.Field)
		}
		rec.SetScratch(spec.Target, sum)
	}
}

func precision(p int) int {
	if p <= 0 {
		return DefaultPrecision
	}
	return p
}
