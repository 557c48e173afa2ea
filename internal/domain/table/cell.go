// Package table holds the tabular types that flow between acquisition and
// merging, and the normalizer that turns provider tables into clean ones.
package table

import (
	"math"
	"strconv"
	"strings"
)

// Kind tags the scalar held by a Cell.
type Kind uint8

// Cell kinds.
const (
	KindMissing Kind = iota
	KindNumber
	KindText
)

// Cell is one scalar value: a number, a string, or missing.
type Cell struct {
	kind Kind
	num  float64
	text string
}

// Missing returns an empty cell.
func Missing() Cell { return Cell{} }

// Number returns a numeric cell.
func Number(v float64) Cell { return Cell{kind: KindNumber, num: v} }

// Text returns a string cell. Blank strings are kept as text; use ParseCell
// when blank input should count as missing.
func Text(s string) Cell { return Cell{kind: KindText, text: s} }

// ParseCell interprets provider text. Blank input is missing, numbers with
// thousands separators ("1,234") are numeric, anything else is text.
func ParseCell(raw string) Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Missing()
	}
	if v, ok := parseNumber(s); ok {
		return Number(v)
	}
	return Text(s)
}

func parseNumber(s string) (float64, bool) {
	clean := strings.ReplaceAll(s, ",", "")
	if clean == "" || clean == "-" || clean == "+" {
		return 0, false
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Kind reports what the cell holds.
func (c Cell) Kind() Kind { return c.kind }

// IsMissing reports whether the cell holds no value.
func (c Cell) IsMissing() bool { return c.kind == KindMissing }

// Float returns the numeric value. Text that parses as a number is converted;
// missing or non-numeric cells return ok=false.
func (c Cell) Float() (float64, bool) {
	switch c.kind {
	case KindNumber:
		return c.num, true
	case KindText:
		return parseNumber(strings.TrimSpace(c.text))
	default:
		return 0, false
	}
}

// String renders the cell for display and file output. Missing cells render
// as an empty string.
func (c Cell) String() string {
	switch c.kind {
	case KindNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case KindText:
		return c.text
	default:
		return ""
	}
}

// Blank reports whether the cell is missing or holds only whitespace.
func (c Cell) Blank() bool {
	return strings.TrimSpace(c.String()) == ""
}
