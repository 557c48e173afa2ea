package table

// RawTable is a provider table as extracted: a possibly multi-level header
// and the body rows. Header holds one slice per header level; every level
// is as wide as the table.
type RawTable struct {
	Name   string
	Header [][]string
	Rows   [][]Cell
}

// Width returns the column count of the widest header level.
func (r RawTable) Width() int {
	w := 0
	for _, level := range r.Header {
		if len(level) > w {
			w = len(level)
		}
	}
	return w
}

// Table is a normalized table with one unique name per column.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]Cell
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Len returns the row count.
func (t Table) Len() int { return len(t.Rows) }

// Index returns the position of column name, or -1.
func (t Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether the table carries column name.
func (t Table) Has(name string) bool { return t.Index(name) >= 0 }

// Value returns the cell at row i for column name; missing when the column
// does not exist.
func (t Table) Value(i int, name string) Cell {
	j := t.Index(name)
	if j < 0 || i < 0 || i >= len(t.Rows) || j >= len(t.Rows[i]) {
		return Missing()
	}
	return t.Rows[i][j]
}

// Filter returns a copy holding only the rows keep accepts. Row slices are
// shared with the receiver.
func (t Table) Filter(keep func(row []Cell) bool) Table {
	out := Table{Name: t.Name, Columns: append([]string(nil), t.Columns...)}
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// SelectWidest picks the candidate with the most columns. Earlier candidates
// win ties. Candidates without any column are malformed and ignored.
func SelectWidest(candidates []RawTable) (RawTable, error) {
	best := -1
	bestWidth := 0
	for i, c := range candidates {
		if w := c.Width(); w > bestWidth {
			best, bestWidth = i, w
		}
	}
	if best < 0 {
		return RawTable{}, ErrNoTableFound
	}
	return candidates[best], nil
}
