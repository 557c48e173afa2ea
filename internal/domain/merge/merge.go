// Package merge left-joins supplemental tables onto a base table by an
// identity key.
package merge

import (
	"strings"

	"github.com/okian/touchline/internal/domain/table"
)

// Key is the ordered set of columns identifying one row.
type Key []string

// DefaultKey matches players across provider tables.
var DefaultKey = Key{"Player", "Squad"} //nolint:gochecknoglobals // read-only default

const keySep = "\x1f"

func (k Key) covers(t table.Table) bool {
	for _, col := range k {
		if !t.Has(col) {
			return false
		}
	}
	return len(k) > 0
}

// value returns the joined key of row; ok is false when any part is blank.
func (k Key) value(idx []int, row []table.Cell) (string, bool) {
	parts := make([]string, len(idx))
	for i, j := range idx {
		s := strings.TrimSpace(row[j].String())
		if s == "" {
			return "", false
		}
		parts[i] = s
	}
	return strings.Join(parts, keySep), true
}

func (k Key) indexes(t table.Table) []int {
	idx := make([]int, len(k))
	for i, col := range k {
		idx[i] = t.Index(col)
	}
	return idx
}

// Merge left-joins each supplement onto base in order. Supplement columns
// already present in the accumulated result are dropped so base values win.
// Empty supplements and supplements lacking a key column are skipped. The
// result has exactly one row per base row, in base order.
func Merge(base table.Table, supplements []table.Table, key Key) (table.Table, error) {
	if base.Empty() {
		return table.Table{}, ErrMissingBaseTable
	}

	acc := table.Table{
		Name:    base.Name,
		Columns: append([]string(nil), base.Columns...),
		Rows:    make([][]table.Cell, len(base.Rows)),
	}
	for i, row := range base.Rows {
		acc.Rows[i] = append(make([]table.Cell, 0, len(row)), row...)
	}
	if !key.covers(acc) {
		return acc, nil
	}
	accKey := key.indexes(acc)

	for _, sup := range supplements {
		if sup.Empty() || !key.covers(sup) {
			continue
		}

		var keep []int
		for j, col := range sup.Columns {
			if !acc.Has(col) {
				keep = append(keep, j)
			}
		}
		if len(keep) == 0 {
			continue
		}

		supKey := key.indexes(sup)
		lookup := make(map[string][]table.Cell, len(sup.Rows))
		for _, row := range sup.Rows {
			k, ok := key.value(supKey, row)
			if !ok {
				continue
			}
			// first occurrence wins; a duplicate key would otherwise fan out
			if _, dup := lookup[k]; !dup {
				lookup[k] = row
			}
		}

		for _, j := range keep {
			acc.Columns = append(acc.Columns, sup.Columns[j])
		}
		for i, row := range acc.Rows {
			match, found := []table.Cell(nil), false
			if k, ok := key.value(accKey, row); ok {
				match, found = lookup[k]
			}
			for _, j := range keep {
				if found {
					row = append(row, match[j])
				} else {
					row = append(row, table.Missing())
				}
			}
			acc.Rows[i] = row
		}
	}
	return acc, nil
}
