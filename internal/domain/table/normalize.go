package table

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Defaults for provider cleanup.
const (
	defaultIdentityColumn = "Player"
	defaultHeaderSentinel = "Rk"
)

var annotationSuffix = regexp.MustCompile(`\s*\+\d+$`)

// NormalizeOption configures Normalize.
type NormalizeOption func(*normalizer)

// WithIdentityColumn sets the column whose blank values mark non-data rows.
func WithIdentityColumn(name string) NormalizeOption {
	return func(n *normalizer) {
		if name != "" {
			n.identity = name
		}
	}
}

// WithHeaderSentinel sets the first-column value of re-emitted header rows.
func WithHeaderSentinel(s string) NormalizeOption {
	return func(n *normalizer) {
		if s != "" {
			n.sentinel = s
		}
	}
}

type normalizer struct {
	identity string
	sentinel string
}

// Normalize flattens the header, strips annotation suffixes, and removes
// repeated header rows and rows without an identity value. A raw table
// without any column yields ErrNoTableFound.
func Normalize(raw RawTable, opts ...NormalizeOption) (Table, error) {
	n := &normalizer{identity: defaultIdentityColumn, sentinel: defaultHeaderSentinel}
	for _, opt := range opts {
		opt(n)
	}

	width := raw.Width()
	if width == 0 {
		return Table{}, fmt.Errorf("normalize %q: %w", raw.Name, ErrNoTableFound)
	}

	out := Table{Name: raw.Name, Columns: flattenHeader(raw.Header, width)}
	first := out.Columns[0]
	ident := out.Index(n.identity)

	for _, src := range raw.Rows {
		row := fitRow(src, width)
		lead := strings.TrimSpace(row[0].String())
		if lead == n.sentinel || lead == first {
			continue
		}
		if ident >= 0 && row[ident].Blank() {
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// flattenHeader joins the non-placeholder fragments of each column and makes
// the resulting names unique.
func flattenHeader(levels [][]string, width int) []string {
	names := make([]string, width)
	seen := make(map[string]int, width)
	for i := 0; i < width; i++ {
		var parts []string
		for _, level := range levels {
			if i >= len(level) {
				continue
			}
			frag := strings.TrimSpace(level[i])
			if isPlaceholder(frag) {
				continue
			}
			// multi-level headers can repeat the same label on both levels
			if len(parts) > 0 && parts[len(parts)-1] == frag {
				continue
			}
			parts = append(parts, frag)
		}
		name := strings.TrimSpace(annotationSuffix.ReplaceAllString(strings.Join(parts, " "), ""))
		if name == "" {
			name = "col_" + strconv.Itoa(i)
		}
		if k, dup := seen[name]; dup {
			base := name
			for {
				k++
				name = base + "_" + strconv.Itoa(k)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = k
		}
		seen[name] = 0
		names[i] = name
	}
	return names
}

func isPlaceholder(s string) bool {
	return s == "" || strings.EqualFold(s, "nan") || strings.HasPrefix(s, "Unnamed")
}

func fitRow(src []Cell, width int) []Cell {
	row := make([]Cell, width)
	copy(row, src)
	return row
}
