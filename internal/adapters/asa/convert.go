package asa

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/touchline/internal/domain/model"
	"github.com/okian/touchline/internal/domain/table"
)

const (
	dataField   = "data"
	actionField = "action_type"
)

type object = map[string]any

func decode(body []byte) ([]object, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var out []object
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedPayload, err)
	}
	return out, nil
}

// names resolves ids to display names.
type names struct {
	teams   map[string]string
	players map[string]string
}

// toTable turns decoded objects into a raw table. Scalar fields become
// columns in order of first appearance, action arrays are flattened, and ids
// are resolved to Player and Squad names.
func toTable(name string, objs []object, flat []Flatten, n names) table.RawTable {
	var cols []string
	seen := make(map[string]bool)
	rows := make([]map[string]table.Cell, 0, len(objs))

	add := func(row map[string]table.Cell, col string, c table.Cell) {
		if !seen[col] {
			seen[col] = true
			cols = append(cols, col)
		}
		row[col] = c
	}

	for _, obj := range objs {
		row := make(map[string]table.Cell)
		if id, ok := idOf(obj["player_id"]); ok {
			if p, ok := n.players[id]; ok {
				add(row, "Player", table.Text(p))
			}
		}
		if id, ok := idOf(obj["team_id"]); ok {
			if t, ok := n.teams[id]; ok {
				add(row, "Squad", table.Text(t))
			}
		}

		for _, key := range sortedKeys(obj) {
			v := obj[key]
			if key == dataField {
				if actions, ok := v.([]any); ok {
					for _, f := range flat {
						flatten(row, actions, f, add)
					}
				}
				continue
			}
			if strings.HasSuffix(key, "_team_id") {
				if id, ok := idOf(v); ok {
					if t, ok := n.teams[id]; ok {
						add(row, strings.TrimSuffix(key, "_id"), table.Text(t))
					}
				}
			}
			if c, ok := scalar(v); ok {
				add(row, key, c)
			}
		}
		rows = append(rows, row)
	}

	raw := table.RawTable{Name: name, Header: [][]string{cols}}
	for _, row := range rows {
		cells := make([]table.Cell, len(cols))
		for i, col := range cols {
			cells[i] = row[col]
		}
		raw.Rows = append(raw.Rows, cells)
	}
	return raw
}

func flatten(row map[string]table.Cell, actions []any, f Flatten, add func(map[string]table.Cell, string, table.Cell)) {
	total := 0.0
	found := false
	for _, a := range actions {
		act, ok := a.(object)
		if !ok {
			continue
		}
		kind, _ := act[actionField].(string)
		kind = strings.ToLower(strings.TrimSpace(kind))
		if kind == "" {
			continue
		}
		c, ok := scalar(act[f.Value])
		if !ok {
			continue
		}
		v, ok := c.Float()
		if !ok {
			continue
		}
		add(row, f.Prefix+"_"+kind, table.Number(model.Round(v, 4)))
		total += v
		found = true
	}
	if f.Total != "" && found {
		add(row, f.Total, table.Number(model.Round(total, 4)))
	}
}

// scalar converts a JSON value to a cell. Arrays of ids collapse to their
// last element; other composite values are not scalar.
func scalar(v any) (table.Cell, bool) {
	switch x := v.(type) {
	case nil:
		return table.Missing(), true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return table.Text(x.String()), true
		}
		return table.Number(f), true
	case string:
		if strings.TrimSpace(x) == "" {
			return table.Missing(), true
		}
		return table.Text(x), true
	case bool:
		return table.Text(strconv.FormatBool(x)), true
	case []any:
		if len(x) == 0 {
			return table.Missing(), true
		}
		if _, ok := x[len(x)-1].(object); ok {
			return table.Cell{}, false
		}
		return scalar(x[len(x)-1])
	default:
		return table.Cell{}, false
	}
}

func idOf(v any) (string, bool) {
	c, ok := scalar(v)
	if !ok || c.IsMissing() {
		return "", false
	}
	return c.String(), true
}

func sortedKeys(obj object) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// lookup builds an id to name index from a lookup payload.
func lookup(objs []object, idField, nameField string, aliases map[string]string) map[string]string {
	out := make(map[string]string, len(objs))
	for _, obj := range objs {
		id, ok := idOf(obj[idField])
		if !ok {
			continue
		}
		name, _ := obj[nameField].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if alias, ok := aliases[name]; ok {
			name = alias
		}
		out[id] = name
	}
	return out
}
