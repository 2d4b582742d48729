// Package dashboard rebuilds display tables from the statistics table and
// serves them over HTTP.
package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/hyperifyio/statscrape/internal/store"
)

// PlayerColumn is the name column placed first in every section.
const PlayerColumn = "player"

// Section is one rebuilt table. Cells are int64, float64, string or nil.
type Section struct {
	Label   string   `json:"label"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Chart   *Chart   `json:"chart,omitempty"`
}

// Empty reports whether the section has no rows.
func (s Section) Empty() bool { return len(s.Rows) == 0 }

// Column returns the index of name, or -1.
func (s Section) Column(name string) int {
	for i, c := range s.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Record is one expanded stored row, keys in stored order.
type Record struct {
	Keys   []string
	Values map[string]any
}

func (r *Record) set(k string, v any) {
	if r.Values == nil {
		r.Values = map[string]any{}
	}
	if _, ok := r.Values[k]; !ok {
		r.Keys = append(r.Keys, k)
	}
	r.Values[k] = v
}

func (r Record) has(k string) bool {
	_, ok := r.Values[k]
	return ok
}

// ToList reads a stored list column. Lists pass through; strings holding a
// JSON array are decoded, a JSON scalar becomes a one-element list and other
// strings are split on commas. Anything else is empty.
func ToList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case string:
		dec := json.NewDecoder(bytes.NewReader([]byte(t)))
		dec.UseNumber()
		var parsed any
		if err := dec.Decode(&parsed); err == nil && atEOF(dec) {
			switch p := parsed.(type) {
			case []any:
				return p
			case map[string]any:
				return nil
			default:
				return []any{p}
			}
		}
		parts := strings.Split(t, ",")
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = strings.TrimSpace(p)
		}
		return out
	default:
		return nil
	}
}

// ExpandKV zips each row's stat_key list with its stat_value list, stopping
// at the shorter one. A stored player that is not empty or "None" is added
// when the zipped columns do not already carry one.
func ExpandKV(rows []store.Row) []Record {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		keys := ToList(row["stat_key"])
		vals := ToList(row["stat_value"])
		var rec Record
		for i := 0; i < len(keys) && i < len(vals); i++ {
			rec.set(keyText(keys[i]), vals[i])
		}
		if p, ok := row[PlayerColumn].(string); ok && p != "" && p != "None" && !rec.has(PlayerColumn) {
			rec.set(PlayerColumn, p)
		}
		out = append(out, rec)
	}
	return out
}

func keyText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// BuildSection rebuilds one display table from the rows of a names table and
// a stats table. Names are matched to stats rows by position, which is only
// right when both tables were scraped with the same order and row count.
// Rows must be in insertion order.
func BuildSection(rows []store.Row, namesTable, statsTable, label string) Section {
	sec := Section{Label: label}
	var namesSrc, statsSrc []store.Row
	for _, r := range rows {
		switch r["category"] {
		case namesTable:
			namesSrc = append(namesSrc, r)
		case statsTable:
			statsSrc = append(statsSrc, r)
		}
	}
	if len(statsSrc) == 0 {
		return sec
	}
	stats := ExpandKV(statsSrc)
	names := namesFrom(ExpandKV(namesSrc))

	var columns []string
	seen := map[string]bool{}
	for _, rec := range stats {
		for _, k := range rec.Keys {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	if names != nil {
		names = fitLength(names, len(stats))
		for i := range stats {
			stats[i].set(PlayerColumn, names[i])
		}
	}
	sec.Columns = append([]string{PlayerColumn}, without(columns, PlayerColumn)...)

	dupes := map[string]bool{}
	for _, rec := range stats {
		cells := make([]any, len(sec.Columns))
		for i, c := range sec.Columns {
			cells[i] = rec.Values[c]
		}
		if p, ok := cells[0].(string); ok && p == "Total" {
			continue
		}
		key := rowKey(cells)
		if dupes[key] {
			continue
		}
		dupes[key] = true
		for i := 1; i < len(cells); i++ {
			cells[i] = Coerce(cells[i])
		}
		cells[0] = playerText(cells[0])
		sec.Rows = append(sec.Rows, cells)
	}
	return sec
}

// namesFrom returns the player values when any is set, else the Name column
// values, else nil.
func namesFrom(recs []Record) []any {
	if len(recs) == 0 {
		return nil
	}
	anyPlayer := false
	anyName := false
	for _, r := range recs {
		if r.Values[PlayerColumn] != nil {
			anyPlayer = true
		}
		if r.has("Name") {
			anyName = true
		}
	}
	col := ""
	switch {
	case anyPlayer:
		col = PlayerColumn
	case anyName:
		col = "Name"
	default:
		return nil
	}
	out := make([]any, len(recs))
	for i, r := range recs {
		out[i] = r.Values[col]
	}
	return out
}

func fitLength(names []any, n int) []any {
	if len(names) >= n {
		return names[:n]
	}
	return append(names, make([]any, n-len(names))...)
}

func without(cols []string, drop string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if c != drop {
			out = append(out, c)
		}
	}
	return out
}

func rowKey(cells []any) string {
	var b strings.Builder
	for _, c := range cells {
		if c == nil {
			b.WriteString("\x00nil")
		} else {
			fmt.Fprintf(&b, "%T:%v", c, c)
		}
		b.WriteByte('\x1f')
	}
	return b.String()
}

func playerText(v any) any {
	switch t := v.(type) {
	case nil, string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// Coerce converts a cell to int64, then float64. Cells that do not parse keep
// their original value.
func Coerce(v any) any {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int64(t)
		}
		return t
	default:
		return v
	}
	trimmed := strings.TrimSpace(s)
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	if _, ok := v.(json.Number); ok {
		return s
	}
	return v
}

// atEOF reports whether nothing but whitespace follows the decoded value.
func atEOF(dec *json.Decoder) bool {
	_, err := dec.Token()
	return err == io.EOF
}
