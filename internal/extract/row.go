package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Row maps column names to cell text and remembers column order. Setting an
// existing column keeps its position and replaces the value.
type Row struct {
	keys   []string
	values map[string]string
}

// Set assigns value to column key.
func (r *Row) Set(key, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the cell for key.
func (r Row) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the column names in insertion order.
func (r Row) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Values returns the cells in column order.
func (r Row) Values() []string {
	out := make([]string, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, r.values[k])
	}
	return out
}

// Len is the number of distinct columns.
func (r Row) Len() int { return len(r.keys) }

// Without returns a copy of r minus the named columns.
func (r Row) Without(columns ...string) Row {
	drop := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		drop[c] = struct{}{}
	}
	var out Row
	for _, k := range r.keys {
		if _, ok := drop[k]; ok {
			continue
		}
		out.Set(k, r.values[k])
	}
	return out
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Row) UnmarshalJSON(data []byte) error {
	*r = Row{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("row: unexpected key %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("row: value for %q: %w", key, err)
		}
		r.Set(key, scalarText(v))
	}
	return expectDelim(dec, '}')
}

// scalarText renders a decoded JSON value as cell text.
func scalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
