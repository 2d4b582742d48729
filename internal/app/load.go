package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/statscrape/internal/store"
)

const previewRecords = 5

// Load upserts records.json into the documents table on id.
func (a *App) Load(ctx context.Context) (int, error) {
	b, err := a.readInput(a.paths.Records, "structure")
	if err != nil {
		return 0, err
	}
	rows, err := decodeRecords(b)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", a.paths.Records, err)
	}
	a.previewRecords(rows)
	if err := a.store.Upsert(ctx, a.cfg.DocsTable, rows, "id"); err != nil {
		return 0, err
	}
	log.Info().Str("table", a.cfg.DocsTable).Int("rows", len(rows)).Msg("upserted records")
	return len(rows), nil
}

// decodeRecords accepts one object or an array of objects.
func decodeRecords(b []byte) ([]store.Row, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	var items []any
	switch t := v.(type) {
	case map[string]any:
		items = []any{t}
	case []any:
		items = t
	default:
		return nil, fmt.Errorf("records must be an object or an array, got %T", v)
	}
	rows := make([]store.Row, 0, len(items))
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("record %d is not an object", i)
		}
		rows = append(rows, store.Row(m))
	}
	return rows, nil
}

func (a *App) previewRecords(rows []store.Row) {
	cols := []string{"id", "title", "summary", "source_url", "extracted_at"}
	fmt.Fprintln(a.out, strings.Join(cols, " | "))
	for i, r := range rows {
		if i == previewRecords {
			break
		}
		cells := make([]string, len(cols))
		for j, c := range cols {
			if v, ok := r[c]; ok && v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		fmt.Fprintln(a.out, strings.Join(cells, " | "))
	}
}
