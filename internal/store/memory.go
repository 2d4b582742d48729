package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory keeps tables in process. Inserted rows without an id get an
// increasing integer one, like a serial column.
type Memory struct {
	mu     sync.Mutex
	tables map[string][]Row
	nextID map[string]int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tables: map[string][]Row{}, nextID: map[string]int64{}}
}

func (m *Memory) Insert(_ context.Context, table string, rows []Row) error {
	if err := checkIdent(table); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.tables[table] = append(m.tables[table], m.withID(table, r))
	}
	return nil
}

func (m *Memory) Upsert(_ context.Context, table string, rows []Row, onConflict string) error {
	if err := checkIdent(table, onConflict); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		key, ok := r[onConflict]
		if !ok {
			return fmt.Errorf("store: upsert row lacks %s", onConflict)
		}
		replaced := false
		for i, existing := range m.tables[table] {
			if fmt.Sprint(existing[onConflict]) == fmt.Sprint(key) {
				merged := Row{}
				for k, v := range existing {
					merged[k] = v
				}
				for k, v := range r {
					merged[k] = v
				}
				m.tables[table][i] = merged
				replaced = true
				break
			}
		}
		if !replaced {
			m.tables[table] = append(m.tables[table], m.withID(table, r))
		}
	}
	return nil
}

func (m *Memory) Select(_ context.Context, table string, q Query) ([]Row, error) {
	if err := checkIdent(table); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Row
	for _, r := range m.tables[table] {
		if !matches(r, q.Filters) {
			continue
		}
		out = append(out, project(r, q.Columns))
	}
	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			if q.Desc {
				return lessValue(out[j][q.OrderBy], out[i][q.OrderBy])
			}
			return lessValue(out[i][q.OrderBy], out[j][q.OrderBy])
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) withID(table string, r Row) Row {
	cp := make(Row, len(r)+1)
	for k, v := range r {
		cp[k] = v
	}
	if _, ok := cp["id"]; !ok {
		m.nextID[table]++
		cp["id"] = m.nextID[table]
	}
	return cp
}

func matches(r Row, filters []Filter) bool {
	for _, f := range filters {
		if fmt.Sprint(r[f.Column]) != fmt.Sprint(f.Value) {
			return false
		}
	}
	return true
}

func project(r Row, cols []string) Row {
	cp := Row{}
	if len(cols) == 0 {
		for k, v := range r {
			cp[k] = v
		}
		return cp
	}
	for _, c := range cols {
		cp[c] = r[c]
	}
	return cp
}

func lessValue(a, b any) bool {
	ai, aok := a.(int64)
	bi, bok := b.(int64)
	if aok && bok {
		return ai < bi
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}
