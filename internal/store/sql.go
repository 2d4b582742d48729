package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects placeholder and DDL syntax.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// SQL is a database/sql backed store.
type SQL struct {
	DB      *sql.DB
	Dialect Dialect
	onClose func()
}

func (s *SQL) placeholder(n int) string {
	if s.Dialect == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func quote(name string) string { return `"` + name + `"` }

func (s *SQL) Insert(ctx context.Context, table string, rows []Row) error {
	return s.write(ctx, table, rows, "")
}

func (s *SQL) Upsert(ctx context.Context, table string, rows []Row, onConflict string) error {
	if err := checkIdent(onConflict); err != nil {
		return err
	}
	return s.write(ctx, table, rows, onConflict)
}

func (s *SQL) write(ctx context.Context, table string, rows []Row, onConflict string) error {
	if len(rows) == 0 {
		return nil
	}
	cols := columnsOf(rows)
	if err := checkIdent(append([]string{table}, cols...)...); err != nil {
		return err
	}
	stmt := s.insertSQL(table, cols, onConflict)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for i, r := range rows {
		args := make([]any, len(cols))
		for j, c := range cols {
			v, err := sqlValue(r[c])
			if err != nil {
				return fmt.Errorf("store: row %d column %s: %w", i, c, err)
			}
			args[j] = v
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("store: insert into %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

func (s *SQL) insertSQL(table string, cols []string, onConflict string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(quote(table))
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quote(c))
	}
	b.WriteString(") VALUES (")
	for i := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s.placeholder(i + 1))
	}
	b.WriteString(")")
	if onConflict == "" {
		return b.String()
	}
	b.WriteString(" ON CONFLICT (")
	b.WriteString(quote(onConflict))
	b.WriteString(") DO ")
	var sets []string
	for _, c := range cols {
		if c == onConflict {
			continue
		}
		sets = append(sets, quote(c)+" = excluded."+quote(c))
	}
	if len(sets) == 0 {
		b.WriteString("NOTHING")
	} else {
		b.WriteString("UPDATE SET ")
		b.WriteString(strings.Join(sets, ", "))
	}
	return b.String()
}

func (s *SQL) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	if err := checkIdent(table); err != nil {
		return nil, err
	}
	sel := "*"
	if len(q.Columns) > 0 {
		if err := checkIdent(q.Columns...); err != nil {
			return nil, err
		}
		quoted := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			quoted[i] = quote(c)
		}
		sel = strings.Join(quoted, ", ")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", sel, quote(table))
	args := make([]any, 0, len(q.Filters))
	for i, f := range q.Filters {
		if err := checkIdent(f.Column); err != nil {
			return nil, err
		}
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		v, err := sqlValue(f.Value)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		fmt.Fprintf(&b, "%s = %s", quote(f.Column), s.placeholder(len(args)))
	}
	if q.OrderBy != "" {
		if err := checkIdent(q.OrderBy); err != nil {
			return nil, err
		}
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", quote(q.OrderBy), dir)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}

	rows, err := s.DB.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("store: select from %s: %w", table, err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("store: scan %s: %w", table, err)
		}
		r := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				r[c] = string(b)
				continue
			}
			r[c] = vals[i]
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: read %s: %w", table, err)
	}
	return out, nil
}

// Migrate creates the document and statistics tables when missing.
func (s *SQL) Migrate(ctx context.Context, t Tables) error {
	if err := checkIdent(t.Docs, t.Stats); err != nil {
		return err
	}
	serial := "BIGSERIAL PRIMARY KEY"
	if s.Dialect == SQLite {
		serial = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + quote(t.Docs) + ` (
	"id" TEXT PRIMARY KEY,
	"title" TEXT NOT NULL,
	"summary" TEXT NOT NULL,
	"source_url" TEXT NOT NULL,
	"extracted_at" TEXT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS ` + quote(t.Stats) + ` (
	"id" ` + serial + `,
	"category" TEXT,
	"player" TEXT,
	"stat_key" TEXT,
	"stat_value" TEXT
)`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

func (s *SQL) Close() error {
	err := s.DB.Close()
	if s.onClose != nil {
		s.onClose()
	}
	return err
}

// sqlValue maps a row value onto a driver value. Lists and objects are
// stored as JSON text.
func sqlValue(v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool, int, int32, int64, float32, float64, []byte:
		return t, nil
	case json.Number:
		return t.String(), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
}
