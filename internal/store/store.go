// Package store writes and reads rows in named relational tables. Backends
// are a PostgREST-style HTTP API, Postgres, SQLite and an in-memory table set.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
)

// Row is one table row keyed by column name.
type Row map[string]any

// Filter restricts a query to rows whose column equals value.
type Filter struct {
	Column string
	Value  any
}

// Query describes a Select. Zero values mean all columns, no filter, no
// ordering and no limit.
type Query struct {
	Columns []string
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Store is the table client used by the flows.
type Store interface {
	Insert(ctx context.Context, table string, rows []Row) error
	// Upsert inserts rows, updating existing ones that collide on onConflict.
	Upsert(ctx context.Context, table string, rows []Row, onConflict string) error
	Select(ctx context.Context, table string, q Query) ([]Row, error)
	Close() error
}

// Tables names the two tables the flows write to.
type Tables struct {
	Docs  string
	Stats string
}

// Migrator creates the tables on backends that own their schema.
type Migrator interface {
	Migrate(ctx context.Context, t Tables) error
}

// ErrNotConfigured is returned by Open when no backend is configured.
var ErrNotConfigured = errors.New("store: no backend configured")

// Options selects and configures a backend. DatabaseURL wins over the REST
// settings when both are set.
type Options struct {
	// DatabaseURL is postgres://..., sqlite://path or memory://.
	DatabaseURL string
	RESTURL     string
	RESTKey     string
	HTTPClient  *http.Client
}

// Open returns the backend selected by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	dsn := strings.TrimSpace(opts.DatabaseURL)
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn)
	case strings.HasPrefix(dsn, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	case dsn == "memory://":
		return NewMemory(), nil
	case dsn != "":
		return nil, fmt.Errorf("store: unsupported database url scheme in %q", redact(dsn))
	}
	if strings.TrimSpace(opts.RESTURL) != "" && strings.TrimSpace(opts.RESTKey) != "" {
		return NewREST(opts.RESTURL, opts.RESTKey, opts.HTTPClient), nil
	}
	return nil, ErrNotConfigured
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkIdent(names ...string) error {
	for _, n := range names {
		if !identRe.MatchString(n) {
			return fmt.Errorf("store: invalid identifier %q", n)
		}
	}
	return nil
}

// columnsOf returns the sorted union of keys across rows.
func columnsOf(rows []Row) []string {
	seen := map[string]struct{}{}
	for _, r := range rows {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func redact(dsn string) string {
	if i := strings.Index(dsn, "@"); i >= 0 {
		if j := strings.Index(dsn, "://"); j >= 0 && j < i {
			return dsn[:j+3] + "***" + dsn[i:]
		}
	}
	return dsn
}
