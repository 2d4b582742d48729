package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens a SQLite database file, or a private in-memory database
// for ":memory:".
func OpenSQLite(ctx context.Context, path string) (*SQL, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store: empty sqlite path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}
	return &SQL{DB: db, Dialect: SQLite}, nil
}
