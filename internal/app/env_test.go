package app

import (
	"os"
	"path/filepath"
	"testing"
)

func writeEnv(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadEnvFiles_LaterFileWins(t *testing.T) {
	dir := t.TempDir()
	a := writeEnv(t, dir, ".env", "STATS_TABLE=from_env\nDOCS_TABLE=docs_a\n")
	b := writeEnv(t, dir, ".env.local", "STATS_TABLE=from_local\n")
	t.Setenv("STATS_TABLE", "")
	t.Setenv("DOCS_TABLE", "")

	if err := LoadEnvFiles(a, b); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("STATS_TABLE"); got != "from_local" {
		t.Fatalf("STATS_TABLE=%q", got)
	}
	if got := os.Getenv("DOCS_TABLE"); got != "docs_a" {
		t.Fatalf("DOCS_TABLE=%q", got)
	}
}

func TestLoadEnvFiles_ProcessEnvWins(t *testing.T) {
	dir := t.TempDir()
	p := writeEnv(t, dir, ".env", "SUPABASE_URL=https://file.example\n")
	t.Setenv("SUPABASE_URL", "https://process.example")

	if err := LoadEnvFiles(p); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("SUPABASE_URL"); got != "https://process.example" {
		t.Fatalf("SUPABASE_URL=%q", got)
	}
}

func TestLoadEnvFiles_MissingFileSkipped(t *testing.T) {
	if err := LoadEnvFiles(filepath.Join(t.TempDir(), "nope.env"), ""); err != nil {
		t.Fatalf("missing file should be skipped: %v", err)
	}
}

func TestApplyEnv_OverridesFileValues(t *testing.T) {
	cfg := Defaults()
	var fc FileConfig
	fc.Store.StatsTable = "file_stats"
	fc.Dashboard.Port = 9000
	ApplyFileConfig(&cfg, fc)

	t.Setenv("STATS_TABLE", "env_stats")
	t.Setenv("DROP_COLUMNS", "LNG,AVG")
	t.Setenv("FETCH_TIMEOUT", "5s")
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.StatsTable != "env_stats" {
		t.Fatalf("stats table %q", cfg.StatsTable)
	}
	if cfg.Port != 9000 {
		t.Fatalf("file port lost: %d", cfg.Port)
	}
	if len(cfg.DropColumns) != 2 || cfg.DropColumns[1] != "AVG" {
		t.Fatalf("drop columns %v", cfg.DropColumns)
	}
	if cfg.FetchTimeout.String() != "5s" {
		t.Fatalf("timeout %v", cfg.FetchTimeout)
	}
	if cfg.DocsTable != "collected_docs" {
		t.Fatalf("default docs table lost: %q", cfg.DocsTable)
	}
}
