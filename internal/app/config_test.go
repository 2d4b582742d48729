package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestValidate_StructureNeedsCredentials(t *testing.T) {
	cfg := Defaults()
	err := cfg.Validate(FlowStructure)
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	cfg.LLMBaseURL = "http://localhost:8080/v1"
	cfg.LLMAPIKey = "k"
	if err := cfg.Validate(FlowStructure); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
}

func TestValidate_StoreFlows(t *testing.T) {
	for _, flow := range []Flow{FlowLoad, FlowInsert, FlowSync, FlowServe, FlowExport} {
		cfg := Defaults()
		if err := cfg.Validate(flow); !errors.Is(err, ErrMissingCredentials) {
			t.Fatalf("%s: expected ErrMissingCredentials, got %v", flow, err)
		}
		cfg.SupabaseURL = "https://x.supabase.co"
		if err := cfg.Validate(flow); !errors.Is(err, ErrMissingCredentials) {
			t.Fatalf("%s: url alone should not be enough, got %v", flow, err)
		}
		cfg.SupabaseKey = "anon"
		if err := cfg.Validate(flow); err != nil {
			t.Fatalf("%s: unexpected %v", flow, err)
		}
	}
}

func TestValidate_LocalFlowsNeedNothing(t *testing.T) {
	cfg := Defaults()
	for _, flow := range []Flow{FlowCollect, FlowPreview} {
		if err := cfg.Validate(flow); err != nil {
			t.Fatalf("%s: %v", flow, err)
		}
	}
}

func TestValidate_MigrateNeedsDatabaseURL(t *testing.T) {
	cfg := Defaults()
	cfg.SupabaseURL = "https://x.supabase.co"
	cfg.SupabaseKey = "anon"
	if err := cfg.Validate(FlowMigrate); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
	cfg.DatabaseURL = "sqlite://stats.db"
	if err := cfg.Validate(FlowMigrate); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
}

func TestValidate_Port(t *testing.T) {
	cfg := Defaults()
	cfg.Port = 70000
	if err := cfg.Validate(FlowCollect); err == nil {
		t.Fatal("expected port error")
	}
}

func TestLoadConfigFile_YAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "statscrape.yaml")
	body := `dataDir: out
scrape:
  url: https://example.com/stats
  timeout: 10s
store:
  statsTable: team_stats
  dropColumns: [LNG, AVG]
  layout: pairs
dashboard:
  port: 9090
  cacheTTL: 2m
`
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	fc, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := Defaults()
	ApplyFileConfig(&cfg, fc)
	if cfg.DataDir != "out" || cfg.StatsURL != "https://example.com/stats" {
		t.Fatalf("unexpected %+v", cfg)
	}
	if cfg.FetchTimeout != 10*time.Second || cfg.DashboardCacheTTL != 2*time.Minute {
		t.Fatalf("durations %v %v", cfg.FetchTimeout, cfg.DashboardCacheTTL)
	}
	if cfg.StatsTable != "team_stats" || cfg.StatsLayout != "pairs" || cfg.Port != 9090 {
		t.Fatalf("unexpected %+v", cfg)
	}
	if len(cfg.DropColumns) != 2 {
		t.Fatalf("drop columns %v", cfg.DropColumns)
	}
	if cfg.DocsTable != "collected_docs" {
		t.Fatalf("unset values must keep defaults, got %q", cfg.DocsTable)
	}
}

func TestLoadConfigFile_JSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "statscrape.json")
	if err := os.WriteFile(p, []byte(`{"llm":{"model":"gpt-4o-mini"},"debug":true}`), 0o644); err != nil {
		t.Fatal(err)
	}
	fc, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := Defaults()
	ApplyFileConfig(&cfg, fc)
	if cfg.LLMModel != "gpt-4o-mini" || !cfg.Debug {
		t.Fatalf("unexpected %+v", cfg)
	}
}

func TestMeta_RoundTrip(t *testing.T) {
	m := Meta{SourceURL: "https://a.example/x?y=1", ExtractedAt: "2025-01-01T00:00:00.000000+00:00"}
	if m.String() != "source_url=https://a.example/x?y=1\nextracted_at=2025-01-01T00:00:00.000000+00:00" {
		t.Fatalf("render %q", m.String())
	}
	p := filepath.Join(t.TempDir(), "meta.txt")
	if err := os.WriteFile(p, []byte(m.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadMeta(p)
	if err != nil || got != m {
		t.Fatalf("read %+v %v", got, err)
	}
}

func TestParseMeta_Lines(t *testing.T) {
	kv := ParseMeta(" source_url = https://x=y \nnoise\nextracted_at=t\n")
	if kv["source_url"] != "https://x=y" || kv["extracted_at"] != "t" || len(kv) != 2 {
		t.Fatalf("parsed %v", kv)
	}
}

func TestReadMeta_Missing(t *testing.T) {
	m, err := ReadMeta(filepath.Join(t.TempDir(), "meta.txt"))
	if err != nil || m != (Meta{}) {
		t.Fatalf("got %+v %v", m, err)
	}
}
