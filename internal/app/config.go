package app

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds runtime configuration for every flow.
type Config struct {
	// Files
	DataDir string `envconfig:"DATA_DIR"`

	// Scraping
	StatsURL     string        `envconfig:"STATS_URL"`
	UserAgent    string        `envconfig:"USER_AGENT"`
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT"`
	FetchRetries int           `envconfig:"FETCH_RETRIES"`

	// RespectRobots checks robots.txt before each page fetch.
	RespectRobots bool `envconfig:"RESPECT_ROBOTS"`

	// LLM
	LLMBaseURL    string `envconfig:"OPENAI_BASE_URL"`
	LLMAPIKey     string `envconfig:"OPENAI_API_KEY"`
	LLMModel      string `envconfig:"OPENAI_DEPLOYMENT"`
	LLMMaxRetries int    `envconfig:"LLM_MAX_RETRIES"`

	// Model response cache
	CacheDir         string        `envconfig:"CACHE_DIR"`
	CacheMaxAge      time.Duration `envconfig:"CACHE_MAX_AGE"`
	CacheClear       bool          `envconfig:"CACHE_CLEAR"`
	CacheStrictPerms bool          `envconfig:"CACHE_STRICT_PERMS"`

	// Tables
	SupabaseURL string   `envconfig:"SUPABASE_URL"`
	SupabaseKey string   `envconfig:"SUPABASE_ANON_KEY"`
	DatabaseURL string   `envconfig:"DATABASE_URL"`
	DocsTable   string   `envconfig:"DOCS_TABLE"`
	StatsTable  string   `envconfig:"STATS_TABLE"`
	DropColumns []string `envconfig:"DROP_COLUMNS"`
	StatsLayout string   `envconfig:"STATS_LAYOUT"`
	InsertRPS   float64  `envconfig:"INSERT_RPS"`
	SampleSize  int      `envconfig:"SAMPLE_SIZE"`

	// Dashboard
	Host              string        `envconfig:"HOST"`
	Port              int           `envconfig:"PORT"`
	DashboardCacheTTL time.Duration `envconfig:"DASHBOARD_CACHE_TTL"`
	DashboardTitle    string        `envconfig:"DASHBOARD_TITLE"`

	// Behavior
	Debug   bool `envconfig:"DEBUG"`
	Verbose bool `envconfig:"VERBOSE"`
}

const (
	DefaultStatsURL = "https://www.espn.com/nfl/team/stats/_/name/pit"
	DefaultModel    = "gpt-4o"
)

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		DataDir:           "data",
		StatsURL:          DefaultStatsURL,
		FetchTimeout:      30 * time.Second,
		LLMModel:          DefaultModel,
		CacheDir:          ".statscrape-cache",
		DocsTable:         "collected_docs",
		StatsTable:        "steelers_stats",
		DropColumns:       []string{"LNG"},
		StatsLayout:       "lists",
		SampleSize:        10,
		Host:              "0.0.0.0",
		Port:              8000,
		DashboardCacheTTL: 60 * time.Second,
		DashboardTitle:    "Pittsburgh Steelers 2025 Stats",
	}
}

// Flow names a command that Validate checks requirements for.
type Flow string

const (
	FlowCollect   Flow = "collect"
	FlowStructure Flow = "structure"
	FlowLoad      Flow = "load"
	FlowInsert    Flow = "stats insert"
	FlowPreview   Flow = "stats preview"
	FlowSync      Flow = "sync"
	FlowServe     Flow = "serve"
	FlowExport    Flow = "export"
	FlowMigrate   Flow = "migrate"
)

// needsStore reports whether f reads or writes tables.
func (f Flow) needsStore() bool {
	switch f {
	case FlowLoad, FlowInsert, FlowSync, FlowServe, FlowExport, FlowMigrate:
		return true
	}
	return false
}

func (f Flow) needsFetch() bool { return f == FlowCollect || f == FlowSync }

// Validate checks the settings flow needs. Missing credentials wrap
// ErrMissingCredentials.
func (c Config) Validate(flow Flow) error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("config: data dir is required")
	}
	if flow.needsFetch() && strings.TrimSpace(c.StatsURL) == "" {
		return errors.New("config: stats url is required (or set STATS_URL)")
	}
	if flow == FlowStructure {
		var missing []string
		if strings.TrimSpace(c.LLMBaseURL) == "" {
			missing = append(missing, "OPENAI_BASE_URL")
		}
		if strings.TrimSpace(c.LLMAPIKey) == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
		if strings.TrimSpace(c.LLMModel) == "" {
			missing = append(missing, "OPENAI_DEPLOYMENT")
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: set %s", ErrMissingCredentials, strings.Join(missing, ", "))
		}
	}
	if flow.needsStore() && !c.hasStore() {
		return fmt.Errorf("%w: set SUPABASE_URL and SUPABASE_ANON_KEY, or DATABASE_URL", ErrMissingCredentials)
	}
	if flow == FlowMigrate && strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("config: migrate needs DATABASE_URL; hosted REST tables are managed by the host")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.FetchRetries < 0 || c.LLMMaxRetries < 0 || c.InsertRPS < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	return nil
}

func (c Config) hasStore() bool {
	if strings.TrimSpace(c.DatabaseURL) != "" {
		return true
	}
	return strings.TrimSpace(c.SupabaseURL) != "" && strings.TrimSpace(c.SupabaseKey) != ""
}

// Addr is the dashboard listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
