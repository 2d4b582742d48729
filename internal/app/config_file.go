package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the optional YAML or JSON configuration file. Nested
// sections mirror the environment variable groups.
type FileConfig struct {
	DataDir string `yaml:"dataDir" json:"dataDir"`

	Scrape struct {
		URL       string        `yaml:"url" json:"url"`
		UserAgent string        `yaml:"userAgent" json:"userAgent"`
		Timeout   time.Duration `yaml:"timeout" json:"timeout"`
		Retries   int           `yaml:"retries" json:"retries"`
		Robots    bool          `yaml:"respectRobots" json:"respectRobots"`
	} `yaml:"scrape" json:"scrape"`

	LLM struct {
		BaseURL    string `yaml:"base" json:"base"`
		Model      string `yaml:"model" json:"model"`
		APIKey     string `yaml:"key" json:"key"`
		MaxRetries int    `yaml:"maxRetries" json:"maxRetries"`
	} `yaml:"llm" json:"llm"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Store struct {
		SupabaseURL string   `yaml:"supabaseURL" json:"supabaseURL"`
		SupabaseKey string   `yaml:"supabaseKey" json:"supabaseKey"`
		DatabaseURL string   `yaml:"databaseURL" json:"databaseURL"`
		DocsTable   string   `yaml:"docsTable" json:"docsTable"`
		StatsTable  string   `yaml:"statsTable" json:"statsTable"`
		DropColumns []string `yaml:"dropColumns" json:"dropColumns"`
		Layout      string   `yaml:"layout" json:"layout"`
		InsertRPS   float64  `yaml:"insertRPS" json:"insertRPS"`
		SampleSize  int      `yaml:"sampleSize" json:"sampleSize"`
	} `yaml:"store" json:"store"`

	Dashboard struct {
		Host     string        `yaml:"host" json:"host"`
		Port     int           `yaml:"port" json:"port"`
		CacheTTL time.Duration `yaml:"cacheTTL" json:"cacheTTL"`
		Title    string        `yaml:"title" json:"title"`
	} `yaml:"dashboard" json:"dashboard"`

	Debug   bool `yaml:"debug" json:"debug"`
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every non-zero file value onto cfg. It runs before
// environment and flags, which take precedence.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	setDur := func(dst *time.Duration, v time.Duration) {
		if v != 0 {
			*dst = v
		}
	}
	setBool := func(dst *bool, v bool) {
		if v {
			*dst = true
		}
	}

	setStr(&cfg.DataDir, fc.DataDir)

	setStr(&cfg.StatsURL, fc.Scrape.URL)
	setStr(&cfg.UserAgent, fc.Scrape.UserAgent)
	setDur(&cfg.FetchTimeout, fc.Scrape.Timeout)
	setInt(&cfg.FetchRetries, fc.Scrape.Retries)
	setBool(&cfg.RespectRobots, fc.Scrape.Robots)

	setStr(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	setStr(&cfg.LLMModel, fc.LLM.Model)
	setStr(&cfg.LLMAPIKey, fc.LLM.APIKey)
	setInt(&cfg.LLMMaxRetries, fc.LLM.MaxRetries)

	setStr(&cfg.CacheDir, fc.Cache.Dir)
	setDur(&cfg.CacheMaxAge, fc.Cache.MaxAge)
	setBool(&cfg.CacheClear, fc.Cache.Clear)
	setBool(&cfg.CacheStrictPerms, fc.Cache.StrictPerms)

	setStr(&cfg.SupabaseURL, fc.Store.SupabaseURL)
	setStr(&cfg.SupabaseKey, fc.Store.SupabaseKey)
	setStr(&cfg.DatabaseURL, fc.Store.DatabaseURL)
	setStr(&cfg.DocsTable, fc.Store.DocsTable)
	setStr(&cfg.StatsTable, fc.Store.StatsTable)
	if fc.Store.DropColumns != nil {
		cfg.DropColumns = append([]string{}, fc.Store.DropColumns...)
	}
	setStr(&cfg.StatsLayout, fc.Store.Layout)
	if fc.Store.InsertRPS > 0 {
		cfg.InsertRPS = fc.Store.InsertRPS
	}
	setInt(&cfg.SampleSize, fc.Store.SampleSize)

	setStr(&cfg.Host, fc.Dashboard.Host)
	setInt(&cfg.Port, fc.Dashboard.Port)
	setDur(&cfg.DashboardCacheTTL, fc.Dashboard.CacheTTL)
	setStr(&cfg.DashboardTitle, fc.Dashboard.Title)

	setBool(&cfg.Debug, fc.Debug)
	setBool(&cfg.Verbose, fc.Verbose)
}
