package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/statscrape/internal/cache"
	"github.com/hyperifyio/statscrape/internal/fetch"
	"github.com/hyperifyio/statscrape/internal/llm"
	"github.com/hyperifyio/statscrape/internal/robots"
	"github.com/hyperifyio/statscrape/internal/store"
)

// App holds the clients a flow needs. Clients are built once in New and
// released by Close.
type App struct {
	cfg     Config
	paths   Paths
	http    *http.Client
	fetcher *fetch.Client
	robots  *robots.Checker
	llm     llm.Client
	store   store.Store
	out     io.Writer
	now     func() time.Time
}

// Option customizes New.
type Option func(*App)

// WithStore uses st instead of opening the configured backend.
func WithStore(st store.Store) Option { return func(a *App) { a.store = st } }

// WithHTTPClient replaces the client used for page fetches and REST tables.
func WithHTTPClient(hc *http.Client) Option { return func(a *App) { a.http = hc } }

// WithOutput sets where previews and samples are printed. Default stdout.
func WithOutput(w io.Writer) Option { return func(a *App) { a.out = w } }

// WithClock overrides the time source for timestamps.
func WithClock(now func() time.Time) Option { return func(a *App) { a.now = now } }

// New validates cfg for flow and builds the clients it needs.
func New(ctx context.Context, cfg Config, flow Flow, opts ...Option) (*App, error) {
	if err := cfg.Validate(flow); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, paths: DataPaths(cfg.DataDir), out: os.Stdout, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	if a.http == nil {
		a.http = newHTTPClient(0)
	}

	if flow.needsFetch() {
		a.fetcher = &fetch.Client{
			HTTPClient:  a.http,
			UserAgent:   cfg.UserAgent,
			Timeout:     cfg.FetchTimeout,
			MaxAttempts: 1 + cfg.FetchRetries,
		}
		if cfg.RespectRobots {
			ua := cfg.UserAgent
			if ua == "" {
				ua = fetch.DefaultUserAgent
			}
			a.robots = &robots.Checker{HTTPClient: a.http, UserAgent: ua}
		}
	}
	if flow == FlowStructure {
		p, err := llm.NewOpenAI(llm.Options{
			BaseURL:    cfg.LLMBaseURL,
			APIKey:     cfg.LLMAPIKey,
			MaxRetries: cfg.LLMMaxRetries,
			Timeout:    2 * time.Minute,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMissingCredentials, err)
		}
		a.llm = p
	}
	if flow.needsStore() && a.store == nil {
		st, err := store.Open(ctx, store.Options{
			DatabaseURL: cfg.DatabaseURL,
			RESTURL:     cfg.SupabaseURL,
			RESTKey:     cfg.SupabaseKey,
			HTTPClient:  a.http,
		})
		if err != nil {
			if errors.Is(err, store.ErrNotConfigured) {
				return nil, fmt.Errorf("%w: %v", ErrMissingCredentials, err)
			}
			return nil, err
		}
		a.store = st
	}
	return a, nil
}

// Close releases the store connection.
func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// Store returns the table client, nil for flows without one.
func (a *App) Store() store.Store { return a.store }

// completionCache prepares the on-disk model cache, applying the clear and
// max-age settings. It returns nil when caching is off.
func (a *App) completionCache() *cache.Completions {
	dir := strings.TrimSpace(a.cfg.CacheDir)
	if dir == "" {
		return nil
	}
	dir = filepath.Join(dir, "llm")
	if a.cfg.CacheClear {
		if err := cache.ClearDir(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("cache clear failed")
		}
	}
	if a.cfg.CacheMaxAge > 0 {
		if n, err := cache.PurgeByAge(dir, a.cfg.CacheMaxAge); err != nil {
			log.Warn().Err(err).Msg("cache purge failed")
		} else if n > 0 {
			log.Debug().Int("removed", n).Msg("purged stale model responses")
		}
	}
	return &cache.Completions{Dir: dir, StrictPerms: a.cfg.CacheStrictPerms}
}

func (a *App) timestamp() string {
	return a.now().UTC().Format("2006-01-02T15:04:05.000000-07:00")
}

func (a *App) readInput(path, hint string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found; run %s first", ErrMissingInput, path, hint)
		}
		return nil, err
	}
	return b, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
