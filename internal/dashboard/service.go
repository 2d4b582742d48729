package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/statscrape/internal/cache"
	"github.com/hyperifyio/statscrape/internal/store"
)

// DefaultCacheTTL is how long one read of the statistics table is reused.
const DefaultCacheTTL = 60 * time.Second

// Service reads the statistics table and rebuilds sections from it.
type Service struct {
	store   store.Store
	table   string
	rows    *cache.Memo[[]store.Row]
	metrics *Metrics
}

// NewService returns a service reading table through st. m may be nil.
func NewService(st store.Store, table string, ttl time.Duration, m *Metrics) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{store: st, table: table, rows: cache.NewMemo[[]store.Row](ttl), metrics: m}
}

// Rows returns every statistics row in insertion order.
func (s *Service) Rows(ctx context.Context) ([]store.Row, error) {
	rows, hit, err := s.rows.Get(ctx, func(ctx context.Context) ([]store.Row, error) {
		if s.metrics != nil {
			s.metrics.StoreFetches.Inc()
		}
		return s.store.Select(ctx, s.table, store.Query{OrderBy: "id"})
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.FetchErrors.Inc()
		}
		return nil, fmt.Errorf("read %s: %w", s.table, err)
	}
	if hit && s.metrics != nil {
		s.metrics.CacheHits.Inc()
	}
	return rows, nil
}

// Sections rebuilds the dashboard sections.
func (s *Service) Sections(ctx context.Context) ([]Section, error) {
	rows, err := s.Rows(ctx)
	if err != nil {
		return nil, err
	}
	secs := BuildSections(rows)
	if s.metrics != nil {
		for _, sec := range secs {
			s.metrics.SectionRows.WithLabelValues(sec.Label).Set(float64(len(sec.Rows)))
		}
	}
	log.Debug().Int("rows", len(rows)).Int("sections", len(secs)).Msg("rebuilt sections")
	return secs, nil
}

// Refresh drops the cached read.
func (s *Service) Refresh() { s.rows.Invalidate() }
