package stats

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/statscrape/internal/store"
)

// DefaultBatchSize bounds the rows sent per insert request.
const DefaultBatchSize = 500

// Inserter writes batches to the statistics table.
type Inserter struct {
	Store store.Store
	Table string
	// Limiter paces insert requests. Nil means unlimited.
	Limiter   *rate.Limiter
	BatchSize int
}

// NewLimiter returns a limiter allowing rps requests per second, or nil when
// rps is not positive.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// Insert writes every batch in order and returns the number of rows written.
// The first failing request aborts the run; rows already sent stay written.
func (in *Inserter) Insert(ctx context.Context, batches []Batch) (int, error) {
	size := in.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	total := 0
	for _, b := range batches {
		log.Info().Str("table", b.Table).Str("name", Title(FriendlyName(b.Table))).Int("rows", len(b.Rows)).Msg("inserting rows")
		for start := 0; start < len(b.Rows); start += size {
			end := min(start+size, len(b.Rows))
			rows := make([]store.Row, 0, end-start)
			for _, r := range b.Rows[start:end] {
				rows = append(rows, r.Row())
			}
			if in.Limiter != nil {
				if err := in.Limiter.Wait(ctx); err != nil {
					return total, err
				}
			}
			if err := in.Store.Insert(ctx, in.Table, rows); err != nil {
				return total, fmt.Errorf("insert %s rows: %w", b.Table, err)
			}
			total += len(rows)
		}
		log.Info().Str("table", b.Table).Int("rows", len(b.Rows)).Msg("inserted rows")
	}
	return total, nil
}
