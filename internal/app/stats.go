package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/statscrape/internal/extract"
	"github.com/hyperifyio/statscrape/internal/stats"
	"github.com/hyperifyio/statscrape/internal/store"
)

func (a *App) readTables() (extract.Extracted, error) {
	b, err := a.readInput(a.paths.Stats, "collect")
	if err != nil {
		return nil, err
	}
	var tables extract.Extracted
	if err := json.Unmarshal(b, &tables); err != nil {
		return nil, fmt.Errorf("decode %s: %w", a.paths.Stats, err)
	}
	return tables, nil
}

func (a *App) inserter() *stats.Inserter {
	return &stats.Inserter{
		Store:   a.store,
		Table:   a.cfg.StatsTable,
		Limiter: stats.NewLimiter(a.cfg.InsertRPS),
	}
}

// layout resolves the flag value, falling back to the configured layout.
func (a *App) layout(flag string) (stats.Layout, error) {
	if flag == "" {
		flag = a.cfg.StatsLayout
	}
	return stats.ParseLayout(flag)
}

// InsertStats writes steelers_stats.json into the statistics table.
func (a *App) InsertStats(ctx context.Context, layoutName string) (int, error) {
	layout, err := a.layout(layoutName)
	if err != nil {
		return 0, err
	}
	tables, err := a.readTables()
	if err != nil {
		return 0, err
	}
	batches, err := stats.Build(tables, layout, a.cfg.DropColumns)
	if err != nil {
		return 0, err
	}
	n, err := a.inserter().Insert(ctx, batches)
	if err != nil {
		return n, err
	}
	log.Info().Str("table", a.cfg.StatsTable).Str("layout", string(layout)).Int("rows", n).Msg("stats inserted")
	return n, nil
}

// PreviewStats prints the first rows of every scraped table.
func (a *App) PreviewStats(context.Context) error {
	tables, err := a.readTables()
	if err != nil {
		return err
	}
	return stats.Preview(a.out, tables)
}

// Sync scrapes url, inserts every table and reads back a sample.
func (a *App) Sync(ctx context.Context, url, layoutName string) ([]store.Row, error) {
	if url == "" {
		url = a.cfg.StatsURL
	}
	layout, err := a.layout(layoutName)
	if err != nil {
		return nil, err
	}
	res, err := a.scrape(ctx, url)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(res.Tables))
	for _, t := range res.Tables {
		ids = append(ids, t.ID)
	}
	log.Info().Strs("tables", ids).Msg("scraped tables")

	batches, err := stats.Build(res.Tables, layout, a.cfg.DropColumns)
	if err != nil {
		return nil, err
	}
	if _, err := a.inserter().Insert(ctx, batches); err != nil {
		return nil, err
	}
	sample, err := a.store.Select(ctx, a.cfg.StatsTable, store.Query{Limit: a.cfg.SampleSize})
	if err != nil {
		return nil, fmt.Errorf("read back sample: %w", err)
	}
	enc := json.NewEncoder(a.out)
	enc.SetEscapeHTML(false)
	for _, r := range sample {
		if err := enc.Encode(r); err != nil {
			return nil, err
		}
	}
	return sample, nil
}
