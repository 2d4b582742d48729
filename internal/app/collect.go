package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/statscrape/internal/extract"
)

// CollectResult is what Collect scraped.
type CollectResult struct {
	Tables extract.Extracted
	Meta   Meta
	Blob   string
}

// scrape fetches url and extracts its tables and readable text.
func (a *App) scrape(ctx context.Context, url string) (CollectResult, error) {
	if a.robots != nil {
		if err := a.robots.Check(ctx, url); err != nil {
			return CollectResult{}, err
		}
	}
	page, err := a.fetcher.Get(ctx, url)
	if err != nil {
		return CollectResult{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	tables, err := extract.Tables(page.Body)
	if err != nil {
		return CollectResult{}, fmt.Errorf("extract tables: %w", err)
	}
	doc := extract.FromHTML(page.Body)
	blob := doc.Text
	if t := strings.TrimSpace(doc.Title); t != "" {
		blob = t + "\n\n" + blob
	}
	return CollectResult{
		Tables: tables,
		Meta:   Meta{SourceURL: url, ExtractedAt: a.timestamp()},
		Blob:   blob,
	}, nil
}

// Collect scrapes url and writes the tables, the provenance sidecar and the
// page text under the data directory. Nothing is written when the fetch
// fails.
func (a *App) Collect(ctx context.Context, url string) (CollectResult, error) {
	if url == "" {
		url = a.cfg.StatsURL
	}
	res, err := a.scrape(ctx, url)
	if err != nil {
		return CollectResult{}, err
	}
	b, err := json.MarshalIndent(res.Tables, "", "  ")
	if err != nil {
		return CollectResult{}, fmt.Errorf("encode tables: %w", err)
	}
	if err := writeFile(a.paths.Stats, b); err != nil {
		return CollectResult{}, err
	}
	if err := writeFile(a.paths.Meta, []byte(res.Meta.String())); err != nil {
		return CollectResult{}, err
	}
	if err := writeFile(a.paths.RawBlob, []byte(res.Blob)); err != nil {
		return CollectResult{}, err
	}
	log.Info().Str("url", url).Int("tables", len(res.Tables)).Str("out", a.paths.Stats).Msg("saved stats JSON")
	return res, nil
}
