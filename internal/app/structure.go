package app

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/statscrape/internal/structure"
)

// Structure turns raw_blob.txt into records.json through the chat model.
func (a *App) Structure(ctx context.Context) ([]structure.Record, error) {
	b, err := a.readInput(a.paths.RawBlob, "collect")
	if err != nil {
		return nil, err
	}
	blob := strings.TrimSpace(string(b))
	if blob == "" {
		return nil, fmt.Errorf("%w: %s is empty; check the collector url", ErrMissingInput, a.paths.RawBlob)
	}
	meta, err := ReadMeta(a.paths.Meta)
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}
	in := structure.Input{Blob: blob, SourceURL: meta.SourceURL, ExtractedAt: meta.ExtractedAt}

	s := &structure.Structurer{
		Client: a.llm,
		Model:  a.cfg.LLMModel,
		Cache:  a.completionCache(),
		Debug:  a.cfg.Debug,
		Now:    a.now,
	}
	recs, err := s.Run(ctx, in)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := structure.WriteRecords(&buf, recs); err != nil {
		return nil, err
	}
	if err := writeFile(a.paths.Records, buf.Bytes()); err != nil {
		return nil, err
	}
	log.Info().Str("out", a.paths.Records).Int("records", len(recs)).Msg("wrote records")
	return recs, nil
}
