package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/statscrape/internal/store"
)

// Migrate creates the documents and statistics tables when missing.
func (a *App) Migrate(ctx context.Context) error {
	m, ok := a.store.(store.Migrator)
	if !ok {
		return fmt.Errorf("migrate: %T does not manage its own schema", a.store)
	}
	if err := m.Migrate(ctx, store.Tables{Docs: a.cfg.DocsTable, Stats: a.cfg.StatsTable}); err != nil {
		return err
	}
	log.Info().Str("docs", a.cfg.DocsTable).Str("stats", a.cfg.StatsTable).Msg("tables ready")
	return nil
}
