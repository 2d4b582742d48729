package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/statscrape/internal/dashboard"
	"github.com/hyperifyio/statscrape/internal/report"
)

// ExportFormat resolves the output format from an explicit name or the
// output file extension.
func ExportFormat(format, out string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	if f == "" {
		f = strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")
	}
	switch f {
	case "xlsx", "pdf":
		return f, nil
	case "":
		return "", fmt.Errorf("export: format is required (xlsx or pdf)")
	default:
		return "", fmt.Errorf("export: unsupported format %q", f)
	}
}

// Export renders the dashboard sections to a workbook or PDF. An empty
// out path writes to the configured output.
func (a *App) Export(ctx context.Context, format, out string) (retErr error) {
	f, err := ExportFormat(format, out)
	if err != nil {
		return err
	}
	svc := dashboard.NewService(a.store, a.cfg.StatsTable, 0, nil)
	sections, err := svc.Sections(ctx)
	if err != nil {
		return err
	}
	var w io.Writer = a.out
	if out != "" {
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}
		file, err := os.Create(out)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := file.Close(); cerr != nil && retErr == nil {
				retErr = fmt.Errorf("close %s: %w", out, cerr)
			}
		}()
		w = file
	}
	switch f {
	case "xlsx":
		err = report.WriteXLSX(w, a.cfg.DashboardTitle, sections)
	default:
		err = report.WritePDF(w, a.cfg.DashboardTitle, sections)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", f, err)
	}
	log.Info().Str("format", f).Str("out", out).Int("sections", len(sections)).Msg("export written")
	return nil
}
