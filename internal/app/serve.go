package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/statscrape/internal/dashboard"
	"github.com/hyperifyio/statscrape/internal/report"
)

const shutdownTimeout = 5 * time.Second

// Dashboard builds the dashboard server with its own metrics registry.
func (a *App) Dashboard() (*dashboard.Server, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "statscrape_build_info",
			Help:        "Build metadata of the running binary.",
			ConstLabels: prometheus.Labels{"version": BuildVersion, "commit": BuildCommit},
		}, func() float64 { return 1 }),
	)
	m := dashboard.NewMetrics(reg)
	return &dashboard.Server{
		Service:  dashboard.NewService(a.store, a.cfg.StatsTable, a.cfg.DashboardCacheTTL, m),
		Title:    a.cfg.DashboardTitle,
		Metrics:  m,
		Gatherer: reg,
		XLSX:     report.WriteXLSX,
		PDF:      report.WritePDF,
	}, reg
}

// Serve runs the dashboard until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	srv, _ := a.Dashboard()
	h, err := srv.Handler()
	if err != nil {
		return err
	}
	hs := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", hs.Addr).Str("table", a.cfg.StatsTable).Msg("dashboard listening")
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info().Msg("dashboard shutting down")
	if err := hs.Shutdown(shutCtx); err != nil {
		return err
	}
	return nil
}
