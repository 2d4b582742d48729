package dashboard

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the dashboard's Prometheus collectors.
type Metrics struct {
	Requests     *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
	StoreFetches prometheus.Counter
	FetchErrors  prometheus.Counter
	CacheHits    prometheus.Counter
	SectionRows  *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statscrape_http_requests_total",
			Help: "Dashboard HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "statscrape_http_request_duration_seconds",
			Help:    "Dashboard HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		StoreFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statscrape_store_fetches_total",
			Help: "Reads of the statistics table.",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statscrape_store_fetch_errors_total",
			Help: "Failed reads of the statistics table.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statscrape_cache_hits_total",
			Help: "Dashboard requests answered from the query cache.",
		}),
		SectionRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "statscrape_section_rows",
			Help: "Rows per rebuilt dashboard section.",
		}, []string{"section"}),
	}
	reg.MustRegister(m.Requests, m.Duration, m.StoreFetches, m.FetchErrors, m.CacheHits, m.SectionRows)
	return m
}

// Middleware records request counts and latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.Duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
