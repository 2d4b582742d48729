package dashboard

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DefaultTitle is the page heading.
const DefaultTitle = "Pittsburgh Steelers 2025 Stats"

// Exporter renders sections into a downloadable document.
type Exporter func(w io.Writer, title string, sections []Section) error

// Server serves the dashboard.
type Server struct {
	Service  *Service
	Title    string
	Metrics  *Metrics
	Gatherer prometheus.Gatherer
	XLSX     Exporter
	PDF      Exporter
}

const maxBarWidth = 400

type barView struct {
	Column string
	Player string
	Value  string
	Width  int
}

type sectionView struct {
	Section
	Bars []barView
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() (*gin.Engine, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{"cell": FormatCell}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	if s.Metrics != nil {
		r.Use(s.Metrics.Middleware())
	}
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.index)
	r.GET("/api/sections", s.sections)
	r.GET("/export.xlsx", s.export(s.XLSX, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "steelers_stats.xlsx"))
	r.GET("/export.pdf", s.export(s.PDF, "application/pdf", "steelers_stats.pdf"))
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	if s.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})))
	}
	return r, nil
}

func (s *Server) title() string {
	if s.Title != "" {
		return s.Title
	}
	return DefaultTitle
}

// refresh drops the cached read when the request asks for fresh data.
func (s *Server) refresh(c *gin.Context) {
	if v := c.Query("refresh"); v != "" && v != "0" && v != "false" {
		s.Service.Refresh()
	}
}

func (s *Server) index(c *gin.Context) {
	s.refresh(c)
	secs, err := s.Service.Sections(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("load sections")
		c.String(http.StatusBadGateway, "failed to load stats: %v", err)
		return
	}
	views := make([]sectionView, 0, len(secs))
	for _, sec := range secs {
		views = append(views, sectionView{Section: sec, Bars: bars(sec.Chart)})
	}
	c.HTML(http.StatusOK, "index", gin.H{
		"Title":      s.title(),
		"ChartTitle": "By player: ",
		"Sections":   views,
	})
}

func (s *Server) sections(c *gin.Context) {
	s.refresh(c)
	secs, err := s.Service.Sections(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if secs == nil {
		secs = []Section{}
	}
	c.JSON(http.StatusOK, gin.H{"title": s.title(), "sections": secs})
}

func (s *Server) export(fn Exporter, contentType, filename string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if fn == nil {
			c.String(http.StatusNotFound, "export not available")
			return
		}
		secs, err := s.Service.Sections(c.Request.Context())
		if err != nil {
			c.String(http.StatusBadGateway, "failed to load stats: %v", err)
			return
		}
		var buf bytes.Buffer
		if err := fn(&buf, s.title(), secs); err != nil {
			log.Error().Err(err).Str("file", filename).Msg("export failed")
			c.String(http.StatusInternalServerError, "export failed")
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, contentType, buf.Bytes())
	}
}

func bars(ch *Chart) []barView {
	if ch == nil || len(ch.Points) == 0 {
		return nil
	}
	peak := 0.0
	for _, p := range ch.Points {
		if p.Value > peak {
			peak = p.Value
		}
	}
	out := make([]barView, 0, len(ch.Points))
	for _, p := range ch.Points {
		w := 0
		if peak > 0 && p.Value > 0 {
			w = int(p.Value / peak * maxBarWidth)
		}
		out = append(out, barView{Column: ch.Column, Player: p.Player, Value: strconv.FormatFloat(p.Value, 'f', -1, 64), Width: w})
	}
	return out
}

// FormatCell renders a section cell as text. Nil is blank.
func FormatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("request")
	}
}
