// Package server exposes reports, segment records and charts over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"sales-rfm/pkg/cache"
	"sales-rfm/pkg/calculator"
	"sales-rfm/pkg/chart"
	"sales-rfm/pkg/config"
	"sales-rfm/pkg/logger"
	"sales-rfm/pkg/models"
	"sales-rfm/pkg/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

var errBadParam = errors.New("invalid parameter")

// Options holds the report settings shared by every request.
type Options struct {
	StrictQuantiles bool
}

type Server struct {
	store  *store.Store
	cache  *cache.ReportCache
	opts   Options
	engine *gin.Engine
}

// New wires the routes. A nil cache disables memoization; otherwise cached
// reports are scoped to the fingerprint of st.
func New(st *store.Store, rc *cache.ReportCache, opts Options) *Server {
	s := &Server{store: st, cache: rc.ForDataset(st.Fingerprint()), opts: opts, engine: gin.New()}
	s.engine.Use(RequestID(), AccessLog(), Recovery())

	s.engine.GET("/healthz", s.health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	api.GET("/report", s.getReport)
	api.GET("/customers", s.listCustomers)
	api.GET("/charts", s.listCharts)
	api.GET("/charts/:name", s.getChart)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on cfg.Addr until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) Run(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// report resolves the query range and serves it from the cache or a fresh build.
func (s *Server) report(c *gin.Context) (*models.Report, error) {
	rng, err := models.ParseRange(c.Query("start"), c.Query("end"), s.store.DefaultRange())
	if err != nil {
		return nil, err
	}
	ctx := c.Request.Context()
	return s.cache.GetOrBuild(ctx, rng, func() (*models.Report, error) {
		return calculator.Run(ctx, s.store, models.Config{
			Range:           rng,
			StrictQuantiles: s.opts.StrictQuantiles,
			Verbose:         true,
		})
	})
}

func (s *Server) health(c *gin.Context) {
	Success(c, gin.H{
		"status": "ok",
		"orders": s.store.Len(),
		"range":  s.store.DefaultRange(),
	})
}

func (s *Server) getReport(c *gin.Context) {
	report, err := s.report(c)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, report)
}

type customerPage struct {
	Total  int                       `json:"total"`
	Offset int                       `json:"offset"`
	Limit  int                       `json:"limit"`
	Items  []models.RFMSegmentRecord `json:"items"`
}

// listCustomers pages through the segment records, optionally restricted to
// one segment.
func (s *Server) listCustomers(c *gin.Context) {
	limit, err := intParam(c, "limit", defaultPageSize)
	if err != nil {
		Fail(c, err)
		return
	}
	offset, err := intParam(c, "offset", 0)
	if err != nil {
		Fail(c, err)
		return
	}
	limit = min(limit, maxPageSize)

	report, err := s.report(c)
	if err != nil {
		Fail(c, err)
		return
	}

	items := report.Customers
	if segment := c.Query("segment"); segment != "" {
		filtered := make([]models.RFMSegmentRecord, 0)
		for _, r := range items {
			if r.Segment == segment {
				filtered = append(filtered, r)
			}
		}
		items = filtered
	}

	page := customerPage{Total: len(items), Offset: offset, Limit: limit, Items: []models.RFMSegmentRecord{}}
	if offset < len(items) {
		page.Items = items[offset:min(offset+limit, len(items))]
	}
	Success(c, page)
}

func (s *Server) listCharts(c *gin.Context) {
	Success(c, chart.Names())
}

func (s *Server) getChart(c *gin.Context) {
	name := strings.TrimSuffix(c.Param("name"), ".svg")
	if !slices.Contains(chart.Names(), name) {
		Fail(c, fmt.Errorf("%w: %q", chart.ErrUnknownChart, name))
		return
	}
	report, err := s.report(c)
	if err != nil {
		Fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := chart.Render(&buf, name, report); err != nil {
		Fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", buf.Bytes())
}

func intParam(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s=%q", errBadParam, key, raw)
	}
	return v, nil
}
