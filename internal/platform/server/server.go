package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"LogDB/internal/platform/config"
	"LogDB/internal/platform/server/handler/dbentry"
	"LogDB/internal/platform/server/handler/health"
	"LogDB/internal/platform/server/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	httpAddr string
	engine   *chi.Mux
	http     *http.Server
	logger   log.Logger
}

func NewServer(cfg config.Config, logger log.Logger, registry *prometheus.Registry,
	entries *dbentry.DbEntryHandler, healthHandler *health.HealthHandler) *Server {
	url := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)
	srv := &Server{
		engine:   chi.NewRouter(),
		httpAddr: url,
		logger:   log.With(logger, "component", "http"),
	}
	metrics := middleware.NewHttpMetrics(prometheus.WrapRegistererWithPrefix("logdb_http_", registry))
	srv.engine.Use(middleware.RequestId)
	srv.engine.Use(middleware.Logger(srv.logger))
	srv.engine.Use(chimw.Recoverer)
	srv.engine.Use(metrics.Instrument)
	srv.registerRoutes(entries, healthHandler, registry)
	srv.http = &http.Server{
		Addr:              url,
		Handler:           srv.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	level.Info(s.logger).Log("msg", "server running", "addr", s.httpAddr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) registerRoutes(entries *dbentry.DbEntryHandler, healthHandler *health.HealthHandler,
	registry *prometheus.Registry) {
	s.engine.Get("/health", healthHandler.Check)
	s.engine.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	s.engine.Get("/db/{key}", entries.GetEntry)
	s.engine.Put("/db/{key}", entries.SaveEntry)
	s.engine.Post("/db/{key}", entries.SaveEntry)
	s.engine.Delete("/db/{key}", entries.DeleteEntry)
}
