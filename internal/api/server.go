// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/trendlab/faber/internal/api/handler"
	"github.com/trendlab/faber/internal/metrics"
)

// Server represents the Faber HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	MetricsPath string // empty disables the metrics endpoint
}

// NewServer creates a new HTTP server wiring the API handlers.
func NewServer(
	cfg Config,
	backtests *handler.BacktestHandler,
	indexes *handler.IndexesHandler,
	reg *metrics.Registry,
	logger *zap.Logger,
) *Server {
	mux := http.NewServeMux()

	instrumented := metrics.HTTPMiddleware(reg)(mux)

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      instrumented,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		mux:    mux,
	}

	mux.HandleFunc("POST /api/backtest", backtests.Create)
	mux.HandleFunc("GET /api/backtest/{id}", func(w http.ResponseWriter, r *http.Request) {
		backtests.GetStatus(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("GET /api/indexes", indexes.List)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	if cfg.MetricsPath != "" {
		mux.Handle("GET "+cfg.MetricsPath,
			promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	return s
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
