// Package metricsserver exposes Prometheus metrics and a liveness
// endpoint over HTTP. Grounded on the teacher's
// internal/server/metrics_server.go: same mux/http.Server/stopChan
// shape, with the disk-usage readiness check replaced by store
// liveness — this store has no disk tier to run low on.
package metricsserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// StatsProvider is whatever the /healthz handler reports on. kvstore's
// facade type satisfies it without this package importing kvstore,
// internal/mvcc, or internal/skiplist directly.
type StatsProvider interface {
	Elements() int
	ActiveTransactions() int
}

// Config configures a Server.
type Config struct {
	Addr string
	Path string
}

// Server serves /metrics (via promhttp) and /healthz on its own
// http.Server.
type Server struct {
	httpServer *http.Server
	provider   StatsProvider
	logger     *zap.Logger
}

// New constructs a metrics server. provider may be nil, in which case
// /healthz reports liveness without element/transaction counts.
func New(cfg Config, provider StatsProvider, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		provider: provider,
		logger:   logger,
	}

	mux.Handle(path, promhttp.Handler())
	mux.HandleFunc("/healthz", s.healthzHandler)

	return s
}

// Start begins serving in a background goroutine. It returns
// immediately; listen failures are logged, not returned, matching the
// teacher's fire-and-forget Start.
func (s *Server) Start() {
	s.logger.Info("starting metrics server", zap.String("addr", s.httpServer.Addr))
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
}

// Handler returns the underlying mux, for tests that want to drive
// requests without binding a real listener.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping metrics server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.provider == nil {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","elements":%d,"active_transactions":%d}`,
		s.provider.Elements(), s.provider.ActiveTransactions())
}
