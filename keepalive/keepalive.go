// Package keepalive runs a small HTTP listener so uptime probes and
// free-tier hosting platforms see the process as alive while it polls.
package keepalive

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ri-erusk/texas-dps-scheduler/metrics"
)

// Server answers liveness probes with 200 OK and serves the metrics
// registry on the same listener. It never touches scheduler state.
type Server struct {
	srv *http.Server
}

// New builds a server listening on addr. The metrics registry is exposed
// at /metrics when m is non-nil; every other path answers OK.
func New(addr string, m *metrics.Metrics) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", alive)
	mux.HandleFunc("/healthz", alive)
	if m != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	}
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

func alive(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("keep-alive server failed", slog.Any("error", err))
		}
	}()
	slog.Info("keep-alive server enabled", slog.String("addr", s.srv.Addr))
}

// Shutdown stops the listener, waiting up to the context deadline for
// in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
