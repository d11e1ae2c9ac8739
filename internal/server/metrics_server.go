package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/giantswarm/log-enricher/internal/instrumentation"
	"github.com/giantswarm/log-enricher/internal/server/middleware"
)

const (
	// DefaultMetricsAddr is the default listen address of the metrics server.
	DefaultMetricsAddr = ":9090"

	// DefaultShutdownTimeout is the default timeout for graceful server shutdown
	DefaultShutdownTimeout = 30 * time.Second
)

// MetricsServerConfig configures the metrics and health listener.
type MetricsServerConfig struct {
	// Addr is the listen address. Defaults to DefaultMetricsAddr.
	Addr string

	// InstrumentationProvider supplies the /metrics handler.
	InstrumentationProvider *instrumentation.Provider

	// HealthChecker serves /healthz and /readyz. Optional.
	HealthChecker *HealthChecker
}

// MetricsServer serves Prometheus metrics and health probes on a dedicated
// listener, separate from the event stream.
type MetricsServer struct {
	addr       string
	httpServer *http.Server

	mu      sync.Mutex
	started bool
}

// NewMetricsServer creates a metrics server. It does not start listening.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.InstrumentationProvider == nil {
		return nil, fmt.Errorf("instrumentation provider is required")
	}

	addr := config.Addr
	if addr == "" {
		addr = DefaultMetricsAddr
	}

	mux := http.NewServeMux()
	endpoint := config.InstrumentationProvider.Config().PrometheusEndpoint
	if endpoint == "" {
		endpoint = "/metrics"
	}
	mux.Handle(endpoint, config.InstrumentationProvider.MetricsHandler())

	health := config.HealthChecker
	if health == nil {
		health = NewHealthChecker(WithInstrumentationProvider(config.InstrumentationProvider))
		health.SetReady(true)
	}
	health.RegisterHealthEndpoints(mux)

	handler := middleware.SecurityHeaders(middleware.SecurityHeadersConfig{})(middleware.ReadOnly(mux))

	return &MetricsServer{
		addr: addr,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}, nil
}

// Addr returns the listen address.
func (s *MetricsServer) Addr() string {
	return s.addr
}

// Handler returns the HTTP handler, for tests.
func (s *MetricsServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens and serves until Shutdown is called. It returns
// http.ErrServerClosed after a graceful shutdown.
func (s *MetricsServer) Start() error {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server. It is a no-op if Start was never
// called.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	if !started {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
