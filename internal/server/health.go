package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/giantswarm/log-enricher/internal/cache"
	"github.com/giantswarm/log-enricher/internal/instrumentation"
)

// CacheStatsFunc reports the current metadata cache statistics.
type CacheStatsFunc func() cache.Stats

// HealthChecker provides health check endpoints for Kubernetes probes.
type HealthChecker struct {
	// ready indicates whether the enricher is ready to process events
	ready atomic.Bool
	// shuttingDown is set once the input has been drained
	shuttingDown atomic.Bool

	version    string
	provider   *instrumentation.Provider
	cacheStats CacheStatsFunc

	// startTime tracks when the process started
	startTime time.Time
}

// HealthOption configures a HealthChecker.
type HealthOption func(*HealthChecker)

// WithVersion sets the version reported by the health endpoints.
func WithVersion(version string) HealthOption {
	return func(h *HealthChecker) {
		h.version = version
	}
}

// WithInstrumentationProvider reports the instrumentation state.
func WithInstrumentationProvider(provider *instrumentation.Provider) HealthOption {
	return func(h *HealthChecker) {
		h.provider = provider
	}
}

// WithCacheStats reports metadata cache statistics on /healthz/detailed.
func WithCacheStats(fn CacheStatsFunc) HealthOption {
	return func(h *HealthChecker) {
		h.cacheStats = fn
	}
}

// NewHealthChecker creates a new HealthChecker. It starts out not ready;
// call SetReady once the pipeline is running.
func NewHealthChecker(opts ...HealthOption) *HealthChecker {
	h := &HealthChecker{
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetReady sets the readiness state.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the enricher is ready to process events.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// SetShuttingDown marks the process as shutting down. Readiness fails from
// then on.
func (h *HealthChecker) SetShuttingDown() {
	h.shuttingDown.Store(true)
}

// HealthResponse represents the JSON response for health endpoints.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
	Version string            `json:"version,omitempty"`
}

// DetailedHealthResponse provides uptime, cache and instrumentation state.
type DetailedHealthResponse struct {
	Status          string                      `json:"status"`
	Version         string                      `json:"version,omitempty"`
	Uptime          string                      `json:"uptime"`
	Cache           *CacheHealthStatus          `json:"cache,omitempty"`
	Instrumentation *InstrumentationHealthCheck `json:"instrumentation,omitempty"`
}

// CacheHealthStatus reports the metadata cache fill level.
type CacheHealthStatus struct {
	Entries    int `json:"entries"`
	MaxEntries int `json:"max_entries"`
}

// InstrumentationHealthCheck provides health information about instrumentation.
type InstrumentationHealthCheck struct {
	Enabled         bool   `json:"enabled"`
	MetricsExporter string `json:"metrics_exporter,omitempty"`
	TracingExporter string `json:"tracing_exporter,omitempty"`
}

// LivenessHandler returns an HTTP handler for the /healthz endpoint.
// If we can respond, we're alive.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status:  "ok",
			Version: h.version,
		})
	})
}

// ReadinessHandler returns an HTTP handler for the /readyz endpoint.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		checks := make(map[string]string)
		allOk := true

		if !h.ready.Load() {
			checks["ready"] = "not ready"
			allOk = false
		} else {
			checks["ready"] = "ok"
		}

		if h.shuttingDown.Load() {
			checks["shutdown"] = "shutting down"
			allOk = false
		} else {
			checks["shutdown"] = "ok"
		}

		if h.provider != nil {
			if h.provider.Enabled() {
				checks["instrumentation"] = "ok"
			} else {
				checks["instrumentation"] = "disabled"
			}
		}

		response := HealthResponse{
			Checks:  checks,
			Version: h.version,
		}

		if allOk {
			response.Status = "ok"
			w.WriteHeader(http.StatusOK)
		} else {
			response.Status = "not ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		_ = json.NewEncoder(w).Encode(response)
	})
}

// DetailedHealthHandler returns an HTTP handler for the /healthz/detailed endpoint.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		response := DetailedHealthResponse{
			Status:          "ok",
			Version:         h.version,
			Uptime:          time.Since(h.startTime).Truncate(time.Second).String(),
			Instrumentation: h.getInstrumentationStatus(),
		}

		if h.cacheStats != nil {
			stats := h.cacheStats()
			response.Cache = &CacheHealthStatus{
				Entries:    stats.Size,
				MaxEntries: stats.MaxSize,
			}
		}

		switch {
		case !h.ready.Load():
			response.Status = "not ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		case h.shuttingDown.Load():
			response.Status = "shutting down"
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(response)
	})
}

// RegisterHealthEndpoints registers health check endpoints on the given mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}

func (h *HealthChecker) getInstrumentationStatus() *InstrumentationHealthCheck {
	if h.provider == nil {
		return &InstrumentationHealthCheck{Enabled: false}
	}

	config := h.provider.Config()
	status := &InstrumentationHealthCheck{Enabled: h.provider.Enabled()}
	if status.Enabled {
		status.MetricsExporter = config.MetricsExporter
		status.TracingExporter = config.TracingExporter
	}
	return status
}
