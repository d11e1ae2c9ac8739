package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/log-enricher/internal/cache"
)

func TestNewHealthChecker(t *testing.T) {
	h := NewHealthChecker(WithVersion("1.2.3"))

	require.NotNil(t, h)
	assert.False(t, h.IsReady(), "HealthChecker should start not ready")
	assert.Equal(t, "1.2.3", h.version)
	assert.False(t, h.startTime.IsZero(), "startTime should be set")
}

func TestHealthChecker_SetReady(t *testing.T) {
	h := NewHealthChecker()

	h.SetReady(true)
	assert.True(t, h.IsReady())

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestLivenessHandler(t *testing.T) {
	h := NewHealthChecker(WithVersion("1.2.3"))

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var response HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "1.2.3", response.Version)
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name         string
		ready        bool
		shuttingDown bool
		wantCode     int
		wantStatus   string
		wantChecks   map[string]string
	}{
		{
			name:       "ready",
			ready:      true,
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantChecks: map[string]string{"ready": "ok", "shutdown": "ok"},
		},
		{
			name:       "not ready",
			ready:      false,
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "not ready",
			wantChecks: map[string]string{"ready": "not ready", "shutdown": "ok"},
		},
		{
			name:         "shutting down",
			ready:        true,
			shuttingDown: true,
			wantCode:     http.StatusServiceUnavailable,
			wantStatus:   "not ready",
			wantChecks:   map[string]string{"ready": "ok", "shutdown": "shutting down"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker()
			h.SetReady(tt.ready)
			if tt.shuttingDown {
				h.SetShuttingDown()
			}

			rec := httptest.NewRecorder()
			h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantCode, rec.Code)

			var response HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			assert.Equal(t, tt.wantStatus, response.Status)
			assert.Equal(t, tt.wantChecks, response.Checks)
		})
	}
}

func TestReadinessHandler_Instrumentation(t *testing.T) {
	h := NewHealthChecker(WithInstrumentationProvider(createTestProvider(t)))
	h.SetReady(true)

	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var response HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "ok", response.Checks["instrumentation"])
}

func TestDetailedHealthHandler(t *testing.T) {
	h := NewHealthChecker(
		WithVersion("1.2.3"),
		WithCacheStats(func() cache.Stats { return cache.Stats{Size: 12, MaxSize: 1000} }),
	)
	h.SetReady(true)

	rec := httptest.NewRecorder()
	h.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var response DetailedHealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "1.2.3", response.Version)
	assert.NotEmpty(t, response.Uptime)
	require.NotNil(t, response.Cache)
	assert.Equal(t, 12, response.Cache.Entries)
	assert.Equal(t, 1000, response.Cache.MaxEntries)
	require.NotNil(t, response.Instrumentation)
	assert.False(t, response.Instrumentation.Enabled)
}

func TestDetailedHealthHandler_NotReady(t *testing.T) {
	h := NewHealthChecker()

	rec := httptest.NewRecorder()
	h.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var response DetailedHealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "not ready", response.Status)
	assert.Nil(t, response.Cache)
}

func TestDetailedHealthHandler_ShuttingDown(t *testing.T) {
	h := NewHealthChecker()
	h.SetReady(true)
	h.SetShuttingDown()

	rec := httptest.NewRecorder()
	h.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var response DetailedHealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "shutting down", response.Status)
}

func TestRegisterHealthEndpoints(t *testing.T) {
	h := NewHealthChecker()
	h.SetReady(true)
	mux := http.NewServeMux()
	h.RegisterHealthEndpoints(mux)

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}
