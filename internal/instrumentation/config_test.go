package instrumentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func clearInstrumentationEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OTEL_SERVICE_NAME", "INSTRUMENTATION_ENABLED", "METRICS_EXPORTER", "TRACING_EXPORTER",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE", "OTEL_TRACES_SAMPLER_ARG",
		"PROMETHEUS_ENDPOINT", "METRICS_DETAILED_LABELS",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	clearInstrumentationEnv(t)

	config := DefaultConfig()

	assert.Equal(t, "log-enricher", config.ServiceName)
	assert.False(t, config.Enabled, "instrumentation is off by default")
	assert.Equal(t, ExporterPrometheus, config.MetricsExporter)
	assert.Equal(t, ExporterNone, config.TracingExporter)
	assert.Equal(t, 0.1, config.TraceSamplingRate)
	assert.Equal(t, "/metrics", config.PrometheusEndpoint)
	assert.False(t, config.DetailedLabels)
	assert.NoError(t, config.Validate())
}

func TestDefaultConfigWithEnv(t *testing.T) {
	clearInstrumentationEnv(t)
	t.Setenv("OTEL_SERVICE_NAME", "test-service")
	t.Setenv("INSTRUMENTATION_ENABLED", "true")
	t.Setenv("METRICS_EXPORTER", "stdout")
	t.Setenv("TRACING_EXPORTER", "otlp")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.5")
	t.Setenv("METRICS_DETAILED_LABELS", "not-a-bool")

	config := DefaultConfig()

	assert.Equal(t, "test-service", config.ServiceName)
	assert.True(t, config.Enabled)
	assert.Equal(t, "stdout", config.MetricsExporter)
	assert.Equal(t, "otlp", config.TracingExporter)
	assert.Equal(t, "http://localhost:4318", config.OTLPEndpoint)
	assert.Equal(t, 0.5, config.TraceSamplingRate)
	assert.False(t, config.DetailedLabels, "invalid booleans fall back to the default")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "default", mutate: func(*Config) {}},
		{name: "sampling too high", mutate: func(c *Config) { c.TraceSamplingRate = 1.5 }, wantErr: true},
		{name: "sampling negative", mutate: func(c *Config) { c.TraceSamplingRate = -0.1 }, wantErr: true},
		{name: "unknown metrics exporter", mutate: func(c *Config) { c.MetricsExporter = "statsd" }, wantErr: true},
		{name: "prometheus tracing exporter", mutate: func(c *Config) { c.TracingExporter = "prometheus" }, wantErr: true},
		{
			name: "otlp without endpoint",
			mutate: func(c *Config) {
				c.Enabled = true
				c.TracingExporter = ExporterOTLP
				c.OTLPEndpoint = ""
			},
			wantErr: true,
		},
		{
			name: "otlp without endpoint while disabled",
			mutate: func(c *Config) {
				c.Enabled = false
				c.MetricsExporter = ExporterOTLP
				c.OTLPEndpoint = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearInstrumentationEnv(t)
			config := DefaultConfig()
			tt.mutate(&config)
			if tt.wantErr {
				assert.Error(t, config.Validate())
			} else {
				assert.NoError(t, config.Validate())
			}
		})
	}
}
