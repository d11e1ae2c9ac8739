package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/giantswarm/log-enricher/internal/k8s"
	"github.com/giantswarm/log-enricher/internal/logging"
)

var _ k8s.Logger = (*logging.SlogAdapter)(nil)

func TestNewSlogAdapter_NilFallsBackToDefault(t *testing.T) {
	adapter := logging.NewSlogAdapter(nil)
	assert.Equal(t, slog.Default(), adapter.Logger())
}

func TestSlogAdapter_Levels(t *testing.T) {
	tests := []struct {
		name    string
		debug   bool
		log     func(a *logging.SlogAdapter)
		level   string
		written bool
	}{
		{
			name:    "debug with debug logging",
			debug:   true,
			log:     func(a *logging.SlogAdapter) { a.Debug("cache primed", "entries", 3) },
			level:   "level=DEBUG",
			written: true,
		},
		{
			name:  "debug without debug logging",
			log:   func(a *logging.SlogAdapter) { a.Debug("cache primed", "entries", 3) },
			level: "level=DEBUG",
		},
		{
			name:    "info",
			log:     func(a *logging.SlogAdapter) { a.Info("cache primed", "entries", 3) },
			level:   "level=INFO",
			written: true,
		},
		{
			name:    "warn",
			log:     func(a *logging.SlogAdapter) { a.Warn("cache primed", "entries", 3) },
			level:   "level=WARN",
			written: true,
		},
		{
			name:    "error",
			log:     func(a *logging.SlogAdapter) { a.Error("cache primed", "entries", 3) },
			level:   "level=ERROR",
			written: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(logging.NewSlogAdapter(logging.New(&buf, tt.debug)))

			if !tt.written {
				assert.Empty(t, buf.String())
				return
			}
			output := buf.String()
			assert.Contains(t, output, tt.level)
			assert.Contains(t, output, `msg="cache primed"`)
			assert.Contains(t, output, "entries=3")
		})
	}
}

func TestSlogAdapter_PodMetadataClientDebugOutput(t *testing.T) {
	clientset := fake.NewSimpleClientset(&corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "web-7d9c6b8f5-x2x4z",
			Namespace: "default",
			Labels:    map[string]string{"app": "web"},
		},
	})

	var buf bytes.Buffer
	client := k8s.NewPodMetadataClient(clientset, logging.NewSlogAdapter(logging.New(&buf, true)))

	_, err := client.Fetch(context.Background(), "default", "web-7d9c6b8f5-x2x4z")
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), "default", "gone")
	require.Error(t, err)

	output := buf.String()
	assert.Contains(t, output, `msg="Pod lookup succeeded"`)
	assert.Contains(t, output, `msg="Pod lookup failed"`)
	assert.Contains(t, output, "namespace=default")
	assert.Contains(t, output, "pod=web-7d9c6b8f5-x2x4z")
	assert.Contains(t, output, "pod=gone")
	assert.Contains(t, output, "reason=not_found")
}
