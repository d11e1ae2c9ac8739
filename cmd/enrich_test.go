package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Jeffail/gabs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/log-enricher/internal/enricher"
)

const (
	testPodName   = "web-7d9c6b8f5-x2x4z"
	testPodSource = "/var/log/containers/" + testPodName + "_default_web-0123456789abcdef.log"
	missingSource = "/var/log/containers/gone-5f6d7c8b9-abcde_default_web-0123456789abcdef.log"
	testToken     = "test-token"
)

type fakeAPIServer struct {
	*httptest.Server
	requests     atomic.Int32
	unauthorized atomic.Int32
}

func newFakeAPIServer(t *testing.T) *fakeAPIServer {
	t.Helper()

	api := &fakeAPIServer{}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.requests.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			api.unauthorized.Add(1)
		}

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/v1/namespaces/default/pods/"+testPodName {
			_, _ = fmt.Fprintf(w, `{"apiVersion":"v1","kind":"Pod","metadata":{"name":%q,"namespace":"default","labels":{"app":"web"},"annotations":{"log-format-stderr":"json"}}}`, testPodName)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"apiVersion":"v1","kind":"Status","status":"Failure","reason":"NotFound","code":404}`)
	}))
	t.Cleanup(api.Close)

	return api
}

func testEnrichConfig(apiURL string) EnrichConfig {
	config := validEnrichConfig()
	config.APIURL = apiURL
	config.AuthToken = testToken
	config.RequestTimeout = 5 * time.Second
	config.BatchSize = 1
	return config
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunEnrich(t *testing.T) {
	api := newFakeAPIServer(t)

	input := strings.Join([]string{
		fmt.Sprintf(`{"path":%q,"message":"first"}`, testPodSource),
		fmt.Sprintf(`{"path":%q,"message":"second"}`, testPodSource),
		fmt.Sprintf(`{"path":%q,"message":"pod is gone"}`, missingSource),
		`{"path":"/var/log/syslog","message":"host log"}`,
		`plain text line`,
	}, "\n") + "\n"

	var out bytes.Buffer
	err := runEnrich(context.Background(), testEnrichConfig(api.URL), discardLogger(), strings.NewReader(input), &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 5)

	for i, message := range []string{"first", "second"} {
		event, err := gabs.ParseJSON([]byte(lines[i]))
		require.NoError(t, err)
		assert.Equal(t, message, event.Path("message").Data())
		assert.Equal(t, testPodName, event.Path("kubernetes.pod").Data())
		assert.Equal(t, "default", event.Path("kubernetes.namespace").Data())
		assert.Equal(t, "web", event.Path("kubernetes.container").Data())
		assert.Equal(t, "web", event.Path("kubernetes.labels.app").Data())
		assert.Equal(t, "json", event.Path("kubernetes.log_format_stderr").Data())
		assert.Equal(t, "default", event.Path("kubernetes.log_format_stdout").Data())
	}

	gone, err := gabs.ParseJSON([]byte(lines[2]))
	require.NoError(t, err)
	assert.False(t, gone.Exists("kubernetes"))

	hostLog, err := gabs.ParseJSON([]byte(lines[3]))
	require.NoError(t, err)
	assert.False(t, hostLog.Exists("kubernetes"))

	assert.Equal(t, "plain text line", lines[4])

	// One lookup for the known pod, the second event is served from cache.
	assert.Equal(t, int32(2), api.requests.Load())
	assert.Zero(t, api.unauthorized.Load())
}

func TestRunEnrich_InputFiles(t *testing.T) {
	api := newFakeAPIServer(t)

	dir := t.TempDir()
	first := filepath.Join(dir, "first.ndjson")
	second := filepath.Join(dir, "second.ndjson")
	require.NoError(t, os.WriteFile(first, []byte(fmt.Sprintf(`{"path":%q,"seq":1}`+"\n", testPodSource)), 0o600))
	require.NoError(t, os.WriteFile(second, []byte(fmt.Sprintf(`{"path":%q,"seq":2}`+"\n", testPodSource)), 0o600))

	config := testEnrichConfig(api.URL)
	config.Inputs = []string{first, stdinInput, second}

	stdin := fmt.Sprintf(`{"path":%q,"seq":"stdin"}`+"\n", testPodSource)

	var out bytes.Buffer
	err := runEnrich(context.Background(), config, discardLogger(), strings.NewReader(stdin), &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	for i, seq := range []string{"1", `"stdin"`, "2"} {
		event, err := gabs.ParseJSON([]byte(lines[i]))
		require.NoError(t, err)
		assert.Equal(t, seq, event.Path("seq").String())
		assert.Equal(t, testPodName, event.Path("kubernetes.pod").Data())
	}
	assert.Equal(t, int32(1), api.requests.Load())
}

func TestRunEnrich_MissingInputFile(t *testing.T) {
	api := newFakeAPIServer(t)

	config := testEnrichConfig(api.URL)
	config.Inputs = []string{filepath.Join(t.TempDir(), "missing.ndjson")}

	var out bytes.Buffer
	err := runEnrich(context.Background(), config, discardLogger(), strings.NewReader(""), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.ndjson")
	assert.Zero(t, api.requests.Load())
}

func TestRunEnrich_InvalidConfig(t *testing.T) {
	config := testEnrichConfig("ftp://example.com")

	err := runEnrich(context.Background(), config, discardLogger(), strings.NewReader(""), io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http or https")
}

func TestRunEnrich_Cancelled(t *testing.T) {
	api := newFakeAPIServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := fmt.Sprintf(`{"path":%q}`+"\n", testPodSource)

	var out bytes.Buffer
	err := runEnrich(ctx, testEnrichConfig(api.URL), discardLogger(), strings.NewReader(input), &out)
	assert.NoError(t, err)
}

func TestRunEnrich_OversizedLineDoesNotAbort(t *testing.T) {
	api := newFakeAPIServer(t)

	input := strings.Join([]string{
		`{"message":"before"}`,
		strings.Repeat("z", enricher.MaxLineSize+1),
		fmt.Sprintf(`{"path":%q,"message":"after"}`, testPodSource),
	}, "\n") + "\n"

	var out bytes.Buffer
	err := runEnrich(context.Background(), testEnrichConfig(api.URL), discardLogger(), strings.NewReader(input), &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"message":"before"}`, lines[0])

	after, err := gabs.ParseJSON([]byte(lines[1]))
	require.NoError(t, err)
	assert.Equal(t, "after", after.Path("message").Data())
	assert.Equal(t, testPodName, after.Path("kubernetes.pod").Data())
}
