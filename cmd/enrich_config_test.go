package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnrichConfig() EnrichConfig {
	return EnrichConfig{
		SourceField:           "path",
		TargetField:           "kubernetes",
		InsecureSkipTLSVerify: true,
		RequestTimeout:        30 * time.Second,
		QPSLimit:              20,
		BurstLimit:            30,
		DefaultLogFormat:      "default",
		CacheSize:             1000,
		CacheTTL:              15 * time.Minute,
		Workers:               8,
		BatchSize:             128,
	}
}

func TestEnrichConfig_Validate(t *testing.T) {
	tests := []struct {
		name          string
		modify        func(*EnrichConfig)
		errorContains string
	}{
		{
			name:   "defaults are valid",
			modify: func(*EnrichConfig) {},
		},
		{
			name:   "https api url",
			modify: func(c *EnrichConfig) { c.APIURL = "https://kubernetes.default.svc" },
		},
		{
			name: "api url ignored in cluster",
			modify: func(c *EnrichConfig) {
				c.InCluster = true
				c.APIURL = "not a url"
			},
		},
		{
			name:          "empty source",
			modify:        func(c *EnrichConfig) { c.SourceField = "" },
			errorContains: "--source",
		},
		{
			name:          "empty target",
			modify:        func(c *EnrichConfig) { c.TargetField = "" },
			errorContains: "--target",
		},
		{
			name:          "source equals target",
			modify:        func(c *EnrichConfig) { c.TargetField = "path" },
			errorContains: "must differ",
		},
		{
			name:          "api url without scheme",
			modify:        func(c *EnrichConfig) { c.APIURL = "127.0.0.1:8001" },
			errorContains: "--api",
		},
		{
			name:          "api url with unsupported scheme",
			modify:        func(c *EnrichConfig) { c.APIURL = "ftp://example.com" },
			errorContains: "http or https",
		},
		{
			name:          "zero cache size",
			modify:        func(c *EnrichConfig) { c.CacheSize = 0 },
			errorContains: "--cache-size",
		},
		{
			name:          "negative cache ttl",
			modify:        func(c *EnrichConfig) { c.CacheTTL = -time.Second },
			errorContains: "--cache-ttl",
		},
		{
			name:          "zero workers",
			modify:        func(c *EnrichConfig) { c.Workers = 0 },
			errorContains: "--workers",
		},
		{
			name:          "zero batch size",
			modify:        func(c *EnrichConfig) { c.BatchSize = 0 },
			errorContains: "--batch-size",
		},
		{
			name:          "negative request timeout",
			modify:        func(c *EnrichConfig) { c.RequestTimeout = -time.Second },
			errorContains: "--request-timeout",
		},
		{
			name:          "zero qps",
			modify:        func(c *EnrichConfig) { c.QPSLimit = 0 },
			errorContains: "--qps-limit",
		},
		{
			name:          "zero burst",
			modify:        func(c *EnrichConfig) { c.BurstLimit = 0 },
			errorContains: "--burst-limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validEnrichConfig()
			tt.modify(&config)

			err := config.Validate()
			if tt.errorContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestLoadEnrichEnvVars(t *testing.T) {
	t.Run("environment fills unset flags", func(t *testing.T) {
		t.Setenv(envAPIURL, "https://api.example.com:6443")
		t.Setenv(envAuthToken, "env-token")

		cmd := newEnrichCmd()
		require.NoError(t, cmd.ParseFlags([]string{}))

		config := EnrichConfig{}
		loadEnrichEnvVars(cmd, &config)

		assert.Equal(t, "https://api.example.com:6443", config.APIURL)
		assert.Equal(t, "env-token", config.AuthToken)
	})

	t.Run("flags win over environment", func(t *testing.T) {
		t.Setenv(envAPIURL, "https://api.example.com:6443")
		t.Setenv(envAuthToken, "env-token")

		cmd := newEnrichCmd()
		require.NoError(t, cmd.ParseFlags([]string{"--api", "http://127.0.0.1:8001", "--auth-token", ""}))

		config := EnrichConfig{APIURL: "http://127.0.0.1:8001"}
		loadEnrichEnvVars(cmd, &config)

		assert.Equal(t, "http://127.0.0.1:8001", config.APIURL)
		assert.Empty(t, config.AuthToken)
	})

	t.Run("unset environment leaves config empty", func(t *testing.T) {
		t.Setenv(envAPIURL, "")
		t.Setenv(envAuthToken, "")

		cmd := newEnrichCmd()
		require.NoError(t, cmd.ParseFlags([]string{}))

		config := EnrichConfig{}
		loadEnrichEnvVars(cmd, &config)

		assert.Empty(t, config.APIURL)
		assert.Empty(t, config.AuthToken)
	})
}

func TestEnrichCmdFlagDefaults(t *testing.T) {
	cmd := newEnrichCmd()

	defaults := map[string]string{
		"source":                   "path",
		"target":                   "kubernetes",
		"api":                      "",
		"in-cluster":               "false",
		"insecure-skip-tls-verify": "true",
		"default-log-format":       "default",
		"cache-size":               "1000",
		"cache-ttl":                "15m0s",
		"workers":                  "8",
		"batch-size":               "128",
		"dedupe-lookups":           "false",
		"request-timeout":          "0s",
		"metrics-addr":             "",
		"debug":                    "false",
	}

	for name, want := range defaults {
		flag := cmd.Flags().Lookup(name)
		require.NotNil(t, flag, "flag --%s should exist", name)
		assert.Equal(t, want, flag.DefValue, "default of --%s", name)
	}
}
