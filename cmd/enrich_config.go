package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/giantswarm/log-enricher/internal/k8s"
)

// Environment variables consulted when the matching flag is not set.
const (
	envAPIURL    = "KUBERNETES_API_URL"
	envAuthToken = "KUBERNETES_AUTH_TOKEN"
)

// stdinInput selects standard input in --input.
const stdinInput = "-"

// EnrichConfig holds all configuration for the enrich command.
type EnrichConfig struct {
	// Event fields
	SourceField string
	TargetField string

	// Kubernetes API settings
	APIURL                string
	AuthToken             string
	AuthTokenFile         string
	InCluster             bool
	InsecureSkipTLSVerify bool
	RequestTimeout        time.Duration
	QPSLimit              float32
	BurstLimit            int

	// Enrichment settings
	DefaultLogFormat string
	CacheSize        int
	CacheTTL         time.Duration
	Workers          int
	BatchSize        int
	DedupeLookups    bool

	// Inputs are file paths, "-" for stdin. Empty means stdin.
	Inputs []string

	// MetricsAddr enables the metrics and health listener when set.
	MetricsAddr string

	DebugMode bool
}

// Validate checks the configuration for values the enricher cannot run with.
func (c *EnrichConfig) Validate() error {
	if c.SourceField == "" {
		return fmt.Errorf("--source must not be empty")
	}
	if c.TargetField == "" {
		return fmt.Errorf("--target must not be empty")
	}
	if c.SourceField == c.TargetField {
		return fmt.Errorf("--source and --target must differ, both are %q", c.SourceField)
	}

	if c.APIURL != "" && !c.InCluster {
		if err := k8s.ValidateAPIURL(c.APIURL); err != nil {
			return fmt.Errorf("--api: %w", err)
		}
	}

	if c.CacheSize <= 0 {
		return fmt.Errorf("--cache-size must be positive, got %d", c.CacheSize)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("--cache-ttl must be positive, got %s", c.CacheTTL)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("--workers must be positive, got %d", c.Workers)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("--batch-size must be positive, got %d", c.BatchSize)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("--request-timeout must not be negative, got %s", c.RequestTimeout)
	}
	if c.QPSLimit <= 0 {
		return fmt.Errorf("--qps-limit must be positive, got %v", c.QPSLimit)
	}
	if c.BurstLimit <= 0 {
		return fmt.Errorf("--burst-limit must be positive, got %d", c.BurstLimit)
	}

	return nil
}

// loadEnvIfEmpty loads an environment variable into a string pointer if it's empty.
func loadEnvIfEmpty(target *string, envKey string) {
	if *target == "" {
		*target = os.Getenv(envKey)
	}
}

// loadEnrichEnvVars fills API settings from the environment.
// Environment variables only apply when the flag was not explicitly set.
func loadEnrichEnvVars(cmd *cobra.Command, config *EnrichConfig) {
	if !cmd.Flags().Changed("api") {
		loadEnvIfEmpty(&config.APIURL, envAPIURL)
	}
	if !cmd.Flags().Changed("auth-token") {
		loadEnvIfEmpty(&config.AuthToken, envAuthToken)
	}
}
