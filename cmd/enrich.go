package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/giantswarm/log-enricher/internal/cache"
	"github.com/giantswarm/log-enricher/internal/enricher"
	"github.com/giantswarm/log-enricher/internal/instrumentation"
	"github.com/giantswarm/log-enricher/internal/k8s"
	"github.com/giantswarm/log-enricher/internal/logging"
	"github.com/giantswarm/log-enricher/internal/metadata"
	"github.com/giantswarm/log-enricher/internal/server"
)

// shutdownTimeout bounds how long flushing telemetry and stopping the
// metrics listener may take once input is exhausted.
const shutdownTimeout = 10 * time.Second

// newEnrichCmd creates the Cobra command that enriches a stream of events.
func newEnrichCmd() *cobra.Command {
	config := EnrichConfig{}

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich newline-delimited JSON log events with pod metadata",
		Long: `Read newline-delimited JSON events from stdin (or the files given with
--input), attach Kubernetes pod metadata and write them to stdout in the
same order.

The log source is read from the --source field. Container log paths of the
form /var/log/containers/<pod>_<namespace>_<container>-<id>.log are resolved
against the Kubernetes API; every other event is written unchanged.

Authentication:
  - Default: talks to --api (or KUBERNETES_API_URL), e.g. a local 'kubectl proxy'
  - Bearer token: --auth-token (or KUBERNETES_AUTH_TOKEN) or --auth-token-file
  - In-cluster: uses the pod's service account when --in-cluster is set

When --metrics-addr is set, Prometheus metrics and health probes are served
on that address while events are processed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadEnrichEnvVars(cmd, &config)

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			logger := logging.New(cmd.ErrOrStderr(), config.DebugMode)
			slog.SetDefault(logger)

			return runEnrich(ctx, config, logger, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&config.SourceField, "source", enricher.DefaultSourceField, "Event field holding the log source path (dotted paths allowed)")
	cmd.Flags().StringVar(&config.TargetField, "target", enricher.DefaultTargetField, "Event field the metadata is written to (dotted paths allowed)")

	cmd.Flags().StringVar(&config.APIURL, "api", "", fmt.Sprintf("Kubernetes API URL (can also be set via %s env var, default: %s)", envAPIURL, k8s.DefaultAPIURL))
	cmd.Flags().StringVar(&config.AuthToken, "auth-token", "", fmt.Sprintf("Bearer token for the Kubernetes API (can also be set via %s env var)", envAuthToken))
	cmd.Flags().StringVar(&config.AuthTokenFile, "auth-token-file", "", "File containing the bearer token, re-read on rotation")
	cmd.Flags().BoolVar(&config.InCluster, "in-cluster", false, "Use in-cluster authentication (service account token) instead of --api (default: false)")
	cmd.Flags().BoolVar(&config.InsecureSkipTLSVerify, "insecure-skip-tls-verify", true, "Skip verification of the API server certificate")
	cmd.Flags().DurationVar(&config.RequestTimeout, "request-timeout", k8s.DefaultTimeout, "Timeout for a single pod lookup (0 leaves it to the transport)")
	cmd.Flags().Float32Var(&config.QPSLimit, "qps-limit", k8s.DefaultQPSLimit, "QPS limit for Kubernetes API calls")
	cmd.Flags().IntVar(&config.BurstLimit, "burst-limit", k8s.DefaultBurstLimit, "Burst limit for Kubernetes API calls")

	cmd.Flags().StringVar(&config.DefaultLogFormat, "default-log-format", metadata.DefaultLogFormat, "Log format reported for streams without a log-format annotation")
	cmd.Flags().IntVar(&config.CacheSize, "cache-size", cache.DefaultMaxEntries, "Maximum number of log sources kept in the metadata cache")
	cmd.Flags().DurationVar(&config.CacheTTL, "cache-ttl", cache.DefaultTTL, "How long resolved metadata is reused before the pod is fetched again")
	cmd.Flags().IntVar(&config.Workers, "workers", enricher.DefaultWorkers, "Maximum number of events enriched in parallel")
	cmd.Flags().IntVar(&config.BatchSize, "batch-size", enricher.DefaultBatchSize, "Maximum number of events read before output is flushed")
	cmd.Flags().BoolVar(&config.DedupeLookups, "dedupe-lookups", false, "Collapse concurrent lookups for the same log source into one API call")

	cmd.Flags().StringSliceVar(&config.Inputs, "input", nil, "Input files to read instead of stdin, '-' for stdin (repeatable)")
	cmd.Flags().StringVar(&config.MetricsAddr, "metrics-addr", "", "Address to serve metrics and health probes on, e.g. :9090 (disabled when empty)")
	cmd.Flags().BoolVar(&config.DebugMode, "debug", false, "Enable debug logging (default: false)")

	return cmd
}

// runEnrich wires the enrichment pipeline and streams every input through it.
func runEnrich(ctx context.Context, config EnrichConfig, logger *slog.Logger, stdin io.Reader, stdout io.Writer) error {
	if err := config.Validate(); err != nil {
		return err
	}

	instrumentationConfig := instrumentation.DefaultConfig()
	instrumentationConfig.ServiceVersion = rootCmd.Version
	if config.MetricsAddr != "" {
		instrumentationConfig.Enabled = true
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	instrumentationProvider, err := instrumentation.NewProvider(ctx, instrumentationConfig,
		instrumentation.WithPrometheusRegistry(registry))
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := instrumentationProvider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Error during instrumentation shutdown", logging.Err(err))
		}
	}()

	if instrumentationProvider.Enabled() {
		logger.Info("OpenTelemetry instrumentation enabled",
			"metrics", instrumentationConfig.MetricsExporter,
			"tracing", instrumentationConfig.TracingExporter)
	}
	metrics := instrumentationProvider.Metrics()

	k8sLogger := logging.NewSlogAdapter(logger)
	clientset, err := k8s.NewClientset(&k8s.ClientConfig{
		APIURL:                config.APIURL,
		BearerToken:           config.AuthToken,
		BearerTokenFile:       config.AuthTokenFile,
		InCluster:             config.InCluster,
		InsecureSkipTLSVerify: config.InsecureSkipTLSVerify,
		QPSLimit:              config.QPSLimit,
		BurstLimit:            config.BurstLimit,
		Timeout:               config.RequestTimeout,
		UserAgent:             fmt.Sprintf("%s/%s", k8s.DefaultUserAgent, rootCmd.Version),
		Logger:                k8sLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	store, err := cache.New(cache.Config{
		TTL:        config.CacheTTL,
		MaxEntries: config.CacheSize,
		Metrics:    metrics.CacheCallback(),
	})
	if err != nil {
		return fmt.Errorf("failed to create metadata cache: %w", err)
	}

	engine, err := enricher.NewEngine(k8s.NewPodMetadataClient(clientset, k8sLogger), store, enricher.Config{
		DefaultLogFormat:   config.DefaultLogFormat,
		DeduplicateLookups: config.DedupeLookups,
		Logger:             logger,
		Metrics:            metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create enrichment engine: %w", err)
	}

	processor := enricher.NewProcessor(engine, enricher.ProcessorConfig{
		SourceField: config.SourceField,
		TargetField: config.TargetField,
		Workers:     config.Workers,
		Logger:      logger,
		Metrics:     metrics,
	})

	health := server.NewHealthChecker(
		server.WithVersion(rootCmd.Version),
		server.WithInstrumentationProvider(instrumentationProvider),
		server.WithCacheStats(store.Stats),
	)
	defer health.SetShuttingDown()

	if config.MetricsAddr != "" {
		metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    config.MetricsAddr,
			InstrumentationProvider: instrumentationProvider,
			HealthChecker:           health,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		go func() {
			logger.Info("Starting metrics server", "addr", metricsServer.Addr())
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", logging.Err(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	health.SetReady(true)

	inputs := config.Inputs
	if len(inputs) == 0 {
		inputs = []string{stdinInput}
	}

	var total enricher.StreamStats
	for _, input := range inputs {
		stats, err := streamInput(ctx, processor, input, stdin, stdout, config.BatchSize)
		total.Lines += stats.Lines
		total.Enriched += stats.Enriched
		total.Invalid += stats.Invalid
		total.Oversized += stats.Oversized

		if errors.Is(err, context.Canceled) {
			logger.Info("Interrupted, stopping after the current batch")
			break
		}
		if err != nil {
			return fmt.Errorf("failed to enrich %s: %w", inputName(input), err)
		}
	}

	logger.Info("Finished enriching events",
		"lines", total.Lines,
		"enriched", total.Enriched,
		"invalid", total.Invalid,
		"oversized", total.Oversized,
		"cached_sources", store.Len())

	return nil
}

// streamInput runs one input through the processor.
func streamInput(ctx context.Context, processor *enricher.Processor, input string, stdin io.Reader, stdout io.Writer, batchSize int) (enricher.StreamStats, error) {
	if input == stdinInput {
		return processor.Stream(ctx, stdin, stdout, batchSize)
	}

	f, err := os.Open(input)
	if err != nil {
		return enricher.StreamStats{}, err
	}
	defer func() { _ = f.Close() }()

	return processor.Stream(ctx, f, stdout, batchSize)
}

func inputName(input string) string {
	if input == stdinInput {
		return "stdin"
	}
	return input
}
