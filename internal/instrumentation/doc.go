// Package instrumentation provides OpenTelemetry metrics and tracing for the
// log enricher.
//
// # Metrics
//
// Enrichment:
//   - log_enrichments_total{result}: enrichment attempts by outcome
//     (cache_hit, resolved, no_source, not_container_log, lookup_failed)
//   - log_events_processed_total{enriched}: events leaving the processor
//   - metadata_cache_write_failures_total: resolved records that were not cached
//
// Kubernetes lookups:
//   - kubernetes_pod_lookups_total{status}: pod GET requests
//   - kubernetes_pod_lookup_duration_seconds{status}: pod GET latency
//
// Metadata cache:
//   - metadata_cache_hits_total, metadata_cache_misses_total
//   - metadata_cache_evictions_total{reason}: expired, lru or purge
//   - metadata_cache_size: current number of entries
//
// The namespace label is only attached to lookup metrics when
// Config.DetailedLabels is set, since namespace counts are unbounded.
//
// # Tracing
//
// Spans are created for each enrichment that misses the cache and for the
// pod GET issued to the Kubernetes API. Sampling is parent based with a
// configurable ratio.
//
// # Configuration
//
// Configuration comes from environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: false)
//   - OTEL_SERVICE_NAME: Service name (default: log-enricher)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, none, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint URL
//   - OTEL_EXPORTER_OTLP_INSECURE: Use plain HTTP for OTLP export
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - METRICS_DETAILED_LABELS: Add the namespace label to lookup metrics
//
// # Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer provider.Shutdown(ctx)
//
//	metrics := provider.Metrics()
//	metrics.RecordEnrichment(ctx, instrumentation.ResultResolved)
package instrumentation
