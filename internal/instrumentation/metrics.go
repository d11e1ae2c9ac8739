package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	attrResult    = "result"
	attrStatus    = "status"
	attrReason    = "reason"
	attrNamespace = "namespace"
	attrEnriched  = "enriched"
)

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// Enrichment metrics
	enrichmentsTotal  metric.Int64Counter
	eventsTotal       metric.Int64Counter
	cacheWriteFailure metric.Int64Counter

	// Kubernetes lookup metrics
	podLookupsTotal   metric.Int64Counter
	podLookupDuration metric.Float64Histogram

	// Cache metrics
	cacheHitsTotal      metric.Int64Counter
	cacheMissesTotal    metric.Int64Counter
	cacheEvictionsTotal metric.Int64Counter
	cacheSize           metric.Int64Gauge

	// Configuration
	// detailedLabels controls whether the high-cardinality namespace label
	// is included in pod lookup metrics
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.enrichmentsTotal, err = meter.Int64Counter(
		"log_enrichments_total",
		metric.WithDescription("Total number of enrichment attempts by result"),
		metric.WithUnit("{enrichment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create log_enrichments_total counter: %w", err)
	}

	m.eventsTotal, err = meter.Int64Counter(
		"log_events_processed_total",
		metric.WithDescription("Total number of events passed through the processor"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create log_events_processed_total counter: %w", err)
	}

	m.cacheWriteFailure, err = meter.Int64Counter(
		"metadata_cache_write_failures_total",
		metric.WithDescription("Total number of resolved records that could not be cached"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata_cache_write_failures_total counter: %w", err)
	}

	m.podLookupsTotal, err = meter.Int64Counter(
		"kubernetes_pod_lookups_total",
		metric.WithDescription("Total number of pod metadata lookups against the Kubernetes API"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes_pod_lookups_total counter: %w", err)
	}

	m.podLookupDuration, err = meter.Float64Histogram(
		"kubernetes_pod_lookup_duration_seconds",
		metric.WithDescription("Pod metadata lookup duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes_pod_lookup_duration_seconds histogram: %w", err)
	}

	m.cacheHitsTotal, err = meter.Int64Counter(
		"metadata_cache_hits_total",
		metric.WithDescription("Total number of metadata cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata_cache_hits_total counter: %w", err)
	}

	m.cacheMissesTotal, err = meter.Int64Counter(
		"metadata_cache_misses_total",
		metric.WithDescription("Total number of metadata cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata_cache_misses_total counter: %w", err)
	}

	m.cacheEvictionsTotal, err = meter.Int64Counter(
		"metadata_cache_evictions_total",
		metric.WithDescription("Total number of metadata cache evictions by reason"),
		metric.WithUnit("{eviction}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata_cache_evictions_total counter: %w", err)
	}

	m.cacheSize, err = meter.Int64Gauge(
		"metadata_cache_size",
		metric.WithDescription("Current number of entries in the metadata cache"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata_cache_size gauge: %w", err)
	}

	return m, nil
}

// RecordEnrichment records the outcome of one enrichment attempt.
func (m *Metrics) RecordEnrichment(ctx context.Context, result string) {
	if m == nil || m.enrichmentsTotal == nil {
		return // Instrumentation not initialized
	}

	m.enrichmentsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordEvent records an event leaving the processor.
func (m *Metrics) RecordEvent(ctx context.Context, enriched bool) {
	if m == nil || m.eventsTotal == nil {
		return // Instrumentation not initialized
	}

	m.eventsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool(attrEnriched, enriched)))
}

// RecordCacheWriteFailure records a resolved record that could not be cached.
func (m *Metrics) RecordCacheWriteFailure(ctx context.Context) {
	if m == nil || m.cacheWriteFailure == nil {
		return // Instrumentation not initialized
	}

	m.cacheWriteFailure.Add(ctx, 1)
}

// RecordPodLookup records a pod metadata lookup with its status and duration.
//
// CARDINALITY NOTE: When detailedLabels is false (default), only the status
// label is recorded. When detailedLabels is true, namespace is also included.
func (m *Metrics) RecordPodLookup(ctx context.Context, namespace, status string, duration time.Duration) {
	if m == nil || m.podLookupsTotal == nil || m.podLookupDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrStatus, status),
	}

	// Only add high-cardinality labels if explicitly enabled
	if m.detailedLabels {
		attrs = append(attrs, attribute.String(attrNamespace, namespace))
	}

	m.podLookupsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.podLookupDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// CacheMetrics adapts Metrics to the cache package's metrics callback.
type CacheMetrics struct {
	metrics *Metrics
}

// CacheCallback returns a callback that records cache events into m.
func (m *Metrics) CacheCallback() *CacheMetrics {
	return &CacheMetrics{metrics: m}
}

// OnCacheHit records a cache hit.
func (c *CacheMetrics) OnCacheHit() {
	if c.metrics == nil || c.metrics.cacheHitsTotal == nil {
		return
	}
	c.metrics.cacheHitsTotal.Add(context.Background(), 1)
}

// OnCacheMiss records a cache miss.
func (c *CacheMetrics) OnCacheMiss() {
	if c.metrics == nil || c.metrics.cacheMissesTotal == nil {
		return
	}
	c.metrics.cacheMissesTotal.Add(context.Background(), 1)
}

// OnCacheEviction records an eviction with its reason.
func (c *CacheMetrics) OnCacheEviction(reason string) {
	if c.metrics == nil || c.metrics.cacheEvictionsTotal == nil {
		return
	}
	c.metrics.cacheEvictionsTotal.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(attrReason, reason)))
}

// OnCacheSizeChange records the current cache size.
func (c *CacheMetrics) OnCacheSizeChange(size int) {
	if c.metrics == nil || c.metrics.cacheSize == nil {
		return
	}
	c.metrics.cacheSize.Record(context.Background(), int64(size))
}
