package enricher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/giantswarm/log-enricher/internal/instrumentation"
	"github.com/giantswarm/log-enricher/internal/k8s"
	"github.com/giantswarm/log-enricher/internal/logging"
	"github.com/giantswarm/log-enricher/internal/metadata"
)

var (
	// ErrNoSource is returned for an empty source key.
	ErrNoSource = errors.New("no log source")

	// ErrNotContainerLog is returned when the source path does not follow
	// the kubelet container log naming scheme.
	ErrNotContainerLog = errors.New("not a container log path")

	// ErrLookupFailed wraps a failed pod metadata lookup.
	ErrLookupFailed = errors.New("pod metadata lookup failed")
)

// MetadataFetcher retrieves the raw labels and annotations of a pod.
type MetadataFetcher interface {
	Fetch(ctx context.Context, namespace, pod string) (k8s.RawPodMetadata, error)
}

// MetadataStore caches resolved records by source key.
type MetadataStore interface {
	Get(key string) (*metadata.Resolved, bool)
	Put(key string, value *metadata.Resolved) error
}

// Config configures an Engine.
type Config struct {
	// DefaultLogFormat is used for streams without a log-format annotation.
	// Defaults to metadata.DefaultLogFormat.
	DefaultLogFormat string

	// DeduplicateLookups collapses concurrent misses for the same key into a
	// single pod lookup.
	DeduplicateLookups bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics is optional.
	Metrics *instrumentation.Metrics
}

// Engine resolves log source keys into workload metadata.
type Engine struct {
	fetcher       MetadataFetcher
	store         MetadataStore
	defaultFormat string
	dedupe        bool
	group         singleflight.Group
	logger        *slog.Logger
	metrics       *instrumentation.Metrics
	now           func() time.Time
}

// NewEngine creates an Engine backed by fetcher and store.
func NewEngine(fetcher MetadataFetcher, store MetadataStore, config Config) (*Engine, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("metadata fetcher is required")
	}
	if store == nil {
		return nil, fmt.Errorf("metadata store is required")
	}
	if config.DefaultLogFormat == "" {
		config.DefaultLogFormat = metadata.DefaultLogFormat
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Engine{
		fetcher:       fetcher,
		store:         store,
		defaultFormat: config.DefaultLogFormat,
		dedupe:        config.DeduplicateLookups,
		logger:        config.Logger,
		metrics:       config.Metrics,
		now:           time.Now,
	}, nil
}

// Enrich returns the metadata for the log source key.
//
// A cached record is returned as is. Otherwise the key is parsed and the pod
// is looked up; a successful result is cached before it is returned. The
// returned record is shared with the cache and must not be modified.
func (e *Engine) Enrich(ctx context.Context, key string) (*metadata.Resolved, error) {
	if key == "" {
		e.metrics.RecordEnrichment(ctx, instrumentation.ResultNoSource)
		return nil, ErrNoSource
	}

	if cached, ok := e.store.Get(key); ok {
		e.metrics.RecordEnrichment(ctx, instrumentation.ResultCacheHit)
		return cached, nil
	}

	var (
		resolved *metadata.Resolved
		err      error
	)
	if e.dedupe {
		resolved, err = e.resolveShared(ctx, key)
	} else {
		resolved, err = e.resolve(ctx, key)
	}

	switch {
	case err == nil:
		e.metrics.RecordEnrichment(ctx, instrumentation.ResultResolved)
	case errors.Is(err, ErrNotContainerLog):
		e.metrics.RecordEnrichment(ctx, instrumentation.ResultNotContainerLog)
	default:
		e.metrics.RecordEnrichment(ctx, instrumentation.ResultLookupFailed)
	}

	return resolved, err
}

// resolveShared runs resolve at most once per key at a time. Waiting callers
// share the result of the first, including its context.
func (e *Engine) resolveShared(ctx context.Context, key string) (*metadata.Resolved, error) {
	result, err, _ := e.group.Do(key, func() (interface{}, error) {
		// Double-check cache inside singleflight
		if cached, ok := e.store.Get(key); ok {
			return cached, nil
		}
		return e.resolve(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return result.(*metadata.Resolved), nil
}

func (e *Engine) resolve(ctx context.Context, key string) (*metadata.Resolved, error) {
	id, ok := metadata.ParsePath(key)
	if !ok {
		e.logger.Debug("Skipping source that is not a container log", logging.Source(key))
		return nil, ErrNotContainerLog
	}

	logger := logging.WithWorkload(e.logger, id.Namespace, id.Pod, id.Container)

	ctx, span := instrumentation.StartSpan(ctx, "enricher.resolve",
		instrumentation.NewSpanAttributeBuilder().
			WithNamespace(id.Namespace).
			WithPod(id.Pod).
			WithContainer(id.Container).
			WithCacheHit(false).
			Build()...)
	defer span.End()

	raw, err := e.fetch(ctx, id)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		logger.Warn("Failed to fetch pod metadata", logging.SanitizedErr(err))
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	resolved := metadata.NewResolved(id, raw.Labels, raw.Annotations, e.defaultFormat)

	if err := e.store.Put(key, resolved); err != nil {
		e.metrics.RecordCacheWriteFailure(ctx)
		logger.Warn("Failed to cache pod metadata", logging.Source(key), logging.Err(err))
	}

	instrumentation.SetSpanSuccess(span)
	logger.Debug("Resolved pod metadata",
		slog.Int("labels", len(resolved.Labels)),
		slog.Int("annotations", len(resolved.Annotations)))

	return resolved, nil
}

func (e *Engine) fetch(ctx context.Context, id metadata.WorkloadIdentity) (k8s.RawPodMetadata, error) {
	ctx, span := instrumentation.StartK8sSpan(ctx, "get", "pods", id.Namespace)
	defer span.End()

	start := e.now()
	raw, err := e.fetcher.Fetch(ctx, id.Namespace, id.Pod)
	duration := e.now().Sub(start)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	e.metrics.RecordPodLookup(ctx, id.Namespace, status, duration)

	return raw, err
}
