package enricher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/Jeffail/gabs/v2"
	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/log-enricher/internal/instrumentation"
	"github.com/giantswarm/log-enricher/internal/logging"
	"github.com/giantswarm/log-enricher/internal/metadata"
)

// Default processor settings.
const (
	DefaultSourceField = "path"
	DefaultTargetField = "kubernetes"
	DefaultWorkers     = 8
)

// Enricher resolves a log source key into metadata.
type Enricher interface {
	Enrich(ctx context.Context, key string) (*metadata.Resolved, error)
}

// ProcessorConfig configures a Processor.
type ProcessorConfig struct {
	// SourceField is the dotted path of the field holding the log source.
	SourceField string

	// TargetField is the dotted path the resolved record is written to.
	TargetField string

	// Workers bounds the number of events ProcessBatch enriches in parallel.
	Workers int

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// Processor enriches JSON events in place.
type Processor struct {
	enricher Enricher
	source   string
	target   string
	workers  int
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
}

// NewProcessor creates a Processor that uses enricher for lookups.
func NewProcessor(enricher Enricher, config ProcessorConfig) *Processor {
	if config.SourceField == "" {
		config.SourceField = DefaultSourceField
	}
	if config.TargetField == "" {
		config.TargetField = DefaultTargetField
	}
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Processor{
		enricher: enricher,
		source:   config.SourceField,
		target:   config.TargetField,
		workers:  config.Workers,
		logger:   config.Logger,
		metrics:  config.Metrics,
	}
}

// Process enriches a single event. It reports whether the target field was
// written. Events without a usable source, or whose source could not be
// resolved, are left untouched and reported as not enriched with a nil error.
// An error is only returned when the target field cannot be set.
func (p *Processor) Process(ctx context.Context, event *gabs.Container) (bool, error) {
	key, _ := event.Path(p.source).Data().(string)

	resolved, err := p.enricher.Enrich(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNoSource) && !errors.Is(err, ErrNotContainerLog) {
			p.logger.Debug("Passing event through without metadata",
				logging.Source(key), logging.SanitizedErr(err))
		}
		p.metrics.RecordEvent(ctx, false)
		return false, nil
	}

	if _, err := event.SetP(resolved.Fields(), p.target); err != nil {
		p.metrics.RecordEvent(ctx, false)
		return false, fmt.Errorf("failed to set %q: %w", p.target, err)
	}

	p.metrics.RecordEvent(ctx, true)
	return true, nil
}

// ProcessBatch enriches events concurrently with at most Workers lookups in
// flight and returns how many of them were enriched. Events are modified in
// place, so their order is unchanged. Events that fail to be written are
// logged and passed through; the returned error is non-nil only when ctx is
// cancelled.
func (p *Processor) ProcessBatch(ctx context.Context, events []*gabs.Container) (int, error) {
	var enriched atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for _, event := range events {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ok, err := p.Process(gctx, event)
			if err != nil {
				p.logger.Warn("Failed to attach metadata to event", logging.Err(err))
			}
			if ok {
				enriched.Add(1)
			}
			return nil
		})
	}

	err := g.Wait()
	return int(enriched.Load()), err
}
