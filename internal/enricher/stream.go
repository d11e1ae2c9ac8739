package enricher

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Jeffail/gabs/v2"

	"github.com/giantswarm/log-enricher/internal/logging"
)

// Stream settings.
const (
	DefaultBatchSize = 128

	// MaxLineSize is the longest event line Stream accepts.
	MaxLineSize = 4 * 1024 * 1024
)

var (
	errTrailingData = errors.New("unexpected data after JSON value")
	errNotObject    = errors.New("event is not a JSON object")
)

// StreamStats summarizes a Stream run.
type StreamStats struct {
	// Lines is the number of non-blank lines read.
	Lines int

	// Enriched is the number of events that received metadata.
	Enriched int

	// Invalid is the number of lines that were not JSON objects and were
	// copied to the output unchanged.
	Invalid int

	// Oversized is the number of lines longer than MaxLineSize. They are
	// dropped from the output.
	Oversized int
}

// streamLine is one input line, or a marker for a line that was skipped
// because it exceeded MaxLineSize.
type streamLine struct {
	data      []byte
	oversized bool
}

// Stream reads newline-delimited JSON events from r, enriches them in batches
// of up to batchSize and writes them to w in input order. A batch is flushed
// as soon as no further input is immediately available, so slow producers
// are not held back waiting for a full batch.
//
// Lines that are not JSON objects are written through unchanged. Blank lines
// and lines longer than MaxLineSize are dropped, and reading carries on with
// the next line. Stream returns when r is exhausted, when reading or writing
// fails or when ctx is cancelled; events already read are still written in
// the last case.
func (p *Processor) Stream(ctx context.Context, r io.Reader, w io.Writer, batchSize int) (StreamStats, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan streamLine, batchSize)
	readErr := make(chan error, 1)
	go readLines(readCtx, r, lines, readErr)

	out := bufio.NewWriter(w)
	var stats StreamStats

	for {
		batch, more := nextBatch(ctx, lines, batchSize)
		if len(batch) > 0 {
			if err := p.writeBatch(ctx, out, batch, &stats); err != nil {
				return stats, err
			}
		}
		if !more {
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if err := <-readErr; err != nil {
		return stats, fmt.Errorf("failed to read events: %w", err)
	}
	return stats, nil
}

// readLines sends every line of r on lines and closes it once r is exhausted.
// Lines longer than MaxLineSize are discarded up to the next newline and sent
// as oversized markers. A read error other than io.EOF is delivered on errc
// before lines is closed.
func readLines(ctx context.Context, r io.Reader, lines chan<- streamLine, errc chan<- error) {
	defer close(lines)

	send := func(line streamLine) bool {
		select {
		case lines <- line:
			return true
		case <-ctx.Done():
			return false
		}
	}

	reader := bufio.NewReaderSize(r, 64*1024)
	var (
		buf      []byte
		skipping bool
	)

	for {
		chunk, err := reader.ReadSlice('\n')
		if !skipping {
			buf = append(buf, chunk...)
			if len(bytes.TrimRight(buf, "\r\n")) > MaxLineSize {
				skipping = true
				buf = buf[:0]
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		switch {
		case skipping:
			if !send(streamLine{oversized: true}) {
				return
			}
			skipping = false
		case len(buf) > 0:
			line := bytes.TrimSuffix(bytes.TrimSuffix(buf, []byte("\n")), []byte("\r"))
			if !send(streamLine{data: bytes.Clone(line)}) {
				return
			}
		}
		buf = buf[:0]

		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			errc <- err
			return
		}
	}
}

// nextBatch blocks for one line, then takes whatever else is already queued
// up to size. more is false once lines is closed or ctx is done.
func nextBatch(ctx context.Context, lines <-chan streamLine, size int) (batch []streamLine, more bool) {
	select {
	case line, ok := <-lines:
		if !ok {
			return nil, false
		}
		batch = append(batch, line)
	case <-ctx.Done():
		return nil, false
	}

	for len(batch) < size {
		select {
		case line, ok := <-lines:
			if !ok {
				return batch, false
			}
			batch = append(batch, line)
		default:
			return batch, true
		}
	}
	return batch, true
}

func (p *Processor) writeBatch(ctx context.Context, out *bufio.Writer, lines []streamLine, stats *StreamStats) error {
	events := make([]*gabs.Container, len(lines))
	valid := make([]*gabs.Container, 0, len(lines))

	for i, line := range lines {
		if line.oversized {
			stats.Lines++
			stats.Oversized++
			p.logger.Warn("Dropping line longer than the maximum line size", slog.Int("max_bytes", MaxLineSize))
			continue
		}
		if len(bytes.TrimSpace(line.data)) == 0 {
			continue
		}
		stats.Lines++

		event, err := decodeEvent(line.data)
		if err != nil {
			stats.Invalid++
			p.logger.Debug("Passing through line that is not a JSON object", logging.Err(err))
			continue
		}
		events[i] = event
		valid = append(valid, event)
	}

	enriched, batchErr := p.ProcessBatch(ctx, valid)
	stats.Enriched += enriched

	for i, line := range lines {
		switch {
		case events[i] != nil:
			_, _ = out.Write(events[i].EncodeJSON())
		case !line.oversized && len(bytes.TrimSpace(line.data)) > 0:
			_, _ = out.Write(line.data)
		default:
			continue
		}
		_ = out.WriteByte('\n')
	}

	if err := out.Flush(); err != nil {
		return fmt.Errorf("failed to write events: %w", err)
	}
	return batchErr
}

// decodeEvent parses a single JSON object. Numbers are kept as json.Number so
// large integers survive re-encoding unchanged.
func decodeEvent(line []byte) (*gabs.Container, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	event, err := gabs.ParseJSONDecoder(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	if _, ok := event.Data().(map[string]interface{}); !ok {
		return nil, errNotObject
	}
	return event, nil
}
