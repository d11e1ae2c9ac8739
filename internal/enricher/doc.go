// Package enricher attaches Kubernetes workload metadata to log events.
//
// The Engine turns a log source path into a metadata.Resolved record. It
// consults the metadata cache first; on a miss it parses the path, issues one
// pod lookup against the API server, sanitizes the labels and annotations,
// resolves the per-stream log formats and caches the result. Failed lookups
// and paths that are not container logs are never cached, so the next event
// from the same source retries.
//
// The Processor applies an Engine to JSON events. It reads the source path
// from a configurable (dotted) field and writes the record under a target
// field. Events that cannot be enriched pass through unchanged.
package enricher
