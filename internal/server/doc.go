// Package server provides the HTTP listener that sits next to the event
// stream: Prometheus metrics on /metrics and Kubernetes probes on /healthz,
// /readyz and /healthz/detailed.
//
// Readiness starts out false and is flipped by the enrich command once the
// Kubernetes client and cache are set up. It fails again once the input has
// been drained and the process is shutting down.
package server
