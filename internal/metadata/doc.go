// Package metadata holds the pure building blocks of log enrichment.
//
// It derives a workload identity from a kubelet log file path, normalizes
// label and annotation keys coming back from the Kubernetes API, and resolves
// the per-stream log format directives operators attach to pods through
// annotations. Nothing in this package performs I/O.
//
// # Path convention
//
// Container log files are expected to be named
//
//	<anything>/<pod>_<namespace>_<container>[-<suffix>].log
//
// where the pod and container segments may carry a trailing "-<suffix>"
// that is stripped to recover the replication controller and logical
// container names. Files for the infrastructure sandbox container (third
// segment prefixed with "POD-") are not application logs and are rejected.
//
// # Log format annotations
//
// For each stream (stderr, stdout) the first annotation found in this order
// wins:
//
//	log-format-<stream>-<container>
//	log-format-<container>
//	log-format-<stream>
//	log-format
//
// When none is present the configured default format is used.
package metadata
