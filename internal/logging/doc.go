// Package logging provides structured logging utilities for the log enricher.
//
// All logging goes through log/slog. The helpers here keep attribute names
// consistent (namespace, pod, container, source, result) and redact data that
// must not reach the logs: API server IP addresses and bearer tokens.
//
// # Usage Patterns
//
//	logger := logging.WithWorkload(slog.Default(), id.Namespace, id.Pod, id.Container)
//	logger.Debug("fetching pod metadata", logging.Host(apiURL))
//
// Packages that only need leveled output accept the Logger interface and
// receive a SlogAdapter:
//
//	client := k8s.NewPodMetadataClient(clientset, logging.NewSlogAdapter(logger))
//
// # Security Considerations
//
//   - API server URLs have IP addresses redacted to prevent topology leakage
//   - Bearer tokens are never logged, only their length
package logging
