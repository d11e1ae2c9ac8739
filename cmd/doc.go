// Package cmd provides the command-line interface for log-enricher.
//
// This package implements a Cobra-based CLI with the following subcommands:
//   - enrich: Enriches newline-delimited JSON events (default when no subcommand is provided)
//   - version: Displays the application version
//   - self-update: Updates the binary to the latest version from GitHub releases
//
// Command Structure:
//
//	log-enricher [flags]                  # Enriches stdin to stdout (default)
//	log-enricher enrich [flags]           # Explicitly enriches events
//	log-enricher version                  # Shows version information
//	log-enricher self-update              # Updates to latest release
//
// Examples:
//
//	kubectl proxy &
//	tail -F app.ndjson | log-enricher enrich --source path --target kubernetes
//	log-enricher enrich --in-cluster --insecure-skip-tls-verify=false --metrics-addr :9090
//	log-enricher enrich --input events-1.ndjson --input events-2.ndjson > enriched.ndjson
//
// Kubernetes API settings fall back to the KUBERNETES_API_URL and
// KUBERNETES_AUTH_TOKEN environment variables when the matching flags are
// not set.
package cmd
