package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the log-enricher application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "log-enricher",
	Short: "Attach Kubernetes pod metadata to container log events",
	Long: `log-enricher reads newline-delimited JSON log events, derives the pod,
namespace and container from each event's container log path and attaches
the pod's labels and per-stream log formats fetched from the Kubernetes API.

Lookups are cached per log source, so each pod is fetched once per TTL.

When run without subcommands, it enriches stdin to stdout (equivalent to 'log-enricher enrich').`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "log-enricher version %s\n" .Version}}`)

	// If no subcommand is provided, run the enrich command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "enrich")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newEnrichCmd())
}
