// Package cli implements dashctl, the command line companion of the dashboard
// API. It normalizes and reports on files locally and pushes them to a server.
package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "dashctl",
		Short:   "Normalize, inspect and upload dashboard data files",
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "settings file (yaml, json or toml)")
	flags.String("server", defaultServer, "dashboard API base URL")
	flags.String("token", "", "bearer token for the dashboard API")
	flags.String("secondary-currency", defaultSecondaryCurrency, "currency code of secondary statement columns")
	flags.Int("chunk-threshold", 0, "serialized size in bytes above which uploads are chunked")
	flags.Bool("verbose", false, "log progress to stderr")

	rootCmd.AddCommand(
		newNormalizeCommand(),
		newCategoriesCommand(),
		newReportCommand(),
		newExportCommand(),
		newPushCommand(),
		newTokenCommand(),
		newArchiveCommand(),
	)

	return rootCmd
}

// commandLogger logs to the command's error stream when verbose is set.
func commandLogger(cmd *cobra.Command, s Settings) *slog.Logger {
	if !s.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}
