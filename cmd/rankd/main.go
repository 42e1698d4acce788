// Package main implements rankd, the candidate ranking service.
package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// version information
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("rankd failed", "error", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rankd",
	Short: "Two-stage candidate ranking service",
	Long: `rankd ranks candidate profiles for a free-text recruiter query.

Stage 1 retrieves a pool of applicants by vector similarity (falling back to a
plain scan), stage 2 reorders the pool with a cross-encoder reranker.

Configuration is read from the environment and an optional .env file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(logWriter(cmd))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rankCmd)
}

// logWriter keeps stdout clean for commands that print results there.
func logWriter(cmd *cobra.Command) io.Writer {
	if cmd == rankCmd {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}

// setupLogging installs the JSON slog handler as the default logger.
func setupLogging(w io.Writer) {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}
