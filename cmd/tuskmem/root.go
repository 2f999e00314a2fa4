package main

import (
	"context"
	"os"

	"github.com/sandevgo/tuskmem/internal/config"
	"github.com/sandevgo/tuskmem/internal/transport/mcp"
	"github.com/sandevgo/tuskmem/pkg/log"
	"github.com/spf13/cobra"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "tuskmem",
	Short: "TuskMem, retrieval-augmented conversation memory",
	Long:  `TuskMem stores conversation windows and augments user messages with context from indexed documents.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	return log.NewContextWithLogger(ctx, log.Options{
		Debug:  debug || config.IsDebug(),
		JSON:   os.Getenv("TUSK_LOG_JSON") == "true",
		Stderr: os.Getenv("TUSK_MCP_TRANSPORT") == string(mcp.TransportStdio),
	})
}
