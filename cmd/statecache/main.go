package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oriys/statecache/internal/config"
	"github.com/oriys/statecache/internal/logging"
	"github.com/oriys/statecache/internal/metrics"
	"github.com/oriys/statecache/internal/observability"
)

var (
	cfgPath   string
	logLevel  string
	logFormat string

	cfg *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "statecache",
		Short: "statecache - write-back state cache workbench",
		Long:  "Replays access traces against the write-back state cache and compares eviction policies",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				loaded.Log.Level = logLevel
			}
			if cmd.Flags().Changed("log-format") {
				loaded.Log.Format = logFormat
			}
			cfg = loaded

			logging.InitStructured(cfg.Log.Format, cfg.Log.Level)
			metrics.InitPrometheus(cfg.Metrics.Namespace, cfg.Metrics.Buckets)
			return observability.Init(cmd.Context(), cfg.Tracing)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return observability.Shutdown(context.Background())
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(
		replayCmd(),
		compareCmd(),
		genCmd(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
