package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/oriys/statecache/internal/cache"
	"github.com/oriys/statecache/internal/metrics"
)

func replayCmd() *cobra.Command {
	var (
		policy      string
		capacity    int
		stateName   string
		flush       bool
		reportPath  string
		metricsAddr string
		hold        bool
	)

	cmd := &cobra.Command{
		Use:   "replay <trace>",
		Short: "Replay a trace against one eviction policy",
		Long:  "Replay a trace file (or - for stdin) against a state handle backed by the configured store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			p := cfg.Cache.Policy
			if cmd.Flags().Changed("policy") {
				parsed, err := cache.ParsePolicy(policy)
				if err != nil {
					return err
				}
				p = parsed
			}
			if !cmd.Flags().Changed("capacity") {
				capacity = cfg.Cache.Capacity
			}
			if !cmd.Flags().Changed("report") {
				reportPath = cfg.Log.Report
			}
			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = cfg.Metrics.Addr
			}

			ops, err := readTrace(args[0])
			if err != nil {
				return err
			}

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			reporter, err := newReporter(reportPath)
			if err != nil {
				return err
			}
			defer reporter.Close()

			if metricsAddr != "" {
				srv := startMetricsServer(metricsAddr)
				defer srv.Shutdown(context.Background())
			}

			report := runTrace(ctx, store, metrics.Global(), runSpec{
				RunID:    uuid.New().String(),
				State:    stateName,
				Store:    storeName(),
				Policy:   p,
				Capacity: capacity,
				Flush:    flush,
			}, ops)
			if err := reporter.Log(report); err != nil {
				return err
			}

			if hold && metricsAddr != "" {
				fmt.Fprintf(os.Stderr, "holding metrics on %s, Ctrl-C to exit\n", metricsAddr)
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				<-sigCh
			}

			if !report.Success {
				return fmt.Errorf("replay failed: %s", report.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&policy, "policy", string(cache.DefaultPolicy), "Eviction policy (clock, lru, lfu, fifo, lifo)")
	cmd.Flags().IntVar(&capacity, "capacity", 1024, "Cache capacity in entries")
	cmd.Flags().StringVar(&stateName, "state", "replay", "State name (store namespace)")
	cmd.Flags().BoolVar(&flush, "flush", true, "Flush resident values to the store after the replay")
	cmd.Flags().StringVar(&reportPath, "report", "", "Append a JSON lines run report to this file")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics and /stats on this address")
	cmd.Flags().BoolVar(&hold, "hold", false, "Keep serving metrics after the replay until interrupted")

	return cmd
}
