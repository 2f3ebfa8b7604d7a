package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/oriys/statecache/internal/cache"
	"github.com/oriys/statecache/internal/logging"
	"github.com/oriys/statecache/internal/metrics"
)

func compareCmd() *cobra.Command {
	var (
		policies   []string
		capacity   int
		flush      bool
		reportPath string
	)

	cmd := &cobra.Command{
		Use:   "compare <trace>",
		Short: "Replay a trace against several eviction policies in parallel",
		Long:  "Each policy gets its own state handle on its own goroutine; handles are never shared",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var selected []cache.Policy
			for _, name := range policies {
				p, err := cache.ParsePolicy(name)
				if err != nil {
					return err
				}
				selected = append(selected, p)
			}
			if len(selected) == 0 {
				selected = cache.Policies()
			}
			if !cmd.Flags().Changed("capacity") {
				capacity = cfg.Cache.Capacity
			}
			if !cmd.Flags().Changed("report") {
				reportPath = cfg.Log.Report
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

			runID := uuid.New().String()
			reports := make([]*logging.RunReport, len(selected))

			g, gctx := errgroup.WithContext(ctx)
			for i, p := range selected {
				g.Go(func() error {
					reports[i] = runTrace(gctx, store, metrics.New(), runSpec{
						RunID:    runID,
						State:    "compare-" + string(p),
						Store:    storeName(),
						Policy:   p,
						Capacity: capacity,
						Flush:    flush,
					}, ops)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "POLICY\tHIT_RATE\tHITS\tPROBES\tEVICTIONS\tSTORE_READS\tDURATION\tSTATUS")
			var failed []string
			for _, r := range reports {
				status := "ok"
				if !r.Success {
					status = "error: " + r.Error
					failed = append(failed, r.Policy)
				}
				fmt.Fprintf(w, "%s\t%.4f\t%d\t%d\t%d\t%d\t%dms\t%s\n",
					r.Policy, r.HitRate, r.Hits, r.Probes, r.Evictions, r.StoreReads, r.DurationMs, status)
			}
			w.Flush()

			if reportPath != "" {
				// the table is the console output
				reporter := logging.NewReporter(nil)
				defer reporter.Close()
				if err := reporter.SetOutput(reportPath); err != nil {
					return err
				}
				for _, r := range reports {
					if err := reporter.Log(r); err != nil {
						return err
					}
				}
			}

			if len(failed) > 0 {
				return fmt.Errorf("%d of %d runs failed: %s", len(failed), len(reports), strings.Join(failed, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&policies, "policies", nil, "Policies to compare (default: all)")
	cmd.Flags().IntVar(&capacity, "capacity", 1024, "Cache capacity in entries")
	cmd.Flags().BoolVar(&flush, "flush", false, "Flush resident values to the store after each replay")
	cmd.Flags().StringVar(&reportPath, "report", "", "Append JSON lines run reports to this file")

	return cmd
}
