package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/oriys/statecache/internal/workload"
)

func genCmd() *cobra.Command {
	gc := workload.DefaultGenConfig()
	var output string

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a Zipf-skewed synthetic trace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := workload.Generate(gc)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			fmt.Fprintf(&buf, "# ops=%d keys=%d write_ratio=%g delete_rate=%g skew=%g seed=%d\n",
				gc.Ops, gc.Keys, gc.WriteRatio, gc.DeleteRate, gc.Skew, gc.Seed)
			if err := workload.Write(&buf, ops); err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err := os.Stdout.Write(buf.Bytes())
				return err
			}
			if err := atomic.WriteFile(output, &buf); err != nil {
				return fmt.Errorf("write trace: %w", err)
			}
			fmt.Fprintf(os.Stderr, "wrote %d ops to %s\n", len(ops), output)
			return nil
		},
	}

	cmd.Flags().IntVar(&gc.Ops, "ops", gc.Ops, "Number of operations")
	cmd.Flags().IntVar(&gc.Keys, "keys", gc.Keys, "Size of the key space")
	cmd.Flags().Float64Var(&gc.WriteRatio, "write-ratio", gc.WriteRatio, "Fraction of puts")
	cmd.Flags().Float64Var(&gc.DeleteRate, "delete-rate", gc.DeleteRate, "Fraction of deletes")
	cmd.Flags().Float64Var(&gc.Skew, "skew", gc.Skew, "Zipf exponent (> 1)")
	cmd.Flags().Uint64Var(&gc.Seed, "seed", gc.Seed, "Random seed")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")

	return cmd
}
