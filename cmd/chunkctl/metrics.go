package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/joshuapare/hyperchunks/internal/metrics"
)

var metricsDocs bool

func init() {
	cmd := newMetricsCmd()
	cmd.Flags().BoolVar(&metricsDocs, "docs", false, "Print metric documentation in markdown instead")
	rootCmd.AddCommand(cmd)
}

func newMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics [snapshot]",
		Short: "Print arena gauges in Prometheus text format",
		Long: `The metrics command loads a snapshot and prints its arena gauges in the
Prometheus text exposition format, labelled with the snapshot file name.
With --docs it prints the documentation of every exported metric.

Example:
  chunkctl metrics world.chk
  chunkctl metrics --docs`,
		Args: cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetrics(args)
		},
	}
}

func runMetrics(args []string) error {
	if metricsDocs {
		fmt.Fprint(os.Stdout, metrics.Documentation())
		return nil
	}
	if len(args) != 1 {
		return fmt.Errorf("expected a snapshot argument")
	}

	ix, err := openSnapshot(args[0])
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"snapshot": filepath.Base(args[0])}
	if err := reg.Register(metrics.NewCollector(ix, labels)); err != nil {
		return fmt.Errorf("failed to register collector: %w", err)
	}
	return metrics.WriteText(os.Stdout, reg)
}
