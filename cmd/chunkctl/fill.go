package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/joshuapare/hyperchunks/chunks"
	"github.com/joshuapare/hyperchunks/internal/metrics"
)

var (
	fillCount    int
	fillSeed     int64
	fillMaxCoord uint64
	fillMaxBlock uint32
	fillMetrics  bool
)

func init() {
	cmd := newFillCmd()
	cmd.Flags().IntVarP(&fillCount, "count", "n", 1000, "Number of random writes")
	cmd.Flags().Int64Var(&fillSeed, "seed", 1, "Random seed")
	cmd.Flags().Uint64Var(&fillMaxCoord, "max-coord", 1<<32, "Coordinates are drawn from [0, max-coord)")
	cmd.Flags().Uint32Var(&fillMaxBlock, "max-block", 16, "Block ids are drawn from [0, max-block]")
	cmd.Flags().BoolVar(&fillMetrics, "metrics", false, "Print Prometheus metrics for the run when done")
	rootCmd.AddCommand(cmd)
}

func newFillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fill <snapshot>",
		Short: "Write random voxels",
		Long: `The fill command performs seeded random writes and saves the snapshot.
It is meant for generating test data and exercising the allocator.

Example:
  chunkctl fill world.chk --count 100000 --max-coord 4096 --max-block 8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFill(args)
		},
	}
}

type fillResult struct {
	Writes   int          `json:"writes"`
	Failures int          `json:"failures"`
	Elapsed  string       `json:"elapsed"`
	Stats    chunks.Stats `json:"stats"`
}

func runFill(args []string) error {
	path := args[0]
	if fillCount < 0 {
		return fmt.Errorf("--count must not be negative")
	}
	if fillMaxCoord == 0 || fillMaxCoord > 1<<32 {
		return fmt.Errorf("--max-coord must be in [1, 2^32]")
	}
	if uint64(fillMaxBlock) > uint64(chunks.MaxBlockID) {
		return fmt.Errorf("--max-block must not exceed %d", chunks.MaxBlockID)
	}

	ix, err := openOrCreate(path)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.NewCollector(ix, nil))
	store := metrics.Instrument(ix, reg, nil)
	rng := rand.New(rand.NewSource(fillSeed))
	coord := func() uint32 { return uint32(rng.Int63n(int64(fillMaxCoord))) }

	start := time.Now()
	var (
		firstErr error
		failures int
	)
	for range fillCount {
		x, y, z, w := coord(), coord(), coord(), coord()
		id := chunks.BlockID(rng.Int63n(int64(fillMaxBlock) + 1))
		if err := store.Set(x, y, z, w, id); err != nil {
			failures++
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	elapsed := time.Since(start)
	if firstErr != nil {
		log.WithError(firstErr).WithField("failures", failures).Warn("some writes failed")
	}

	if err := saveSnapshot(path, ix); err != nil {
		return err
	}

	if fillMetrics {
		return metrics.WriteText(os.Stdout, reg)
	}

	st := ix.Stats()
	if jsonOut {
		return printJSON(fillResult{
			Writes:   fillCount,
			Failures: failures,
			Elapsed:  elapsed.String(),
			Stats:    st,
		})
	}
	printInfo("Wrote %s voxels in %s (%s failed)\n",
		humanize.Comma(int64(fillCount)), elapsed.Round(time.Millisecond), humanize.Comma(int64(failures)))
	printInfo("Arena: %s chunks, %s live, %s\n",
		humanize.Comma(int64(st.ArenaLen)), humanize.Comma(int64(st.Live)), humanize.IBytes(uint64(st.Bytes)))
	return nil
}
