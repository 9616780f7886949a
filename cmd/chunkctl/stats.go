package main

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/hyperchunks/chunks"
)

func init() {
	rootCmd.AddCommand(newStatsCmd())
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <snapshot>",
		Short: "Show arena statistics",
		Long: `The stats command prints arena usage of a snapshot: total chunk slots,
live and free chunks, the root id and the packed arena size.

Example:
  chunkctl stats world.chk
  chunkctl stats world.chk --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(args)
		},
	}
}

type statsResult struct {
	chunks.Stats
	Regions int `json:"regions"`
}

func runStats(args []string) error {
	ix, err := openSnapshot(args[0])
	if err != nil {
		return err
	}

	res := statsResult{Stats: ix.Stats()}
	ix.Walk(func(chunks.Region, chunks.BlockID) bool {
		res.Regions++
		return true
	})

	if jsonOut {
		return printJSON(res)
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(os.Stdout, "Snapshot:     %s\n", args[0])
	p.Fprintf(os.Stdout, "Arena length: %d chunks\n", res.ArenaLen)
	p.Fprintf(os.Stdout, "Live chunks:  %d\n", res.Live)
	p.Fprintf(os.Stdout, "Free chunks:  %d\n", res.Free)
	p.Fprintf(os.Stdout, "Root chunk:   %d\n", res.Root)
	p.Fprintf(os.Stdout, "Leaf regions: %d\n", res.Regions)
	p.Fprintf(os.Stdout, "Arena size:   %s\n", humanize.IBytes(uint64(res.Bytes)))
	return nil
}
