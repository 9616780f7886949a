package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/hyperchunks/chunks"
)

var (
	dumpLimit int
	dumpAll   bool
)

func init() {
	cmd := newDumpCmd()
	cmd.Flags().IntVar(&dumpLimit, "limit", 100, "Maximum number of regions to print (0 for no limit)")
	cmd.Flags().BoolVar(&dumpAll, "all", false, "Include empty regions")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <snapshot>",
		Short: "List stored regions",
		Long: `The dump command lists the maximal uniform regions stored in a snapshot,
in tree order. Each line shows the region origin, its edge length and the
block id. Empty regions are skipped unless --all is given.

Example:
  chunkctl dump world.chk --limit 20
  chunkctl dump world.chk --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args)
		},
	}
}

type dumpEntry struct {
	X     uint32 `json:"x"`
	Y     uint32 `json:"y"`
	Z     uint32 `json:"z"`
	W     uint32 `json:"w"`
	Size  uint64 `json:"size"`
	Block uint32 `json:"block"`
}

func runDump(args []string) error {
	ix, err := openSnapshot(args[0])
	if err != nil {
		return err
	}

	var entries []dumpEntry
	truncated := false
	ix.Walk(func(r chunks.Region, id chunks.BlockID) bool {
		if id == 0 && !dumpAll {
			return true
		}
		if dumpLimit > 0 && len(entries) == dumpLimit {
			truncated = true
			return false
		}
		entries = append(entries, dumpEntry{
			X: r.X, Y: r.Y, Z: r.Z, W: r.W,
			Size:  r.Size(),
			Block: uint32(id),
		})
		return true
	})

	if jsonOut {
		if entries == nil {
			entries = []dumpEntry{}
		}
		return printJSON(entries)
	}

	for _, e := range entries {
		printInfo("(%d, %d, %d, %d)+%d = %d\n", e.X, e.Y, e.Z, e.W, e.Size, e.Block)
	}
	if truncated {
		printInfo("... output limited to %d regions\n", dumpLimit)
	}
	return nil
}
