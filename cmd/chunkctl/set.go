package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newSetCmd())
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <snapshot> <x> <y> <z> <w> <block>",
		Short: "Set the block id of one voxel",
		Long: `The set command writes one voxel and saves the snapshot. The snapshot
is created if it does not exist. Writing block 0 clears the voxel.

Example:
  chunkctl set world.chk 10 20 30 0 7
  chunkctl set world.chk 0x80000000 0 0 0 3 --compression snappy`,
		Args: cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(args)
		},
	}
}

type setResult struct {
	X        uint32 `json:"x"`
	Y        uint32 `json:"y"`
	Z        uint32 `json:"z"`
	W        uint32 `json:"w"`
	Block    uint32 `json:"block"`
	Previous uint32 `json:"previous"`
	Chunks   int    `json:"chunks"`
}

func runSet(args []string) error {
	path := args[0]
	x, y, z, w, err := parsePoint(args[1:5])
	if err != nil {
		return err
	}
	id, err := parseBlock(args[5])
	if err != nil {
		return err
	}

	ix, err := openOrCreate(path)
	if err != nil {
		return err
	}

	prev := ix.Get(x, y, z, w)
	if err := ix.Set(x, y, z, w, id); err != nil {
		return fmt.Errorf("failed to set voxel: %w", err)
	}
	if err := saveSnapshot(path, ix); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(setResult{
			X: x, Y: y, Z: z, W: w,
			Block:    uint32(id),
			Previous: uint32(prev),
			Chunks:   ix.Len(),
		})
	}
	printInfo("(%d, %d, %d, %d) = %d (was %d)\n", x, y, z, w, id, prev)
	printVerbose("Arena length: %d chunks\n", ix.Len())
	return nil
}
