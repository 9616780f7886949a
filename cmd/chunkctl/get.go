package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newGetCmd())
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <snapshot> <x> <y> <z> <w>",
		Short: "Print the block id of one voxel",
		Long: `The get command prints the block id stored at a voxel. Voxels that were
never written read as 0.

Example:
  chunkctl get world.chk 10 20 30 0
  chunkctl get world.chk 10 20 30 0 --json`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(args)
		},
	}
}

type getResult struct {
	X     uint32 `json:"x"`
	Y     uint32 `json:"y"`
	Z     uint32 `json:"z"`
	W     uint32 `json:"w"`
	Block uint32 `json:"block"`
}

func runGet(args []string) error {
	x, y, z, w, err := parsePoint(args[1:5])
	if err != nil {
		return err
	}
	ix, err := openSnapshot(args[0])
	if err != nil {
		return err
	}

	id := ix.Get(x, y, z, w)
	if jsonOut {
		return printJSON(getResult{X: x, Y: y, Z: z, W: w, Block: uint32(id)})
	}
	// The value is the command's result; print it even when quiet.
	fmt.Fprintf(os.Stdout, "%d\n", id)
	return nil
}
