package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrohne/klayout/layout"
)

var infoCmd = &cobra.Command{
	Use:   "info <file.cif>",
	Short: "Summarize the cells and layers of a CIF file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	res, err := loadFromFlags(args[0], cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	printInfo(cmd.OutOrStdout(), args[0], res)
	return nil
}

// printInfo prints a summary of a read layout.
func printInfo(w io.Writer, path string, res *loadResult) {
	ly := res.layout

	fmt.Fprintf(w, "File: %s\n", path)
	fmt.Fprintf(w, "  DBU: %g\n", ly.DBU())
	fmt.Fprintf(w, "  Cells: %d\n", ly.CellCount())
	for _, c := range ly.Cells() {
		fmt.Fprintf(w, "    - %s: %d shapes, %d instances, bbox %s\n",
			c.Name(), c.ShapeCount(), len(c.Instances()), ly.BBox(c.Index()))
	}

	var tops []string
	for _, c := range ly.TopCells() {
		tops = append(tops, c.Name())
	}
	fmt.Fprintf(w, "  Top cells: %s\n", strings.Join(tops, ", "))

	fmt.Fprintf(w, "  Layers: %d\n", len(ly.Layers()))
	for _, l := range ly.Layers() {
		fmt.Fprintf(w, "    - %d: %s\n", l.Index, l.Props)
	}
	fmt.Fprintf(w, "  Warnings: %d\n", res.warnings)
}

// layerSummary counts shapes per layer over all cells.
func layerSummary(ly *layout.Layout) map[uint]int {
	out := make(map[uint]int)
	for _, c := range ly.Cells() {
		for _, l := range c.ShapeLayers() {
			out[l] += len(c.Shapes(l))
		}
	}
	return out
}
