package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var layersCmd = &cobra.Command{
	Use:   "layers <file.cif>",
	Short: "Print the layer map produced by reading a CIF file",
	Long: "Read a CIF file and print the final layer map, one entry per layer, in the syntax accepted by --layer-map.\n" +
		"With --counts the number of shapes per layer is printed instead.",
	Args: cobra.ExactArgs(1),
	RunE: runLayers,
}

func init() {
	layersCmd.Flags().Bool("counts", false, "Print shape counts per layer")
	rootCmd.AddCommand(layersCmd)
}

func runLayers(cmd *cobra.Command, args []string) error {
	res, err := loadFromFlags(args[0], cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	counts, _ := cmd.Flags().GetBool("counts")
	if counts {
		printLayerCounts(cmd.OutOrStdout(), res)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), res.layerMap)
	return nil
}

func printLayerCounts(w io.Writer, res *loadResult) {
	n := layerSummary(res.layout)
	for _, l := range res.layout.Layers() {
		fmt.Fprintf(w, "%s\t%d\n", l.Props, n[l.Index])
	}
}
