package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrohne/klayout/store"
)

var exportCmd = &cobra.Command{
	Use:   "export <file.cif>",
	Short: "Read a CIF file and store it in a SQLite database",
	Long:  "Read a CIF file and append its cells, layers, shapes and instances to a SQLite database as a new read.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "SQLite database to write")
	_ = viper.BindPFlag("output", exportCmd.Flags().Lookup("output"))

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	out := viper.GetString("output")
	if out == "" {
		return fmt.Errorf("no output database given (use -o)")
	}

	res, err := loadFromFlags(args[0], cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	db, err := store.Open(out)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := db.Save(cmd.Context(), res.layout, "", args[0])
	if err != nil {
		return fmt.Errorf("saving to %s: %w", out, err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(cmd.ErrOrStderr(), "[export] %d cells, %d layers, %d warnings\n",
			res.layout.CellCount(), len(res.layout.Layers()), res.warnings)
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}
