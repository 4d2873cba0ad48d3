package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrohne/klayout/cif"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "cifread",
	Short: "CIF layout reader",
	Long:  "cifread decodes CIF (Caltech Intermediate Form) layout files and reports or stores their cells, shapes and layers.",

	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (YAML, TOML or JSON)")
	rootCmd.PersistentFlags().Float64("dbu", 0.001, "Database unit in microns")
	rootCmd.PersistentFlags().String("wire-mode", "square", "End caps of wires without a 98 extension: flush, round or square")
	rootCmd.PersistentFlags().StringArray("layer-map", nil, `Layer mapping entry "<source> : <target>" (repeatable)`)
	rootCmd.PersistentFlags().String("layer-map-file", "", "File with one layer mapping entry per line")
	rootCmd.PersistentFlags().Bool("create-layers", true, "Create layers that are not in the layer map")
	rootCmd.PersistentFlags().String("encoding", "", "Input character set (IANA name, e.g. latin1)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	_ = viper.BindPFlag("dbu", rootCmd.PersistentFlags().Lookup("dbu"))
	_ = viper.BindPFlag("wire_mode", rootCmd.PersistentFlags().Lookup("wire-mode"))
	_ = viper.BindPFlag("layer_map", rootCmd.PersistentFlags().Lookup("layer-map"))
	_ = viper.BindPFlag("layer_map_file", rootCmd.PersistentFlags().Lookup("layer-map-file"))
	_ = viper.BindPFlag("create_layers", rootCmd.PersistentFlags().Lookup("create-layers"))
	_ = viper.BindPFlag("encoding", rootCmd.PersistentFlags().Lookup("encoding"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	viper.SetEnvPrefix("CIFREAD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func setupLogging(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
	}

	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	cif.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}
