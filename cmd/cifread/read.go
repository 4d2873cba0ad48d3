package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/mrohne/klayout/cif"
	"github.com/mrohne/klayout/layout"
)

// readOptions builds reader options from flags, environment and config.
func readOptions() (cif.Options, error) {
	opts := cif.DefaultOptions()
	opts.DBU = viper.GetFloat64("dbu")
	opts.CreateOtherLayers = viper.GetBool("create_layers")
	opts.Encoding = viper.GetString("encoding")

	mode, err := cif.ParseWireMode(viper.GetString("wire_mode"))
	if err != nil {
		return opts, err
	}
	opts.WireMode = mode

	lmap, err := buildLayerMap(viper.GetStringSlice("layer_map"), viper.GetString("layer_map_file"))
	if err != nil {
		return opts, err
	}
	opts.LayerMap = lmap
	return opts, nil
}

// buildLayerMap joins the entries of the map file and the individual
// entries, file first.
func buildLayerMap(entries []string, file string) (*layout.LayerMap, error) {
	var text strings.Builder
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading layer map: %w", err)
		}
		text.Write(data)
		text.WriteByte('\n')
	}
	for _, e := range entries {
		text.WriteString(e)
		text.WriteByte('\n')
	}

	lmap, err := layout.ParseLayerMap(text.String())
	if err != nil {
		return nil, fmt.Errorf("parsing layer map: %w", err)
	}
	return lmap, nil
}

type loadResult struct {
	layout   *layout.Layout
	layerMap *layout.LayerMap
	warnings int
}

// loadCIF reads the file at path ("-" for stdin) into a new layout. Warnings
// are printed to stderr as they occur.
func loadCIF(path string, opts cif.Options, stderr io.Writer) (*loadResult, error) {
	var in io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening CIF file: %w", err)
		}
		defer f.Close()
		in = f
	}

	res := &loadResult{layout: layout.New()}
	opts.OnWarning = func(w cif.Warning) {
		res.warnings++
		fmt.Fprintf(stderr, "[warning] %s\n", w)
	}

	lmap, err := cif.Read(in, res.layout, opts)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	res.layerMap = lmap
	return res, nil
}

// loadFromFlags combines readOptions and loadCIF.
func loadFromFlags(path string, stderr io.Writer) (*loadResult, error) {
	opts, err := readOptions()
	if err != nil {
		return nil, err
	}
	return loadCIF(path, opts, stderr)
}
