package cif

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mrohne/klayout/layout"
)

// WireMode selects the end caps of 'W' wires that carry no '98' override.
type WireMode int

const (
	WireFlush  WireMode = iota // no extension
	WireRound                  // half-width extension, round caps
	WireSquare                 // half-width extension, square caps
)

func (m WireMode) String() string {
	switch m {
	case WireFlush:
		return "flush"
	case WireRound:
		return "round"
	case WireSquare:
		return "square"
	default:
		return fmt.Sprintf("WireMode(%d)", int(m))
	}
}

// ParseWireMode accepts "flush", "round", "square" or their numeric codes.
func ParseWireMode(s string) (WireMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "flush":
		return WireFlush, nil
	case "round":
		return WireRound, nil
	case "square":
		return WireSquare, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < int(WireFlush) || n > int(WireSquare) {
		return 0, fmt.Errorf("invalid wire mode %q (want flush, round, square or 0-2)", s)
	}
	return WireMode(n), nil
}

// Options configures a read.
type Options struct {
	// WireMode is the default end-cap style of 'W' wires.
	WireMode WireMode
	// DBU is the database unit in microns.
	DBU float64
	// LayerMap is the explicit layer mapping. It is prepared against the
	// target database, extended during the read and returned by Read.
	LayerMap *layout.LayerMap
	// CreateOtherLayers controls whether layers missing from LayerMap are
	// created. When false, geometry on them is dropped.
	CreateOtherLayers bool
	// Encoding is the IANA name of the input character set, e.g. "latin1".
	// Empty reads bytes as they are.
	Encoding string
	// OnWarning receives non-fatal diagnostics. When nil they are logged
	// through Logger at warn level.
	OnWarning func(Warning)
}

// DefaultOptions returns square-ended wires, 1 nm database unit, an empty
// layer map and layer creation enabled.
func DefaultOptions() Options {
	return Options{
		WireMode:          WireSquare,
		DBU:               0.001,
		LayerMap:          layout.NewLayerMap(),
		CreateOtherLayers: true,
	}
}

func (o Options) withDefaults() Options {
	if o.DBU <= 0 {
		o.DBU = 0.001
	}
	if o.LayerMap == nil {
		o.LayerMap = layout.NewLayerMap()
	}
	return o
}
