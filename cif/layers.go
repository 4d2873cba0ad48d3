package cif

import (
	"slices"
	"strconv"

	"github.com/mrohne/klayout/layout"
)

const (
	noLayerSelected = -2 // no 'L' command seen yet in this cell
	layerIgnored    = -1 // geometry on the selected layer is dropped
)

// layerResolver turns 'L' command names into layer indices. Names that are
// neither in the explicit map nor creatable are ignored; others get a
// provisional index and are given final properties by reconcile.
type layerResolver struct {
	db        Database
	lmap      *layout.LayerMap
	create    bool
	next      uint
	newLayers map[string]uint
}

func newLayerResolver(db Database, lmap *layout.LayerMap, create bool) *layerResolver {
	return &layerResolver{
		db:        db,
		lmap:      lmap,
		create:    create,
		next:      lmap.NextIndex(),
		newLayers: make(map[string]uint),
	}
}

// lookup consults the explicit map by name, then as a plain layer number,
// then in L/D notation.
func (lr *layerResolver) lookup(name string) (uint, bool) {
	if i, ok := lr.lmap.LogicalByName(name); ok {
		return i, true
	}
	if l, ok := extractPlainLayer(name); ok {
		return lr.lmap.Logical(layout.LD(l, 0))
	}
	if l, d, n, ok := extractLD(name); ok {
		p := layout.LD(l, d)
		p.Name = n
		return lr.lmap.Logical(p)
	}
	return 0, false
}

// resolve returns the layer index for name, layerIgnored when the layer is
// unmapped and creation is disabled.
func (lr *layerResolver) resolve(name string) int {
	if i, ok := lr.lookup(name); ok {
		lr.ensure(i)
		return int(i)
	}

	if !lr.create {
		return layerIgnored
	}

	if i, ok := lr.newLayers[name]; ok {
		return int(i)
	}

	i := lr.next
	lr.next++
	lr.db.InsertLayer(i, layout.LayerProperties{})
	lr.newLayers[name] = i
	return int(i)
}

// ensure creates a mapped layer in the database on first use.
func (lr *layerResolver) ensure(i uint) {
	if !lr.db.IsValidLayer(i) {
		lr.db.InsertLayer(i, lr.lmap.Mapping(i))
	}
}

// pending returns the number of layers still waiting for reconcile.
func (lr *layerResolver) pending() int {
	return len(lr.newLayers)
}

// reconcile assigns final properties to the layers created during the read.
// Names that are plain numbers come first, then L/D names; either only takes
// a layer/datatype pair not yet used in the database. The remaining layers
// are known by name only. The new-layer table is empty afterwards.
func (lr *layerResolver) reconcile() {
	if len(lr.newLayers) == 0 {
		return
	}

	used := make(map[[2]int]bool)
	for _, l := range lr.db.Layers() {
		if l.Props.Numbered {
			used[[2]int{l.Props.Layer, l.Props.Datatype}] = true
		}
	}

	assign := func(name string, p layout.LayerProperties) {
		i := lr.newLayers[name]
		used[[2]int{p.Layer, p.Datatype}] = true
		lr.db.SetLayerProperties(i, p)
		lr.lmap.Map(p, i)
		delete(lr.newLayers, name)
	}

	for _, name := range lr.pendingNames() {
		if l, ok := extractPlainLayer(name); ok && !used[[2]int{l, 0}] {
			assign(name, layout.LD(l, 0))
		}
	}

	for _, name := range lr.pendingNames() {
		if l, d, n, ok := extractLD(name); ok && !used[[2]int{l, d}] {
			p := layout.LD(l, d)
			p.Name = n
			assign(name, p)
		}
	}

	for _, name := range lr.pendingNames() {
		p := layout.Named(name)
		i := lr.newLayers[name]
		lr.db.SetLayerProperties(i, p)
		lr.lmap.Map(p, i)
		delete(lr.newLayers, name)
	}
}

func (lr *layerResolver) pendingNames() []string {
	names := make([]string, 0, len(lr.newLayers))
	for n := range lr.newLayers {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// extractPlainLayer parses a name made of digits only.
func extractPlainLayer(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return 0, false
		}
	}
	l, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return l, true
}

// extractLD parses "[L]<layer>[(D|.)<datatype>][(space|_)<name>]".
func extractLD(s string) (layer, datatype int, name string, ok bool) {
	i := 0
	if i < len(s) && s[i] == 'L' {
		i++
	}

	digits := func() (int, bool) {
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			return 0, false
		}
		n, err := strconv.Atoi(s[start:i])
		return n, err == nil
	}

	if layer, ok = digits(); !ok {
		return 0, 0, "", false
	}

	if i < len(s) && (s[i] == 'D' || s[i] == '.') {
		i++
		if datatype, ok = digits(); !ok {
			return 0, 0, "", false
		}
	}

	switch {
	case i == len(s):
		return layer, datatype, "", true
	case isSpace(s[i]) || s[i] == '_':
		return layer, datatype, s[i+1:], true
	default:
		return 0, 0, "", false
	}
}
