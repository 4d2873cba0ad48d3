package layout

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/gogpu/gg"
)

// CellIndex identifies a cell within its layout.
type CellIndex uint32

// LayerInfo pairs a layer index with its current properties.
type LayerInfo struct {
	Index uint
	Props LayerProperties
}

// Instance places a cell into another one. When Array is set the placement
// is repeated NA times along A and NB times along B, with the displacements
// applied after Trans.
type Instance struct {
	Cell  CellIndex
	Trans gg.Matrix
	Array bool
	A, B  Vector
	NA    int
	NB    int
}

// Size returns the number of placements the instance stands for.
func (inst Instance) Size() int {
	if !inst.Array {
		return 1
	}
	return max(1, inst.NA) * max(1, inst.NB)
}

// Placements returns the transform of every placement in the instance.
func (inst Instance) Placements() []gg.Matrix {
	if !inst.Array {
		return []gg.Matrix{inst.Trans}
	}
	out := make([]gg.Matrix, 0, inst.Size())
	for i := 0; i < max(1, inst.NA); i++ {
		for j := 0; j < max(1, inst.NB); j++ {
			d := inst.A.Scaled(i)
			e := inst.B.Scaled(j)
			disp := gg.Translate(float64(d.X+e.X), float64(d.Y+e.Y))
			out = append(out, disp.Multiply(inst.Trans))
		}
	}
	return out
}

// IsOrtho reports whether the transform is free of arbitrary-angle rotation
// and magnification, i.e. a multiple of 90 degrees with optional mirroring.
func IsOrtho(m gg.Matrix) bool {
	const eps = 1e-10
	unit := func(v float64) bool { return abs(abs(v)-1) < eps }
	zero := func(v float64) bool { return abs(v) < eps }
	return (unit(m.A) && zero(m.B) && zero(m.D) && unit(m.E)) ||
		(zero(m.A) && unit(m.B) && unit(m.D) && zero(m.E))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Cell holds shapes per layer and instances of other cells.
type Cell struct {
	index     CellIndex
	name      string
	shapes    map[uint][]Shape
	instances []Instance
}

// Index returns the cell's index in its layout.
func (c *Cell) Index() CellIndex { return c.index }

// Name returns the cell name.
func (c *Cell) Name() string { return c.name }

// Insert adds a shape on the given layer.
func (c *Cell) Insert(layer uint, s Shape) {
	c.shapes[layer] = append(c.shapes[layer], s)
}

// InsertInstance adds an instance.
func (c *Cell) InsertInstance(inst Instance) {
	c.instances = append(c.instances, inst)
}

// Shapes returns the shapes on a layer in insertion order.
func (c *Cell) Shapes(layer uint) []Shape {
	return c.shapes[layer]
}

// ShapeLayers returns the layers that carry shapes in this cell.
func (c *Cell) ShapeLayers() []uint {
	out := make([]uint, 0, len(c.shapes))
	for l, s := range c.shapes {
		if len(s) > 0 {
			out = append(out, l)
		}
	}
	slices.Sort(out)
	return out
}

// ShapeCount returns the number of shapes over all layers.
func (c *Cell) ShapeCount() int {
	n := 0
	for _, s := range c.shapes {
		n += len(s)
	}
	return n
}

// Instances returns the instances in insertion order.
func (c *Cell) Instances() []Instance {
	return c.instances
}

// IsEmpty reports whether the cell has neither shapes nor instances.
func (c *Cell) IsEmpty() bool {
	return len(c.instances) == 0 && c.ShapeCount() == 0
}

// Layout is a hierarchical geometry database.
type Layout struct {
	dbu     float64
	cells   []*Cell // nil slots are deleted cells
	byName  map[string]CellIndex
	layers  map[uint]LayerProperties
	anonSeq int
}

// New creates an empty layout with a database unit of 1 nm.
func New() *Layout {
	return &Layout{
		dbu:    0.001,
		byName: make(map[string]CellIndex),
		layers: make(map[uint]LayerProperties),
	}
}

// DBU returns the database unit in microns.
func (ly *Layout) DBU() float64 { return ly.dbu }

// SetDBU sets the database unit in microns.
func (ly *Layout) SetDBU(dbu float64) { ly.dbu = dbu }

// AddCell creates a cell. An empty name creates an anonymous cell named
// "$<n>"; an existing name is made unique first.
func (ly *Layout) AddCell(name string) CellIndex {
	if name == "" {
		ly.anonSeq++
		name = "$" + strconv.Itoa(ly.anonSeq)
	}
	name = ly.UniqueCellName(name)
	ci := CellIndex(len(ly.cells))
	ly.cells = append(ly.cells, &Cell{
		index:  ci,
		name:   name,
		shapes: make(map[uint][]Shape),
	})
	ly.byName[name] = ci
	return ci
}

// Cell returns the cell for an index, or nil if it does not exist.
func (ly *Layout) Cell(ci CellIndex) *Cell {
	if int(ci) >= len(ly.cells) {
		return nil
	}
	return ly.cells[ci]
}

// CellByName looks up a cell by name.
func (ly *Layout) CellByName(name string) (*Cell, bool) {
	ci, ok := ly.byName[name]
	if !ok {
		return nil, false
	}
	return ly.cells[ci], true
}

// Cells returns all live cells in index order.
func (ly *Layout) Cells() []*Cell {
	out := make([]*Cell, 0, len(ly.cells))
	for _, c := range ly.cells {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// CellCount returns the number of live cells.
func (ly *Layout) CellCount() int {
	return len(ly.byName)
}

// UniqueCellName returns name if no cell carries it yet, otherwise name
// suffixed with "$<n>" for the smallest free n.
func (ly *Layout) UniqueCellName(name string) string {
	if _, taken := ly.byName[name]; !taken {
		return name
	}
	for n := 1; ; n++ {
		cand := name + "$" + strconv.Itoa(n)
		if _, taken := ly.byName[cand]; !taken {
			return cand
		}
	}
}

// RenameCell gives a cell a new name. The name is used as given.
func (ly *Layout) RenameCell(ci CellIndex, name string) {
	c := ly.Cell(ci)
	if c == nil {
		return
	}
	if ly.byName[c.name] == ci {
		delete(ly.byName, c.name)
	}
	c.name = name
	ly.byName[name] = ci
}

// DeleteCell removes a cell together with every instance of it.
func (ly *Layout) DeleteCell(ci CellIndex) {
	c := ly.Cell(ci)
	if c == nil {
		return
	}
	delete(ly.byName, c.name)
	ly.cells[ci] = nil
	for _, other := range ly.cells {
		if other == nil {
			continue
		}
		other.instances = slices.DeleteFunc(other.instances, func(inst Instance) bool {
			return inst.Cell == ci
		})
	}
}

// InsertShape adds a shape to a cell.
func (ly *Layout) InsertShape(ci CellIndex, layer uint, s Shape) {
	ly.mustCell(ci).Insert(layer, s)
}

// InsertInstance adds an instance to a cell.
func (ly *Layout) InsertInstance(ci CellIndex, inst Instance) {
	ly.mustCell(ci).InsertInstance(inst)
}

func (ly *Layout) mustCell(ci CellIndex) *Cell {
	c := ly.Cell(ci)
	if c == nil {
		panic(fmt.Sprintf("layout: invalid cell index %d", ci))
	}
	return c
}

// InsertLayer creates a layer at a given index.
func (ly *Layout) InsertLayer(index uint, props LayerProperties) {
	ly.layers[index] = props
}

// IsValidLayer reports whether a layer exists at index.
func (ly *Layout) IsValidLayer(index uint) bool {
	_, ok := ly.layers[index]
	return ok
}

// SetLayerProperties rewrites the properties of an existing layer.
func (ly *Layout) SetLayerProperties(index uint, props LayerProperties) {
	if _, ok := ly.layers[index]; ok {
		ly.layers[index] = props
	}
}

// LayerProperties returns the properties of a layer.
func (ly *Layout) LayerProperties(index uint) (LayerProperties, bool) {
	p, ok := ly.layers[index]
	return p, ok
}

// Layers returns all layers in index order.
func (ly *Layout) Layers() []LayerInfo {
	out := make([]LayerInfo, 0, len(ly.layers))
	for i, p := range ly.layers {
		out = append(out, LayerInfo{Index: i, Props: p})
	}
	slices.SortFunc(out, func(a, b LayerInfo) int {
		switch {
		case a.Index < b.Index:
			return -1
		case a.Index > b.Index:
			return 1
		}
		return 0
	})
	return out
}

// FindLayer returns the index of the layer whose properties match p.
func (ly *Layout) FindLayer(p LayerProperties) (uint, bool) {
	for _, l := range ly.Layers() {
		if l.Props.SameAs(p) {
			return l.Index, true
		}
	}
	return 0, false
}

// TopCells returns the live cells that are not instantiated by any other
// cell, in index order.
func (ly *Layout) TopCells() []*Cell {
	used := make(map[CellIndex]bool)
	for _, c := range ly.Cells() {
		for _, inst := range c.instances {
			used[inst.Cell] = true
		}
	}
	var out []*Cell
	for _, c := range ly.Cells() {
		if !used[c.index] {
			out = append(out, c)
		}
	}
	return out
}

// BBox returns the bounding box of a cell including its children. Recursive
// instantiation contributes nothing beyond the first visit.
func (ly *Layout) BBox(ci CellIndex) Box {
	return ly.bbox(ci, make(map[CellIndex]Box), make(map[CellIndex]bool))
}

func (ly *Layout) bbox(ci CellIndex, memo map[CellIndex]Box, active map[CellIndex]bool) Box {
	if b, ok := memo[ci]; ok {
		return b
	}
	c := ly.Cell(ci)
	if c == nil || active[ci] {
		return EmptyBox()
	}
	active[ci] = true
	defer delete(active, ci)

	b := EmptyBox()
	for _, shapes := range c.shapes {
		for _, s := range shapes {
			b = b.Join(s.BBox())
		}
	}
	for _, inst := range c.instances {
		child := ly.bbox(inst.Cell, memo, active)
		for _, m := range inst.Placements() {
			b = b.Join(child.Transformed(m))
		}
	}
	memo[ci] = b
	return b
}
