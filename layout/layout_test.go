package layout

import (
	"testing"

	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCellNames(t *testing.T) {
	ly := New()
	a := ly.AddCell("")
	b := ly.AddCell("")
	c := ly.AddCell("INV")
	d := ly.AddCell("INV")

	assert.Equal(t, "$1", ly.Cell(a).Name())
	assert.Equal(t, "$2", ly.Cell(b).Name())
	assert.Equal(t, "INV", ly.Cell(c).Name())
	assert.Equal(t, "INV$1", ly.Cell(d).Name())
	assert.Equal(t, 4, ly.CellCount())
	assert.Nil(t, ly.Cell(99))
}

func TestRenameCell(t *testing.T) {
	ly := New()
	ci := ly.AddCell("A")
	ly.RenameCell(ci, "B")

	_, ok := ly.CellByName("A")
	assert.False(t, ok)
	c, ok := ly.CellByName("B")
	require.True(t, ok)
	assert.Equal(t, ci, c.Index())
	assert.Equal(t, "A", ly.UniqueCellName("A"))
	assert.Equal(t, "B$1", ly.UniqueCellName("B"))
}

func TestDeleteCellRemovesInstances(t *testing.T) {
	ly := New()
	top := ly.AddCell("TOP")
	leaf := ly.AddCell("LEAF")
	other := ly.AddCell("OTHER")
	ly.InsertInstance(top, Instance{Cell: leaf, Trans: gg.Identity()})
	ly.InsertInstance(top, Instance{Cell: other, Trans: gg.Identity()})

	ly.DeleteCell(leaf)

	assert.Nil(t, ly.Cell(leaf))
	assert.Equal(t, 2, ly.CellCount())
	assert.Len(t, ly.Cells(), 2)
	require.Len(t, ly.Cell(top).Instances(), 1)
	assert.Equal(t, other, ly.Cell(top).Instances()[0].Cell)

	// deleting twice is harmless
	ly.DeleteCell(leaf)
}

func TestInsertShapeOnInvalidCellPanics(t *testing.T) {
	ly := New()
	assert.Panics(t, func() { ly.InsertShape(3, 0, NewBox(0, 0, 1, 1)) })
}

func TestCellShapes(t *testing.T) {
	ly := New()
	ci := ly.AddCell("A")
	c := ly.Cell(ci)
	assert.True(t, c.IsEmpty())

	ly.InsertShape(ci, 2, NewBox(0, 0, 1, 1))
	ly.InsertShape(ci, 0, Text{String: "x"})
	ly.InsertShape(ci, 2, NewBox(1, 1, 2, 2))

	assert.False(t, c.IsEmpty())
	assert.Equal(t, 3, c.ShapeCount())
	assert.Equal(t, []uint{0, 2}, c.ShapeLayers())
	assert.Len(t, c.Shapes(2), 2)
	assert.Empty(t, c.Shapes(1))
}

func TestLayers(t *testing.T) {
	ly := New()
	ly.InsertLayer(3, Named("B"))
	ly.InsertLayer(1, LD(1, 0))

	assert.True(t, ly.IsValidLayer(3))
	assert.False(t, ly.IsValidLayer(2))

	ly.SetLayerProperties(3, LD(9, 9))
	ly.SetLayerProperties(2, LD(8, 8))
	assert.False(t, ly.IsValidLayer(2))

	assert.Equal(t, []LayerInfo{{1, LD(1, 0)}, {3, LD(9, 9)}}, ly.Layers())

	i, ok := ly.FindLayer(LD(9, 9))
	require.True(t, ok)
	assert.Equal(t, uint(3), i)
	_, ok = ly.FindLayer(Named("B"))
	assert.False(t, ok)
}

func TestTopCells(t *testing.T) {
	ly := New()
	a := ly.AddCell("A")
	b := ly.AddCell("B")
	ly.AddCell("C")
	ly.InsertInstance(a, Instance{Cell: b, Trans: gg.Identity()})

	var names []string
	for _, cell := range ly.TopCells() {
		names = append(names, cell.Name())
	}
	assert.Equal(t, []string{"A", "C"}, names)
}

func TestInstancePlacements(t *testing.T) {
	single := Instance{Trans: gg.Translate(5, 0)}
	assert.Equal(t, 1, single.Size())
	assert.Equal(t, []gg.Matrix{gg.Translate(5, 0)}, single.Placements())

	arr := Instance{
		Trans: gg.Identity(),
		Array: true,
		A:     Vector{X: 10},
		B:     Vector{Y: 20},
		NA:    2,
		NB:    3,
	}
	assert.Equal(t, 6, arr.Size())

	var origins []Point
	for _, m := range arr.Placements() {
		origins = append(origins, TransformPoint(m, Pt(0, 0)))
	}
	assert.Equal(t, []Point{{0, 0}, {0, 20}, {0, 40}, {10, 0}, {10, 20}, {10, 40}}, origins)
}

func TestIsOrtho(t *testing.T) {
	assert.True(t, IsOrtho(gg.Identity()))
	assert.True(t, IsOrtho(gg.Scale(-1, 1)))
	assert.True(t, IsOrtho(gg.Matrix{A: 0, B: -1, D: 1, E: 0, C: 5}))
	assert.False(t, IsOrtho(gg.Rotate(0.3)))
	assert.False(t, IsOrtho(gg.Scale(2, 2)))
}

func TestBBoxHierarchy(t *testing.T) {
	ly := New()
	top := ly.AddCell("TOP")
	leaf := ly.AddCell("LEAF")
	ly.InsertShape(leaf, 0, NewBox(0, 0, 10, 10))
	ly.InsertShape(top, 0, NewBox(-5, -5, 0, 0))
	ly.InsertInstance(top, Instance{
		Cell:  leaf,
		Trans: gg.Translate(100, 0),
		Array: true,
		A:     Vector{X: 20},
		NA:    3,
		NB:    1,
	})

	assert.Equal(t, NewBox(0, 0, 10, 10), ly.BBox(leaf))
	assert.Equal(t, NewBox(-5, -5, 150, 10), ly.BBox(top))
}

func TestBBoxRecursionTerminates(t *testing.T) {
	ly := New()
	a := ly.AddCell("A")
	b := ly.AddCell("B")
	ly.InsertShape(b, 0, NewBox(0, 0, 1, 1))
	ly.InsertInstance(a, Instance{Cell: b, Trans: gg.Identity()})
	ly.InsertInstance(b, Instance{Cell: a, Trans: gg.Identity()})

	assert.Equal(t, NewBox(0, 0, 1, 1), ly.BBox(a))
	assert.True(t, ly.BBox(99).IsEmpty())
}
