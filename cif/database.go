package cif

import "github.com/mrohne/klayout/layout"

// Database is the target of a read. *layout.Layout implements it.
type Database interface {
	layout.LayerLister

	SetDBU(dbu float64)

	// AddCell creates a cell; an empty name creates an anonymous one and a
	// taken name is made unique.
	AddCell(name string) layout.CellIndex
	UniqueCellName(name string) string
	RenameCell(ci layout.CellIndex, name string)
	DeleteCell(ci layout.CellIndex)

	InsertShape(ci layout.CellIndex, layer uint, s layout.Shape)
	InsertInstance(ci layout.CellIndex, inst layout.Instance)

	InsertLayer(index uint, props layout.LayerProperties)
	IsValidLayer(index uint) bool
	SetLayerProperties(index uint, props layout.LayerProperties)
}

var _ Database = (*layout.Layout)(nil)
