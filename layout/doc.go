// Package layout is a small hierarchical geometry database for IC layouts.
//
// A Layout owns a list of cells and a table of layers. Each cell holds
// shapes per layer (boxes, polygons, paths and texts, all on an integer grid
// of database units) and instances of other cells. Instance placements carry
// an affine transform expressed as a gg.Matrix, optionally repeated on a
// rectangular array.
//
// Layers are addressed by an opaque index. The properties attached to an
// index (layer number, datatype, name) can be rewritten at any time without
// touching the shapes stored on it; readers use this to assign final layer
// identities after all geometry has been inserted.
//
// Usage:
//
//	ly := layout.New()
//	top := ly.AddCell("TOP")
//	ly.InsertLayer(0, layout.LD(1, 0))
//	ly.Cell(top).Insert(0, layout.NewBox(0, 0, 100, 100))
//
// LayerMap holds an explicit mapping from source layer names or layer/datatype
// pairs to layer indices and target properties, in the same text syntax
// accepted by the layout tools this package interoperates with.
package layout
