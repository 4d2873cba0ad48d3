// Package cif reads CIF (Caltech Intermediate Form) layout streams.
//
// CIF is a terse command language: every command starts with a single
// character (or a number for user extensions) and ends with ';'. Symbol
// definitions ("DS" ... "DF") become cells, "C" commands become instances,
// and "L", "B", "P", "R" and "W" produce geometry on the selected layer.
// Coordinates are integers in hundredths of a micron, optionally rescaled
// per symbol definition, and are converted to database units on the fly.
//
// The reader is a hand-rolled recursive-descent decoder with three layers:
//
//   - scanner: character classes, comments, numbers, names and strings over a
//     line-counted stream.
//   - cell bodies: one recursive call per symbol definition, dispatching on
//     the command character.
//   - layers: names are resolved against the explicit layer map; unknown ones
//     get provisional indices that are turned into layer/datatype pairs or
//     plain names once the whole stream has been read.
//
// The extensions 9 (cell name), 93 (arrays), 94/95 (labels) and 98 (wire
// end style) are understood.
//
// Usage:
//
//	ly := layout.New()
//	lmap, err := cif.Read(f, ly, cif.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(lmap)
package cif
