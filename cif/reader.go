package cif

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/mrohne/klayout/layout"
)

const topCellContext = "{CIF top level}"

// Read decodes a CIF stream into db and returns the layer map of opts, which
// has been extended by every layer the read created.
//
// A fatal error is returned as a *ParseError. Cells and shapes inserted
// before the error remain in db.
func Read(in io.Reader, db Database, opts Options) (*layout.LayerMap, error) {
	opts = opts.withDefaults()

	src, err := decodeInput(in, opts.Encoding)
	if err != nil {
		return opts.LayerMap, asParseError(err, 0, "")
	}

	rd := newReader(src, db, opts)
	if err := rd.read(); err != nil {
		return opts.LayerMap, asParseError(err, rd.line, rd.cell)
	}
	return opts.LayerMap, nil
}

func decodeInput(in io.Reader, name string) (io.Reader, error) {
	if name == "" {
		return in, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown input encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported input encoding %q", name)
	}
	return enc.NewDecoder().Reader(in), nil
}

// reader holds the state shared by all cell bodies of one read.
type reader struct {
	*scanner
	db        Database
	opts      Options
	layers    *layerResolver
	cellsByID map[int]layout.CellIndex
	log       *slog.Logger
	warnings  int
}

func newReader(src io.Reader, db Database, opts Options) *reader {
	rd := &reader{
		scanner:   newScanner(src),
		db:        db,
		opts:      opts,
		cellsByID: make(map[int]layout.CellIndex),
		log:       Logger().With("read_id", uuid.NewString()),
	}
	rd.onWarn = rd.warn
	return rd
}

func (rd *reader) warn(msg string) {
	rd.warnings++
	w := Warning{Message: msg, Line: rd.line, Cell: rd.cell}
	if rd.opts.OnWarning != nil {
		rd.opts.OnWarning(w)
		return
	}
	rd.log.Warn(msg, "line", w.Line, "cell", w.Cell)
}

func (rd *reader) read() error {
	dbu := rd.opts.DBU
	sf := 0.01 / dbu
	rd.db.SetDBU(dbu)

	rd.opts.LayerMap.Prepare(rd.db)
	rd.layers = newLayerResolver(rd.db, rd.opts.LayerMap, rd.opts.CreateOtherLayers)
	rd.cell = topCellContext

	rd.log.Debug("reading CIF stream", "dbu", dbu, "wire_mode", rd.opts.WireMode.String())

	top := rd.db.AddCell("")
	nonTrivial, err := rd.readCell(top, sf, 0)
	if err != nil {
		return err
	}

	if nonTrivial {
		rd.db.RenameCell(top, rd.db.UniqueCellName("CIF_TOP"))
	} else {
		rd.db.DeleteCell(top)
	}

	rd.cell = ""

	rd.skipBlanks()
	if !rd.atEnd() {
		rd.warn("E command is followed by more text")
	}
	if rd.err != nil {
		return rd.eofError()
	}

	created := rd.layers.pending()
	rd.layers.reconcile()

	rd.log.Debug("CIF stream read",
		"cells", len(rd.cellsByID),
		"new_layers", created,
		"top_kept", nonTrivial,
		"warnings", rd.warnings)
	return nil
}

// cellState is the scratch state of one cell body.
type cellState struct {
	ci    layout.CellIndex
	sf    float64
	level int

	// pending array parameters from '93', consumed by the next 'C'
	nx, dx, ny, dy int

	layer    int // layer index, noLayerSelected or layerIgnored
	pathMode int // '98' override, -1 if none

	insts, shapes, layerSpecs int
}

// nonTrivial reports whether the cell is worth keeping as a top cell: more
// than one instance, any shape or any layer selection. A single instance
// alone makes the cell an alias of its child.
func (st *cellState) nonTrivial() bool {
	return st.insts > 1 || st.shapes > 0 || st.layerSpecs > 0
}

// readCell reads one cell body up to its terminator: 'E' at level 0 and
// 'DF' below.
func (rd *reader) readCell(ci layout.CellIndex, sf float64, level int) (bool, error) {
	if math.Abs(sf-math.Floor(sf+0.5)) > 1e-6 {
		rd.warn("Scaling factor is not an integer - snapping errors may occur in cell '" + rd.cell + "'")
	}

	st := &cellState{
		ci:       ci,
		sf:       sf,
		level:    level,
		layer:    noLayerSelected,
		pathMode: -1,
	}

	for {
		rd.skipBlanks()

		c, err := rd.getChar()
		if err != nil {
			return false, err
		}

		done := false
		switch {
		case c == ';':
			// empty command
		case c == '(':
			rd.skipComment()
		case c == 'E':
			if level > 0 {
				return false, rd.errorf("'E' command must be outside a cell specification")
			}
			if rd.testSemi() {
				rd.advance()
			}
			done = true
		case c == 'D':
			done, err = rd.readDefinition(st)
		case c == 'C':
			err = rd.readCall(st)
		case c == 'L':
			err = rd.readLayer(st)
		case c == 'B':
			err = rd.readBox(st)
		case c == 'P':
			err = rd.readPolygon(st)
		case c == 'R':
			err = rd.readRoundFlash(st)
		case c == 'W':
			err = rd.readWire(st)
		case isDigit(c):
			err = rd.readExtension(st, c)
		default:
			rd.warn("Unknown command ignored")
			rd.skipToEnd()
		}
		if err != nil {
			return false, err
		}
		if done {
			return st.nonTrivial(), nil
		}
	}
}

// readDefinition handles the 'D' commands. It reports true for 'DF', which
// ends the current cell body.
func (rd *reader) readDefinition(st *cellState) (bool, error) {
	rd.skipBlanks()

	c, err := rd.getChar()
	if err != nil {
		return false, err
	}

	switch c {
	case 'S':
		// "D" blank* "S" integer (sep integer sep integer)?
		n, err := rd.readInteger()
		if err != nil {
			return false, err
		}
		num, den := 1, 1
		if !rd.testSemi() {
			if num, err = rd.readInteger(); err != nil {
				return false, err
			}
			if den, err = rd.readInteger(); err != nil {
				return false, err
			}
		}
		if err := rd.expectSemi(); err != nil {
			return false, err
		}

		outer := rd.cell
		rd.cell = "C" + strconv.Itoa(n)

		if den == 0 {
			rd.warn("Zero scale denominator in 'DS' command - scaling ignored")
			num, den = 1, 1
		}

		ci := rd.cellByID(n)
		if _, err := rd.readCell(ci, st.sf*float64(num)/float64(den), st.level+1); err != nil {
			return false, err
		}

		rd.cell = outer
		return false, nil

	case 'F':
		// "D" blank* "F"
		if st.level == 0 {
			return false, rd.errorf("'DF' command must be inside a cell specification")
		}
		rd.skipToEnd()
		return true, nil

	case 'D':
		// "D" blank* "D" integer
		if _, err := rd.readInteger(); err != nil {
			return false, err
		}
		rd.warn("DD command ignored")
		rd.skipToEnd()
		return false, nil

	default:
		return false, rd.errorf("Invalid 'D' sub-command")
	}
}

// cellByID returns the cell for a CIF symbol number, creating it as
// "C<id>" on first reference.
func (rd *reader) cellByID(n int) layout.CellIndex {
	if ci, ok := rd.cellsByID[n]; ok {
		return ci
	}
	ci := rd.db.AddCell("C" + strconv.Itoa(n))
	rd.cellsByID[n] = ci
	return ci
}

// readCall handles "C" integer transformation, where
// transformation := (blank* ("T" point | "M" blank* "X" | "M" blank* "Y" | "R" point))*
func (rd *reader) readCall(st *cellState) error {
	st.insts++

	n, err := rd.readInteger()
	if err != nil {
		return err
	}
	child := rd.cellByID(n)

	comp := newComposer()
	for !rd.testSemi() {
		rd.skipBlanks()

		op, err := rd.getChar()
		if err != nil {
			return err
		}

		switch op {
		case 'M':
			rd.skipBlanks()
			axis, err := rd.getChar()
			if err != nil {
				return err
			}
			switch axis {
			case 'X':
				comp.mirrorX()
			case 'Y':
				comp.mirrorY()
			default:
				rd.warn("Invalid 'M' transformation specification")
				if err := rd.skipToSemi(); err != nil {
					return err
				}
			}

		case 'T':
			x, y, err := rd.readPoint()
			if err != nil {
				return err
			}
			comp.translate(float64(x)*st.sf, float64(y)*st.sf)

		case 'R':
			x, y, err := rd.readPoint()
			if err != nil {
				return err
			}
			comp.rotate(x, y)

		default:
			rd.warn("Invalid transformation specification")
			if err := rd.skipToSemi(); err != nil {
				return err
			}
		}
	}

	inst := layout.Instance{Cell: child, Trans: comp.result()}
	if st.nx > 0 || st.ny > 0 {
		inst.Array = true
		inst.A = layout.Vector{X: layout.Round(float64(st.dx) * st.sf)}
		inst.B = layout.Vector{Y: layout.Round(float64(st.dy) * st.sf)}
		inst.NA = max(1, st.nx)
		inst.NB = max(1, st.ny)
	}
	rd.db.InsertInstance(st.ci, inst)

	st.nx, st.ny = 0, 0
	st.dx, st.dy = 0, 0

	return rd.expectSemi()
}

// skipToSemi consumes characters up to, but not including, the terminator.
func (rd *reader) skipToSemi() error {
	for !rd.testSemi() {
		if _, err := rd.getChar(); err != nil {
			return err
		}
	}
	return nil
}

func (rd *reader) readPoint() (int, int, error) {
	x, err := rd.readSignedInteger()
	if err != nil {
		return 0, 0, err
	}
	y, err := rd.readSignedInteger()
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func (rd *reader) readLayer(st *cellState) error {
	rd.skipBlanks()
	st.layerSpecs++

	name := rd.readName()
	if name == "" {
		return rd.errorf("Missing layer name in 'L' command")
	}
	st.layer = rd.layers.resolve(name)

	return rd.expectSemi()
}

// skipShape drops a shape command when no usable layer is selected. It
// reports true if the command was skipped.
func (rd *reader) skipShape(st *cellState, cmd string) bool {
	if st.layer >= 0 {
		return false
	}
	if st.layer == noLayerSelected {
		rd.warn("'" + cmd + "' command ignored since no layer was selected")
	}
	rd.skipToEnd()
	return true
}

func (rd *reader) scaled(x, y int, sf float64) layout.Point {
	return layout.DPt(sf*float64(x), sf*float64(y))
}

// readBox handles "B" width height center [direction].
func (rd *reader) readBox(st *cellState) error {
	st.shapes++
	if rd.skipShape(st, "B") {
		return nil
	}

	w, err := rd.readInteger()
	if err != nil {
		return err
	}
	h, err := rd.readInteger()
	if err != nil {
		return err
	}
	x, y, err := rd.readPoint()
	if err != nil {
		return err
	}

	rx, ry := 0, 0
	if !rd.testSemi() {
		if rx, ry, err = rd.readPoint(); err != nil {
			return err
		}
	}

	sf := st.sf
	fw, fh := float64(w), float64(h)
	fx, fy := float64(x), float64(y)

	var shape layout.Shape
	if rx >= 0 && ry == 0 {
		shape = layout.NewBox(
			layout.Round(sf*(fx-0.5*fw)), layout.Round(sf*(fy-0.5*fh)),
			layout.Round(sf*(fx+0.5*fw)), layout.Round(sf*(fy+0.5*fh)),
		)
	} else {
		n := 1 / math.Hypot(float64(rx), float64(ry))

		xw, yw := sf*fw*0.5*float64(rx)*n, sf*fw*0.5*float64(ry)*n
		xh, yh := -sf*fh*0.5*float64(ry)*n, sf*fh*0.5*float64(rx)*n
		cx, cy := sf*fx, sf*fy

		shape = layout.NewPolygon([]layout.Point{
			layout.DPt(cx-xw-xh, cy-yw-yh),
			layout.DPt(cx-xw+xh, cy-yw+yh),
			layout.DPt(cx+xw+xh, cy+yw+yh),
			layout.DPt(cx+xw-xh, cy+yw-yh),
		})
	}
	rd.db.InsertShape(st.ci, uint(st.layer), shape)

	return rd.expectSemi()
}

// readPoints reads coordinate pairs up to the terminator.
func (rd *reader) readPoints(sf float64) ([]layout.Point, error) {
	var pts []layout.Point
	for !rd.testSemi() {
		x, y, err := rd.readPoint()
		if err != nil {
			return nil, err
		}
		pts = append(pts, rd.scaled(x, y, sf))
	}
	return pts, nil
}

// readPolygon handles "P" path.
func (rd *reader) readPolygon(st *cellState) error {
	st.shapes++
	if rd.skipShape(st, "P") {
		return nil
	}

	pts, err := rd.readPoints(st.sf)
	if err != nil {
		return err
	}
	rd.db.InsertShape(st.ci, uint(st.layer), layout.NewPolygon(pts))

	return rd.expectSemi()
}

// readRoundFlash handles "R" diameter center: a single-point wire with
// round caps.
func (rd *reader) readRoundFlash(st *cellState) error {
	st.shapes++
	if rd.skipShape(st, "R") {
		return nil
	}

	w, err := rd.readInteger()
	if err != nil {
		return err
	}
	x, y, err := rd.readPoint()
	if err != nil {
		return err
	}

	rd.db.InsertShape(st.ci, uint(st.layer), wire([]layout.Point{rd.scaled(x, y, st.sf)}, st.sf*float64(w), WireRound))

	return rd.expectSemi()
}

// readWire handles "W" width path.
func (rd *reader) readWire(st *cellState) error {
	st.shapes++
	if rd.skipShape(st, "W") {
		return nil
	}

	w, err := rd.readInteger()
	if err != nil {
		return err
	}
	pts, err := rd.readPoints(st.sf)
	if err != nil {
		return err
	}

	mode := rd.opts.WireMode
	if st.pathMode >= 0 {
		mode = pathModeStyle(st.pathMode)
	}
	rd.db.InsertShape(st.ci, uint(st.layer), wire(pts, st.sf*float64(w), mode))

	return rd.expectSemi()
}

// pathModeStyle maps the '98' argument onto a wire mode; codes other than
// 0 and 1 mean square ends.
func pathModeStyle(code int) WireMode {
	switch code {
	case 0:
		return WireFlush
	case 1:
		return WireRound
	default:
		return WireSquare
	}
}

func wire(pts []layout.Point, w float64, mode WireMode) layout.Path {
	p := layout.Path{Points: pts, Width: layout.Round(w)}
	if mode != WireFlush {
		p.BeginExt = layout.Round(w / 2)
		p.EndExt = layout.Round(w / 2)
		p.Round = mode == WireRound
	}
	return p
}

// readExtension handles the numbered user extensions. Only the '9x' family
// is understood; everything else is skipped up to the terminator.
func (rd *reader) readExtension(st *cellState, c byte) error {
	next := rd.peek()

	var err error
	switch {
	case c == '9' && next == '3':
		rd.advance()
		err = rd.readArray(st)
	case c == '9' && next == '4':
		rd.advance()
		err = rd.readLabel(st)
	case c == '9' && next == '5':
		rd.advance()
		err = rd.readBoxLabel(st)
	case c == '9' && next == '8':
		rd.advance()
		st.pathMode, err = rd.readInteger()
	case c == '9' && !isDigit(next):
		rd.renameCell(st)
	}
	if err != nil {
		return err
	}

	rd.skipToEnd()
	return nil
}

// readArray handles "93 nx dx ny dy": array parameters for the next 'C'.
func (rd *reader) readArray(st *cellState) error {
	var err error
	for _, v := range []*int{&st.nx, &st.dx, &st.ny, &st.dy} {
		if *v, err = rd.readSignedInteger(); err != nil {
			return err
		}
	}
	return nil
}

// readLabel handles "94 text x y [height [layer]]". The height is given in
// microns.
func (rd *reader) readLabel(st *cellState) error {
	st.shapes++
	if st.layer < 0 {
		if st.layer == noLayerSelected {
			rd.warn("'94' command ignored since no layer was selected")
		}
		return nil
	}

	text := rd.readString()
	x, y, err := rd.readPoint()
	if err != nil {
		return err
	}

	h := 0.0
	if !rd.testSemi() {
		h = rd.readDouble()
	}

	layer := uint(st.layer)
	if name := rd.readName(); name != "" {
		if i, ok := rd.opts.LayerMap.LogicalByName(name); ok {
			rd.layers.ensure(i)
			layer = i
		}
	}

	rd.db.InsertShape(st.ci, layer, layout.Text{
		String: text,
		Pos:    rd.scaled(x, y, st.sf),
		Size:   layout.Round(h / rd.opts.DBU),
	})
	return nil
}

// readBoxLabel handles "95 text width height x y". The box size is not kept.
func (rd *reader) readBoxLabel(st *cellState) error {
	st.shapes++
	if st.layer < 0 {
		if st.layer == noLayerSelected {
			rd.warn("'95' command ignored since no layer was selected")
		}
		return nil
	}

	text := rd.readString()
	if _, _, err := rd.readPoint(); err != nil {
		return err
	}
	x, y, err := rd.readPoint()
	if err != nil {
		return err
	}

	rd.db.InsertShape(st.ci, uint(st.layer), layout.Text{
		String: text,
		Pos:    rd.scaled(x, y, st.sf),
	})
	return nil
}

// renameCell handles "9 name": the current cell takes a unique variant of
// name.
func (rd *reader) renameCell(st *cellState) {
	name := rd.readString()
	if name == "" {
		return
	}
	name = rd.db.UniqueCellName(name)
	rd.db.RenameCell(st.ci, name)
	rd.cell = name
}
