package layout

import (
	"fmt"
	"math"

	"github.com/gogpu/gg"
)

// Point is a location on the database grid.
type Point struct {
	X, Y int64
}

// Pt is a convenience function to create a Point.
func Pt(x, y int64) Point {
	return Point{X: x, Y: y}
}

// Add returns p displaced by v.
func (p Point) Add(v Vector) Point {
	return Point{X: p.X + v.X, Y: p.Y + v.Y}
}

func (p Point) String() string {
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}

// Vector is a displacement on the database grid.
type Vector struct {
	X, Y int64
}

// Scaled returns v multiplied by n.
func (v Vector) Scaled(n int) Vector {
	return Vector{X: v.X * int64(n), Y: v.Y * int64(n)}
}

// Round converts a floating-point coordinate to the grid, rounding half away
// from zero.
func Round(v float64) int64 {
	return int64(math.Round(v))
}

// DPt rounds a floating-point position onto the grid.
func DPt(x, y float64) Point {
	return Point{X: Round(x), Y: Round(y)}
}

// Shape is one of Box, Polygon, Path or Text.
type Shape interface {
	BBox() Box
	isShape()
}

// Box is an axis-aligned rectangle. Left <= Right and Bottom <= Top after
// construction through NewBox.
type Box struct {
	Left, Bottom, Right, Top int64
	empty                    bool
}

func (Box) isShape() {}

// NewBox creates a normalized box from two corners.
func NewBox(x1, y1, x2, y2 int64) Box {
	return Box{
		Left:   min(x1, x2),
		Bottom: min(y1, y2),
		Right:  max(x1, x2),
		Top:    max(y1, y2),
	}
}

// EmptyBox returns a box that contains nothing. Joining it with any other box
// yields the other box.
func EmptyBox() Box {
	return Box{empty: true}
}

// IsEmpty reports whether the box contains nothing.
func (b Box) IsEmpty() bool { return b.empty }

// BBox returns the box itself.
func (b Box) BBox() Box { return b }

// Width returns the horizontal extent.
func (b Box) Width() int64 { return b.Right - b.Left }

// Height returns the vertical extent.
func (b Box) Height() int64 { return b.Top - b.Bottom }

// Center returns the box center, rounded toward the lower left.
func (b Box) Center() Point {
	return Point{X: (b.Left + b.Right) / 2, Y: (b.Bottom + b.Top) / 2}
}

// Join returns the smallest box enclosing both b and o.
func (b Box) Join(o Box) Box {
	if b.empty {
		return o
	}
	if o.empty {
		return b
	}
	return Box{
		Left:   min(b.Left, o.Left),
		Bottom: min(b.Bottom, o.Bottom),
		Right:  max(b.Right, o.Right),
		Top:    max(b.Top, o.Top),
	}
}

// JoinPoint extends the box to include p.
func (b Box) JoinPoint(p Point) Box {
	return b.Join(Box{Left: p.X, Bottom: p.Y, Right: p.X, Top: p.Y})
}

// Transformed returns the bounding box of b after applying m.
func (b Box) Transformed(m gg.Matrix) Box {
	if b.empty {
		return b
	}
	out := EmptyBox()
	for _, p := range []Point{{b.Left, b.Bottom}, {b.Left, b.Top}, {b.Right, b.Top}, {b.Right, b.Bottom}} {
		out = out.JoinPoint(TransformPoint(m, p))
	}
	return out
}

func (b Box) String() string {
	if b.empty {
		return "()"
	}
	return fmt.Sprintf("(%d,%d;%d,%d)", b.Left, b.Bottom, b.Right, b.Top)
}

// Polygon is a simple polygon given by its hull points. The hull is implicitly
// closed.
type Polygon struct {
	Hull []Point
}

func (Polygon) isShape() {}

// NewPolygon creates a polygon from the given points, dropping consecutive
// duplicates and an explicit closing point.
func NewPolygon(pts []Point) Polygon {
	hull := make([]Point, 0, len(pts))
	for _, p := range pts {
		if len(hull) > 0 && hull[len(hull)-1] == p {
			continue
		}
		hull = append(hull, p)
	}
	for len(hull) > 1 && hull[0] == hull[len(hull)-1] {
		hull = hull[:len(hull)-1]
	}
	return Polygon{Hull: hull}
}

// BBox returns the bounding box of the hull.
func (p Polygon) BBox() Box {
	b := EmptyBox()
	for _, pt := range p.Hull {
		b = b.JoinPoint(pt)
	}
	return b
}

// Area2 returns twice the signed area of the hull. Counterclockwise hulls are
// positive.
func (p Polygon) Area2() int64 {
	var a int64
	n := len(p.Hull)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		a += p.Hull[i].X*p.Hull[j].Y - p.Hull[j].X*p.Hull[i].Y
	}
	return a
}

// Path is a wire of a given width along a spine. BeginExt and EndExt extend
// the spine beyond its first and last point; Round selects round end caps.
type Path struct {
	Points   []Point
	Width    int64
	BeginExt int64
	EndExt   int64
	Round    bool
}

func (Path) isShape() {}

// BBox returns a conservative bounding box: the spine grown by half the width
// plus the larger extension.
func (p Path) BBox() Box {
	b := EmptyBox()
	for _, pt := range p.Points {
		b = b.JoinPoint(pt)
	}
	if b.empty {
		return b
	}
	g := p.Width/2 + max(p.BeginExt, p.EndExt, 0)
	return Box{Left: b.Left - g, Bottom: b.Bottom - g, Right: b.Right + g, Top: b.Top + g}
}

// Text is a label anchored at a point. Size is the text height in database
// units, zero for the default size.
type Text struct {
	String string
	Pos    Point
	Size   int64
}

func (Text) isShape() {}

// BBox returns the degenerate box at the anchor point.
func (t Text) BBox() Box {
	return EmptyBox().JoinPoint(t.Pos)
}

// TransformPoint applies m to p and rounds the result onto the grid.
func TransformPoint(m gg.Matrix, p Point) Point {
	q := m.TransformPoint(gg.Pt(float64(p.X), float64(p.Y)))
	return DPt(q.X, q.Y)
}
