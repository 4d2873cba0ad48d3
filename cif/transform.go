package cif

import (
	"math"

	"github.com/gogpu/gg"
)

// composer folds the placement operators of a 'C' command into one
// transform. Every operator is applied after the ones read before it, so the
// first operator in the command acts first on the instantiated cell.
type composer struct {
	m gg.Matrix
}

func newComposer() *composer {
	return &composer{m: gg.Identity()}
}

func (c *composer) prepend(op gg.Matrix) {
	c.m = op.Multiply(c.m)
}

// mirrorX mirrors in x, i.e. flips the x coordinate.
func (c *composer) mirrorX() {
	c.prepend(gg.Scale(-1, 1))
}

// mirrorY mirrors in y, i.e. flips the y coordinate.
func (c *composer) mirrorY() {
	c.prepend(gg.Scale(1, -1))
}

func (c *composer) translate(dx, dy float64) {
	c.prepend(gg.Translate(dx, dy))
}

// rotate turns the x axis onto the direction (dx, dy). The zero vector
// leaves the transform unchanged.
func (c *composer) rotate(dx, dy int) {
	if dx == 0 && dy == 0 {
		return
	}
	a := math.Atan2(float64(dy), float64(dx)) * 180 / math.Pi
	c.prepend(rotationDegrees(a))
}

// result returns the composed transform with the displacement snapped to
// the database grid.
func (c *composer) result() gg.Matrix {
	m := c.m
	m.C = math.Round(m.C)
	m.F = math.Round(m.F)
	return m
}

// rotationDegrees returns a rotation by a degrees. Multiples of 90 degrees
// are exact.
func rotationDegrees(a float64) gg.Matrix {
	if q := a / 90; q == math.Trunc(q) {
		switch ((int(q) % 4) + 4) % 4 {
		case 0:
			return gg.Identity()
		case 1:
			return gg.Matrix{A: 0, B: -1, D: 1, E: 0}
		case 2:
			return gg.Matrix{A: -1, B: 0, D: 0, E: -1}
		case 3:
			return gg.Matrix{A: 0, B: 1, D: -1, E: 0}
		}
	}
	return gg.Rotate(a * math.Pi / 180)
}
