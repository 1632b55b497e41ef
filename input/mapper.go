// Package input maps pointer coordinates from backend surfaces into
// cell-grid coordinates.
package input

import "math"

// Point is a cell coordinate on the grid.
type Point struct {
	X, Y int
}

// Mapper converts surface pixel coordinates into cell coordinates. The
// zero value is not usable; construct with the backend's cell size.
//
// Mapping is pure arithmetic over the configured geometry: the same
// pixel always maps to the same cell, and every pixel inside a cell's
// rectangle maps to that cell.
type Mapper struct {
	// CellW, CellH is the rendered cell size in surface pixels.
	CellW, CellH float32

	// OffsetX, OffsetY shifts the grid origin on the surface, for
	// backends that letterbox or center the grid.
	OffsetX, OffsetY float32

	// Scale multiplies the cell size. Zero means 1.
	Scale float32
}

// NewMapper creates a mapper for a grid of cellW x cellH pixel cells
// anchored at the surface origin.
func NewMapper(cellW, cellH float32) Mapper {
	return Mapper{CellW: cellW, CellH: cellH, Scale: 1}
}

// Map converts a surface pixel position to cell coordinates. It returns
// the square-cell point and the half-height point, whose row counts
// cells of double height. Pickers over text-region glyphs, which are
// twice as tall as sprite cells, address by the half-height row.
//
// Positions left of or above the grid origin map to negative
// coordinates; callers bound-check against their buffer.
func (m Mapper) Map(px, py float64) (square, half Point) {
	scale := m.Scale
	if scale == 0 {
		scale = 1
	}
	cw := float64(m.CellW * scale)
	ch := float64(m.CellH * scale)

	square = Point{
		X: int(math.Floor((px - float64(m.OffsetX)) / cw)),
		Y: int(math.Floor((py - float64(m.OffsetY)) / ch)),
	}
	half = Point{X: square.X, Y: floorDiv(square.Y, 2)}
	return square, half
}

// floorDiv divides rounding toward negative infinity, so rows above
// the origin pair up the same way rows below it do.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
