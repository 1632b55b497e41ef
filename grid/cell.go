// Package grid provides the cell grid that every renderable surface is
// made of: a Buffer of styled glyph Cells with a shadow copy that turns
// frame-to-frame changes into a minimal diff.
package grid

import (
	"github.com/gogpu/pixel"
	"github.com/gogpu/pixel/atlas"
)

// Cell is one glyph slot: a resolved atlas symbol plus its colors,
// style flags, and scale. Cells are plain values; frame-to-frame
// equality drives the diff, so every field participates in ==.
type Cell struct {
	Sym   atlas.SymbolRef
	Fg    pixel.Color
	Bg    pixel.Color
	Style pixel.Style

	// Scale multiplies the cell's on-screen size. 1 is the native
	// atlas cell size.
	Scale float32

	// Width is the cell's column span: 1, or 2 for double-width
	// glyphs (CJK, emoji). The column after a width-2 cell holds a
	// continuation cell.
	Width uint8

	// continuation marks the second column of a double-width glyph.
	// Continuation cells are never drawn on their own.
	continuation bool
}

// NewCell creates a width-1 cell at native scale.
func NewCell(sym atlas.SymbolRef, fg, bg pixel.Color, style pixel.Style) Cell {
	return Cell{Sym: sym, Fg: fg, Bg: bg, Style: style, Scale: 1, Width: 1}
}

// Continuation returns the filler cell occupying the second column of c,
// which must be a width-2 cell. It inherits the colors so background
// runs stay contiguous.
func (c Cell) Continuation() Cell {
	return Cell{
		Fg:           c.Fg,
		Bg:           c.Bg,
		Style:        c.Style,
		Scale:        c.Scale,
		Width:        1,
		continuation: true,
	}
}

// IsContinuation reports whether c is the trailing half of a
// double-width glyph.
func (c Cell) IsContinuation() bool { return c.continuation }

// IsEmpty reports whether c is the zero cell. Empty cells are skipped
// when blitting one buffer onto another, acting as transparency.
func (c Cell) IsEmpty() bool { return c == Cell{} }

// WithFg returns c with a new foreground color.
func (c Cell) WithFg(fg pixel.Color) Cell {
	c.Fg = fg
	return c
}

// WithBg returns c with a new background color.
func (c Cell) WithBg(bg pixel.Color) Cell {
	c.Bg = bg
	return c
}
