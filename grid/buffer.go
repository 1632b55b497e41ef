package grid

import (
	"sync/atomic"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/pixel"
	"github.com/gogpu/pixel/atlas"
)

// Buffer is a 2D grid of Cells representing one renderable surface. It
// owns a shadow copy of the previous frame's cells; the render-instance
// generator diffs cells against shadow once per frame and then syncs
// them with a single bulk copy.
//
// A Buffer has exactly one owner (its Sprite) and is mutated only
// between frames; nothing in the render path mutates it concurrently.
type Buffer struct {
	width, height int
	cells         []Cell
	shadow        []Cell

	// dirty forces a full repaint: set at creation and on resize,
	// when the shadow holds no valid previous frame.
	dirty bool

	// dropped counts writes that landed outside the grid. Off-screen
	// writes are common and harmless, but the count is kept for
	// diagnostics.
	dropped atomic.Uint64
}

// NewBuffer creates a width x height buffer of empty cells. The first
// diff after creation emits every cell.
func NewBuffer(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Buffer{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
		shadow: make([]Cell, width*height),
		dirty:  true,
	}
}

// Width returns the grid width in cells.
func (b *Buffer) Width() int { return b.width }

// Height returns the grid height in cells.
func (b *Buffer) Height() int { return b.height }

// Len returns the cell count.
func (b *Buffer) Len() int { return len(b.cells) }

// Dropped returns the number of writes ignored for being out of bounds.
func (b *Buffer) Dropped() uint64 { return b.dropped.Load() }

// Resize reallocates the grid. The shadow is invalidated, so the next
// diff emits every cell. Content does not survive a resize.
func (b *Buffer) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if width == b.width && height == b.height {
		return
	}
	b.width = width
	b.height = height
	b.cells = make([]Cell, width*height)
	b.shadow = make([]Cell, width*height)
	b.dirty = true
}

// In reports whether (x, y) is inside the grid.
func (b *Buffer) In(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// Get returns the cell at (x, y), or the zero cell when out of bounds.
func (b *Buffer) Get(x, y int) Cell {
	if !b.In(x, y) {
		return Cell{}
	}
	return b.cells[y*b.width+x]
}

// Set writes a cell. Out-of-bounds writes are ignored and counted;
// partial off-screen sprites are normal, not an error.
func (b *Buffer) Set(x, y int, c Cell) {
	if !b.In(x, y) {
		b.dropped.Add(1)
		return
	}
	if c.Width == 0 {
		c.Width = 1
	}
	if c.Scale == 0 {
		c.Scale = 1
	}
	b.cells[y*b.width+x] = c
	if c.Width == 2 {
		if b.In(x+1, y) {
			b.cells[y*b.width+x+1] = c.Continuation()
		}
	}
}

// SetSymbol writes a single resolved symbol with colors and style.
func (b *Buffer) SetSymbol(x, y int, sym atlas.SymbolRef, fg, bg pixel.Color, style pixel.Style) {
	b.Set(x, y, NewCell(sym, fg, bg, style))
}

// Fill sets every cell to c.
func (b *Buffer) Fill(c Cell) {
	if c.Width == 0 {
		c.Width = 1
	}
	if c.Scale == 0 {
		c.Scale = 1
	}
	for i := range b.cells {
		b.cells[i] = c
	}
}

// Reset clears the buffer to empty cells.
func (b *Buffer) Reset() {
	clear(b.cells)
}

// SetString writes styled text starting at (x, y), resolving each
// grapheme cluster through r. Text is NFC-normalized first so composed
// sequences (and emoji variation selectors) collapse to single
// clusters. Double-width glyphs occupy two columns via a continuation
// cell. Content without a glyph in the atlas is skipped and logged once
// at Warn level per call. Returns the x position after the last cell
// written.
func (b *Buffer) SetString(x, y int, s string, r *atlas.Resolver, fg, bg pixel.Color, style pixel.Style) int {
	s = norm.NFC.String(s)
	var missed int
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		cluster := g.Str()
		ref, ok := r.Resolve(cluster, 0)
		if !ok {
			missed++
			continue
		}
		c := NewCell(ref, fg, bg, style)
		if w := clusterWidth(cluster, ref); w == 2 {
			c.Width = 2
		}
		b.Set(x, y, c)
		x += int(c.Width)
	}
	if missed > 0 {
		pixel.Logger().Warn("grid: unresolvable text skipped",
			"count", missed, "y", y)
	}
	return x
}

// clusterWidth decides the column span of one grapheme cluster. Emoji
// and CJK regions always span two columns; otherwise East Asian width
// of the cluster decides.
func clusterWidth(cluster string, ref atlas.SymbolRef) int {
	switch ref.Region {
	case atlas.RegionEmoji, atlas.RegionCJK:
		return 2
	}
	if runewidth.StringWidth(cluster) >= 2 {
		return 2
	}
	return 1
}

// Blit copies src onto b with its top-left at (dx, dy). Empty source
// cells are skipped, acting as transparency, so irregular sprites can
// overlap. Out-of-bounds destination cells are dropped silently (the
// per-write counter still advances).
func (b *Buffer) Blit(dx, dy int, src *Buffer) {
	for sy := 0; sy < src.height; sy++ {
		for sx := 0; sx < src.width; sx++ {
			c := src.cells[sy*src.width+sx]
			if c.IsEmpty() || c.IsContinuation() {
				continue
			}
			b.Set(dx+sx, dy+sy, c)
		}
	}
}

// Dirty reports whether the next diff will emit every cell.
func (b *Buffer) Dirty() bool { return b.dirty }

// MarkDirty forces the next diff to emit every cell.
func (b *Buffer) MarkDirty() { b.dirty = true }

// Diff calls emit for every cell that differs from the previous frame.
// A dirty buffer (fresh or just resized) emits every cell. The shadow
// is not touched; call Sync after emission so frame N+1 diffs against
// frame N.
func (b *Buffer) Diff(emit func(x, y int, c Cell)) {
	if b.dirty {
		for i, c := range b.cells {
			emit(i%b.width, i/b.width, c)
		}
		return
	}
	for i, c := range b.cells {
		if c != b.shadow[i] {
			emit(i%b.width, i/b.width, c)
		}
	}
}

// Sync overwrites the shadow with the current cells in one bulk copy
// and clears the dirty flag. The generator calls this exactly once per
// frame, after emission, keeping the compare loop branch-predictable.
func (b *Buffer) Sync() {
	copy(b.shadow, b.cells)
	b.dirty = false
}
