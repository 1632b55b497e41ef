package grid

import (
	"testing"

	"github.com/gogpu/pixel"
	"github.com/gogpu/pixel/atlas"
)

func sym(block, offset uint16) atlas.SymbolRef {
	return atlas.SymbolRef{Region: atlas.RegionSprite, Block: block, Offset: offset}
}

func countDiff(b *Buffer) int {
	n := 0
	b.Diff(func(int, int, Cell) { n++ })
	return n
}

func TestFreshBufferEmitsEveryCell(t *testing.T) {
	b := NewBuffer(10, 5)
	if got := countDiff(b); got != 50 {
		t.Errorf("fresh buffer emitted %d cells, want 50", got)
	}
	b.Sync()
	if got := countDiff(b); got != 0 {
		t.Errorf("synced buffer emitted %d cells, want 0", got)
	}
}

func TestDiffSingleChange(t *testing.T) {
	b := NewBuffer(10, 5)
	b.Sync()

	b.SetSymbol(3, 2, sym(1, 7), pixel.Red, pixel.Black, 0)

	var gotX, gotY, n int
	var gotCell Cell
	b.Diff(func(x, y int, c Cell) {
		gotX, gotY, gotCell = x, y, c
		n++
	})
	if n != 1 {
		t.Fatalf("diff emitted %d cells, want 1", n)
	}
	if gotX != 3 || gotY != 2 {
		t.Errorf("changed cell at (%d,%d), want (3,2)", gotX, gotY)
	}
	if gotCell.Sym != sym(1, 7) {
		t.Errorf("cell sym = %v", gotCell.Sym)
	}

	// Same content written again is not a change.
	b.Sync()
	b.SetSymbol(3, 2, sym(1, 7), pixel.Red, pixel.Black, 0)
	if got := countDiff(b); got != 0 {
		t.Errorf("identical rewrite emitted %d cells, want 0", got)
	}
}

func TestDiffColorOnlyChange(t *testing.T) {
	b := NewBuffer(4, 4)
	b.SetSymbol(1, 1, sym(0, 3), pixel.White, pixel.Black, 0)
	b.Sync()

	c := b.Get(1, 1)
	b.Set(1, 1, c.WithBg(pixel.Blue))

	n := 0
	b.Diff(func(x, y int, got Cell) {
		n++
		if got.Sym != sym(0, 3) {
			t.Errorf("symbol changed: %v", got.Sym)
		}
		if got.Bg != pixel.Blue {
			t.Errorf("bg = %v, want blue", got.Bg)
		}
	})
	if n != 1 {
		t.Errorf("diff emitted %d cells, want 1", n)
	}
}

func TestResizeForcesFullRepaint(t *testing.T) {
	b := NewBuffer(4, 4)
	b.Sync()
	b.Resize(6, 3)
	if !b.Dirty() {
		t.Fatal("resize did not mark the buffer dirty")
	}
	if got := countDiff(b); got != 18 {
		t.Errorf("resized buffer emitted %d cells, want 18", got)
	}

	// Same-size resize is a no-op.
	b.Sync()
	b.Resize(6, 3)
	if b.Dirty() {
		t.Error("same-size resize invalidated the shadow")
	}
}

func TestOutOfBoundsWritesIgnoredAndCounted(t *testing.T) {
	b := NewBuffer(4, 4)
	b.Sync()

	b.SetSymbol(-1, 0, sym(0, 0), pixel.White, pixel.Black, 0)
	b.SetSymbol(4, 0, sym(0, 0), pixel.White, pixel.Black, 0)
	b.SetSymbol(0, 99, sym(0, 0), pixel.White, pixel.Black, 0)

	if got := b.Dropped(); got != 3 {
		t.Errorf("Dropped = %d, want 3", got)
	}
	if got := countDiff(b); got != 0 {
		t.Errorf("off-grid writes changed %d cells", got)
	}
}

func TestSetStringAndWideGlyphs(t *testing.T) {
	r := atlas.NewResolver(atlas.DefaultTable())
	b := NewBuffer(10, 2)

	end := b.SetString(0, 0, "ab中c", r, pixel.White, pixel.Black, 0)
	if end != 5 {
		t.Errorf("cursor after SetString = %d, want 5", end)
	}

	if got := b.Get(0, 0); got.Sym.Region != atlas.RegionText || got.Sym.Offset != 'a' {
		t.Errorf("cell 0 = %v", got.Sym)
	}
	wide := b.Get(2, 0)
	if wide.Sym.Region != atlas.RegionCJK || wide.Width != 2 {
		t.Errorf("wide cell = %+v", wide)
	}
	cont := b.Get(3, 0)
	if !cont.IsContinuation() {
		t.Error("no continuation cell after a wide glyph")
	}
	if got := b.Get(4, 0); got.Sym.Offset != 'c' {
		t.Errorf("cell after wide glyph = %v", got.Sym)
	}
}

func TestSetStringEncodedSymbols(t *testing.T) {
	r := atlas.NewResolver(atlas.DefaultTable())
	b := NewBuffer(8, 1)

	// Encoded sprite symbols pass through ordinary string concatenation.
	s := atlas.EncodeSymbol(3) + atlas.EncodeSymbol(4)
	b.SetString(0, 0, s, r, pixel.White, pixel.Transparent, 0)

	if got := b.Get(0, 0).Sym; got != sym(0, 3) {
		t.Errorf("cell 0 = %v, want sprite offset 3", got)
	}
	if got := b.Get(1, 0).Sym; got != sym(0, 4) {
		t.Errorf("cell 1 = %v, want sprite offset 4", got)
	}
}

func TestBlitSkipsEmptyCells(t *testing.T) {
	dst := NewBuffer(6, 3)
	dst.Fill(NewCell(sym(0, 1), pixel.White, pixel.Black, 0))

	src := NewBuffer(2, 2)
	src.SetSymbol(0, 0, sym(0, 9), pixel.Red, pixel.Black, 0)
	// src(1,0) and the second row stay empty.

	dst.Blit(2, 1, src)

	if got := dst.Get(2, 1).Sym; got != sym(0, 9) {
		t.Errorf("blitted cell = %v", got)
	}
	if got := dst.Get(3, 1).Sym; got != sym(0, 1) {
		t.Error("empty source cell overwrote the destination")
	}
}

func TestGetOutOfBounds(t *testing.T) {
	b := NewBuffer(2, 2)
	if got := b.Get(5, 5); !got.IsEmpty() {
		t.Errorf("out-of-bounds Get = %+v, want zero cell", got)
	}
}
