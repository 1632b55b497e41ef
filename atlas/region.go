// Package atlas implements symbol addressing for the shared glyph
// texture. A symbol is identified by a (region, block, offset) triple;
// the region table turns that triple into a texel rectangle with pure
// arithmetic, and the private-use encoding lets sprite symbol indices
// travel through ordinary string APIs unharmed.
//
// The table is read-only after construction and may be shared freely
// across the diff, generate, and submit stages.
package atlas

import (
	"errors"
	"fmt"

	"github.com/gogpu/pixel"
)

// Region names a partition of the shared atlas texture.
type Region uint8

const (
	// RegionSprite holds square game glyphs addressed by encoded index.
	RegionSprite Region = iota
	// RegionText holds double-height terminal text glyphs.
	RegionText
	// RegionEmoji holds color emoji glyphs.
	RegionEmoji
	// RegionCJK holds CJK ideographs in a flat row-major grid.
	RegionCJK

	regionCount
)

// String returns the region name.
func (r Region) String() string {
	switch r {
	case RegionSprite:
		return "sprite"
	case RegionText:
		return "text"
	case RegionEmoji:
		return "emoji"
	case RegionCJK:
		return "cjk"
	default:
		return fmt.Sprintf("region(%d)", uint8(r))
	}
}

// Valid reports whether r names a known region.
func (r Region) Valid() bool { return r < regionCount }

// RegionInfo describes one region's geometry: where it starts in the
// texture, how big one glyph cell is, and how glyph slots are grouped
// into blocks.
type RegionInfo struct {
	// OriginX, OriginY is the region's pixel origin in the texture.
	OriginX, OriginY int

	// CellW, CellH is the pixel size of one glyph cell.
	CellW, CellH int

	// Cols, Rows is the glyph grid inside one block.
	Cols, Rows int

	// BlocksPerRow is how many blocks sit side by side before the
	// layout wraps to the next block row. Grid-addressed regions
	// (CJK) set this to 0 and are laid out row-major over the full
	// region width instead.
	BlocksPerRow int

	// Blocks is the number of blocks reserved for the region.
	Blocks int

	// Base is the region's first linear frame index. Linear indices
	// give every glyph in the texture a stable ordinal, which GPU
	// backends use to precompute UV rectangles.
	Base int
}

// SymbolsPerBlock returns the number of glyph slots in one block.
func (ri RegionInfo) SymbolsPerBlock() int { return ri.Cols * ri.Rows }

// BlockW returns the pixel width of one block.
func (ri RegionInfo) BlockW() int { return ri.Cols * ri.CellW }

// BlockH returns the pixel height of one block.
func (ri RegionInfo) BlockH() int { return ri.Rows * ri.CellH }

// Symbols returns the total glyph capacity of the region.
func (ri RegionInfo) Symbols() int { return ri.Blocks * ri.SymbolsPerBlock() }

// SymbolRef identifies one glyph in the atlas. A SymbolRef never changes
// after creation; it is produced once by symbol resolution and cached in
// the cell that uses it.
type SymbolRef struct {
	Region Region
	Block  uint16
	Offset uint16
}

// String formats the ref for logs and error messages.
func (s SymbolRef) String() string {
	return fmt.Sprintf("%s/%d:%d", s.Region, s.Block, s.Offset)
}

// ErrIndexOutOfRange is the sentinel wrapped by IndexError. Out-of-range
// block or offset values are programmer errors on the producing side and
// are never silently clamped.
var ErrIndexOutOfRange = errors.New("atlas: symbol index out of range")

// IndexError reports a SymbolRef whose block or offset exceeds its
// region's configured bounds.
type IndexError struct {
	Ref SymbolRef
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("atlas: symbol index out of range: %s", e.Ref)
}

// Unwrap makes errors.Is(err, ErrIndexOutOfRange) work.
func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

// Table is the atlas region table: the single source of truth for the
// texture partition. Every backend must use the same table or
// cross-backend visuals diverge. Read-only after construction.
type Table struct {
	texW, texH int
	regions    [regionCount]RegionInfo
}

// TexWidth returns the texture width in pixels.
func (t *Table) TexWidth() int { return t.texW }

// TexHeight returns the texture height in pixels.
func (t *Table) TexHeight() int { return t.texH }

// Region returns the geometry for r.
func (t *Table) Region(r Region) RegionInfo {
	if !r.Valid() {
		return RegionInfo{}
	}
	return t.regions[r]
}

// CellSize returns the square sprite cell size in pixels. Text cells
// share the width and double the height; the input mapper relies on
// this relationship.
func (t *Table) CellSize() (w, h int) {
	ri := t.regions[RegionSprite]
	return ri.CellW, ri.CellH
}

// FrameCount returns the total number of addressable glyphs.
func (t *Table) FrameCount() int {
	last := t.regions[regionCount-1]
	return last.Base + last.Symbols()
}

// Locate computes the texel rectangle for ref.
//
// Block-addressed regions place blocks left to right, wrapping every
// BlocksPerRow, with the glyph grid row-major inside each block. The
// grid-addressed CJK region ignores block geometry and lays glyphs out
// row-major across the full region width.
//
// Out-of-range refs return an *IndexError; they are never clamped.
func (t *Table) Locate(ref SymbolRef) (pixel.Rect, error) {
	ri, err := t.check(ref)
	if err != nil {
		return pixel.Rect{}, err
	}

	var px, py int
	if ri.BlocksPerRow > 0 {
		block := int(ref.Block)
		off := int(ref.Offset)
		px = ri.OriginX + (block%ri.BlocksPerRow)*ri.BlockW() + (off%ri.Cols)*ri.CellW
		py = ri.OriginY + (block/ri.BlocksPerRow)*ri.BlockH() + (off/ri.Cols)*ri.CellH
	} else {
		// Row-major over the region width, no block indirection.
		linear := int(ref.Block)*ri.SymbolsPerBlock() + int(ref.Offset)
		perRow := (t.texW - ri.OriginX) / ri.CellW
		px = ri.OriginX + (linear%perRow)*ri.CellW
		py = ri.OriginY + (linear/perRow)*ri.CellH
	}

	return pixel.Rect{
		X: float32(px),
		Y: float32(py),
		W: float32(ri.CellW),
		H: float32(ri.CellH),
	}, nil
}

// LinearIndex returns the glyph's stable ordinal across the whole
// texture: region base + block*symbolsPerBlock + offset.
func (t *Table) LinearIndex(ref SymbolRef) (int, error) {
	ri, err := t.check(ref)
	if err != nil {
		return 0, err
	}
	return ri.Base + int(ref.Block)*ri.SymbolsPerBlock() + int(ref.Offset), nil
}

// Frames calls fn for every glyph in linear-index order with its texel
// rectangle. GPU backends use this once per atlas to build a UV lookup
// indexed by LinearIndex.
func (t *Table) Frames(fn func(index int, rect pixel.Rect)) {
	for r := Region(0); r < regionCount; r++ {
		ri := t.regions[r]
		per := ri.SymbolsPerBlock()
		for b := 0; b < ri.Blocks; b++ {
			for o := 0; o < per; o++ {
				ref := SymbolRef{Region: r, Block: uint16(b), Offset: uint16(o)}
				rect, err := t.Locate(ref)
				if err != nil {
					continue
				}
				fn(ri.Base+b*per+o, rect)
			}
		}
	}
}

func (t *Table) check(ref SymbolRef) (RegionInfo, error) {
	if !ref.Region.Valid() {
		return RegionInfo{}, &IndexError{Ref: ref}
	}
	ri := t.regions[ref.Region]
	if int(ref.Block) >= ri.Blocks || int(ref.Offset) >= ri.SymbolsPerBlock() {
		return RegionInfo{}, &IndexError{Ref: ref}
	}
	return ri, nil
}
