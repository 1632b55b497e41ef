package atlas

import (
	"fmt"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// cjkBase is the first codepoint of the CJK Unified Ideographs block.
const cjkBase = 0x4E00

// Resolver maps cell text content to SymbolRefs and back.
//
// Resolution order for a grapheme cluster:
//  1. A private-use encoded sequence resolves to the sprite region,
//     using the block the caller selected.
//  2. CJK Unified Ideographs resolve arithmetically into the CJK grid.
//  3. Codepoints inside the text region's capacity resolve
//     arithmetically (block = cp/symbolsPerBlock).
//  4. Anything else consults the loaded symbol maps (see
//     LoadSymbolMap); emoji resolve only through a map because there
//     is no dense codepoint range to exploit.
//
// A Resolver is read-only after construction and safe for concurrent
// use.
type Resolver struct {
	table *Table

	// Per-region overrides for glyphs without an arithmetic home.
	toIndex [regionCount]map[rune]int
	toRune  [regionCount]map[int]rune
}

// NewResolver creates a resolver over table with no symbol maps.
func NewResolver(table *Table) *Resolver {
	return &Resolver{table: table}
}

// LoadSymbolMap merges glyph mappings from a JSON document:
//
//	{"emoji": {"😀": 0, "🎮": 1}, "text": {"─": 2560}}
//
// Keys are single grapheme strings, values are region-local linear
// indices (block*symbolsPerBlock + offset). Returns a new Resolver;
// the receiver is not modified.
func (r *Resolver) LoadSymbolMap(data []byte) (*Resolver, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("atlas: symbol map is not valid JSON")
	}
	nr := &Resolver{table: r.table}
	for reg := Region(0); reg < regionCount; reg++ {
		nr.toIndex[reg] = make(map[rune]int)
		nr.toRune[reg] = make(map[int]rune)
		for ch, idx := range r.toIndex[reg] {
			nr.toIndex[reg][ch] = idx
			nr.toRune[reg][idx] = ch
		}
	}

	var loadErr error
	gjson.ParseBytes(data).ForEach(func(key, val gjson.Result) bool {
		reg, ok := regionByName(key.String())
		if !ok {
			loadErr = fmt.Errorf("atlas: symbol map names unknown region %q", key.String())
			return false
		}
		capacity := r.table.Region(reg).Symbols()
		val.ForEach(func(ch, idx gjson.Result) bool {
			cp, _ := utf8.DecodeRuneInString(ch.String())
			i := int(idx.Int())
			if cp == utf8.RuneError || i < 0 || i >= capacity {
				loadErr = fmt.Errorf("atlas: symbol map entry %q=%d out of range for %s",
					ch.String(), i, reg)
				return false
			}
			nr.toIndex[reg][cp] = i
			nr.toRune[reg][i] = cp
			return true
		})
		return loadErr == nil
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return nr, nil
}

func regionByName(name string) (Region, bool) {
	for reg := Region(0); reg < regionCount; reg++ {
		if reg.String() == name {
			return reg, true
		}
	}
	return 0, false
}

// Resolve maps one grapheme cluster to a SymbolRef. spriteBlock selects
// the sprite sheet used for private-use encoded content. ok is false
// when the content has no glyph in the atlas; callers substitute their
// fallback glyph.
func (r *Resolver) Resolve(content string, spriteBlock uint16) (SymbolRef, bool) {
	if off, isSym := DecodeSymbol(content); isSym {
		ref := SymbolRef{Region: RegionSprite, Block: spriteBlock, Offset: uint16(off)}
		if int(spriteBlock) >= r.table.Region(RegionSprite).Blocks {
			return SymbolRef{}, false
		}
		return ref, true
	}

	cp, _ := utf8.DecodeRuneInString(content)
	if cp == utf8.RuneError {
		return SymbolRef{}, false
	}

	if cp >= cjkBase {
		ri := r.table.Region(RegionCJK)
		if linear := int(cp) - cjkBase; linear < ri.Symbols() {
			return refFromLinear(RegionCJK, ri, linear), true
		}
	}

	if cp < cjkBase {
		ri := r.table.Region(RegionText)
		if linear := int(cp); linear < ri.Symbols() {
			return refFromLinear(RegionText, ri, linear), true
		}
	}

	for _, reg := range [...]Region{RegionEmoji, RegionText, RegionCJK} {
		if idx, ok := r.toIndex[reg][cp]; ok {
			return refFromLinear(reg, r.table.Region(reg), idx), true
		}
	}

	return SymbolRef{}, false
}

// Rune maps a SymbolRef back to the rune a text-mode backend should
// print. Sprite symbols map to their private-use codepoint; text and
// CJK symbols invert the arithmetic mapping; everything else consults
// the symbol maps. ok is false when no printable rune exists.
func (r *Resolver) Rune(ref SymbolRef) (rune, bool) {
	ri := r.table.Region(ref.Region)
	linear := int(ref.Block)*ri.SymbolsPerBlock() + int(ref.Offset)

	if ch, ok := r.toRune[ref.Region][linear]; ok {
		return ch, true
	}

	switch ref.Region {
	case RegionSprite:
		if ref.Offset <= 0xFF {
			return SymbolRune(uint8(ref.Offset)), true
		}
	case RegionText:
		if linear < cjkBase {
			return rune(linear), true
		}
	case RegionCJK:
		return rune(cjkBase + linear), true
	}
	return 0, false
}

func refFromLinear(reg Region, ri RegionInfo, linear int) SymbolRef {
	per := ri.SymbolsPerBlock()
	return SymbolRef{
		Region: reg,
		Block:  uint16(linear / per),
		Offset: uint16(linear % per),
	}
}
