package atlas

// Sprite symbol indices ride inside ordinary strings as codepoints in
// the U+E000 private use page. A cell's text content is then always a
// valid UTF-8 string: upstream producers can concatenate, measure, and
// slice it with normal text APIs without corrupting the glyph index.
//
// U+E000 through U+E0FF encode to exactly three UTF-8 bytes with a
// fixed first byte, so encoding is total and injective over [0, 255]
// and decoding can reject ordinary text by inspecting the first byte.

const (
	// puaMarker is the first UTF-8 byte of every encoded sprite symbol
	// (all of U+E000..U+E0FF starts with 0xEE).
	puaMarker = 0xEE

	// puaContinuation is the high-bit pattern of UTF-8 continuation
	// bytes for the E000 page: 0b1000_00xx.
	puaContinuation = 0x20
)

// EncodeSymbol encodes a sprite symbol offset as a 3-byte private-use
// codepoint sequence (U+E000+offset).
func EncodeSymbol(offset uint8) string {
	return string([]byte{
		puaMarker,
		0x80 | (offset >> 6),
		0x80 | (offset & 0x3F),
	})
}

// DecodeSymbol decodes a private-use symbol sequence produced by
// EncodeSymbol. ok is false for anything else, including ordinary text
// that merely starts with a multi-byte rune; callers treat that content
// as literal text and route it through region lookup instead.
func DecodeSymbol(s string) (offset uint8, ok bool) {
	if len(s) != 3 {
		return 0, false
	}
	if s[0] != puaMarker || s[1]>>2 != puaContinuation {
		return 0, false
	}
	return (s[1]&0x03)<<6 | s[2]&0x3F, true
}

// SymbolRune returns the private-use rune carrying the given offset.
// Terminal backends print this rune directly; a terminal font built
// from the same atlas renders it as the sprite glyph.
func SymbolRune(offset uint8) rune {
	return 0xE000 + rune(offset)
}
