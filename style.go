package pixel

import "strings"

// Style is a bit set of cell display attributes. The flags mirror the
// classic terminal attribute set; GPU backends interpret the subset they
// can express (reverse swaps fg/bg, hidden skips the glyph) and ignore
// the rest.
type Style uint16

const (
	StyleBold Style = 1 << iota
	StyleDim
	StyleItalic
	StyleUnderline
	StyleSlowBlink
	StyleRapidBlink
	StyleReverse
	StyleHidden
	StyleCrossedOut
)

// Has reports whether all flags in s are set.
func (s Style) Has(flags Style) bool {
	return s&flags == flags
}

// With returns s with the given flags set.
func (s Style) With(flags Style) Style {
	return s | flags
}

// Without returns s with the given flags cleared.
func (s Style) Without(flags Style) Style {
	return s &^ flags
}

var styleNames = []struct {
	flag Style
	name string
}{
	{StyleBold, "bold"},
	{StyleDim, "dim"},
	{StyleItalic, "italic"},
	{StyleUnderline, "underline"},
	{StyleSlowBlink, "blink"},
	{StyleRapidBlink, "rapid-blink"},
	{StyleReverse, "reverse"},
	{StyleHidden, "hidden"},
	{StyleCrossedOut, "crossed-out"},
}

// String returns a human-readable flag list, e.g. "bold|underline".
func (s Style) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	for _, sn := range styleNames {
		if s&sn.flag != 0 {
			parts = append(parts, sn.name)
		}
	}
	return strings.Join(parts, "|")
}
