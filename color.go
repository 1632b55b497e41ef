package pixel

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color represents a cell color with red, green, blue, and alpha
// components. Each component is in the range [0, 1]. The float32 layout
// matches the per-instance color attributes uploaded to GPU backends, so
// instance serialization is a straight bit copy.
type Color struct {
	R, G, B, A float32
}

// Common cell colors.
var (
	Black       = Color{0, 0, 0, 1}
	White       = Color{1, 1, 1, 1}
	Red         = Color{1, 0, 0, 1}
	Green       = Color{0, 1, 0, 1}
	Blue        = Color{0, 0, 1, 1}
	Yellow      = Color{1, 1, 0, 1}
	Transparent = Color{0, 0, 0, 0}
)

// RGB creates an opaque color from RGB components in [0, 1].
func RGB(r, g, b float32) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// RGBA creates a color from RGBA components in [0, 1].
func RGBA(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// Hex parses a hex color string ("#RRGGBB" or "RRGGBB") into an opaque
// Color. Invalid input yields opaque black.
func Hex(s string) Color {
	if s != "" && s[0] != '#' {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Black
	}
	return Color{R: float32(c.R), G: float32(c.G), B: float32(c.B), A: 1}
}

// FromColor converts a standard color.Color to Color.
func FromColor(c color.Color) Color {
	r, g, b, a := c.RGBA()
	return Color{
		R: float32(r) / 65535,
		G: float32(g) / 65535,
		B: float32(b) / 65535,
		A: float32(a) / 65535,
	}
}

// Color converts to the standard color.Color interface.
func (c Color) Color() color.Color {
	return color.NRGBA{
		R: uint8(clamp01(c.R)*255 + 0.5),
		G: uint8(clamp01(c.G)*255 + 0.5),
		B: uint8(clamp01(c.B)*255 + 0.5),
		A: uint8(clamp01(c.A)*255 + 0.5),
	}
}

// RGBA8 returns the color as 8-bit channels. Used by the terminal
// backend to build palette-mapped styles.
func (c Color) RGBA8() (r, g, b, a uint8) {
	return uint8(clamp01(c.R)*255 + 0.5),
		uint8(clamp01(c.G)*255 + 0.5),
		uint8(clamp01(c.B)*255 + 0.5),
		uint8(clamp01(c.A)*255 + 0.5)
}

// Premultiply returns the color with RGB multiplied by alpha. GPU
// backends blend in premultiplied space.
func (c Color) Premultiply() Color {
	return Color{R: c.R * c.A, G: c.G * c.A, B: c.B * c.A, A: c.A}
}

// Lerp blends toward other in the perceptual Lab space, which avoids the
// muddy midpoints of naive RGB interpolation. t is clamped to [0, 1].
// Alpha interpolates linearly.
func (c Color) Lerp(other Color, t float32) Color {
	t = clamp01(t)
	// The Lab round trip is not exact; pin the endpoints.
	if t == 0 {
		return c
	}
	if t == 1 {
		return other
	}
	a := colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}
	b := colorful.Color{R: float64(other.R), G: float64(other.G), B: float64(other.B)}
	m := a.BlendLab(b, float64(t)).Clamped()
	return Color{
		R: float32(m.R),
		G: float32(m.G),
		B: float32(m.B),
		A: c.A + (other.A-c.A)*t,
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
