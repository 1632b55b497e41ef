package pixel

// Rect is an axis-aligned rectangle in pixel coordinates. It is used
// both for destination placement on the output surface and for source
// rectangles inside the atlas texture.
type Rect struct {
	X, Y, W, H float32
}

// NewRect creates a rectangle from origin and size.
func NewRect(x, y, w, h float32) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// MaxX returns the right edge.
func (r Rect) MaxX() float32 { return r.X + r.W }

// MaxY returns the bottom edge.
func (r Rect) MaxY() float32 { return r.Y + r.H }

// Contains reports whether the point (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}
