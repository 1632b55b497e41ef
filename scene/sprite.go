// Package scene provides the composition tree (Scene, Layer, Sprite)
// and the render-instance generator that flattens per-frame buffer
// diffs into the linear instance list every backend consumes.
package scene

import "github.com/gogpu/pixel/grid"

// Sprite is one renderable entity: a cell buffer plus its screen-space
// placement. A Sprite exclusively owns its Buffer; external code reaches
// sprites through layer handles or tags, never through back-pointers.
type Sprite struct {
	name string
	buf  *grid.Buffer

	// X, Y is the top-left position on the output surface, in pixels.
	X, Y float32

	// Angle is the rotation in degrees around the sprite's center.
	Angle float32

	// Scale multiplies the sprite's cell size. 1 is native size.
	Scale float32

	// Visible controls whether the generator walks this sprite at all.
	Visible bool

	// Z orders sprites within their layer: higher draws later (on
	// top). Ties keep insertion order.
	Z int32
}

// NewSprite creates a visible sprite with a fresh width x height buffer
// at native scale.
func NewSprite(name string, width, height int) *Sprite {
	return &Sprite{
		name:    name,
		buf:     grid.NewBuffer(width, height),
		Scale:   1,
		Visible: true,
	}
}

// Name returns the sprite's tag name.
func (s *Sprite) Name() string { return s.name }

// Buffer returns the sprite's cell buffer for content writes.
func (s *Sprite) Buffer() *grid.Buffer { return s.buf }

// SetPos moves the sprite's top-left corner to (x, y) pixels.
func (s *Sprite) SetPos(x, y float32) {
	s.X, s.Y = x, y
}

// Resize reallocates the sprite's buffer. The next frame repaints the
// sprite fully.
func (s *Sprite) Resize(width, height int) {
	s.buf.Resize(width, height)
}
