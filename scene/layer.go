package scene

import "sort"

// SpriteID is a stable handle to a sprite within its layer. IDs are
// never reused while the layer lives, so UI code can hold one across
// frames without risking a dangling reference.
type SpriteID int

// Layer owns an ordered set of sprites. Draw order within the layer is
// by sprite Z ascending, ties by insertion order; the sort runs on
// every walk, so direct writes to Sprite.Z take effect the next frame.
type Layer struct {
	name   string
	weight int32
	hidden bool

	sprites []*Sprite
	tags    map[string]SpriteID

	// orderScratch is reused across draw-order walks.
	orderScratch []SpriteID
}

// NewLayer creates an empty visible layer.
func NewLayer(name string, weight int32) *Layer {
	return &Layer{
		name:   name,
		weight: weight,
		tags:   make(map[string]SpriteID),
	}
}

// Name returns the layer name.
func (l *Layer) Name() string { return l.name }

// Weight returns the layer's draw weight. Higher draws later (on top).
func (l *Layer) Weight() int32 { return l.weight }

// Hidden reports whether the layer is skipped by the generator.
func (l *Layer) Hidden() bool { return l.hidden }

// SetHidden hides or shows the whole layer.
func (l *Layer) SetHidden(hidden bool) { l.hidden = hidden }

// Add appends a sprite and returns its stable handle. The sprite's
// name doubles as its tag; a duplicate name replaces the tag mapping
// but both sprites keep rendering.
func (l *Layer) Add(sp *Sprite) SpriteID {
	id := SpriteID(len(l.sprites))
	l.sprites = append(l.sprites, sp)
	l.tags[sp.name] = id
	return id
}

// NewSprite creates a sprite with a fresh buffer and adds it.
func (l *Layer) NewSprite(name string, width, height int) *Sprite {
	sp := NewSprite(name, width, height)
	l.Add(sp)
	return sp
}

// Sprite returns the sprite for id, or nil for an unknown handle.
func (l *Layer) Sprite(id SpriteID) *Sprite {
	if int(id) < 0 || int(id) >= len(l.sprites) {
		return nil
	}
	return l.sprites[id]
}

// ByTag returns the sprite with the given tag name, or nil.
func (l *Layer) ByTag(name string) *Sprite {
	id, ok := l.tags[name]
	if !ok {
		return nil
	}
	return l.sprites[id]
}

// Len returns the sprite count.
func (l *Layer) Len() int { return len(l.sprites) }

// SetZ updates a sprite's draw order within the layer. Writing the
// sprite's Z field directly is equivalent.
func (l *Layer) SetZ(id SpriteID, z int32) {
	if sp := l.Sprite(id); sp != nil {
		sp.Z = z
	}
}

// order returns sprite IDs in draw order. The sort runs fresh per call
// so Z mutations between frames are always observed.
func (l *Layer) order() []SpriteID {
	ids := l.orderScratch[:0]
	for i := range l.sprites {
		ids = append(ids, SpriteID(i))
	}
	sort.SliceStable(ids, func(a, b int) bool {
		return l.sprites[ids[a]].Z < l.sprites[ids[b]].Z
	})
	l.orderScratch = ids
	return ids
}
