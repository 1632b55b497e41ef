package scene

import (
	"sort"

	"github.com/gogpu/pixel/grid"
)

// Scene is the root owner of the composition tree: ordered layers of
// sprites of buffers. One Scene exists per running application, created
// at startup and torn down at shutdown. Nothing in the render path
// mutates the tree; application code mutates it between frames.
type Scene struct {
	layers []*Layer
	byName map[string]*Layer

	// ordered caches layers sorted by weight. nil means stale.
	ordered []*Layer
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{byName: make(map[string]*Layer)}
}

// AddLayer creates a layer with the given draw weight and adds it.
// Higher weights draw later (on top); equal weights keep insertion
// order.
func (s *Scene) AddLayer(name string, weight int32) *Layer {
	l := NewLayer(name, weight)
	s.layers = append(s.layers, l)
	s.byName[name] = l
	s.ordered = nil
	return l
}

// Layer returns the layer with the given name, or nil.
func (s *Scene) Layer(name string) *Layer {
	return s.byName[name]
}

// Len returns the layer count.
func (s *Scene) Len() int { return len(s.layers) }

// SetWeight changes a layer's draw weight.
func (s *Scene) SetWeight(name string, weight int32) {
	l := s.byName[name]
	if l == nil {
		return
	}
	l.weight = weight
	s.ordered = nil
}

// drawOrder returns layers sorted by weight ascending, rebuilding the
// cache if needed.
func (s *Scene) drawOrder() []*Layer {
	if s.ordered != nil {
		return s.ordered
	}
	ls := make([]*Layer, len(s.layers))
	copy(ls, s.layers)
	sort.SliceStable(ls, func(a, b int) bool {
		return ls[a].weight < ls[b].weight
	})
	s.ordered = ls
	return ls
}

// Flatten merges every visible sprite into dst in draw order using
// cell-grid positions (pixel positions divided by the cell size are
// rounded to the nearest column/row). Text-mode pipelines that want a
// single root buffer diff instead of per-sprite instances use this.
func (s *Scene) Flatten(dst *grid.Buffer, cellW, cellH float32) {
	for _, l := range s.drawOrder() {
		if l.hidden {
			continue
		}
		for _, id := range l.order() {
			sp := l.sprites[id]
			if !sp.Visible {
				continue
			}
			dx := int(sp.X/cellW + 0.5)
			dy := int(sp.Y/cellH + 0.5)
			dst.Blit(dx, dy, sp.buf)
		}
	}
}
