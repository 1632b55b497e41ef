package scene

import (
	"math"

	"github.com/gogpu/pixel"
	"github.com/gogpu/pixel/atlas"
	"github.com/gogpu/pixel/grid"
)

// RenderInstance is one fully-resolved glyph placement: everything a
// backend needs to draw one cell. Instances are built fresh every frame
// by the Generator and consumed immediately by one backend submit call;
// they are never persisted.
type RenderInstance struct {
	// Dst is the destination rectangle on the output surface, in
	// pixels.
	Dst pixel.Rect

	// Atlas is the source rectangle in the shared atlas texture, in
	// texels.
	Atlas pixel.Rect

	// Sym is the resolved symbol, kept so text-mode backends can map
	// the glyph back to a printable rune.
	Sym atlas.SymbolRef

	Fg    pixel.Color
	Bg    pixel.Color
	Style pixel.Style

	// Rotation is the glyph rotation in radians, normalized to
	// [0, 2π). CX, CY is the rotation center in destination pixels.
	Rotation float32
	CX, CY   float32
}

// GeneratorConfig configures instance generation.
type GeneratorConfig struct {
	// CellWidth, CellHeight is the square cell size in output pixels.
	// Zero means the atlas table's native sprite cell size.
	CellWidth, CellHeight float32

	// Fallback is substituted for symbols the atlas cannot locate.
	// The zero value (sprite region, block 0, offset 0) works with
	// the reference atlas, whose first glyph is blank.
	Fallback atlas.SymbolRef
}

// Generator walks a Scene in draw order and flattens visible, changed
// cells into RenderInstances. Instances are emitted in strict
// layer-then-sprite-then-row-major-cell order; backends that blend
// overlapping sprites rely on this ordering instead of re-sorting.
//
// A Generator is stateful (fallback bookkeeping, reusable scratch) and
// belongs to one render loop; it is not safe for concurrent use.
type Generator struct {
	table *atlas.Table
	cfg   GeneratorConfig

	fallbackRect pixel.Rect

	// frames holds every glyph's texel rectangle indexed by the
	// table's linear index, precomputed once so the per-cell hot path
	// is a slice lookup instead of region arithmetic.
	frames []pixel.Rect

	// loggedMissing holds symbols already reported, so a missing
	// glyph is logged once rather than once per frame.
	loggedMissing map[atlas.SymbolRef]struct{}

	// scratch is reused across Generate calls to keep steady-state
	// frames allocation-free.
	scratch []RenderInstance
}

// NewGenerator creates a generator over the given region table.
func NewGenerator(table *atlas.Table, cfg GeneratorConfig) *Generator {
	if cfg.CellWidth <= 0 || cfg.CellHeight <= 0 {
		w, h := table.CellSize()
		cfg.CellWidth, cfg.CellHeight = float32(w), float32(h)
	}
	fallbackRect, err := table.Locate(cfg.Fallback)
	if err != nil {
		// A bad fallback is a configuration bug; degrade to the
		// first sprite glyph rather than failing every frame.
		fallbackRect, _ = table.Locate(atlas.SymbolRef{})
		pixel.Logger().Warn("scene: fallback symbol not in atlas, using first glyph",
			"symbol", cfg.Fallback)
	}
	frames := make([]pixel.Rect, table.FrameCount())
	table.Frames(func(index int, rect pixel.Rect) {
		frames[index] = rect
	})
	return &Generator{
		table:         table,
		cfg:           cfg,
		fallbackRect:  fallbackRect,
		frames:        frames,
		loggedMissing: make(map[atlas.SymbolRef]struct{}),
	}
}

// Generate diffs every visible sprite buffer against its shadow and
// returns the changed cells as render instances. Sprites with a fresh
// or resized buffer emit all their cells. After emission each buffer's
// shadow is synced in one bulk copy, so frame N+1 diffs against frame N.
//
// The returned slice is owned by the generator and valid until the next
// Generate call; backends must consume it before the next frame.
func (g *Generator) Generate(sc *Scene) []RenderInstance {
	g.scratch = g.scratch[:0]
	for _, l := range sc.drawOrder() {
		if l.hidden {
			continue
		}
		for _, id := range l.order() {
			sp := l.sprites[id]
			if !sp.Visible {
				continue
			}
			g.emitSprite(sp)
		}
	}
	return g.scratch
}

// emitSprite diffs one sprite's buffer and appends instances for the
// changed cells.
func (g *Generator) emitSprite(sp *Sprite) {
	buf := sp.Buffer()
	cw := g.cfg.CellWidth * sp.Scale
	ch := g.cfg.CellHeight * sp.Scale

	rot := normalizeAngle(sp.Angle)
	cx := sp.X + float32(buf.Width())*cw/2
	cy := sp.Y + float32(buf.Height())*ch/2

	buf.Diff(func(x, y int, c grid.Cell) {
		g.scratch = append(g.scratch, g.instance(sp, c, x, y, cw, ch, rot, cx, cy))
	})
	buf.Sync()
}

// instance builds one RenderInstance for the cell at grid (x, y).
func (g *Generator) instance(sp *Sprite, c grid.Cell, x, y int, cw, ch, rot, cx, cy float32) RenderInstance {
	scale := c.Scale
	if scale == 0 {
		scale = 1
	}
	ecw, ech := cw*scale, ch*scale

	// Destination edges are rounded independently so that scaled
	// grids with non-integer cell sizes tile without gaps: each
	// cell's width is the distance between its rounded edges, not a
	// rounded constant.
	x0 := sp.X + float32(x)*ecw
	x1 := sp.X + float32(x+1)*ecw
	y0 := sp.Y + float32(y)*ech
	y1 := sp.Y + float32(y+1)*ech
	dst := pixel.Rect{
		X: roundf(x0),
		Y: roundf(y0),
		W: roundf(x1) - roundf(x0),
		H: roundf(y1) - roundf(y0),
	}

	atlasRect := g.fallbackRect
	if c.IsContinuation() {
		// The trailing half of a wide glyph paints background only.
		return RenderInstance{
			Dst: dst, Atlas: atlasRect, Sym: g.cfg.Fallback,
			Fg: c.Bg, Bg: c.Bg, Style: c.Style,
			Rotation: rot, CX: cx, CY: cy,
		}
	}

	sym := c.Sym
	if idx, err := g.table.LinearIndex(sym); err != nil {
		g.logMissingOnce(sym)
		sym = g.cfg.Fallback
	} else {
		atlasRect = g.frames[idx]
	}

	return RenderInstance{
		Dst: dst, Atlas: atlasRect, Sym: sym,
		Fg: c.Fg, Bg: c.Bg, Style: c.Style,
		Rotation: rot, CX: cx, CY: cy,
	}
}

// logMissingOnce records a fallback substitution, logging only the
// first occurrence per distinct symbol to avoid flooding.
func (g *Generator) logMissingOnce(sym atlas.SymbolRef) {
	if _, seen := g.loggedMissing[sym]; seen {
		return
	}
	g.loggedMissing[sym] = struct{}{}
	pixel.Logger().Warn("scene: symbol not in atlas, using fallback glyph",
		"symbol", sym)
}

// normalizeAngle converts degrees to radians in [0, 2π).
func normalizeAngle(deg float32) float32 {
	rad := float64(deg) * math.Pi / 180
	rad = math.Mod(rad, 2*math.Pi)
	if rad < 0 {
		rad += 2 * math.Pi
	}
	return float32(rad)
}

func roundf(v float32) float32 {
	return float32(math.Round(float64(v)))
}
