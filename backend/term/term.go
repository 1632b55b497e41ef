// Package term renders the cell grid to a terminal through tcell.
//
// The adapter resolves each render instance's symbol back to a rune and
// writes it with SetContent; tcell's own cell diffing keeps terminal
// traffic minimal, and a single Show per frame presents the result.
// Importing the package registers it under the name "term".
package term

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/gogpu/pixel"
	"github.com/gogpu/pixel/atlas"
	"github.com/gogpu/pixel/backend"
	"github.com/gogpu/pixel/input"
	"github.com/gogpu/pixel/scene"
)

func init() {
	backend.Register(backend.BackendTerm, func() backend.Adapter {
		return New(atlas.DefaultTable())
	})
}

// fallbackRune is printed for symbols the resolver cannot invert.
const fallbackRune = '?'

// Backend is the terminal adapter. Methods are safe for concurrent use;
// tcell screens are not, so every screen access holds the mutex.
type Backend struct {
	mu       sync.Mutex
	screen   tcell.Screen
	resolver *atlas.Resolver
	mapper   input.Mapper
	inited   bool

	// cellW, cellH is the generator's cell size, used to turn
	// destination pixels back into screen columns and rows.
	cellW, cellH float32
}

// New creates a terminal adapter over the given region table. The
// screen is acquired in Init, not here, so construction never touches
// the tty.
func New(table *atlas.Table) *Backend {
	return &Backend{
		resolver: atlas.NewResolver(table),
		// tcell reports pointer positions in cells already.
		mapper: input.NewMapper(1, 1),
		// Terminal cells are the output pixels, so generators driving
		// this adapter run with a 1x1 cell and destinations arrive in
		// cell units. SetCellSize adjusts for pixel-sized generators.
		cellW: 1,
		cellH: 1,
	}
}

// SetCellSize sets the generator cell size used to recover screen
// columns and rows from destination rectangles. Only needed when the
// instances come from a generator running with pixel-sized cells.
func (b *Backend) SetCellSize(w, h float32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if w > 0 && h > 0 {
		b.cellW, b.cellH = w, h
	}
}

// NewWithScreen creates an adapter over an existing screen. Tests pass
// a tcell.SimulationScreen.
func NewWithScreen(screen tcell.Screen, table *atlas.Table) *Backend {
	b := New(table)
	b.screen = screen
	return b
}

// Name returns "term".
func (b *Backend) Name() string { return backend.BackendTerm }

// Init acquires and initializes the terminal screen.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return err
		}
		b.screen = screen
	}
	if err := b.screen.Init(); err != nil {
		return err
	}
	b.screen.EnableMouse()
	b.inited = true
	return nil
}

// Close restores the terminal.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inited {
		b.screen.Fini()
		b.inited = false
	}
}

// Size returns the screen size in cells. Terminal cells are the
// adapter's pixels.
func (b *Backend) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inited {
		return 0, 0
	}
	return b.screen.Size()
}

// BeginFrame starts a frame. The terminal atlas is the terminal font,
// always ready.
func (b *Backend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inited {
		return backend.ErrNotInitialized
	}
	return nil
}

// Submit writes each instance's cell to the screen. Destination
// rectangles are divided by the generator's cell size to recover the
// screen column and row.
func (b *Backend) Submit(instances []scene.RenderInstance) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inited {
		return backend.ErrNotInitialized
	}
	for i := range instances {
		inst := &instances[i]
		x := int(inst.Dst.X/b.cellW + 0.5)
		y := int(inst.Dst.Y/b.cellH + 0.5)

		r, ok := b.resolver.Rune(inst.Sym)
		if !ok {
			r = fallbackRune
		}
		// Never-written cells arrive as zero values; show them blank
		// rather than as the first sprite glyph's private-use rune.
		if inst.Sym == (atlas.SymbolRef{}) &&
			inst.Fg == pixel.Transparent && inst.Bg == pixel.Transparent {
			r = ' '
		}
		b.screen.SetContent(x, y, r, nil, cellStyle(inst.Fg, inst.Bg, inst.Style))
	}
	return nil
}

// EndFrame flushes the frame with one Show.
func (b *Backend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inited {
		return backend.ErrNotInitialized
	}
	b.screen.Show()
	return nil
}

// MapPointer converts a pointer position to cell coordinates.
func (b *Backend) MapPointer(px, py float64) (input.Point, input.Point) {
	return b.mapper.Map(px, py)
}

// PollEvent blocks for the next terminal event. Callers translate tcell
// events themselves; the adapter only guarantees mouse positions agree
// with MapPointer.
func (b *Backend) PollEvent() tcell.Event {
	return b.screen.PollEvent()
}

// cellStyle converts cell colors and style flags to a tcell style.
func cellStyle(fg, bg pixel.Color, st pixel.Style) tcell.Style {
	style := tcell.StyleDefault.
		Foreground(tcellColor(fg)).
		Background(tcellColor(bg))

	if st.Has(pixel.StyleBold) {
		style = style.Bold(true)
	}
	if st.Has(pixel.StyleDim) {
		style = style.Dim(true)
	}
	if st.Has(pixel.StyleItalic) {
		style = style.Italic(true)
	}
	if st.Has(pixel.StyleUnderline) {
		style = style.Underline(true)
	}
	if st.Has(pixel.StyleSlowBlink) || st.Has(pixel.StyleRapidBlink) {
		style = style.Blink(true)
	}
	if st.Has(pixel.StyleReverse) {
		style = style.Reverse(true)
	}
	if st.Has(pixel.StyleCrossedOut) {
		style = style.StrikeThrough(true)
	}
	if st.Has(pixel.StyleHidden) {
		// No terminal conceal attribute in tcell; paint fg as bg.
		style = style.Foreground(tcellColor(bg))
	}
	return style
}

func tcellColor(c pixel.Color) tcell.Color {
	r, g, b, _ := c.RGBA8()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}
