// Command pixeldemo runs a small bouncing-sprite demo in the terminal.
// Press q or Escape to quit; click to move the ball.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/gogpu/pixel"
	"github.com/gogpu/pixel/atlas"
	"github.com/gogpu/pixel/backend"
	"github.com/gogpu/pixel/backend/term"
	"github.com/gogpu/pixel/grid"
	"github.com/gogpu/pixel/scene"
)

func main() {
	var (
		fps     = flag.Int("fps", 30, "frames per second")
		logfile = flag.String("log", "", "write debug log to file")
	)
	flag.Parse()
	if *fps <= 0 {
		*fps = 30
	}

	if *logfile != "" {
		f, err := os.Create(*logfile)
		if err != nil {
			log.Fatalf("open log: %v", err)
		}
		defer f.Close()
		pixel.SetLogger(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	adapter, ok := backend.Get(backend.BackendTerm).(*term.Backend)
	if !ok {
		log.Fatal("terminal backend not registered")
	}
	if err := adapter.Init(); err != nil {
		log.Fatalf("init terminal: %v", err)
	}
	defer adapter.Close()

	if err := run(adapter, *fps); err != nil {
		adapter.Close()
		log.Fatalf("demo: %v", err)
	}
}

// demo holds the per-run state: the world scene the demo mutates, and
// the root buffer it flattens into for the terminal diff.
type demo struct {
	adapter  *term.Backend
	resolver *atlas.Resolver

	world *scene.Scene
	root  *scene.Scene
	gen   *scene.Generator

	screen *scene.Sprite
	ball   *scene.Sprite
	status *scene.Sprite

	w, h   int
	bx, by float32
	dx, dy float32
	frames int
}

func run(adapter *term.Backend, fps int) error {
	table := atlas.DefaultTable()
	d := &demo{
		adapter:  adapter,
		resolver: atlas.NewResolver(table),
		world:    scene.New(),
		root:     scene.New(),
		// Terminal cells are the output pixels, so the generator
		// runs with a 1x1 cell.
		gen: scene.NewGenerator(table, scene.GeneratorConfig{CellWidth: 1, CellHeight: 1}),
		dx:  0.7,
		dy:  0.4,
	}
	d.w, d.h = adapter.Size()
	if d.w <= 0 || d.h <= 0 {
		d.w, d.h = 80, 24
	}
	d.buildScene()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := adapter.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if quit := d.handleEvent(ev); quit {
				return nil
			}
		case <-ticker.C:
			d.step()
			if err := d.present(); err != nil {
				return err
			}
		}
	}
}

func (d *demo) buildScene() {
	play := d.world.AddLayer("play", 0)
	ui := d.world.AddLayer("ui", 10)

	d.ball = play.NewSprite("ball", 3, 1)
	d.ball.Buffer().SetString(0, 0, "(*)", d.resolver, pixel.Yellow, pixel.Black, 0)
	d.bx, d.by = float32(d.w)/2, float32(d.h)/2

	title := ui.NewSprite("title", d.w, 1)
	title.Buffer().SetString(1, 0, "pixel demo. q quits, click moves the ball",
		d.resolver, pixel.White, pixel.Black, pixel.StyleBold)

	d.status = ui.NewSprite("status", d.w, 1)
	d.status.SetPos(0, float32(d.h-1))

	rl := d.root.AddLayer("root", 0)
	d.screen = rl.NewSprite("screen", d.w, d.h)
}

// step advances the ball and refreshes the status line.
func (d *demo) step() {
	d.frames++
	d.bx += d.dx
	d.by += d.dy
	if d.bx < 0 {
		d.bx, d.dx = 0, -d.dx
	}
	if max := float32(d.w - 3); d.bx > max {
		d.bx, d.dx = max, -d.dx
	}
	if d.by < 1 {
		d.by, d.dy = 1, -d.dy
	}
	if max := float32(d.h - 2); d.by > max {
		d.by, d.dy = max, -d.dy
	}
	d.ball.SetPos(d.bx, d.by)

	buf := d.status.Buffer()
	buf.Reset()
	buf.SetString(1, 0, fmt.Sprintf("frame %d  ball %3.0f,%2.0f", d.frames, d.bx, d.by),
		d.resolver, pixel.Green, pixel.Black, pixel.StyleDim)
}

// present flattens the world into the root buffer and submits its diff.
func (d *demo) present() error {
	// Paint the backdrop with spaces so vacated cells are erased;
	// zero cells would be skipped by the blit.
	space, _ := d.resolver.Resolve(" ", 0)
	d.screen.Buffer().Fill(grid.NewCell(space, pixel.White, pixel.Black, 0))
	d.world.Flatten(d.screen.Buffer(), 1, 1)

	if err := d.adapter.BeginFrame(); err != nil {
		return err
	}
	if err := d.adapter.Submit(d.gen.Generate(d.root)); err != nil {
		return err
	}
	return d.adapter.EndFrame()
}

// handleEvent reacts to one terminal event. Returns true to quit.
func (d *demo) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
			return true
		case ev.Rune() == 'q', ev.Rune() == 'Q':
			return true
		}
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 != 0 {
			mx, my := ev.Position()
			square, _ := d.adapter.MapPointer(float64(mx), float64(my))
			d.bx, d.by = float32(square.X), float32(square.Y)
		}
	case *tcell.EventResize:
		d.resize()
	}
	return false
}

func (d *demo) resize() {
	w, h := d.adapter.Size()
	if w == d.w && h == d.h {
		return
	}
	d.w, d.h = w, h
	d.screen.Resize(w, h)
	d.status.SetPos(0, float32(h-1))
	d.status.Resize(w, 1)
	if title := d.world.Layer("ui").ByTag("title"); title != nil {
		title.Resize(w, 1)
		title.Buffer().SetString(1, 0, "pixel demo. q quits, click moves the ball",
			d.resolver, pixel.White, pixel.Black, pixel.StyleBold)
	}
}
