package scene

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/pixel"
	"github.com/gogpu/pixel/atlas"
	"github.com/gogpu/pixel/grid"
)

func newTestGenerator() *Generator {
	return NewGenerator(atlas.DefaultTable(), GeneratorConfig{})
}

func TestFullRepaintOnCreate(t *testing.T) {
	g := newTestGenerator()
	sc := New()
	sc.AddLayer("main", 0).NewSprite("s", 10, 5)

	if got := len(g.Generate(sc)); got != 50 {
		t.Errorf("first frame emitted %d instances, want 50", got)
	}
	if got := len(g.Generate(sc)); got != 0 {
		t.Errorf("second frame emitted %d instances, want 0", got)
	}
}

func TestEndToEndScenario(t *testing.T) {
	tbl := atlas.DefaultTable()
	g := NewGenerator(tbl, GeneratorConfig{})
	sc := New()
	sp := sc.AddLayer("main", 0).NewSprite("s", 10, 5)

	ref := atlas.SymbolRef{Region: atlas.RegionSprite, Block: 1, Offset: 7}
	sp.Buffer().SetSymbol(3, 2, ref, pixel.Red, pixel.Black, 0)

	// First frame: full repaint of all 50 cells.
	first := g.Generate(sc)
	if len(first) != 50 {
		t.Fatalf("first frame emitted %d instances, want 50", len(first))
	}
	var got *RenderInstance
	for i := range first {
		if first[i].Sym == ref {
			got = &first[i]
		}
	}
	if got == nil {
		t.Fatal("no instance for the written cell")
	}
	wantAtlas, _ := tbl.Locate(ref)
	if diff := cmp.Diff(wantAtlas, got.Atlas); diff != "" {
		t.Errorf("atlas rect mismatch (-want +got):\n%s", diff)
	}
	if got.Dst.X != 3*16 || got.Dst.Y != 2*16 {
		t.Errorf("dst = %v, want cell (3,2) at 16px cells", got.Dst)
	}
	if got.Fg != pixel.Red || got.Bg != pixel.Black {
		t.Errorf("colors fg=%v bg=%v", got.Fg, got.Bg)
	}

	// No mutation: zero instances.
	if got := len(g.Generate(sc)); got != 0 {
		t.Fatalf("unchanged frame emitted %d instances", got)
	}

	// Background-only change: one instance, same atlas rect, new bg.
	c := sp.Buffer().Get(3, 2)
	sp.Buffer().Set(3, 2, c.WithBg(pixel.Blue))
	third := g.Generate(sc)
	if len(third) != 1 {
		t.Fatalf("bg change emitted %d instances, want 1", len(third))
	}
	if third[0].Atlas != wantAtlas {
		t.Errorf("atlas rect changed: %v", third[0].Atlas)
	}
	if third[0].Bg != pixel.Blue {
		t.Errorf("bg = %v, want blue", third[0].Bg)
	}
}

func TestLayerWeightOrder(t *testing.T) {
	g := newTestGenerator()
	sc := New()

	// Insertion order 0, 5, 2; draw order must be 0, 2, 5.
	marks := map[int32]atlas.SymbolRef{
		0: {Region: atlas.RegionSprite, Offset: 10},
		5: {Region: atlas.RegionSprite, Offset: 50},
		2: {Region: atlas.RegionSprite, Offset: 20},
	}
	for _, w := range []int32{0, 5, 2} {
		sp := sc.AddLayer(string(rune('a'+w)), w).NewSprite("s", 1, 1)
		sp.Buffer().SetSymbol(0, 0, marks[w], pixel.White, pixel.Black, 0)
	}

	instances := g.Generate(sc)
	if len(instances) != 3 {
		t.Fatalf("emitted %d instances, want 3", len(instances))
	}
	wantOrder := []uint16{10, 20, 50}
	for i, want := range wantOrder {
		if instances[i].Sym.Offset != want {
			t.Errorf("instance %d has offset %d, want %d (weight order broken)",
				i, instances[i].Sym.Offset, want)
		}
	}
}

func TestSpriteZOrderWithinLayer(t *testing.T) {
	g := newTestGenerator()
	sc := New()
	l := sc.AddLayer("main", 0)

	top := l.NewSprite("top", 1, 1)
	top.Z = 5
	top.Buffer().SetSymbol(0, 0, atlas.SymbolRef{Offset: 2}, pixel.White, pixel.Black, 0)

	bottom := l.NewSprite("bottom", 1, 1)
	bottom.Buffer().SetSymbol(0, 0, atlas.SymbolRef{Offset: 1}, pixel.White, pixel.Black, 0)

	instances := g.Generate(sc)
	if len(instances) != 2 {
		t.Fatalf("emitted %d instances", len(instances))
	}
	if instances[0].Sym.Offset != 1 || instances[1].Sym.Offset != 2 {
		t.Errorf("z order broken: %d then %d",
			instances[0].Sym.Offset, instances[1].Sym.Offset)
	}
}

func TestSpriteZMutationReorders(t *testing.T) {
	g := newTestGenerator()
	sc := New()
	l := sc.AddLayer("main", 0)

	a := l.NewSprite("a", 1, 1)
	a.Buffer().SetSymbol(0, 0, atlas.SymbolRef{Offset: 1}, pixel.White, pixel.Black, 0)
	b := l.NewSprite("b", 1, 1)
	b.Buffer().SetSymbol(0, 0, atlas.SymbolRef{Offset: 2}, pixel.White, pixel.Black, 0)
	g.Generate(sc)

	// Writing Z directly between frames must reorder the next walk.
	a.Z = 10
	a.Buffer().SetSymbol(0, 0, atlas.SymbolRef{Offset: 1}, pixel.Red, pixel.Black, 0)
	b.Buffer().SetSymbol(0, 0, atlas.SymbolRef{Offset: 2}, pixel.Red, pixel.Black, 0)

	instances := g.Generate(sc)
	if len(instances) != 2 {
		t.Fatalf("emitted %d instances", len(instances))
	}
	if instances[0].Sym.Offset != 2 || instances[1].Sym.Offset != 1 {
		t.Errorf("order after Z write: %d then %d, want 2 then 1",
			instances[0].Sym.Offset, instances[1].Sym.Offset)
	}
}

func TestHiddenSpritesAndLayersSkipped(t *testing.T) {
	g := newTestGenerator()
	sc := New()

	l := sc.AddLayer("main", 0)
	sp := l.NewSprite("s", 2, 2)
	sp.Visible = false

	hidden := sc.AddLayer("overlay", 1)
	hidden.SetHidden(true)
	hidden.NewSprite("o", 2, 2)

	if got := len(g.Generate(sc)); got != 0 {
		t.Errorf("hidden content emitted %d instances", got)
	}

	// Unhiding repaints in full: the buffer was never synced while
	// hidden, so no change is lost.
	sp.Visible = true
	if got := len(g.Generate(sc)); got != 4 {
		t.Errorf("unhidden sprite emitted %d instances, want 4", got)
	}
}

func TestMissingSymbolFallsBack(t *testing.T) {
	tbl := atlas.DefaultTable()
	g := NewGenerator(tbl, GeneratorConfig{})
	sc := New()
	sp := sc.AddLayer("main", 0).NewSprite("s", 1, 1)

	bad := atlas.SymbolRef{Region: atlas.RegionSprite, Block: 999}
	sp.Buffer().SetSymbol(0, 0, bad, pixel.White, pixel.Black, 0)

	instances := g.Generate(sc)
	if len(instances) != 1 {
		t.Fatalf("emitted %d instances", len(instances))
	}
	wantRect, _ := tbl.Locate(atlas.SymbolRef{})
	if instances[0].Atlas != wantRect {
		t.Errorf("fallback atlas rect = %v, want %v", instances[0].Atlas, wantRect)
	}
	if instances[0].Sym != (atlas.SymbolRef{}) {
		t.Errorf("fallback sym = %v", instances[0].Sym)
	}
}

func TestScaledCellsTileWithoutGaps(t *testing.T) {
	g := newTestGenerator()
	sc := New()
	sp := sc.AddLayer("main", 0).NewSprite("s", 8, 1)
	sp.Scale = 0.6 // 9.6px cells: rounded edges must still tile

	instances := g.Generate(sc)
	if len(instances) != 8 {
		t.Fatalf("emitted %d instances", len(instances))
	}
	for i := 1; i < len(instances); i++ {
		prev, cur := instances[i-1].Dst, instances[i].Dst
		if prev.MaxX() != cur.X {
			t.Errorf("gap between cell %d and %d: %v then %v", i-1, i, prev, cur)
		}
	}
}

func TestRotationNormalized(t *testing.T) {
	g := newTestGenerator()
	sc := New()
	sp := sc.AddLayer("main", 0).NewSprite("s", 1, 1)
	sp.Angle = -90

	instances := g.Generate(sc)
	want := float32(3 * math.Pi / 2)
	if got := instances[0].Rotation; math.Abs(float64(got-want)) > 1e-5 {
		t.Errorf("rotation = %v, want %v", got, want)
	}
	if instances[0].CX != 8 || instances[0].CY != 8 {
		t.Errorf("rotation center = (%v,%v), want sprite center (8,8)",
			instances[0].CX, instances[0].CY)
	}
}

func TestWideGlyphContinuationPaintsBackground(t *testing.T) {
	g := newTestGenerator()
	sc := New()
	sp := sc.AddLayer("main", 0).NewSprite("s", 4, 1)

	r := atlas.NewResolver(atlas.DefaultTable())
	sp.Buffer().SetString(0, 0, "中", r, pixel.White, pixel.Blue, 0)

	instances := g.Generate(sc)
	if len(instances) != 4 {
		t.Fatalf("emitted %d instances", len(instances))
	}
	cont := instances[1]
	if cont.Fg != cont.Bg || cont.Bg != pixel.Blue {
		t.Errorf("continuation cell fg=%v bg=%v, want background-only blue",
			cont.Fg, cont.Bg)
	}
}

func TestInstancePool(t *testing.T) {
	pool := NewInstancePool()
	pool.Warmup(4)

	l := pool.Get()
	l.Append([]RenderInstance{{}, {}})
	if l.Len() != 2 {
		t.Errorf("Len = %d", l.Len())
	}
	pool.Put(l)

	l2 := pool.Get()
	if l2.Len() != 0 {
		t.Error("pooled list not reset")
	}
	pool.Put(nil) // must not panic
}

func TestFlatten(t *testing.T) {
	sc := New()
	sp := sc.AddLayer("main", 0).NewSprite("s", 2, 1)
	ref := atlas.SymbolRef{Region: atlas.RegionSprite, Offset: 9}
	sp.Buffer().SetSymbol(0, 0, ref, pixel.White, pixel.Black, 0)
	sp.SetPos(32, 16)

	root := grid.NewBuffer(8, 4)
	sc.Flatten(root, 16, 16)

	if got := root.Get(2, 1).Sym; got != ref {
		t.Errorf("flattened cell = %v, want %v", got, ref)
	}
}
