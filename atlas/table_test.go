package atlas

import (
	"errors"
	"testing"

	"github.com/gogpu/pixel"
)

func TestDefaultTableGeometry(t *testing.T) {
	tbl := DefaultTable()

	if tbl.TexWidth() != 4096 || tbl.TexHeight() != 4096 {
		t.Fatalf("texture = %dx%d", tbl.TexWidth(), tbl.TexHeight())
	}

	sprite := tbl.Region(RegionSprite)
	if sprite.Symbols() != 160*256 {
		t.Errorf("sprite capacity = %d", sprite.Symbols())
	}
	text := tbl.Region(RegionText)
	if text.OriginY != 2560 {
		t.Errorf("text band starts at y=%d, want 2560", text.OriginY)
	}
	if text.Base != 40960 {
		t.Errorf("text base = %d, want 40960", text.Base)
	}
	emoji := tbl.Region(RegionEmoji)
	if emoji.OriginX != 2560 || emoji.Base != 43520 {
		t.Errorf("emoji origin_x=%d base=%d", emoji.OriginX, emoji.Base)
	}
	cjk := tbl.Region(RegionCJK)
	if cjk.OriginY != 3072 || cjk.Base != 44288 {
		t.Errorf("cjk origin_y=%d base=%d", cjk.OriginY, cjk.Base)
	}
	if tbl.FrameCount() != 48384 {
		t.Errorf("frame count = %d, want 48384", tbl.FrameCount())
	}
}

func TestLocate(t *testing.T) {
	tbl := DefaultTable()

	tests := []struct {
		name string
		ref  SymbolRef
		want pixel.Rect
	}{
		{
			name: "sprite block 0 offset 0",
			ref:  SymbolRef{Region: RegionSprite},
			want: pixel.Rect{X: 0, Y: 0, W: 16, H: 16},
		},
		{
			name: "sprite block 1 offset 7",
			ref:  SymbolRef{Region: RegionSprite, Block: 1, Offset: 7},
			want: pixel.Rect{X: 256 + 7*16, Y: 0, W: 16, H: 16},
		},
		{
			name: "sprite block wraps after 16",
			ref:  SymbolRef{Region: RegionSprite, Block: 17, Offset: 16},
			want: pixel.Rect{X: 256, Y: 256 + 16, W: 16, H: 16},
		},
		{
			name: "text block 0",
			ref:  SymbolRef{Region: RegionText, Block: 0, Offset: 17},
			want: pixel.Rect{X: 16, Y: 2560 + 32, W: 16, H: 32},
		},
		{
			name: "emoji first glyph",
			ref:  SymbolRef{Region: RegionEmoji},
			want: pixel.Rect{X: 2560, Y: 2560, W: 32, H: 32},
		},
		{
			name: "cjk is row-major over the full width",
			ref:  SymbolRef{Region: RegionCJK, Block: 2, Offset: 1}, // linear 129
			want: pixel.Rect{X: 32, Y: 3072 + 32, W: 32, H: 32},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tbl.Locate(tt.ref)
			if err != nil {
				t.Fatalf("Locate(%v): %v", tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("Locate(%v) = %v, want %v", tt.ref, got, tt.want)
			}
		})
	}
}

func TestLocateOutOfRange(t *testing.T) {
	tbl := DefaultTable()

	bad := []SymbolRef{
		{Region: RegionSprite, Block: 160},
		{Region: RegionSprite, Offset: 256},
		{Region: RegionText, Block: 10},
		{Region: RegionEmoji, Block: 6},
		{Region: RegionEmoji, Offset: 128},
		{Region: RegionCJK, Block: 64},
		{Region: Region(99)},
	}
	for _, ref := range bad {
		if _, err := tbl.Locate(ref); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Locate(%v) err = %v, want ErrIndexOutOfRange", ref, err)
		}
		var ie *IndexError
		if _, err := tbl.Locate(ref); !errors.As(err, &ie) {
			t.Errorf("Locate(%v) should return *IndexError", ref)
		}
	}
}

func TestLinearIndex(t *testing.T) {
	tbl := DefaultTable()

	tests := []struct {
		ref  SymbolRef
		want int
	}{
		{SymbolRef{Region: RegionSprite}, 0},
		{SymbolRef{Region: RegionSprite, Block: 1, Offset: 7}, 263},
		{SymbolRef{Region: RegionText}, 40960},
		{SymbolRef{Region: RegionEmoji, Block: 1, Offset: 3}, 43520 + 131},
		{SymbolRef{Region: RegionCJK, Block: 63, Offset: 63}, 48383},
	}
	for _, tt := range tests {
		got, err := tbl.LinearIndex(tt.ref)
		if err != nil {
			t.Fatalf("LinearIndex(%v): %v", tt.ref, err)
		}
		if got != tt.want {
			t.Errorf("LinearIndex(%v) = %d, want %d", tt.ref, got, tt.want)
		}
	}
}

func TestFramesCoversEveryGlyph(t *testing.T) {
	tbl := DefaultTable()

	seen := 0
	last := -1
	tbl.Frames(func(index int, rect pixel.Rect) {
		if index != last+1 {
			t.Fatalf("frame indices not contiguous: %d after %d", index, last)
		}
		last = index
		if rect.Empty() {
			t.Fatalf("frame %d has empty rect", index)
		}
		if rect.MaxX() > 4096 || rect.MaxY() > 4096 {
			t.Fatalf("frame %d rect %v leaves the texture", index, rect)
		}
		seen++
	})
	if seen != tbl.FrameCount() {
		t.Errorf("Frames visited %d glyphs, want %d", seen, tbl.FrameCount())
	}
}

func TestLoadTable(t *testing.T) {
	doc := []byte(`{
		"texture": {"width": 1024, "height": 1024},
		"regions": {
			"sprite": {"cell_w": 8, "cell_h": 8, "cols": 16, "rows": 16,
			           "blocks_per_row": 8, "blocks": 32},
			"text":   {"origin_y": 512, "cell_w": 8, "cell_h": 16,
			           "cols": 16, "rows": 16, "blocks_per_row": 8, "blocks": 4},
			"emoji":  {"origin_x": 512, "origin_y": 512, "cell_w": 16, "cell_h": 16,
			           "cols": 8, "rows": 16, "blocks_per_row": 4, "blocks": 2},
			"cjk":    {"origin_y": 768, "cell_w": 16, "cell_h": 16,
			           "cols": 8, "rows": 8, "blocks": 16}
		}
	}`)
	tbl, err := LoadTable(doc)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if tbl.Region(RegionText).Base != 32*256 {
		t.Errorf("text base = %d", tbl.Region(RegionText).Base)
	}
	if got := tbl.Region(RegionCJK).BlocksPerRow; got != 0 {
		t.Errorf("cjk blocks_per_row = %d, want 0 (grid-addressed)", got)
	}
}

func TestLoadTableRejectsBadInput(t *testing.T) {
	bad := [][]byte{
		[]byte(`not json`),
		[]byte(`{}`),
		[]byte(`{"texture": {"width": 64, "height": 64}}`),
		// Sprite region overflows the texture.
		[]byte(`{
			"texture": {"width": 64, "height": 64},
			"regions": {
				"sprite": {"cell_w": 16, "cell_h": 16, "cols": 16, "rows": 16,
				           "blocks_per_row": 4, "blocks": 4},
				"text": {"cell_w": 8, "cell_h": 16, "cols": 4, "rows": 4,
				         "blocks_per_row": 1, "blocks": 1},
				"emoji": {"cell_w": 16, "cell_h": 16, "cols": 2, "rows": 2,
				          "blocks_per_row": 1, "blocks": 1},
				"cjk": {"cell_w": 16, "cell_h": 16, "cols": 2, "rows": 2, "blocks": 1}
			}
		}`),
	}
	for i, doc := range bad {
		if _, err := LoadTable(doc); !errors.Is(err, ErrBadTable) {
			t.Errorf("case %d: err = %v, want ErrBadTable", i, err)
		}
	}
}
