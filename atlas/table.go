package atlas

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Table construction errors.
var (
	// ErrBadTable is returned when a table document is malformed or
	// describes regions that overflow the texture.
	ErrBadTable = errors.New("atlas: invalid region table")
)

// DefaultTable returns the reference 4096x4096 layout: 160 sprite
// blocks of 16x16 cells, 10 text blocks of 16x32 cells below them,
// 6 emoji blocks of 32x32 cells to the right of the text band, and a
// flat CJK grid of 32x32 cells filling the bottom band.
func DefaultTable() *Table {
	const (
		tex   = 4096
		baseW = 16
		baseH = 16
	)

	t := &Table{texW: tex, texH: tex}

	sprite := RegionInfo{
		CellW: baseW, CellH: baseH,
		Cols: 16, Rows: 16,
		BlocksPerRow: 16,
		Blocks:       160,
	}
	// Text glyphs are twice the sprite cell height; the band starts
	// right below the last sprite block row.
	textY := (sprite.Blocks / sprite.BlocksPerRow) * sprite.BlockH()
	text := RegionInfo{
		OriginY: textY,
		CellW:   baseW, CellH: baseH * 2,
		Cols: 16, Rows: 16,
		BlocksPerRow: 16,
		Blocks:       10,
		Base:         sprite.Symbols(),
	}
	emoji := RegionInfo{
		OriginX: text.Blocks * text.BlockW(),
		OriginY: textY,
		CellW:   baseW * 2, CellH: baseH * 2,
		Cols: 8, Rows: 16,
		BlocksPerRow: (tex - text.Blocks*text.BlockW()) / (8 * baseW * 2),
		Blocks:       6,
		Base:         text.Base + text.Symbols(),
	}
	cjk := RegionInfo{
		OriginY: textY + text.BlockH(),
		CellW:   baseW * 2, CellH: baseH * 2,
		Cols: 8, Rows: 8,
		BlocksPerRow: 0, // grid-addressed
		Blocks:       64,
		Base:         emoji.Base + emoji.Symbols(),
	}

	t.regions[RegionSprite] = sprite
	t.regions[RegionText] = text
	t.regions[RegionEmoji] = emoji
	t.regions[RegionCJK] = cjk
	return t
}

// LoadTable parses a region table from a JSON document:
//
//	{
//	  "texture": {"width": 4096, "height": 4096},
//	  "regions": {
//	    "sprite": {"origin_x": 0, "origin_y": 0, "cell_w": 16, "cell_h": 16,
//	               "cols": 16, "rows": 16, "blocks_per_row": 16, "blocks": 160},
//	    "text":   {...}, "emoji": {...}, "cjk": {...}
//	  }
//	}
//
// Linear index bases are derived from the region order (sprite, text,
// emoji, cjk), never read from the document. All four regions must be
// present. The table is validated against the texture bounds.
func LoadTable(data []byte) (*Table, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrBadTable)
	}
	doc := gjson.ParseBytes(data)

	texW := doc.Get("texture.width").Int()
	texH := doc.Get("texture.height").Int()
	if texW <= 0 || texH <= 0 {
		return nil, fmt.Errorf("%w: missing texture size", ErrBadTable)
	}

	t := &Table{texW: int(texW), texH: int(texH)}
	base := 0
	for r := Region(0); r < regionCount; r++ {
		node := doc.Get("regions." + r.String())
		if !node.Exists() {
			return nil, fmt.Errorf("%w: missing region %q", ErrBadTable, r.String())
		}
		ri := RegionInfo{
			OriginX:      int(node.Get("origin_x").Int()),
			OriginY:      int(node.Get("origin_y").Int()),
			CellW:        int(node.Get("cell_w").Int()),
			CellH:        int(node.Get("cell_h").Int()),
			Cols:         int(node.Get("cols").Int()),
			Rows:         int(node.Get("rows").Int()),
			BlocksPerRow: int(node.Get("blocks_per_row").Int()),
			Blocks:       int(node.Get("blocks").Int()),
			Base:         base,
		}
		if err := validateRegion(r, ri, t.texW, t.texH); err != nil {
			return nil, err
		}
		t.regions[r] = ri
		base += ri.Symbols()
	}
	return t, nil
}

func validateRegion(r Region, ri RegionInfo, texW, texH int) error {
	if ri.CellW <= 0 || ri.CellH <= 0 || ri.Cols <= 0 || ri.Rows <= 0 || ri.Blocks <= 0 {
		return fmt.Errorf("%w: region %q has non-positive geometry", ErrBadTable, r.String())
	}
	if ri.OriginX < 0 || ri.OriginY < 0 {
		return fmt.Errorf("%w: region %q has negative origin", ErrBadTable, r.String())
	}

	var maxX, maxY int
	if ri.BlocksPerRow > 0 {
		rows := (ri.Blocks + ri.BlocksPerRow - 1) / ri.BlocksPerRow
		cols := ri.Blocks
		if cols > ri.BlocksPerRow {
			cols = ri.BlocksPerRow
		}
		maxX = ri.OriginX + cols*ri.BlockW()
		maxY = ri.OriginY + rows*ri.BlockH()
	} else {
		perRow := (texW - ri.OriginX) / ri.CellW
		if perRow <= 0 {
			return fmt.Errorf("%w: region %q is wider than the texture", ErrBadTable, r.String())
		}
		rows := (ri.Symbols() + perRow - 1) / perRow
		maxX = texW
		maxY = ri.OriginY + rows*ri.CellH
	}
	if maxX > texW || maxY > texH {
		return fmt.Errorf("%w: region %q overflows the %dx%d texture",
			ErrBadTable, r.String(), texW, texH)
	}
	return nil
}
