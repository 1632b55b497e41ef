// Package asset loads atlas symbol sheets asynchronously. A sheet is a
// PNG image holding the glyph artwork the region table addresses; the
// loader decodes it, rescales it to the table's texture size, and hands
// the RGBA pixels to a backend once ready. A frame loop polls Upload
// each frame and simply tries again while the sheet is still loading.
package asset

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
	"sync/atomic"

	"golang.org/x/image/draw"

	"github.com/gogpu/pixel/atlas"
)

// ErrNotLoaded reports an asset whose data has not arrived yet.
var ErrNotLoaded = errors.New("asset: not loaded")

// State tracks an asset through its load lifecycle.
type State int32

const (
	// StateLoading means the raw bytes have not arrived yet.
	StateLoading State = iota
	// StateParsing means the bytes arrived and decode is in progress.
	StateParsing
	// StateReady means the decoded sheet is available.
	StateReady
	// StateFailed means decode failed; Err holds the cause.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateParsing:
		return "parsing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Sheet is a decoded atlas image, rescaled to the region table's
// texture dimensions. Pixels is tightly packed RGBA, row-major.
type Sheet struct {
	Location string
	Width    int
	Height   int
	Pixels   []byte
}

// Asset is one tracked sheet. State moves Loading → Parsing → Ready,
// or to Failed. All methods are safe for concurrent use.
type Asset struct {
	location string
	state    atomic.Int32

	mu    sync.Mutex
	sheet *Sheet
	err   error
}

// Location returns the path or URL the asset was requested from.
func (a *Asset) Location() string { return a.location }

// State returns the current load state.
func (a *Asset) State() State { return State(a.state.Load()) }

// Sheet returns the decoded sheet, ErrNotLoaded while the asset is
// still in flight, or the decode error if loading failed.
func (a *Asset) Sheet() (*Sheet, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch State(a.state.Load()) {
	case StateReady:
		return a.sheet, nil
	case StateFailed:
		return nil, a.err
	}
	return nil, ErrNotLoaded
}

func (a *Asset) complete(sheet *Sheet, err error) {
	a.mu.Lock()
	a.sheet = sheet
	a.err = err
	a.mu.Unlock()
	if err != nil {
		a.state.Store(int32(StateFailed))
		return
	}
	a.state.Store(int32(StateReady))
}

// decodeSheet parses PNG bytes and rescales to targetW x targetH when
// the source dimensions differ. Nearest-neighbor keeps glyph edges
// crisp; the sheets are pixel art, not photographs.
func decodeSheet(location string, data []byte, targetW, targetH int) (*Sheet, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("asset: decode %s: %w", location, err)
	}

	bounds := img.Bounds()
	var rgba *image.RGBA
	if bounds.Dx() == targetW && bounds.Dy() == targetH {
		if direct, ok := img.(*image.RGBA); ok && direct.Stride == 4*targetW {
			rgba = direct
		} else {
			rgba = image.NewRGBA(image.Rect(0, 0, targetW, targetH))
			draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
		}
	} else {
		rgba = image.NewRGBA(image.Rect(0, 0, targetW, targetH))
		draw.NearestNeighbor.Scale(rgba, rgba.Bounds(), img, bounds, draw.Src, nil)
	}

	return &Sheet{
		Location: location,
		Width:    targetW,
		Height:   targetH,
		Pixels:   rgba.Pix,
	}, nil
}

// targetSize returns the sheet dimensions a table expects.
func targetSize(table *atlas.Table) (w, h int) {
	return table.TexWidth(), table.TexHeight()
}
