package asset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/gogpu/pixel"
	"github.com/gogpu/pixel/atlas"
	"github.com/gogpu/pixel/cache"
)

// ReadFunc fetches the raw bytes for a location. The default reads
// from the filesystem; tests and embedded setups substitute their own.
type ReadFunc func(ctx context.Context, location string) ([]byte, error)

// AtlasUploader receives a ready sheet. Both GPU backends implement it.
type AtlasUploader interface {
	UploadAtlas(rgba []byte, width, height int) error
}

// sheetCacheCapacity is the per-shard decoded-sheet limit. Sheets are
// large, so the cache stays small; it exists to survive manager
// restarts within one process, not to hold a library.
const sheetCacheCapacity = 4

// Manager tracks sheet assets by location and loads them in the
// background. Load is idempotent; Upload implements the
// retry-next-frame contract for frame loops.
type Manager struct {
	table *atlas.Table
	read  ReadFunc

	mu     sync.Mutex
	assets map[string]*Asset

	sheets *cache.ShardedCache[string, *Sheet]
}

// Option configures a Manager.
type Option func(*Manager)

// WithReadFunc replaces the filesystem reader.
func WithReadFunc(read ReadFunc) Option {
	return func(m *Manager) { m.read = read }
}

// NewManager creates a manager whose sheets are rescaled to the given
// table's texture size.
func NewManager(table *atlas.Table, opts ...Option) *Manager {
	m := &Manager{
		table:  table,
		read:   readFile,
		assets: make(map[string]*Asset),
		sheets: cache.NewSharded[string, *Sheet](sheetCacheCapacity, cache.StringHasher),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func readFile(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(location)
}

// Load starts loading a sheet and returns its tracking handle. Calling
// Load again with the same location returns the existing handle. A
// cached decode completes the asset synchronously.
func (m *Manager) Load(ctx context.Context, location string) *Asset {
	m.mu.Lock()
	if a, ok := m.assets[location]; ok {
		m.mu.Unlock()
		return a
	}
	a := &Asset{location: location}
	m.assets[location] = a
	m.mu.Unlock()

	if sheet, ok := m.sheets.Get(location); ok {
		a.state.Store(int32(StateParsing))
		a.complete(sheet, nil)
		return a
	}

	go m.fetch(ctx, a)
	return a
}

// Release drops the tracking handle for a location. The decoded sheet
// stays in the cache, so a later Load completes without re-reading.
func (m *Manager) Release(location string) {
	m.mu.Lock()
	delete(m.assets, location)
	m.mu.Unlock()
}

// Get returns the tracking handle for a previously requested location.
func (m *Manager) Get(location string) (*Asset, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[location]
	return a, ok
}

// SetData completes a load with externally fetched bytes. The web
// build uses this: JavaScript fetches the URL and pushes the bytes in.
// Unknown locations are registered on the fly.
func (m *Manager) SetData(location string, data []byte) *Asset {
	m.mu.Lock()
	a, ok := m.assets[location]
	if !ok {
		a = &Asset{location: location}
		m.assets[location] = a
	}
	m.mu.Unlock()

	m.parse(a, data, nil)
	return a
}

// Upload pushes a ready sheet to the uploader. It returns false while
// the asset is still loading so the caller can retry next frame, and
// true once the upload happened. Failed loads return the load error.
func (m *Manager) Upload(location string, up AtlasUploader) (bool, error) {
	a, ok := m.Get(location)
	if !ok {
		return false, fmt.Errorf("asset: %s not requested", location)
	}

	sheet, err := a.Sheet()
	if errors.Is(err, ErrNotLoaded) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := up.UploadAtlas(sheet.Pixels, sheet.Width, sheet.Height); err != nil {
		return false, fmt.Errorf("asset: upload %s: %w", location, err)
	}
	return true, nil
}

func (m *Manager) fetch(ctx context.Context, a *Asset) {
	data, err := m.read(ctx, a.location)
	m.parse(a, data, err)
}

func (m *Manager) parse(a *Asset, data []byte, readErr error) {
	if readErr != nil {
		a.complete(nil, fmt.Errorf("asset: read %s: %w", a.location, readErr))
		pixel.Logger().Warn("asset: load failed",
			"location", a.location, "error", readErr)
		return
	}

	a.state.Store(int32(StateParsing))
	w, h := targetSize(m.table)
	sheet, err := decodeSheet(a.location, data, w, h)
	if err != nil {
		a.complete(nil, err)
		pixel.Logger().Warn("asset: decode failed",
			"location", a.location, "error", err)
		return
	}

	m.sheets.Set(a.location, sheet)
	a.complete(sheet, nil)
	pixel.Logger().Info("asset: sheet ready",
		"location", a.location, "width", w, "height", h)
}
