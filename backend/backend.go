// Package backend defines the rendering adapter contract and the
// registry that selects between adapters at startup.
//
// An Adapter owns one output surface (a terminal screen, a native GPU
// surface, or a browser canvas) and consumes the render instances the
// scene generator emits. The frame protocol is
// BeginFrame/Submit/EndFrame; adapters never inspect scene state beyond
// the instance list they are handed.
package backend

import (
	"errors"

	"github.com/gogpu/pixel/input"
	"github.com/gogpu/pixel/scene"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when no registered adapter
	// can run on this platform.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when frame operations are called
	// before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrAtlasNotReady is returned by BeginFrame while the atlas
	// texture is still loading. The caller skips the frame and retries;
	// buffer diffs accumulate unsynced, so no change is lost.
	ErrAtlasNotReady = errors.New("backend: atlas not ready")
)

// Registered adapter names.
const (
	BackendWGPU = "wgpu"
	BackendWeb  = "web"
	BackendTerm = "term"
)

// Adapter is the rendering backend contract. Implementations are
// registered via Register and selected via Get or Default.
//
// The per-frame sequence is BeginFrame, any number of Submit calls,
// EndFrame. All output reaches the surface in the single EndFrame
// presentation: one terminal flush or one GPU draw per frame,
// regardless of how many instances were submitted.
type Adapter interface {
	// Name returns the adapter identifier, one of the Backend
	// constants.
	Name() string

	// Init acquires the output surface. It must be called before any
	// frame operations.
	Init() error

	// Close releases the surface. The adapter is unusable afterwards.
	Close()

	// Size returns the current surface size in pixels.
	Size() (width, height int)

	// BeginFrame starts a frame. ErrAtlasNotReady means the frame
	// should be skipped and retried later.
	BeginFrame() error

	// Submit queues render instances for the current frame. Instances
	// are consumed before the call returns; the caller may reuse the
	// slice.
	Submit(instances []scene.RenderInstance) error

	// EndFrame presents everything submitted since BeginFrame.
	EndFrame() error

	// MapPointer converts a pointer position on the surface to cell
	// coordinates: the square-cell point and the half-height point
	// for text-region picking.
	MapPointer(px, py float64) (square, half input.Point)
}
