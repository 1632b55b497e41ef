//go:build !nogpu

package wgpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/pixel"
	"github.com/gogpu/pixel/atlas"
	"github.com/gogpu/pixel/backend"
	"github.com/gogpu/pixel/backend/internal/cellwire"
	"github.com/gogpu/pixel/scene"
)

func f32At(data []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
}

func TestRegistered(t *testing.T) {
	if !backend.IsRegistered(backend.BackendWGPU) {
		t.Error("wgpu adapter not registered")
	}
}

func TestBuildInstanceData(t *testing.T) {
	instances := []scene.RenderInstance{
		{
			Dst:   pixel.Rect{X: 48, Y: 32, W: 16, H: 16},
			Atlas: pixel.Rect{X: 272, Y: 0, W: 16, H: 16},
			Fg:    pixel.Red,
			Bg:    pixel.Black,
		},
	}
	data := cellwire.AppendInstanceData(nil, instances)
	if len(data) != cellwire.InstanceStride {
		t.Fatalf("len = %d, want %d", len(data), cellwire.InstanceStride)
	}

	// dst rect
	if f32At(data, 0) != 48 || f32At(data, 4) != 32 || f32At(data, 8) != 16 {
		t.Errorf("dst = %v %v %v", f32At(data, 0), f32At(data, 4), f32At(data, 8))
	}
	// atlas rect
	if f32At(data, 16) != 272 || f32At(data, 20) != 0 {
		t.Errorf("src = %v %v", f32At(data, 16), f32At(data, 20))
	}
	// premultiplied fg: opaque red stays (1,0,0,1)
	if f32At(data, 32) != 1 || f32At(data, 36) != 0 || f32At(data, 44) != 1 {
		t.Errorf("fg = %v %v %v %v", f32At(data, 32), f32At(data, 36), f32At(data, 40), f32At(data, 44))
	}
	// bg alpha
	if f32At(data, 60) != 1 {
		t.Errorf("bg alpha = %v", f32At(data, 60))
	}
}

func TestBuildInstanceDataAppends(t *testing.T) {
	one := []scene.RenderInstance{{Dst: pixel.Rect{X: 1}}}
	data := cellwire.AppendInstanceData(nil, one)
	data = cellwire.AppendInstanceData(data, one)
	if len(data) != 2*cellwire.InstanceStride {
		t.Fatalf("len = %d, want %d", len(data), 2*cellwire.InstanceStride)
	}
	if f32At(data, cellwire.InstanceStride) != 1 {
		t.Error("second instance dst.x lost")
	}
}

func TestBuildInstanceDataPremultiplies(t *testing.T) {
	half := pixel.Color{R: 1, G: 1, B: 1, A: 0.5}
	data := cellwire.AppendInstanceData(nil, []scene.RenderInstance{{Fg: half}})
	if got := f32At(data, 32); got != 0.5 {
		t.Errorf("premultiplied fg.r = %v, want 0.5", got)
	}
}

func TestBuildUniformData(t *testing.T) {
	data := cellwire.BuildUniformData(1280, 720)
	if len(data) != cellwire.UniformSize {
		t.Fatalf("len = %d", len(data))
	}
	if f32At(data, 0) != 1280 || f32At(data, 4) != 720 {
		t.Errorf("viewport = %v x %v", f32At(data, 0), f32At(data, 4))
	}
}

func TestVertexLayout(t *testing.T) {
	layouts := cellVertexLayout()
	if len(layouts) != 2 {
		t.Fatalf("%d buffer layouts", len(layouts))
	}
	if layouts[0].ArrayStride != cellwire.CornerStride {
		t.Errorf("corner stride = %d", layouts[0].ArrayStride)
	}
	if layouts[1].ArrayStride != cellwire.InstanceStride {
		t.Errorf("instance stride = %d", layouts[1].ArrayStride)
	}
	// Attribute offsets must tile the instance stride without holes.
	attrs := layouts[1].Attributes
	for i := 1; i < len(attrs); i++ {
		if attrs[i].Offset != attrs[i-1].Offset+16 {
			t.Errorf("attribute %d offset %d", i, attrs[i].Offset)
		}
	}
	if last := attrs[len(attrs)-1]; last.Offset+16 != cellwire.InstanceStride {
		t.Errorf("instance attributes end at %d, stride %d", last.Offset+16, cellwire.InstanceStride)
	}
}

func TestNewDefaultsConfig(t *testing.T) {
	b := New(atlas.DefaultTable(), Config{})
	w, h := b.cfg.Width, b.cfg.Height
	def := DefaultConfig()
	if w != def.Width || h != def.Height {
		t.Errorf("size %dx%d", w, h)
	}
	if b.cfg.InitialInstanceCapacity != def.InitialInstanceCapacity {
		t.Errorf("capacity %d", b.cfg.InitialInstanceCapacity)
	}
}

func TestFrameRequiresInit(t *testing.T) {
	b := New(atlas.DefaultTable(), DefaultConfig())
	if err := b.BeginFrame(); err != backend.ErrNotInitialized {
		t.Errorf("BeginFrame: %v", err)
	}
	if err := b.Submit(nil); err != backend.ErrNotInitialized {
		t.Errorf("Submit: %v", err)
	}
	if err := b.EndFrame(); err != backend.ErrNotInitialized {
		t.Errorf("EndFrame: %v", err)
	}
	if err := b.UploadAtlas(nil, 0, 0); err != backend.ErrNotInitialized {
		t.Errorf("UploadAtlas: %v", err)
	}
}

// stubProvider implements gpucontext.DeviceProvider with arbitrary
// handle payloads.
type stubProvider struct{ dev, q any }

func (p stubProvider) Device() gpucontext.Device { return p.dev }
func (p stubProvider) Queue() gpucontext.Queue   { return p.q }
func (p stubProvider) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}
func (p stubProvider) Adapter() gpucontext.Adapter         { return nil }
func (p stubProvider) AdapterInfo() gpucontext.AdapterInfo { return gpucontext.AdapterInfo{} }

func TestSetDeviceContextRejectsNonHALProvider(t *testing.T) {
	b := New(atlas.DefaultTable(), DefaultConfig())

	if err := b.SetDeviceContext(nil); err == nil {
		t.Error("nil provider accepted")
	}
	// Handles that are neither hal types nor HalDevice/HalQueue
	// duck-typed must be rejected, not adopted.
	if err := b.SetDeviceContext(stubProvider{dev: 42, q: 43}); err == nil {
		t.Error("provider without HAL handles accepted")
	}
	if b.dev.ready() {
		t.Error("rejected provider left device state populated")
	}
}

func TestMapPointerUsesCellSize(t *testing.T) {
	b := New(atlas.DefaultTable(), DefaultConfig())
	square, half := b.MapPointer(33, 70)
	if square.X != 2 || square.Y != 4 {
		t.Errorf("square = %v", square)
	}
	if half.Y != 2 {
		t.Errorf("half row = %d", half.Y)
	}
}
