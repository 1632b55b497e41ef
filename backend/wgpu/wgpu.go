//go:build !nogpu

// Package wgpu renders the cell grid through the wgpu HAL on a native
// GPU device. Each frame draws all submitted instances with a single
// instanced DrawIndexed over a shared unit quad; the atlas texture is
// bound once and addressed per instance by texel rectangle.
//
// Importing the package registers it under the name "wgpu". The adapter
// creates a standalone Vulkan device by default; host applications that
// already own a device share it via SetDeviceProvider.
package wgpu

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/pixel"
	"github.com/gogpu/pixel/atlas"
	"github.com/gogpu/pixel/backend"
	"github.com/gogpu/pixel/backend/internal/cellwire"
	"github.com/gogpu/pixel/input"
	"github.com/gogpu/pixel/scene"
)

func init() {
	backend.Register(backend.BackendWGPU, func() backend.Adapter {
		return New(atlas.DefaultTable(), DefaultConfig())
	})
}

// submitTimeout bounds the fence wait after queue submission.
const submitTimeout = 5 * time.Second

// Config holds adapter construction parameters.
type Config struct {
	// Width, Height is the render target size in pixels.
	Width, Height int

	// InitialInstanceCapacity sizes the per-instance vertex buffer in
	// instances. The buffer grows when a frame exceeds it.
	InitialInstanceCapacity int
}

// DefaultConfig returns a 1280x720 target with room for a full 80x45
// grid repaint.
func DefaultConfig() Config {
	return Config{Width: 1280, Height: 720, InitialInstanceCapacity: 4096}
}

// Backend is the native GPU adapter.
type Backend struct {
	mu sync.Mutex

	table  *atlas.Table
	cfg    Config
	mapper input.Mapper

	dev    deviceState
	pipe   *cellPipeline
	atlas  atlasTexture
	target renderTarget

	uniformBuf  hal.Buffer
	instanceBuf hal.Buffer
	instanceCap int

	// frameData accumulates serialized instances between BeginFrame
	// and EndFrame.
	frameData  []byte
	frameCount int
	inFrame    bool

	// needsClear forces a LoadOpClear on the next pass. Set on init
	// and resize; steady-state frames load the previous contents so
	// diff-only repaints compose correctly.
	needsClear bool

	inited bool
}

// New creates a GPU adapter over the given region table. GPU resources
// are acquired in Init.
func New(table *atlas.Table, cfg Config) *Backend {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		def := DefaultConfig()
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.InitialInstanceCapacity <= 0 {
		cfg.InitialInstanceCapacity = DefaultConfig().InitialInstanceCapacity
	}
	cw, ch := table.CellSize()
	return &Backend{
		table:  table,
		cfg:    cfg,
		mapper: input.NewMapper(float32(cw), float32(ch)),
	}
}

// Name returns "wgpu".
func (b *Backend) Name() string { return backend.BackendWGPU }

// SetDeviceProvider switches the adapter to a shared GPU device from a
// host application. Must be called before Init.
func (b *Backend) SetDeviceProvider(provider any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inited {
		return fmt.Errorf("wgpu: cannot change device after Init")
	}
	return b.dev.adopt(provider)
}

// SetDeviceContext adopts a shared device from a gpucontext provider.
// The HAL handles come from the provider's Device and Queue accessors.
// Must be called before Init.
func (b *Backend) SetDeviceContext(provider gpucontext.DeviceProvider) error {
	if provider == nil {
		return fmt.Errorf("wgpu: nil device provider")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inited {
		return fmt.Errorf("wgpu: cannot change device after Init")
	}
	return b.dev.adoptContext(provider)
}

// Init brings up the device, compiles the pipeline, and allocates the
// render target. The atlas texture is uploaded separately with
// UploadAtlas; frames begun before that return ErrAtlasNotReady.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inited {
		return nil
	}
	if !b.dev.ready() {
		if err := b.dev.initStandalone(); err != nil {
			return err
		}
	}

	pipe, err := newCellPipeline(b.dev.device, b.dev.queue)
	if err != nil {
		b.dev.release()
		return err
	}
	b.pipe = pipe

	b.atlas = atlasTexture{device: b.dev.device, queue: b.dev.queue}
	b.target = renderTarget{device: b.dev.device}
	if err := b.target.resize(b.cfg.Width, b.cfg.Height); err != nil {
		b.closeLocked()
		return err
	}

	uniformBuf, err := b.pipe.createAndUploadBuffer("cell_uniform",
		cellwire.BuildUniformData(b.cfg.Width, b.cfg.Height),
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		b.closeLocked()
		return err
	}
	b.uniformBuf = uniformBuf

	if err := b.ensureInstanceCapacity(b.cfg.InitialInstanceCapacity); err != nil {
		b.closeLocked()
		return err
	}

	b.needsClear = true
	b.inited = true
	pixel.Logger().Info("wgpu: adapter initialized",
		"width", b.cfg.Width, "height", b.cfg.Height, "shared_device", b.dev.external)
	return nil
}

// Close releases all GPU resources.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeLocked()
}

func (b *Backend) closeLocked() {
	if b.instanceBuf != nil {
		b.dev.device.DestroyBuffer(b.instanceBuf)
		b.instanceBuf = nil
	}
	if b.uniformBuf != nil {
		b.dev.device.DestroyBuffer(b.uniformBuf)
		b.uniformBuf = nil
	}
	b.target.destroy()
	b.atlas.destroy()
	if b.pipe != nil {
		b.pipe.destroy()
		b.pipe = nil
	}
	b.dev.release()
	b.inited = false
}

// Size returns the render target size in pixels.
func (b *Backend) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg.Width, b.cfg.Height
}

// Resize recreates the render target. The next frame clears and the
// caller should force a full repaint of its buffers.
func (b *Backend) Resize(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inited {
		return backend.ErrNotInitialized
	}
	if err := b.target.resize(width, height); err != nil {
		return err
	}
	b.cfg.Width, b.cfg.Height = width, height
	b.dev.queue.WriteBuffer(b.uniformBuf, 0, cellwire.BuildUniformData(width, height))
	b.needsClear = true
	return nil
}

// UploadAtlas writes the RGBA atlas image to the GPU and marks the
// adapter ready to render.
func (b *Backend) UploadAtlas(rgba []byte, width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inited {
		return backend.ErrNotInitialized
	}
	return b.atlas.upload(rgba, width, height)
}

// BeginFrame starts a frame. Returns ErrAtlasNotReady until UploadAtlas
// has completed, so callers skip the frame without losing buffer diffs.
func (b *Backend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inited {
		return backend.ErrNotInitialized
	}
	if !b.atlas.ready() {
		return backend.ErrAtlasNotReady
	}
	b.frameData = b.frameData[:0]
	b.frameCount = 0
	b.inFrame = true
	return nil
}

// Submit serializes instances into the frame's instance stream.
func (b *Backend) Submit(instances []scene.RenderInstance) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inited {
		return backend.ErrNotInitialized
	}
	if !b.inFrame {
		return fmt.Errorf("wgpu: Submit outside BeginFrame/EndFrame")
	}
	b.frameData = cellwire.AppendInstanceData(b.frameData, instances)
	b.frameCount += len(instances)
	return nil
}

// EndFrame uploads the instance stream and draws it with one instanced
// DrawIndexed, then blocks until the GPU finishes.
func (b *Backend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inited {
		return backend.ErrNotInitialized
	}
	if !b.inFrame {
		return fmt.Errorf("wgpu: EndFrame without BeginFrame")
	}
	b.inFrame = false

	if b.frameCount == 0 && !b.needsClear {
		return nil
	}
	if err := b.ensureInstanceCapacity(b.frameCount); err != nil {
		return err
	}
	if len(b.frameData) > 0 {
		b.dev.queue.WriteBuffer(b.instanceBuf, 0, b.frameData)
	}
	return b.encodeAndSubmit()
}

// MapPointer converts a pointer position to cell coordinates.
func (b *Backend) MapPointer(px, py float64) (input.Point, input.Point) {
	return b.mapper.Map(px, py)
}

// ReadPixels copies the render target into an RGBA byte slice, one row
// after another. Hosts present this; tests assert on it.
func (b *Backend) ReadPixels() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inited {
		return nil, backend.ErrNotInitialized
	}
	w, h := uint32(b.cfg.Width), uint32(b.cfg.Height)
	size := uint64(w) * uint64(h) * 4

	staging, err := b.dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "cell_readback",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create readback buffer: %w", err)
	}
	defer b.dev.device.DestroyBuffer(staging)

	encoder, err := b.dev.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "cell_readback"})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create encoder: %w", err)
	}
	if err := encoder.BeginEncoding("cell_readback"); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: b.target.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(b.target.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: b.target.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	if err := b.submitEncoder(encoder); err != nil {
		return nil, err
	}

	out := make([]byte, size)
	if err := b.dev.queue.ReadBuffer(staging, 0, out); err != nil {
		return nil, fmt.Errorf("wgpu: readback: %w", err)
	}
	return out, nil
}

// ensureInstanceCapacity grows the instance buffer to hold count
// instances.
func (b *Backend) ensureInstanceCapacity(count int) error {
	if b.instanceBuf != nil && count <= b.instanceCap {
		return nil
	}
	newCap := b.instanceCap
	if newCap == 0 {
		newCap = b.cfg.InitialInstanceCapacity
	}
	for newCap < count {
		newCap *= 2
	}
	buf, err := b.dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "cell_instances",
		Size:  uint64(newCap) * cellwire.InstanceStride,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create instance buffer: %w", err)
	}
	if b.instanceBuf != nil {
		b.dev.device.DestroyBuffer(b.instanceBuf)
	}
	b.instanceBuf = buf
	b.instanceCap = newCap
	return nil
}

// encodeAndSubmit records the frame's render pass and submits it.
func (b *Backend) encodeAndSubmit() error {
	bindGroup, err := b.dev.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "cell_bind",
		Layout: b.pipe.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: b.uniformBuf.NativeHandle(), Offset: 0, Size: cellwire.UniformSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: b.atlas.view.NativeHandle(),
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create bind group: %w", err)
	}
	defer b.dev.device.DestroyBindGroup(bindGroup)

	encoder, err := b.dev.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "cell_frame"})
	if err != nil {
		return fmt.Errorf("wgpu: create encoder: %w", err)
	}
	if err := encoder.BeginEncoding("cell_frame"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	loadOp := gputypes.LoadOpLoad
	if b.needsClear {
		loadOp = gputypes.LoadOpClear
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "cell_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       b.target.view,
				LoadOp:     loadOp,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	if b.frameCount > 0 {
		rp.SetPipeline(b.pipe.pipeline)
		rp.SetBindGroup(0, bindGroup, nil)
		rp.SetVertexBuffer(0, b.pipe.quadBuf, 0)
		rp.SetVertexBuffer(1, b.instanceBuf, 0)
		rp.SetIndexBuffer(b.pipe.indexBuf, gputypes.IndexFormatUint16, 0)
		rp.DrawIndexed(6, uint32(b.frameCount), 0, 0, 0)
	}
	rp.End()

	if err := b.submitEncoder(encoder); err != nil {
		return err
	}
	b.needsClear = false
	return nil
}

// submitEncoder finishes the encoder, submits it, and waits on a fence.
func (b *Backend) submitEncoder(encoder hal.CommandEncoder) error {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer b.dev.device.FreeCommandBuffer(cmdBuf)

	fence, err := b.dev.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer b.dev.device.DestroyFence(fence)

	if err := b.dev.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	fenceOK, err := b.dev.device.Wait(fence, 1, submitTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wgpu: wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}
