//go:build js && wasm

// Package web renders the cell grid to a browser canvas through the
// WebGPU API via syscall/js. The frame protocol matches the native
// adapter: instances accumulate between BeginFrame and EndFrame and
// draw with a single instanced drawIndexed.
//
// Frames render into a persistent offscreen texture so diff-only
// repaints compose over earlier frames, then copy to the canvas
// swapchain texture, whose contents do not survive presentation.
//
// Importing the package registers it under the name "web".
package web

import (
	"fmt"
	"sync"
	"syscall/js"

	"github.com/gogpu/pixel"
	"github.com/gogpu/pixel/atlas"
	"github.com/gogpu/pixel/backend"
	"github.com/gogpu/pixel/backend/internal/cellwire"
	"github.com/gogpu/pixel/input"
	"github.com/gogpu/pixel/scene"
)

func init() {
	backend.Register(backend.BackendWeb, func() backend.Adapter {
		return New(atlas.DefaultTable(), "pixel-canvas")
	})
}

// GPUBufferUsage / GPUTextureUsage flag values from the WebGPU spec.
const (
	bufUsageCopyDst = 0x0008
	bufUsageIndex   = 0x0010
	bufUsageVertex  = 0x0020
	bufUsageUniform = 0x0040

	texUsageCopySrc          = 0x01
	texUsageCopyDst          = 0x02
	texUsageTextureBinding   = 0x04
	texUsageRenderAttachment = 0x10
)

// Backend is the browser WebGPU adapter.
type Backend struct {
	mu sync.Mutex

	table    *atlas.Table
	canvasID string
	mapper   input.Mapper

	device js.Value
	queue  js.Value
	ctx    js.Value

	pipeline    js.Value
	bindGroup   js.Value
	quadBuf     js.Value
	indexBuf    js.Value
	uniformBuf  js.Value
	instanceBuf js.Value
	instanceCap int

	target     js.Value // persistent offscreen texture
	targetView js.Value

	atlasReady bool
	width      int
	height     int

	frameData  []byte
	frameCount int
	inFrame    bool
	needsClear bool

	inited bool
}

// New creates a web adapter that renders into the canvas element with
// the given id.
func New(table *atlas.Table, canvasID string) *Backend {
	cw, ch := table.CellSize()
	return &Backend{
		table:    table,
		canvasID: canvasID,
		mapper:   input.NewMapper(float32(cw), float32(ch)),
	}
}

// Name returns "web".
func (b *Backend) Name() string { return backend.BackendWeb }

// Init requests the adapter and device, configures the canvas context,
// and builds the render pipeline. It blocks on the WebGPU promises.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inited {
		return nil
	}
	gpu := js.Global().Get("navigator").Get("gpu")
	if gpu.IsUndefined() {
		return backend.ErrBackendNotAvailable
	}

	adapter, err := await(gpu.Call("requestAdapter"))
	if err != nil || adapter.IsNull() {
		return fmt.Errorf("web: no WebGPU adapter: %v", err)
	}
	device, err := await(adapter.Call("requestDevice"))
	if err != nil {
		return fmt.Errorf("web: request device: %v", err)
	}
	b.device = device
	b.queue = device.Get("queue")

	canvas := js.Global().Get("document").Call("getElementById", b.canvasID)
	if canvas.IsNull() {
		return fmt.Errorf("web: canvas element %q not found", b.canvasID)
	}
	b.width = canvas.Get("width").Int()
	b.height = canvas.Get("height").Int()

	b.ctx = canvas.Call("getContext", "webgpu")
	if b.ctx.IsNull() {
		return backend.ErrBackendNotAvailable
	}
	b.ctx.Call("configure", jsObj(map[string]any{
		"device":    device,
		"format":    "rgba8unorm",
		"usage":     texUsageRenderAttachment | texUsageCopyDst,
		"alphaMode": "opaque",
	}))

	if err := b.createPipeline(); err != nil {
		return err
	}
	b.createTarget()
	b.createStaticBuffers()
	b.ensureInstanceCapacity(4096)

	b.needsClear = true
	b.inited = true
	pixel.Logger().Info("web: adapter initialized", "canvas", b.canvasID,
		"width", b.width, "height", b.height)
	return nil
}

// Close drops GPU references. The browser reclaims the resources.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.target.Truthy() {
		b.target.Call("destroy")
	}
	b.device = js.Value{}
	b.queue = js.Value{}
	b.ctx = js.Value{}
	b.inited = false
	b.atlasReady = false
}

// Size returns the canvas size in pixels.
func (b *Backend) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

// UploadAtlas writes the RGBA atlas image to a GPU texture and marks
// the adapter ready.
func (b *Backend) UploadAtlas(rgba []byte, width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inited {
		return backend.ErrNotInitialized
	}
	tex := b.device.Call("createTexture", jsObj(map[string]any{
		"size":   []any{width, height, 1},
		"format": "rgba8unorm",
		"usage":  texUsageTextureBinding | texUsageCopyDst,
	}))

	data := js.Global().Get("Uint8Array").New(len(rgba))
	js.CopyBytesToJS(data, rgba)
	b.queue.Call("writeTexture",
		jsObj(map[string]any{"texture": tex}),
		data,
		jsObj(map[string]any{"bytesPerRow": width * 4, "rowsPerImage": height}),
		[]any{width, height, 1},
	)

	b.bindGroup = b.device.Call("createBindGroup", jsObj(map[string]any{
		"layout": b.pipeline.Call("getBindGroupLayout", 0),
		"entries": []any{
			jsObj(map[string]any{"binding": 0, "resource": jsObj(map[string]any{"buffer": b.uniformBuf})}),
			jsObj(map[string]any{"binding": 1, "resource": tex.Call("createView")}),
		},
	}))
	b.atlasReady = true
	return nil
}

// BeginFrame starts a frame; ErrAtlasNotReady until UploadAtlas ran.
func (b *Backend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inited {
		return backend.ErrNotInitialized
	}
	if !b.atlasReady {
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
		return fmt.Errorf("web: Submit outside BeginFrame/EndFrame")
	}
	b.frameData = cellwire.AppendInstanceData(b.frameData, instances)
	b.frameCount += len(instances)
	return nil
}

// EndFrame draws the accumulated instances into the offscreen target
// and copies it to the canvas.
func (b *Backend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inited {
		return backend.ErrNotInitialized
	}
	if !b.inFrame {
		return fmt.Errorf("web: EndFrame without BeginFrame")
	}
	b.inFrame = false

	if b.frameCount > 0 {
		b.ensureInstanceCapacity(b.frameCount)
		data := js.Global().Get("Uint8Array").New(len(b.frameData))
		js.CopyBytesToJS(data, b.frameData)
		b.queue.Call("writeBuffer", b.instanceBuf, 0, data)
	}

	encoder := b.device.Call("createCommandEncoder")

	loadOp := "load"
	if b.needsClear {
		loadOp = "clear"
	}
	pass := encoder.Call("beginRenderPass", jsObj(map[string]any{
		"colorAttachments": []any{jsObj(map[string]any{
			"view":       b.targetView,
			"loadOp":     loadOp,
			"storeOp":    "store",
			"clearValue": jsObj(map[string]any{"r": 0, "g": 0, "b": 0, "a": 1}),
		})},
	}))
	if b.frameCount > 0 {
		pass.Call("setPipeline", b.pipeline)
		pass.Call("setBindGroup", 0, b.bindGroup)
		pass.Call("setVertexBuffer", 0, b.quadBuf)
		pass.Call("setVertexBuffer", 1, b.instanceBuf)
		pass.Call("setIndexBuffer", b.indexBuf, "uint16")
		pass.Call("drawIndexed", 6, b.frameCount, 0, 0, 0)
	}
	pass.Call("end")

	// The swapchain texture does not persist across presents; copy the
	// offscreen target into it every frame.
	encoder.Call("copyTextureToTexture",
		jsObj(map[string]any{"texture": b.target}),
		jsObj(map[string]any{"texture": b.ctx.Call("getCurrentTexture")}),
		[]any{b.width, b.height, 1},
	)

	b.queue.Call("submit", []any{encoder.Call("finish")})
	b.needsClear = false
	return nil
}

// MapPointer converts a canvas pixel position to cell coordinates.
func (b *Backend) MapPointer(px, py float64) (input.Point, input.Point) {
	return b.mapper.Map(px, py)
}

// createPipeline compiles the cell shader and creates the instanced
// render pipeline. Layout "auto" derives bind group 0 from the shader.
func (b *Backend) createPipeline() error {
	module := b.device.Call("createShaderModule", jsObj(map[string]any{
		"code": cellwire.ShaderSource,
	}))

	instanceAttrs := []any{}
	for i := 0; i < 5; i++ {
		instanceAttrs = append(instanceAttrs, jsObj(map[string]any{
			"format":         "float32x4",
			"offset":         i * 16,
			"shaderLocation": i + 1,
		}))
	}

	b.pipeline = b.device.Call("createRenderPipeline", jsObj(map[string]any{
		"layout": "auto",
		"vertex": jsObj(map[string]any{
			"module":     module,
			"entryPoint": "vs_main",
			"buffers": []any{
				jsObj(map[string]any{
					"arrayStride": cellwire.CornerStride,
					"stepMode":    "vertex",
					"attributes": []any{jsObj(map[string]any{
						"format": "float32x2", "offset": 0, "shaderLocation": 0,
					})},
				}),
				jsObj(map[string]any{
					"arrayStride": cellwire.InstanceStride,
					"stepMode":    "instance",
					"attributes":  instanceAttrs,
				}),
			},
		}),
		"fragment": jsObj(map[string]any{
			"module":     module,
			"entryPoint": "fs_main",
			"targets": []any{jsObj(map[string]any{
				"format": "rgba8unorm",
			})},
		}),
		"primitive": jsObj(map[string]any{"topology": "triangle-list"}),
	}))
	return nil
}

// createTarget allocates the persistent offscreen color texture.
func (b *Backend) createTarget() {
	b.target = b.device.Call("createTexture", jsObj(map[string]any{
		"size":   []any{b.width, b.height, 1},
		"format": "rgba8unorm",
		"usage":  texUsageRenderAttachment | texUsageCopySrc,
	}))
	b.targetView = b.target.Call("createView")
}

// createStaticBuffers uploads the unit quad, its indices, and the
// viewport uniform.
func (b *Backend) createStaticBuffers() {
	corners := cellwire.BuildCornerData()
	b.quadBuf = b.createBuffer(len(corners), bufUsageVertex|bufUsageCopyDst)
	b.writeBuffer(b.quadBuf, corners)

	indices := cellwire.BuildIndexData()
	b.indexBuf = b.createBuffer(len(indices), bufUsageIndex|bufUsageCopyDst)
	b.writeBuffer(b.indexBuf, indices)

	uniform := cellwire.BuildUniformData(b.width, b.height)
	b.uniformBuf = b.createBuffer(len(uniform), bufUsageUniform|bufUsageCopyDst)
	b.writeBuffer(b.uniformBuf, uniform)
}

func (b *Backend) ensureInstanceCapacity(count int) {
	if b.instanceBuf.Truthy() && count <= b.instanceCap {
		return
	}
	newCap := b.instanceCap
	if newCap == 0 {
		newCap = 4096
	}
	for newCap < count {
		newCap *= 2
	}
	if b.instanceBuf.Truthy() {
		b.instanceBuf.Call("destroy")
	}
	b.instanceBuf = b.createBuffer(newCap*cellwire.InstanceStride, bufUsageVertex|bufUsageCopyDst)
	b.instanceCap = newCap
}

func (b *Backend) createBuffer(size, usage int) js.Value {
	return b.device.Call("createBuffer", jsObj(map[string]any{
		"size":  size,
		"usage": usage,
	}))
}

func (b *Backend) writeBuffer(buf js.Value, data []byte) {
	arr := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(arr, data)
	b.queue.Call("writeBuffer", buf, 0, arr)
}

// jsObj converts a Go map to a JS object value.
func jsObj(m map[string]any) js.Value {
	return js.ValueOf(m)
}

// await blocks until a JS promise settles.
func await(promise js.Value) (js.Value, error) {
	done := make(chan struct{})
	var result js.Value
	var rejected js.Value

	onResolve := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) > 0 {
			result = args[0]
		}
		close(done)
		return nil
	})
	defer onResolve.Release()
	onReject := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) > 0 {
			rejected = args[0]
		}
		close(done)
		return nil
	})
	defer onReject.Release()

	promise.Call("then", onResolve, onReject)
	<-done

	if rejected.Truthy() {
		return js.Value{}, fmt.Errorf("promise rejected: %s", js.Global().Get("String").Invoke(rejected).String())
	}
	return result, nil
}
