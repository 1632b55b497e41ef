//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/pixel/backend/internal/cellwire"
)

// cellPipeline owns the GPU objects shared across frames: shader, bind
// group layout, render pipeline, and the static unit-quad geometry.
type cellPipeline struct {
	device hal.Device
	queue  hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline

	quadBuf  hal.Buffer
	indexBuf hal.Buffer
}

// newCellPipeline compiles the shader and creates the render pipeline
// plus the shared quad geometry.
func newCellPipeline(device hal.Device, queue hal.Queue) (*cellPipeline, error) {
	p := &cellPipeline{device: device, queue: queue}

	shader, err := compileShader(device, "cell_shader", cellShaderSource)
	if err != nil {
		return nil, err
	}
	p.shader = shader

	// Bind group layout:
	//   Binding 0: Uniforms (uniform buffer, vertex)
	//   Binding 1: atlas texture (texture_2d, fragment)
	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "cell_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
		},
	})
	if err != nil {
		p.destroy()
		return nil, fmt.Errorf("wgpu: create bind layout: %w", err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "cell_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		p.destroy()
		return nil, fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "cell_pipeline",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    cellVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatRGBA8Unorm,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		p.destroy()
		return nil, fmt.Errorf("wgpu: create render pipeline: %w", err)
	}
	p.pipeline = pipeline

	if err := p.createQuadGeometry(); err != nil {
		p.destroy()
		return nil, err
	}
	return p, nil
}

// createQuadGeometry uploads the static unit quad and its index buffer.
func (p *cellPipeline) createQuadGeometry() error {
	quadBuf, err := p.createAndUploadBuffer("cell_quad", cellwire.BuildCornerData(),
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	p.quadBuf = quadBuf

	indexBuf, err := p.createAndUploadBuffer("cell_index", cellwire.BuildIndexData(),
		gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	p.indexBuf = indexBuf
	return nil
}

// createAndUploadBuffer creates a GPU buffer and uploads data.
func (p *cellPipeline) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %s: %w", label, err)
	}
	p.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// destroy releases pipeline resources in reverse creation order.
func (p *cellPipeline) destroy() {
	if p.device == nil {
		return
	}
	if p.indexBuf != nil {
		p.device.DestroyBuffer(p.indexBuf)
		p.indexBuf = nil
	}
	if p.quadBuf != nil {
		p.device.DestroyBuffer(p.quadBuf)
		p.quadBuf = nil
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		p.device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

// cellVertexLayout returns the two vertex buffer layouts: the shared
// unit quad and the per-instance cell attributes. Matches VSIn in the
// cell shader.
func cellVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: cellwire.CornerStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // corner
			},
		},
		{
			ArrayStride: cellwire.InstanceStride,
			StepMode:    gputypes.VertexStepModeInstance,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 1},  // dst
				{Format: gputypes.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2}, // src
				{Format: gputypes.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 3}, // fg
				{Format: gputypes.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 4}, // bg
				{Format: gputypes.VertexFormatFloat32x4, Offset: 64, ShaderLocation: 5}, // rot, cx, cy, style
			},
		},
	}
}
