// Package cellwire holds the GPU wire format shared by the native and
// browser adapters: the WGSL cell shader, the vertex stream layout, and
// the little-endian serializers that fill it. Keeping the format in one
// place guarantees both adapters feed identical bytes to the same
// shader.
package cellwire

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/pixel/scene"
)

// Vertex layout:
//
//	slot 0 (per vertex):   corner (vec2<f32>)                       =  8 bytes
//	slot 1 (per instance): dst, src, fg, bg, extra (5 x vec4<f32>)  = 80 bytes
const (
	CornerStride   = 8
	InstanceStride = 80
)

// UniformSize is the byte size of the cell uniform buffer:
// viewport (vec4<f32>).
const UniformSize = 16

// ShaderSource is the instanced cell shader. Every changed cell is one
// instance of a unit quad: the vertex stage places and optionally
// rotates the quad, the fragment stage fetches the glyph texel and
// blends foreground over background by the texel's alpha. textureLoad
// keeps sampling nearest, so glyph pixels stay crisp at any cell size.
const ShaderSource = `
struct Uniforms {
    viewport: vec4<f32>,
};

@group(0) @binding(0) var<uniform> u: Uniforms;
@group(0) @binding(1) var atlas_tex: texture_2d<f32>;

struct VSIn {
    @location(0) corner: vec2<f32>,
    @location(1) dst: vec4<f32>,
    @location(2) src: vec4<f32>,
    @location(3) fg: vec4<f32>,
    @location(4) bg: vec4<f32>,
    @location(5) extra: vec4<f32>,
};

struct VSOut {
    @builtin(position) pos: vec4<f32>,
    @location(0) uv: vec2<f32>,
    @location(1) fg: vec4<f32>,
    @location(2) bg: vec4<f32>,
};

@vertex
fn vs_main(in: VSIn) -> VSOut {
    var p = in.dst.xy + in.corner * in.dst.zw;

    let rot = in.extra.x;
    if (rot != 0.0) {
        let c = cos(rot);
        let s = sin(rot);
        let d = p - in.extra.yz;
        p = vec2<f32>(d.x * c - d.y * s, d.x * s + d.y * c) + in.extra.yz;
    }

    var out: VSOut;
    out.pos = vec4<f32>(
        p.x / u.viewport.x * 2.0 - 1.0,
        1.0 - p.y / u.viewport.y * 2.0,
        0.0,
        1.0,
    );
    out.uv = in.src.xy + in.corner * in.src.zw;
    out.fg = in.fg;
    out.bg = in.bg;
    return out;
}

@fragment
fn fs_main(in: VSOut) -> @location(0) vec4<f32> {
    let texel = textureLoad(atlas_tex, vec2<i32>(in.uv), 0);
    let glyph = texel * in.fg;
    return mix(in.bg, glyph, texel.a);
}
`

// AppendInstanceData appends render instances to the per-instance
// vertex stream. Colors are premultiplied for the blend state.
func AppendInstanceData(dst []byte, instances []scene.RenderInstance) []byte {
	var scratch [InstanceStride]byte
	for i := range instances {
		inst := &instances[i]
		off := 0
		for _, v := range [4]float32{inst.Dst.X, inst.Dst.Y, inst.Dst.W, inst.Dst.H} {
			binary.LittleEndian.PutUint32(scratch[off:], math.Float32bits(v))
			off += 4
		}
		for _, v := range [4]float32{inst.Atlas.X, inst.Atlas.Y, inst.Atlas.W, inst.Atlas.H} {
			binary.LittleEndian.PutUint32(scratch[off:], math.Float32bits(v))
			off += 4
		}
		fg := inst.Fg.Premultiply()
		for _, v := range [4]float32{fg.R, fg.G, fg.B, fg.A} {
			binary.LittleEndian.PutUint32(scratch[off:], math.Float32bits(v))
			off += 4
		}
		bg := inst.Bg.Premultiply()
		for _, v := range [4]float32{bg.R, bg.G, bg.B, bg.A} {
			binary.LittleEndian.PutUint32(scratch[off:], math.Float32bits(v))
			off += 4
		}
		for _, v := range [4]float32{inst.Rotation, inst.CX, inst.CY, float32(inst.Style)} {
			binary.LittleEndian.PutUint32(scratch[off:], math.Float32bits(v))
			off += 4
		}
		dst = append(dst, scratch[:]...)
	}
	return dst
}

// BuildUniformData serializes the viewport uniform.
func BuildUniformData(width, height int) []byte {
	buf := make([]byte, UniformSize)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(float32(width)))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(height)))
	return buf
}

// BuildCornerData serializes the unit quad corners, clockwise from the
// top-left.
func BuildCornerData() []byte {
	data := make([]byte, 4*CornerStride)
	for i, c := range [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}} {
		binary.LittleEndian.PutUint32(data[i*8:], math.Float32bits(c[0]))
		binary.LittleEndian.PutUint32(data[i*8+4:], math.Float32bits(c[1]))
	}
	return data
}

// BuildIndexData serializes the quad indices, two triangles with the
// pattern 0,1,2, 2,3,0.
func BuildIndexData() []byte {
	data := make([]byte, 6*2)
	for i, idx := range []uint16{0, 1, 2, 2, 3, 0} {
		binary.LittleEndian.PutUint16(data[i*2:], idx)
	}
	return data
}
