//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// atlasTexture holds the symbol atlas on the GPU. The texture is bound
// read-only; uploads replace the whole image, which happens once at
// startup and again only when the atlas is hot-swapped.
type atlasTexture struct {
	device hal.Device
	queue  hal.Queue

	tex    hal.Texture
	view   hal.TextureView
	width  uint32
	height uint32
}

// upload creates the texture on first use and writes the RGBA pixels.
// A size change recreates the texture.
func (a *atlasTexture) upload(rgba []byte, width, height int) error {
	w, h := uint32(width), uint32(height)
	if len(rgba) < int(w)*int(h)*4 {
		return fmt.Errorf("wgpu: atlas pixel data too short: %d bytes for %dx%d", len(rgba), w, h)
	}

	if a.tex != nil && (a.width != w || a.height != h) {
		a.destroy()
	}
	if a.tex == nil {
		tex, err := a.device.CreateTexture(&hal.TextureDescriptor{
			Label:         "cell_atlas",
			Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        gputypes.TextureFormatRGBA8Unorm,
			Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("wgpu: create atlas texture: %w", err)
		}
		a.tex = tex

		view, err := a.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
			Label:         "cell_atlas_view",
			Format:        gputypes.TextureFormatRGBA8Unorm,
			Dimension:     gputypes.TextureViewDimension2D,
			Aspect:        gputypes.TextureAspectAll,
			MipLevelCount: 1,
		})
		if err != nil {
			a.device.DestroyTexture(a.tex)
			a.tex = nil
			return fmt.Errorf("wgpu: create atlas view: %w", err)
		}
		a.view = view
		a.width, a.height = w, h
	}

	a.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: a.tex, MipLevel: 0},
		rgba[:int(w)*int(h)*4],
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	return nil
}

func (a *atlasTexture) ready() bool { return a.view != nil }

func (a *atlasTexture) destroy() {
	if a.view != nil {
		a.device.DestroyTextureView(a.view)
		a.view = nil
	}
	if a.tex != nil {
		a.device.DestroyTexture(a.tex)
		a.tex = nil
	}
	a.width, a.height = 0, 0
}

// renderTarget is the offscreen color attachment frames draw into. It
// persists between frames so diff-only frames repaint just the changed
// cells; readback copies it out for presentation or tests.
type renderTarget struct {
	device hal.Device

	tex    hal.Texture
	view   hal.TextureView
	width  uint32
	height uint32
}

// resize recreates the target at the given pixel size.
func (t *renderTarget) resize(width, height int) error {
	w, h := uint32(width), uint32(height)
	if t.tex != nil && t.width == w && t.height == h {
		return nil
	}
	t.destroy()

	tex, err := t.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "cell_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create render target: %w", err)
	}
	t.tex = tex

	view, err := t.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "cell_target_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		t.device.DestroyTexture(t.tex)
		t.tex = nil
		return fmt.Errorf("wgpu: create target view: %w", err)
	}
	t.view = view
	t.width, t.height = w, h
	return nil
}

func (t *renderTarget) destroy() {
	if t.view != nil {
		t.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		t.device.DestroyTexture(t.tex)
		t.tex = nil
	}
	t.width, t.height = 0, 0
}
