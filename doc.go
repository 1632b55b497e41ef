// Package pixel provides a character-cell rendering engine for Go.
//
// # Overview
//
// pixel models a screen as a grid of styled glyph cells organized into
// layered sprites, and presents the same logical scene through three
// output backends: a text-mode terminal, a native GPU surface, and a
// browser GPU surface. Every backend shares one symbol atlas texture and
// consumes the same per-frame diff, so a scene with thousands of sprites
// still costs one terminal flush or one instanced draw call per frame.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/pixel/atlas"
//	    "github.com/gogpu/pixel/backend"
//	    "github.com/gogpu/pixel/scene"
//	    _ "github.com/gogpu/pixel/backend/term" // register terminal backend
//	)
//
//	table := atlas.DefaultTable()
//	res := atlas.NewResolver(table)
//	sc := scene.New()
//	layer := sc.AddLayer("main", 0)
//	sp := layer.NewSprite("hero", 10, 5)
//	sp.Buffer().SetString(0, 0, "hello", res, pixel.White, pixel.Black, 0)
//
//	ad := backend.MustDefault()
//	gen := scene.NewGenerator(table, scene.GeneratorConfig{})
//	// per frame:
//	//   instances := gen.Generate(sc)
//	//   ad.BeginFrame(); ad.Submit(instances); ad.EndFrame()
//
// # Architecture
//
// The library is organized into:
//   - Root package: shared value types (Color, Style, Rect) and logging
//   - atlas: symbol addressing, region table, private-use encoding
//   - grid: Cell and Buffer with shadow-copy diffing
//   - scene: Sprite/Layer/Scene tree and the render-instance generator
//   - backend: the adapter contract plus term, wgpu, and web backends
//   - input: pointer to cell-grid coordinate mapping
//   - asset: asynchronous atlas image loading
package pixel
