// Package mandel is an escape-time fractal compute engine for the
// Mandelbrot set, built for interactive deep-zoom exploration.
//
// # Overview
//
// mandel renders smooth-colored escape-time images on the CPU by
// default and through a pluggable accelerator seam when one is
// registered. Deep zooms past the reach of float64 pixel spacing are
// handled by split-precision arithmetic (float32 and float64 pairs)
// and by perturbation from a high-precision reference orbit.
//
// # Quick Start
//
//	import "github.com/gogpu/mandel"
//
//	eng, err := mandel.New(800, 600)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer eng.Close()
//
//	eng.SetViewport(complex(-0.75, 0.1), 4000, 800, 600, 1000)
//	pix, err := eng.RenderFrame()
//	if err != nil {
//		log.Fatal(err)
//	}
//	pix.SavePNG("mandel.png")
//
// # Interactive Use
//
// A viewer drives the engine through SetViewport on every gesture step
// and brackets gestures with SetInteractive. While interactive, frames
// render with a cheaper iteration cap; when the gesture ends the
// engine renders one fast pass and requests exactly one refined pass
// through the OnRedrawNeeded callback. Supersampling (1, 4, 9 or 16
// samples per pixel) adapts to the zoom level with hysteresis so the
// quality tier does not flicker near thresholds.
//
// # Precision
//
// The precision tier (float32, double-single, double-double) is chosen
// from the zoom level and can be pinned with SetPrecisionOverride.
// SetPerturbation enables delta iteration against a reference orbit,
// keeping per-pixel work in ordinary float64 at depths where direct
// iteration breaks down.
//
// # Capture
//
// RequestCapture renders an offline high-quality image tile by tile on
// a background goroutine, at maximum precision and supersampling,
// bit-identical to a single-pass render of the same frame.
//
// # Architecture
//
// The library is organized into:
//   - Public API: Engine, Params, Viewport, Palette, Pixmap
//   - Internal: split (paired-float arithmetic), tiles (capture
//     partitioning), parallel (worker pool), cache (palette LUTs)
//   - Acceleration: backend/wgpu (optional, registered via
//     RegisterAccelerator)
package mandel
