package mandel

import "sort"

// Region is a named point of interest in the complex plane, given as a
// center and the plane width it should be framed with.
type Region struct {
	Name   string
	Center complex128
	Span   float64 // plane units covered by the frame width
}

// Viewport frames the region at the given pixel size.
func (r Region) Viewport(width, height int) Viewport {
	return Viewport{
		Center: r.Center,
		Scale:  float64(width) / r.Span,
		Width:  width,
		Height: height,
	}
}

// Well-known regions of the set, usable as capture or startup presets.
var regions = map[string]Region{
	"overview": {
		Name:   "overview",
		Center: complex(-0.5, 0),
		Span:   3.0,
	},
	// Dense filaments and repeating seahorse curls.
	"seahorse-valley": {
		Name:   "seahorse-valley",
		Center: complex(-0.75, 0.1),
		Span:   0.1,
	},
	// Large bulb with trunk-like tendrils.
	"elephant-valley": {
		Name:   "elephant-valley",
		Center: complex(-1.8, -0.06),
		Span:   0.1,
	},
	// Small Mandelbrot copy with tight spiral arms.
	"spiral-minibrot": {
		Name:   "spiral-minibrot",
		Center: complex(-0.74275, 0.13175),
		Span:   0.0015,
	},
	// Threefold symmetric spiral structure.
	"triple-spiral": {
		Name:   "triple-spiral",
		Center: complex(-0.7465, 0.0965),
		Span:   0.003,
	},
	// Deep, highly detailed spiral filaments.
	"dragon-valley": {
		Name:   "dragon-valley",
		Center: complex(-0.7375, 0.1825),
		Span:   0.005,
	},
	// Self-similar copy inside a spiral arm.
	"mini-spiral-minibrot": {
		Name:   "mini-spiral-minibrot",
		Center: complex(-1.73825, -0.02275),
		Span:   0.0015,
	},
}

// RegionByName looks up a preset region.
func RegionByName(name string) (Region, bool) {
	r, ok := regions[name]
	return r, ok
}

// RegionNames lists the preset region names, sorted.
func RegionNames() []string {
	names := make([]string, 0, len(regions))
	for name := range regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
