package mandel

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/gogpu/mandel/internal/cache"
)

// Stop is a color at a position in a palette gradient.
type Stop struct {
	Offset float64 // position in [0, 1]
	Color  RGBA
}

// Palette maps a shaded escape value t in [0, 1] to a color.
// Implementations are immutable and safe for concurrent sampling.
type Palette interface {
	At(t float64) RGBA
}

// PaletteID names a built-in procedural palette.
type PaletteID int

const (
	// PaletteSpectrum is a full HSV hue sweep.
	PaletteSpectrum PaletteID = iota

	// PaletteFire ramps black through red and orange to white.
	PaletteFire

	// PaletteIce ramps black through blue to white.
	PaletteIce

	// PaletteOcean is the classic deep-blue/gold gradient.
	PaletteOcean

	// PaletteGrayscale is a plain luminance ramp.
	PaletteGrayscale

	numPalettes
)

// String returns the palette name.
func (id PaletteID) String() string {
	switch id {
	case PaletteSpectrum:
		return "spectrum"
	case PaletteFire:
		return "fire"
	case PaletteIce:
		return "ice"
	case PaletteOcean:
		return "ocean"
	case PaletteGrayscale:
		return "grayscale"
	default:
		return "unknown"
	}
}

// PaletteIDByName resolves a palette name, for flag parsing.
func PaletteIDByName(name string) (PaletteID, bool) {
	for id := PaletteID(0); id < numPalettes; id++ {
		if id.String() == name {
			return id, true
		}
	}
	return 0, false
}

// PaletteNames lists the built-in palette names in order.
func PaletteNames() []string {
	names := make([]string, numPalettes)
	for id := PaletteID(0); id < numPalettes; id++ {
		names[id] = id.String()
	}
	return names
}

// proceduralStops holds the fixed analytic stop lists of the built-in
// palettes. The spectrum list walks the HSV hue circle at full
// saturation; the others are hand-placed ramps.
var proceduralStops = [numPalettes][]Stop{
	PaletteSpectrum: {
		{0, RGB(1, 0, 0)},
		{1.0 / 6, RGB(1, 1, 0)},
		{2.0 / 6, RGB(0, 1, 0)},
		{3.0 / 6, RGB(0, 1, 1)},
		{4.0 / 6, RGB(0, 0, 1)},
		{5.0 / 6, RGB(1, 0, 1)},
		{1, RGB(1, 0, 0)},
	},
	PaletteFire: {
		{0, RGB(0, 0, 0)},
		{0.25, RGB(0.5, 0, 0)},
		{0.55, RGB(1, 0.25, 0)},
		{0.8, RGB(1, 0.75, 0.1)},
		{1, RGB(1, 1, 0.9)},
	},
	PaletteIce: {
		{0, RGB(0, 0, 0.05)},
		{0.3, RGB(0, 0.1, 0.45)},
		{0.6, RGB(0.1, 0.45, 0.85)},
		{0.85, RGB(0.6, 0.85, 1)},
		{1, RGB(1, 1, 1)},
	},
	PaletteOcean: {
		{0, RGB(0, 0.03, 0.39)},
		{0.16, RGB(0.13, 0.42, 0.8)},
		{0.42, RGB(0.93, 1, 1)},
		{0.64, RGB(1, 0.67, 0)},
		{0.86, RGB(0, 0.01, 0)},
		{1, RGB(0, 0.03, 0.39)},
	},
	PaletteGrayscale: {
		{0, RGB(0, 0, 0)},
		{1, RGB(1, 1, 1)},
	},
}

// ProceduralPalette returns a built-in palette evaluated analytically
// from its stop list. Unknown ids yield the first palette.
func ProceduralPalette(id PaletteID) Palette {
	if id < 0 || id >= numPalettes {
		id = 0
	}
	return stopPalette{stops: proceduralStops[id]}
}

// stopPalette interpolates piecewise-linearly over a stop list, in
// the order given. Stops are rendered as given: no sorting, no
// deduplication, no rejection. The first segment whose range contains
// t wins; t below the first stop clamps to it, past the last stop
// clamps to that.
type stopPalette struct {
	stops []Stop
}

func (p stopPalette) At(t float64) RGBA {
	n := len(p.stops)
	if n == 0 {
		return Black
	}
	if n == 1 {
		return p.stops[0].Color
	}
	t = clamp01(t)

	if t <= p.stops[0].Offset {
		return p.stops[0].Color
	}
	for i := 0; i+1 < n; i++ {
		a, b := p.stops[i], p.stops[i+1]
		if t < math.Min(a.Offset, b.Offset) || t > math.Max(a.Offset, b.Offset) {
			continue
		}
		span := b.Offset - a.Offset
		if span == 0 {
			return a.Color
		}
		return lerpRGBA(a.Color, b.Color, (t-a.Offset)/span)
	}
	return p.stops[n-1].Color
}

// lutPalette samples a rasterized 1×N color strip with linear
// interpolation and edge clamping.
type lutPalette struct {
	strip []RGBA
}

func (p lutPalette) At(t float64) RGBA {
	n := len(p.strip)
	if n == 0 {
		return Black
	}
	if n == 1 {
		return p.strip[0]
	}
	pos := clamp01(t) * float64(n-1)
	i := int(pos)
	if i >= n-1 {
		return p.strip[n-1]
	}
	return lerpRGBA(p.strip[i], p.strip[i+1], pos-float64(i))
}

// lutCache memoizes rasterized strips by stop-list identity, so
// re-selecting the same imported gradient does not rebuild it.
var lutCache = cache.NewLRU[uint64, []RGBA](32)

// hashStops computes the identity of a stop list.
func hashStops(stops []Stop, size int) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(size))
	_, _ = h.Write(buf[:])
	for _, s := range stops {
		for _, f := range [5]float64{s.Offset, s.Color.R, s.Color.G, s.Color.B, s.Color.A} {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
			_, _ = h.Write(buf[:])
		}
	}
	return h.Sum64()
}

// newLUTPalette rasterizes an arbitrary stop list to a 1×size strip,
// in effect a linear gradient fill, and returns a palette sampling it.
// Strips
// are cached by stop-list identity. Returns nil for an empty stop
// list; the engine substitutes the first procedural palette and
// raises an advisory in that case.
func newLUTPalette(stops []Stop, size int) Palette {
	if len(stops) == 0 {
		return nil
	}
	if size < 2 {
		size = 2
	}
	key := hashStops(stops, size)
	strip := lutCache.GetOrCreate(key, func() []RGBA {
		src := stopPalette{stops: stops}
		out := make([]RGBA, size)
		for i := range out {
			out[i] = src.At(float64(i) / float64(size-1))
		}
		return out
	})
	return lutPalette{strip: strip}
}
