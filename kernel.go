package mandel

import (
	"math"

	"github.com/gogpu/mandel/internal/split"
)

// escapeRadiusSq is the squared escape bound |z|² > 4.
const escapeRadiusSq = 4.0

// inMainCardioid reports whether c lies inside the main cardioid,
// where the orbit never escapes: q·(q+Re(c)−¼) < ¼·Im(c)² with
// q = (Re(c)−¼)² + Im(c)².
func inMainCardioid(re, im float64) bool {
	x := re - 0.25
	q := x*x + im*im
	return q*(q+x) < 0.25*im*im
}

// inPeriod2Bulb reports whether c lies inside the period-2 bulb:
// (Re(c)+1)² + Im(c)² < 1/16.
func inPeriod2Bulb(re, im float64) bool {
	x := re + 1
	return x*x+im*im < 0.0625
}

// interior reports whether c is in a closed-form interior region and
// can be classified as non-escaping without iterating.
func interior(re, im float64) bool {
	return inMainCardioid(re, im) || inPeriod2Bulb(re, im)
}

// iterateDouble runs the escape recurrence z ← z² + c in float64.
// It returns the first n with |z_n|² > 4 together with that squared
// magnitude, or (maxIter, 0, false) if the cap is reached.
func iterateDouble(cr, ci float64, maxIter int) (n int, zz float64, escaped bool) {
	if interior(cr, ci) {
		return maxIter, 0, false
	}
	var zr, zi float64
	for n := 0; n < maxIter; n++ {
		zr2, zi2 := zr*zr, zi*zi
		if zr2+zi2 > escapeRadiusSq {
			return n, zr2 + zi2, true
		}
		zi = 2*zr*zi + ci
		zr = zr2 - zi2 + cr
	}
	return maxIter, 0, false
}

// iterateFloat is the float32 rendition of iterateDouble.
func iterateFloat(cr, ci float32, maxIter int) (n int, zz float64, escaped bool) {
	if interior(float64(cr), float64(ci)) {
		return maxIter, 0, false
	}
	var zr, zi float32
	for n := 0; n < maxIter; n++ {
		zr2, zi2 := zr*zr, zi*zi
		if zr2+zi2 > escapeRadiusSq {
			return n, float64(zr2 + zi2), true
		}
		zi = 2*zr*zi + ci
		zr = zr2 - zi2 + cr
	}
	return maxIter, 0, false
}

// iterateSingle runs the recurrence on double-single arithmetic,
// substituting compensated add/mul for the float ops.
func iterateSingle(cr, ci split.Single, maxIter int) (n int, zz float64, escaped bool) {
	if interior(cr.Float64(), ci.Float64()) {
		return maxIter, 0, false
	}
	var zr, zi split.Single
	for n := 0; n < maxIter; n++ {
		zr2 := zr.Sqr()
		zi2 := zi.Sqr()
		m := zr2.Add(zi2)
		if m.Hi > escapeRadiusSq {
			return n, m.Float64(), true
		}
		zi = zr.Mul(zi).MulScalar(2).Add(ci)
		zr = zr2.Sub(zi2).Add(cr)
	}
	return maxIter, 0, false
}

// iterateDoubleDouble runs the recurrence on double-double arithmetic.
func iterateDoubleDouble(cr, ci split.Double, maxIter int) (n int, zz float64, escaped bool) {
	if interior(cr.Float64(), ci.Float64()) {
		return maxIter, 0, false
	}
	var zr, zi split.Double
	for n := 0; n < maxIter; n++ {
		zr2 := zr.Sqr()
		zi2 := zi.Sqr()
		m := zr2.Add(zi2)
		if m.Hi > escapeRadiusSq {
			return n, m.Float64(), true
		}
		zi = zr.Mul(zi).MulScalar(2).Add(ci)
		zr = zr2.Sub(zi2).Add(cr)
	}
	return maxIter, 0, false
}

// smoothIter converts a discrete escape count and the squared escape
// magnitude into a continuous iteration value:
// ν = log(log|z| / log 2) / log 2, μ = n + 1 − clamp(ν, 0, 1).
func smoothIter(n int, zz float64) float64 {
	logMag := 0.5 * math.Log(zz) // log|z|
	nu := math.Log(logMag/math.Ln2) / math.Ln2
	return float64(n) + 1 - clamp01(nu)
}

// shade maps a continuous iteration value to a palette position in
// [0, 1], applying the edge-clip rescale and contrast shaping.
// Contrast 1 is neutral; the shaping is global and independent of the
// active palette.
func shade(mu float64, maxIter int, contrast float64, tn *Tuning) float64 {
	t := clamp01(mu / float64(maxIter))
	t = clamp01((t - tn.SmoothOffset) / tn.SmoothScale)
	if contrast != 1 && contrast > 0 {
		t = math.Pow(t, 1/contrast)
	}
	return t
}

// samplePoint evaluates one plane sample at a (possibly fractional)
// global pixel coordinate, honoring the snapshot's precision tier and
// perturbation flag. It returns the palette position and whether the
// point escaped; non-escaping points render solid black.
func samplePoint(p *Params, x, y float64) (t float64, escaped bool) {
	var n int
	var zz float64

	switch {
	case p.Perturb && p.Orbit != nil:
		c := p.Mapping.At(x, y)
		n, zz, escaped = iteratePerturbed(c, p.Orbit, p.MaxIter, &p.Tuning)
	case p.Tier == TierDoubleSingle:
		cr, ci := p.Mapping.atSingle(x, y)
		n, zz, escaped = iterateSingle(cr, ci, p.MaxIter)
	case p.Tier == TierDoubleDouble:
		cr, ci := p.Mapping.atDouble(x, y)
		n, zz, escaped = iterateDoubleDouble(cr, ci, p.MaxIter)
	default:
		c := p.Mapping.At(x, y)
		n, zz, escaped = iterateFloat(float32(real(c)), float32(imag(c)), p.MaxIter)
	}

	if !escaped {
		return 0, false
	}
	return shade(smoothIter(n, zz), p.MaxIter, p.Contrast, &p.Tuning), true
}

// sampleGrids holds the sub-pixel offset grids for the supported
// supersample counts. Offsets are centered on the pixel; the
// single-sample grid is the pixel point itself.
var sampleGrids = map[int][][2]float64{
	1:  makeSampleGrid(1),
	4:  makeSampleGrid(2),
	9:  makeSampleGrid(3),
	16: makeSampleGrid(4),
}

func makeSampleGrid(factor int) [][2]float64 {
	g := make([][2]float64, 0, factor*factor)
	for j := 0; j < factor; j++ {
		for i := 0; i < factor; i++ {
			g = append(g, [2]float64{
				(float64(i)+0.5)/float64(factor) - 0.5,
				(float64(j)+0.5)/float64(factor) - 0.5,
			})
		}
	}
	return g
}

// sampleOffsets returns the sub-pixel grid for a supersample count,
// falling back to single-sample for unsupported counts.
func sampleOffsets(samples int) [][2]float64 {
	if g, ok := sampleGrids[samples]; ok {
		return g
	}
	return sampleGrids[1]
}

// renderPixel evaluates all subsamples of a global pixel and averages
// them. Non-escaping samples contribute black to the average rather
// than being skipped, so interior-adjacent pixels darken correctly.
func renderPixel(p *Params, gx, gy int) RGBA {
	offsets := sampleOffsets(p.Samples)
	if len(offsets) == 1 {
		t, escaped := samplePoint(p, float64(gx), float64(gy))
		if !escaped {
			return Black
		}
		return p.Palette.At(t)
	}

	var r, g, b float64
	for _, off := range offsets {
		t, escaped := samplePoint(p, float64(gx)+off[0], float64(gy)+off[1])
		if !escaped {
			continue // black contributes zero to each channel
		}
		c := p.Palette.At(t)
		r += c.R
		g += c.G
		b += c.B
	}
	inv := 1 / float64(len(offsets))
	return RGBA{R: r * inv, G: g * inv, B: b * inv, A: 1}
}
