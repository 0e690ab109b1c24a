package mandel

import (
	"github.com/gogpu/mandel/internal/split"
)

// Viewport describes the visible slice of the complex plane.
//
// Scale is the zoom factor in pixels per plane unit; larger is deeper.
// The plane slice is isotropic: both axes use the same step, so a wide
// viewport shows a wider slice rather than a stretched one.
type Viewport struct {
	Center complex128
	Scale  float64
	Width  int
	Height int
}

// valid reports whether the viewport can be mapped: finite center,
// finite positive scale, and at least one pixel on each axis.
func (v Viewport) valid() bool {
	return isFinite(real(v.Center)) && isFinite(imag(v.Center)) &&
		isFinite(v.Scale) && v.Scale > 0 &&
		v.Width >= 1 && v.Height >= 1
}

// Mapping is the derived pixel-to-plane transform of a Viewport,
// recomputed on every viewport push. Alongside the double-precision
// origin and step it carries their split-precision forms, so each
// precision tier reads its own representation without re-deriving it
// per pixel.
type Mapping struct {
	OriginX, OriginY float64
	Step             float64 // 1/scale, isotropic
	Width, Height    int

	// Double-single (two float32 words) forms.
	SOriginX, SOriginY, SStep split.Single

	// Double-double (two float64 words) forms.
	DOriginX, DOriginY, DStep split.Double
}

// Mapping derives the pixel transform for the viewport. The origin is
// the plane point of pixel (0, 0); all pixel coordinates are global
// image coordinates, so a tile rendered at an offset evaluates exactly
// the same plane points as a single-pass render of the whole image.
func (v Viewport) Mapping() Mapping {
	step := 1 / v.Scale
	ox := real(v.Center) - 0.5*float64(v.Width)*step
	oy := imag(v.Center) - 0.5*float64(v.Height)*step

	return Mapping{
		OriginX: ox,
		OriginY: oy,
		Step:    step,
		Width:   v.Width,
		Height:  v.Height,

		SOriginX: split.SingleFromFloat64(ox),
		SOriginY: split.SingleFromFloat64(oy),
		SStep:    split.SingleFromFloat64(step),

		DOriginX: split.DoubleFromFloat64(ox),
		DOriginY: split.DoubleFromFloat64(oy),
		DStep:    split.DoubleFromFloat64(step),
	}
}

// At maps a (possibly fractional) pixel coordinate to its plane point
// at double precision.
func (m *Mapping) At(x, y float64) complex128 {
	return complex(m.OriginX+x*m.Step, m.OriginY+y*m.Step)
}

// PixelOf inverts At, recovering the pixel coordinate of a plane
// point. Round-trip error is below half a pixel for any viewport the
// double tier can represent.
func (m *Mapping) PixelOf(c complex128) (x, y float64) {
	return (real(c) - m.OriginX) / m.Step, (imag(c) - m.OriginY) / m.Step
}

// atSingle maps a pixel coordinate using double-single arithmetic.
// The per-pixel offset x·step is formed in float64, which is exact to
// well past the ~48 bits a float32 pair carries, then split.
func (m *Mapping) atSingle(x, y float64) (re, im split.Single) {
	re = m.SOriginX.Add(split.SingleFromFloat64(x * m.Step))
	im = m.SOriginY.Add(split.SingleFromFloat64(y * m.Step))
	return re, im
}

// atDouble maps a pixel coordinate using double-double arithmetic.
func (m *Mapping) atDouble(x, y float64) (re, im split.Double) {
	re = m.DOriginX.Add(m.DStep.MulScalar(x))
	im = m.DOriginY.Add(m.DStep.MulScalar(y))
	return re, im
}
