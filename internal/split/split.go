// Package split implements compensated two-word arithmetic.
//
// A value is represented as an unevaluated sum hi+lo of two ordinary
// floating-point words, where hi carries the leading bits and lo the
// rounding error, |lo| <= ulp(hi). All operations use error-free
// transformations (two-sum, FMA two-product), so a pair behaves like a
// scalar with roughly twice the mantissa width of its word type.
//
// Two widths are provided: Single (two float32 words, ~48 mantissa
// bits) and Double (two float64 words, ~106 mantissa bits). Both are
// immutable value types with no shared state, safe for unbounded
// per-pixel parallelism.
package split

import "math"

// Single is an extended-precision value stored as two float32 words.
type Single struct {
	Hi, Lo float32
}

// SingleFromFloat64 splits a float64 into a Single. The reconstruction
// Hi+Lo recovers d to roughly 48 bits, which is the most a float32
// pair can carry.
func SingleFromFloat64(d float64) Single {
	hi := float32(d)
	lo := float32(d - float64(hi))
	return Single{Hi: hi, Lo: lo}
}

// Float64 returns the reconstructed value hi+lo.
func (a Single) Float64() float64 {
	return float64(a.Hi) + float64(a.Lo)
}

// quickSum32 renormalizes an unevaluated sum where |e| is already
// small relative to s.
func quickSum32(s, e float32) Single {
	hi := s + e
	return Single{Hi: hi, Lo: e - (hi - s)}
}

// Add returns a+b.
func (a Single) Add(b Single) Single {
	// Knuth two-sum on the high words.
	s := a.Hi + b.Hi
	bv := s - a.Hi
	e := (a.Hi - (s - bv)) + (b.Hi - bv)
	e += a.Lo + b.Lo
	return quickSum32(s, e)
}

// Sub returns a-b.
func (a Single) Sub(b Single) Single {
	return a.Add(Single{Hi: -b.Hi, Lo: -b.Lo})
}

// Mul returns a*b. The high product is computed exactly in float64
// (a float32 by float32 product always fits a float64 mantissa), which
// stands in for a hardware FMA at this width.
func (a Single) Mul(b Single) Single {
	p := float64(a.Hi) * float64(b.Hi) // exact
	hi := float32(p)
	e := float32(p - float64(hi))
	e += a.Hi*b.Lo + a.Lo*b.Hi
	return quickSum32(hi, e)
}

// MulScalar returns a*s for an ordinary float32 scalar.
func (a Single) MulScalar(s float32) Single {
	return a.Mul(Single{Hi: s})
}

// Sqr returns a*a.
func (a Single) Sqr() Single {
	return a.Mul(a)
}

// Neg returns -a.
func (a Single) Neg() Single {
	return Single{Hi: -a.Hi, Lo: -a.Lo}
}

// Double is an extended-precision value stored as two float64 words.
type Double struct {
	Hi, Lo float64
}

// DoubleFromFloat64 lifts a float64 into a Double exactly.
func DoubleFromFloat64(d float64) Double {
	return Double{Hi: d}
}

// Float64 returns the reconstructed value hi+lo.
func (a Double) Float64() float64 {
	return a.Hi + a.Lo
}

// twoSum is the branch-free Knuth two-sum: s+e == x+y exactly.
func twoSum(x, y float64) (s, e float64) {
	s = x + y
	b := s - x
	e = (x - (s - b)) + (y - b)
	return s, e
}

// twoProd is the FMA two-product: p+e == x*y exactly.
func twoProd(x, y float64) (p, e float64) {
	p = x * y
	e = math.FMA(x, y, -p)
	return p, e
}

func quickSum64(s, e float64) Double {
	hi := s + e
	return Double{Hi: hi, Lo: e - (hi - s)}
}

// Add returns a+b.
func (a Double) Add(b Double) Double {
	s, e := twoSum(a.Hi, b.Hi)
	e += a.Lo + b.Lo
	return quickSum64(s, e)
}

// Sub returns a-b.
func (a Double) Sub(b Double) Double {
	return a.Add(Double{Hi: -b.Hi, Lo: -b.Lo})
}

// Mul returns a*b.
func (a Double) Mul(b Double) Double {
	p, e := twoProd(a.Hi, b.Hi)
	e += a.Hi*b.Lo + a.Lo*b.Hi
	return quickSum64(p, e)
}

// MulScalar returns a*s for an ordinary float64 scalar.
func (a Double) MulScalar(s float64) Double {
	p, e := twoProd(a.Hi, s)
	e += a.Lo * s
	return quickSum64(p, e)
}

// Sqr returns a*a.
func (a Double) Sqr() Double {
	p, e := twoProd(a.Hi, a.Hi)
	e += 2 * a.Hi * a.Lo
	return quickSum64(p, e)
}

// Neg returns -a.
func (a Double) Neg() Double {
	return Double{Hi: -a.Hi, Lo: -a.Lo}
}
