package mandel

import "math"

// orbitBailoutSq stops the reference orbit build once the reference
// itself has clearly escaped; entries past this point would overflow
// to infinities and poison the delta recursion.
const orbitBailoutSq = 1e10

// ReferenceOrbit is the iterate sequence of a single reference point,
// computed on the host at double precision. Z[k] holds z_{k+1} of the
// recurrence z₀ = 0, z_{k+1} = z_k² + C, so Z[0] == C.
//
// An orbit is immutable once built; snapshots share it by pointer.
type ReferenceOrbit struct {
	C complex128
	Z []complex128
}

// BuildOrbit iterates the reference point for up to maxIter steps.
// The orbit is truncated early if the reference escapes; per-pixel
// iteration past the truncation point continues with direct
// arithmetic.
func BuildOrbit(c complex128, maxIter int) *ReferenceOrbit {
	if maxIter < 0 {
		maxIter = 0
	}
	orbit := &ReferenceOrbit{C: c, Z: make([]complex128, 0, maxIter)}
	z := complex(0, 0)
	for k := 0; k < maxIter; k++ {
		z = z*z + c
		orbit.Z = append(orbit.Z, z)
		if abs2(z) > orbitBailoutSq {
			break
		}
	}
	return orbit
}

// Len returns the usable orbit length.
func (o *ReferenceOrbit) Len() int { return len(o.Z) }

func abs2(z complex128) float64 {
	return real(z)*real(z) + imag(z)*imag(z)
}

// iteratePerturbed evaluates the escape recurrence for c as a delta
// from a reference orbit: δ_{n+1} = 2·z_n·δ_n + δ_n² + δc, with
// z_n ≈ orbit_n + δ_n and δ_1 = δc.
//
// The approximation is abandoned when |δ| exceeds the absolute bound,
// exceeds the relative bound against |orbit_n|, trips the periodic
// safety clamp, or the orbit is exhausted; direct iteration then
// resumes from the last reconstructed z for the remaining steps. For
// points near the reference and inside the guards, the result agrees
// with direct double iteration to within one step.
func iteratePerturbed(c complex128, ref *ReferenceOrbit, maxIter int, tn *Tuning) (n int, zz float64, escaped bool) {
	if interior(real(c), imag(c)) {
		return maxIter, 0, false
	}
	if ref == nil || len(ref.Z) == 0 || maxIter <= 0 {
		return iterateDouble(real(c), imag(c), maxIter)
	}

	dc := c - ref.C
	d := dc // δ_1
	z := c  // z_1 = orbit_0 + δ_1

	absLimitSq := tn.DeltaAbsLimit * tn.DeltaAbsLimit
	relLimitSq := tn.DeltaRelLimit * tn.DeltaRelLimit

	step := 1
	for ; step < maxIter; step++ {
		if step-1 >= len(ref.Z) {
			break // orbit exhausted
		}
		o := ref.Z[step-1]
		z = o + d

		m := abs2(z)
		if m > escapeRadiusSq {
			return step, m, true
		}

		dd := abs2(d)
		oo := abs2(o)
		if dd > absLimitSq || dd > relLimitSq*oo {
			break
		}
		if step%tn.RebaseInterval == 0 && dd*4 > oo {
			break
		}

		d = 2*o*d + d*d + dc
	}
	if step >= maxIter {
		return maxIter, 0, false
	}
	return iterateDirectFrom(z, c, step, maxIter)
}

// iterateDirectFrom continues direct double iteration from z_start at
// iteration index start, up to the maxIter cap.
func iterateDirectFrom(z, c complex128, start, maxIter int) (n int, zz float64, escaped bool) {
	zr, zi := real(z), imag(z)
	cr, ci := real(c), imag(c)
	for n := start; n < maxIter; n++ {
		zr2, zi2 := zr*zr, zi*zi
		if zr2+zi2 > escapeRadiusSq {
			return n, zr2 + zi2, true
		}
		if math.IsNaN(zr2) || math.IsNaN(zi2) {
			// A poisoned value can only come from an escaped orbit;
			// classify as escaped at this step.
			return n, math.Inf(1), true
		}
		zi = 2*zr*zi + ci
		zr = zr2 - zi2 + cr
	}
	return maxIter, 0, false
}
