package mandel

import (
	"math"
	"testing"
)

func TestBuildOrbit(t *testing.T) {
	c := complex(-0.75, 0.1)
	orbit := BuildOrbit(c, 100)
	if orbit.Len() != 100 {
		t.Fatalf("orbit length = %d, want 100", orbit.Len())
	}
	if orbit.Z[0] != c {
		t.Errorf("Z[0] = %v, want C = %v", orbit.Z[0], c)
	}
	// Z[k] follows the recurrence from Z[k-1].
	for k := 1; k < orbit.Len(); k++ {
		want := orbit.Z[k-1]*orbit.Z[k-1] + c
		if orbit.Z[k] != want {
			t.Fatalf("Z[%d] = %v, want %v", k, orbit.Z[k], want)
		}
	}
}

func TestBuildOrbitTruncatesOnEscape(t *testing.T) {
	orbit := BuildOrbit(complex(2, 0), 1000)
	if orbit.Len() >= 1000 {
		t.Fatalf("escaping reference not truncated: length %d", orbit.Len())
	}
	for _, z := range orbit.Z {
		if math.IsInf(real(z), 0) || math.IsNaN(real(z)) {
			t.Fatal("orbit contains non-finite entries")
		}
	}
}

func TestBuildOrbitNegativeIterations(t *testing.T) {
	if got := BuildOrbit(0, -5).Len(); got != 0 {
		t.Errorf("orbit length = %d, want 0", got)
	}
}

// For pixels near the reference point, perturbed iteration must agree
// with direct double iteration: the same escape verdict, and an escape
// step within one.
func TestPerturbedAgreesWithDirect(t *testing.T) {
	tn := DefaultTuning()
	center := complex(-0.7436, 0.1318)
	const maxIter = 2000
	ref := BuildOrbit(center, maxIter)

	// Offsets on the order of a deep-zoom pixel step.
	deltas := []complex128{
		complex(1e-9, 0),
		complex(-3e-9, 2e-9),
		complex(5e-10, -5e-10),
		complex(2e-8, 1e-8),
	}
	for _, dc := range deltas {
		c := center + dc
		nd, _, ed := iterateDouble(real(c), imag(c), maxIter)
		np, _, ep := iteratePerturbed(c, ref, maxIter, &tn)

		if ed != ep {
			t.Errorf("dc=%v: escape verdict: direct=%v perturbed=%v", dc, ed, ep)
			continue
		}
		if ed && diff(nd, np) > 1 {
			t.Errorf("dc=%v: escape step: direct=%d perturbed=%d", dc, nd, np)
		}
	}
}

func TestPerturbedInterior(t *testing.T) {
	tn := DefaultTuning()
	ref := BuildOrbit(complex(-0.75, 0.1), 500)
	if n, _, escaped := iteratePerturbed(complex(-1, 0), ref, 500, &tn); escaped {
		t.Errorf("interior point escaped at %d", n)
	}
}

// A nil or empty orbit falls back to direct iteration instead of
// misclassifying.
func TestPerturbedWithoutOrbit(t *testing.T) {
	tn := DefaultTuning()
	c := complex(0.5, 0.5)
	nd, _, ed := iterateDouble(real(c), imag(c), 100)

	n, _, escaped := iteratePerturbed(c, nil, 100, &tn)
	if escaped != ed || n != nd {
		t.Errorf("nil orbit: (n=%d escaped=%v), want (n=%d escaped=%v)", n, escaped, nd, ed)
	}

	n, _, escaped = iteratePerturbed(c, &ReferenceOrbit{C: 0}, 100, &tn)
	if escaped != ed || n != nd {
		t.Errorf("empty orbit: (n=%d escaped=%v), want (n=%d escaped=%v)", n, escaped, nd, ed)
	}
}

// A short reference orbit forces the exhaustion path mid-iteration;
// the direct continuation must still match a full direct run within
// one step.
func TestPerturbedOrbitExhaustion(t *testing.T) {
	tn := DefaultTuning()
	center := complex(-0.7436, 0.1318)
	ref := BuildOrbit(center, 20)

	c := center + complex(2e-9, -1e-9)
	nd, _, ed := iterateDouble(real(c), imag(c), 2000)
	np, _, ep := iteratePerturbed(c, ref, 2000, &tn)
	if ed != ep || (ed && diff(nd, np) > 1) {
		t.Errorf("exhausted orbit: (n=%d escaped=%v), want (n=%d escaped=%v)", np, ep, nd, ed)
	}
}

// With a reference whose orbit escapes, far-away pixels trip the
// guards and must not be poisoned by the reference's blowup.
func TestPerturbedGuardsFarDelta(t *testing.T) {
	tn := DefaultTuning()
	ref := BuildOrbit(complex(-0.75, 0.1), 1000)

	c := complex(0.4, 0.4) // far outside the guard bounds
	nd, _, ed := iterateDouble(real(c), imag(c), 1000)
	np, _, ep := iteratePerturbed(c, ref, 1000, &tn)
	if ed != ep || (ed && diff(nd, np) > 1) {
		t.Errorf("far delta: (n=%d escaped=%v), want (n=%d escaped=%v)", np, ep, nd, ed)
	}
}

func BenchmarkIteratePerturbed(b *testing.B) {
	tn := DefaultTuning()
	center := complex(-0.7436, 0.1318)
	ref := BuildOrbit(center, 2000)
	c := center + complex(1e-9, 1e-9)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		iteratePerturbed(c, ref, 2000, &tn)
	}
}
