package mandel

// Params is the immutable per-dispatch parameter snapshot.
//
// The engine's live state is owned and mutated only by the caller's
// goroutine; every dispatch, whether an interactive frame or a capture
// tile, operates on a Params value captured at submission time and never
// mutated afterwards. Correctness rests on this snapshot-by-value
// discipline rather than locks: render workers and the capture
// goroutine read their own copies.
//
// The Palette interface value and Orbit pointer refer to immutable
// data, so sharing them across snapshots is safe.
type Params struct {
	Mapping  Mapping
	MaxIter  int
	Tier     Tier
	Samples  int // per-pixel subsamples: 1, 4, 9 or 16
	Palette  Palette
	Contrast float64
	Perturb  bool
	Orbit    *ReferenceOrbit
	Tuning   Tuning
}
