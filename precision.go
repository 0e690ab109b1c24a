package mandel

// Tier selects the arithmetic used by the iteration kernel.
//
// Float32 runs out of usable mantissa bits around 1e4–1e5 zoom, where
// neighboring pixels map to identical values and the escape boundary
// staircases. Double-single adds ~20 bits cheaply; double-double is
// reserved for extreme zoom and normally pairs with the perturbation
// path to keep per-pixel cost bounded.
type Tier uint8

const (
	// TierFloat iterates in plain float32.
	TierFloat Tier = iota

	// TierDoubleSingle iterates on compensated float32 pairs.
	TierDoubleSingle

	// TierDoubleDouble iterates on compensated float64 pairs.
	TierDoubleDouble
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierFloat:
		return "float"
	case TierDoubleSingle:
		return "double-single"
	case TierDoubleDouble:
		return "double-double"
	default:
		return "unknown"
	}
}

// tierForScale selects the precision tier for a zoom level using the
// tuning thresholds. An engine-level override short-circuits this.
func tierForScale(scale float64, tn *Tuning) Tier {
	switch {
	case scale <= tn.ScaleFloatLimit:
		return TierFloat
	case scale <= tn.ScaleSingleLimit:
		return TierDoubleSingle
	default:
		return TierDoubleDouble
	}
}
