package mandel

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning collects the empirically-tuned constants of the engine.
//
// None of these values derive from first principles; they were settled
// by looking at rendered frames. They are deliberately configuration,
// not protocol: changing them changes quality/cost trade-offs but
// never correctness, and deployments are expected to override them
// (see LoadTuning).
type Tuning struct {
	// SmoothOffset and SmoothScale rescale the normalized smooth
	// iteration value to avoid clipping at the palette edges:
	// t = clamp((t-offset)/scale, 0, 1).
	SmoothOffset float64 `yaml:"smooth_offset"`
	SmoothScale  float64 `yaml:"smooth_scale"`

	// ScaleFloatLimit is the zoom (pixels per plane unit) above which
	// plain float32 iteration shows visible staircasing; beyond it the
	// double-single tier takes over. ScaleSingleLimit is the
	// corresponding bound for double-single, beyond which
	// double-double is required.
	ScaleFloatLimit  float64 `yaml:"scale_float_limit"`
	ScaleSingleLimit float64 `yaml:"scale_single_limit"`

	// DeltaAbsLimit bounds |δ| in the perturbation recursion;
	// DeltaRelLimit bounds |δ| relative to the reference orbit
	// magnitude. Crossing either abandons the approximation in favor
	// of direct iteration.
	DeltaAbsLimit float64 `yaml:"delta_abs_limit"`
	DeltaRelLimit float64 `yaml:"delta_rel_limit"`

	// RebaseInterval is the period, in iterations, of the perturbation
	// safety clamp; every interval the delta must also stay below half
	// the reference magnitude.
	RebaseInterval int `yaml:"rebase_interval"`

	// AnchorRatio is the minimum multiplicative zoom movement from the
	// last supersample tier change before the tier may change again.
	AnchorRatio float64 `yaml:"anchor_ratio"`

	// LUTSize is the width of rasterized palette strips.
	LUTSize int `yaml:"lut_size"`

	// IdleSampleZooms and InteractiveSampleZooms are ascending zoom
	// thresholds above which the supersample tier rises to 4, 9 and 16
	// respectively. The idle table is lower: once the user stops
	// moving, quality is cheap.
	IdleSampleZooms        [3]float64 `yaml:"idle_sample_zooms"`
	InteractiveSampleZooms [3]float64 `yaml:"interactive_sample_zooms"`
}

// DefaultTuning returns the stock constants.
func DefaultTuning() Tuning {
	return Tuning{
		SmoothOffset:           0.015,
		SmoothScale:            0.97,
		ScaleFloatLimit:        1e4,
		ScaleSingleLimit:       1e7,
		DeltaAbsLimit:          1e-2,
		DeltaRelLimit:          1e-3,
		RebaseInterval:         64,
		AnchorRatio:            1.6,
		LUTSize:                1024,
		IdleSampleZooms:        [3]float64{2e2, 2e4, 2e6},
		InteractiveSampleZooms: [3]float64{1e4, 1e7, 1e10},
	}
}

// LoadTuning reads a YAML tuning file and overlays it on the defaults,
// so partial files are fine. Out-of-range values are reset to their
// defaults rather than rejected.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("mandel: reading tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return DefaultTuning(), fmt.Errorf("mandel: parsing tuning file: %w", err)
	}
	t.sanitize()
	return t, nil
}

// sanitize replaces non-finite or nonsensical fields with defaults.
func (t *Tuning) sanitize() {
	def := DefaultTuning()
	if !isFinite(t.SmoothOffset) || t.SmoothOffset < 0 || t.SmoothOffset >= 1 {
		t.SmoothOffset = def.SmoothOffset
	}
	if !isFinite(t.SmoothScale) || t.SmoothScale <= 0 || t.SmoothScale > 1 {
		t.SmoothScale = def.SmoothScale
	}
	if !isFinite(t.ScaleFloatLimit) || t.ScaleFloatLimit <= 0 {
		t.ScaleFloatLimit = def.ScaleFloatLimit
	}
	if !isFinite(t.ScaleSingleLimit) || t.ScaleSingleLimit <= t.ScaleFloatLimit {
		t.ScaleSingleLimit = def.ScaleSingleLimit
	}
	if !isFinite(t.DeltaAbsLimit) || t.DeltaAbsLimit <= 0 {
		t.DeltaAbsLimit = def.DeltaAbsLimit
	}
	if !isFinite(t.DeltaRelLimit) || t.DeltaRelLimit <= 0 {
		t.DeltaRelLimit = def.DeltaRelLimit
	}
	if t.RebaseInterval <= 0 {
		t.RebaseInterval = def.RebaseInterval
	}
	if !isFinite(t.AnchorRatio) || t.AnchorRatio < 1 {
		t.AnchorRatio = def.AnchorRatio
	}
	if t.LUTSize < 2 {
		t.LUTSize = def.LUTSize
	}
	sanitizeZooms(&t.IdleSampleZooms, def.IdleSampleZooms)
	sanitizeZooms(&t.InteractiveSampleZooms, def.InteractiveSampleZooms)
}

func sanitizeZooms(z *[3]float64, def [3]float64) {
	for i, v := range z {
		if !isFinite(v) || v <= 0 {
			*z = def
			return
		}
		if i > 0 && v <= z[i-1] {
			*z = def
			return
		}
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
