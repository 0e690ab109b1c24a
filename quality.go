package mandel

// QualityChange describes a supersample tier change, delivered through
// the OnQualityChange callback.
type QualityChange struct {
	// Active reports whether supersampling is on (more than one
	// sample per pixel).
	Active bool

	// Samples is the per-pixel sample count (1, 4, 9 or 16).
	Samples int

	// Factor is the per-axis subsample grid factor (1, 2, 3 or 4).
	Factor int
}

// sampleController picks the supersample tier for a zoom level with
// directional hysteresis: the tier may only rise while zooming in and
// only fall while zooming out, and only after the zoom has moved by
// the anchor ratio since the last change. The anchor debounce stops
// the tier from flickering when the user hovers around a threshold.
type sampleController struct {
	prevZoom float64
	anchor   float64 // zoom at the last tier change
	samples  int
}

func newSampleController() *sampleController {
	return &sampleController{samples: 1}
}

// targetSamples maps a zoom to the tier the threshold table asks for.
func targetSamples(zoom float64, interactive bool, tn *Tuning) int {
	table := &tn.IdleSampleZooms
	if interactive {
		table = &tn.InteractiveSampleZooms
	}
	switch {
	case zoom >= table[2]:
		return 16
	case zoom >= table[1]:
		return 9
	case zoom >= table[0]:
		return 4
	default:
		return 1
	}
}

// update advances the controller for a viewport push and returns the
// tier to use plus whether it changed. Tier 16 requires the
// double-double precision tier; otherwise it is capped at 9.
func (sc *sampleController) update(zoom float64, interactive bool, precision Tier, tn *Tuning) (samples int, changed bool) {
	target := targetSamples(zoom, interactive, tn)
	if target == 16 && precision != TierDoubleDouble {
		target = 9
	}

	// First push adopts the target directly and sets the anchor.
	if sc.prevZoom == 0 {
		changed = target != sc.samples
		sc.samples = target
		sc.anchor = zoom
		sc.prevZoom = zoom
		return sc.samples, changed
	}

	if target != sc.samples {
		zoomingIn := zoom > sc.prevZoom
		zoomingOut := zoom < sc.prevZoom
		allowed := (target > sc.samples && zoomingIn) ||
			(target < sc.samples && zoomingOut)

		if allowed && movedByRatio(zoom, sc.anchor, tn.AnchorRatio) {
			sc.samples = target
			sc.anchor = zoom
			changed = true
		}
	}

	sc.prevZoom = zoom
	return sc.samples, changed
}

// reevaluate adopts the threshold table's target directly, bypassing
// the directional gate and the anchor debounce. Used when the active
// table itself changes (gesture start or end) at an unchanged zoom.
func (sc *sampleController) reevaluate(zoom float64, interactive bool, precision Tier, tn *Tuning) (samples int, changed bool) {
	target := targetSamples(zoom, interactive, tn)
	if target == 16 && precision != TierDoubleDouble {
		target = 9
	}
	changed = target != sc.samples
	sc.samples = target
	sc.anchor = zoom
	sc.prevZoom = zoom
	return sc.samples, changed
}

// movedByRatio reports whether zoom differs from anchor by at least
// the given multiplicative ratio in either direction.
func movedByRatio(zoom, anchor, ratio float64) bool {
	if anchor <= 0 {
		return true
	}
	return zoom >= anchor*ratio || zoom <= anchor/ratio
}

// factorOf returns the per-axis grid factor of a sample count.
func factorOf(samples int) int {
	switch samples {
	case 4:
		return 2
	case 9:
		return 3
	case 16:
		return 4
	default:
		return 1
	}
}
