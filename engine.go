package mandel

import (
	"errors"
	"image"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/mandel/internal/parallel"
)

// renderPhase is the idle-refine scheduling state. The interactive
// loop renders a cheap pass while the user is gesturing and exactly
// one refined pass once they stop.
type renderPhase uint8

const (
	phaseInteractive renderPhase = iota
	phaseIdleFirstPass
	phaseIdleRefinePending
	phaseIdleRefined
)

// Fallback is an advisory event: the engine recovered from a missing
// binding by substituting a safe default and kept rendering. Suitable
// for a transient banner, never fatal.
type Fallback struct {
	Reason string
}

// Engine is the fractal compute engine.
//
// The live parameter set is owned by the goroutine driving the
// setters and RenderFrame; Engine is not safe for concurrent mutation.
// Every dispatch operates on an immutable Params snapshot taken at
// submission time, which is what lets a capture run concurrently with
// interactive redraws without locks (see Params).
type Engine struct {
	renderer Renderer
	pool     *parallel.Pool

	// Live state. Owner goroutine only.
	viewport        Viewport
	mapping         Mapping
	maxIter         int
	baseIter        int // cheaper cap used while interacting; 0 = same as maxIter
	interactive     bool
	highQualityIdle bool
	override        *Tier
	perturb         bool
	orbit           *ReferenceOrbit
	paletteID       PaletteID
	customStops     []Stop
	useCustom       bool
	contrast        float64
	tuning          Tuning
	sampler         *sampleController
	samples         int
	phase           renderPhase
	pix             *Pixmap

	// Advisory once-flags, reset when the related binding changes.
	perturbAdvised bool
	paletteAdvised bool

	onRedraw   func()
	onQuality  func(QualityChange)
	onFallback func(Fallback)

	captureBusy atomic.Bool
}

// New creates an engine rendering at the given pixel size.
// The initial viewport frames the full set at center (-0.5, 0).
func New(width, height int, opts ...Option) (*Engine, error) {
	if width < 1 || height < 1 {
		return nil, ErrInvalidSize
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.rendererSet && o.renderer == nil {
		return nil, ErrRendererUnavailable
	}

	tn := DefaultTuning()
	if o.tuningSet {
		tn = o.tuning
	}

	e := &Engine{
		maxIter:         o.maxIter,
		paletteID:       o.palette,
		contrast:        1,
		tuning:          tn,
		sampler:         newSampleController(),
		samples:         1,
		phase:           phaseIdleFirstPass,
		highQualityIdle: true,
		pix:             NewPixmap(width, height),
	}

	if o.rendererSet {
		e.renderer = o.renderer
	} else {
		e.pool = parallel.New(o.workers)
		e.renderer = newSoftwareRenderer(e.pool)
	}

	e.viewport = Viewport{
		Center: complex(-0.5, 0),
		Scale:  float64(width) / 3.0,
		Width:  width,
		Height: height,
	}
	e.mapping = e.viewport.Mapping()
	e.samples, _ = e.sampler.update(e.viewport.Scale, false, e.activeTier(), &e.tuning)

	return e, nil
}

// Close releases the engine's worker pool. The engine must not be
// used afterwards.
func (e *Engine) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
}

// OnRedrawNeeded installs the redraw-needed signal. The engine invokes
// it synchronously when a follow-up frame should be drawn (the idle
// refine pass); the callback should only flag the need and return.
func (e *Engine) OnRedrawNeeded(fn func()) { e.onRedraw = fn }

// OnQualityChange installs the supersample tier change event.
func (e *Engine) OnQualityChange(fn func(QualityChange)) { e.onQuality = fn }

// OnFallback installs the advisory event for recovered binding
// mismatches.
func (e *Engine) OnFallback(fn func(Fallback)) { e.onFallback = fn }

// Viewport returns the current live viewport.
func (e *Engine) Viewport() Viewport { return e.viewport }

// MaxIterations returns the current live iteration cap.
func (e *Engine) MaxIterations() int { return e.maxIter }

// SetViewport pushes a new viewport and iteration cap. Non-finite or
// non-positive parameters are ignored silently and the prior valid
// state is retained. The supersample controller advances on every
// accepted push; a reference orbit bound while perturbation is active
// is rebuilt at the new center.
func (e *Engine) SetViewport(center complex128, scale float64, width, height int, maxIter int) {
	v := Viewport{Center: center, Scale: scale, Width: width, Height: height}
	if !v.valid() || maxIter < 1 {
		Logger().Debug("mandel: ignoring invalid viewport push",
			slog.Float64("scale", scale), slog.Int("maxIter", maxIter))
		return
	}

	e.viewport = v
	e.mapping = v.Mapping()
	e.maxIter = maxIter
	if v.Width != e.pix.Width() || v.Height != e.pix.Height() {
		e.pix = NewPixmap(v.Width, v.Height)
	}

	if e.perturb {
		e.orbit = BuildOrbit(center, maxIter)
	}

	e.updateSampler(false)
}

// SetMaxIterations updates the iteration cap. Values below 1 are
// ignored.
func (e *Engine) SetMaxIterations(n int) {
	if n < 1 {
		return
	}
	e.maxIter = n
	if e.perturb && e.orbit != nil && len(e.orbit.Z) < n {
		e.orbit = BuildOrbit(e.orbit.C, n)
	}
}

// SetContrast sets the global contrast exponent applied before color
// lookup; 1 is neutral. Non-finite and non-positive values are
// ignored.
func (e *Engine) SetContrast(c float64) {
	if !isFinite(c) || c <= 0 {
		return
	}
	e.contrast = c
}

// SetPalette selects a built-in procedural palette.
func (e *Engine) SetPalette(id PaletteID) {
	if id < 0 || id >= numPalettes {
		return
	}
	e.paletteID = id
	e.useCustom = false
	e.paletteAdvised = false
}

// SetPaletteFromStops installs an imported stop list, rendered through
// a rasterized lookup table. The stops are copied; they may be
// unsorted or contain duplicate offsets and are rendered as given.
// An empty list cannot build a LUT; rendering then substitutes the
// first procedural palette and raises an advisory.
func (e *Engine) SetPaletteFromStops(stops []Stop) {
	e.customStops = append([]Stop(nil), stops...)
	e.useCustom = true
	e.paletteAdvised = false
}

// SetInteractive switches between the interactive (gesturing) and idle
// states. While interactive, frames render with baseIterations as the
// cap (if >= 1) and the interactive supersample table; on the
// transition to idle, the engine renders one fast pass and schedules a
// single refined pass.
func (e *Engine) SetInteractive(active bool, baseIterations int) {
	if baseIterations >= 1 {
		e.baseIter = baseIterations
	}
	if active == e.interactive {
		return
	}
	e.interactive = active
	if active {
		e.phase = phaseInteractive
	} else {
		e.phase = phaseIdleFirstPass
	}
	e.updateSampler(true)
}

// SetHighQualityIdle enables the refined second pass after gestures
// end.
func (e *Engine) SetHighQualityIdle(on bool) {
	e.highQualityIdle = on
}

// SetPrecisionOverride pins the precision tier, bypassing the
// zoom-based selector.
func (e *Engine) SetPrecisionOverride(t Tier) {
	if t > TierDoubleDouble {
		return
	}
	tt := t
	e.override = &tt
}

// ClearPrecisionOverride restores zoom-based tier selection.
func (e *Engine) ClearPrecisionOverride() {
	e.override = nil
}

// SetPerturbation toggles the perturbation path. Enabling it builds a
// reference orbit at the current view center if none is bound.
func (e *Engine) SetPerturbation(on bool) {
	e.perturb = on
	e.perturbAdvised = false
	if on && e.orbit == nil {
		e.orbit = BuildOrbit(e.viewport.Center, e.maxIter)
	}
}

// RecenterReference rebuilds the reference orbit at the given plane
// point. iterations <= 0 uses the current live cap. Non-finite points
// are ignored.
func (e *Engine) RecenterReference(c complex128, iterations int) {
	if !isFinite(real(c)) || !isFinite(imag(c)) {
		return
	}
	if iterations <= 0 {
		iterations = e.maxIter
	}
	e.orbit = BuildOrbit(c, iterations)
	e.perturbAdvised = false
}

// activeTier resolves the precision tier for the live state.
func (e *Engine) activeTier() Tier {
	if e.override != nil {
		return *e.override
	}
	return tierForScale(e.viewport.Scale, &e.tuning)
}

// updateSampler advances the supersample controller and emits the
// quality event on a tier change. stateFlip relaxes the directional
// gate, so switching threshold tables (gesture start/end) can take
// effect at an unchanged zoom.
func (e *Engine) updateSampler(stateFlip bool) {
	var changed bool
	if stateFlip {
		e.samples, changed = e.sampler.reevaluate(e.viewport.Scale, e.interactive, e.activeTier(), &e.tuning)
	} else {
		e.samples, changed = e.sampler.update(e.viewport.Scale, e.interactive, e.activeTier(), &e.tuning)
	}
	if changed {
		Logger().Debug("mandel: supersample tier changed", slog.Int("samples", e.samples))
		if e.onQuality != nil {
			e.onQuality(QualityChange{
				Active:  e.samples > 1,
				Samples: e.samples,
				Factor:  factorOf(e.samples),
			})
		}
	}
}

// advise emits a fallback advisory and logs it.
func (e *Engine) advise(reason string) {
	Logger().Warn("mandel: " + reason)
	if e.onFallback != nil {
		e.onFallback(Fallback{Reason: reason})
	}
}

// snapshot captures the immutable parameter set for one dispatch.
// fast selects the cheaper interactive cap.
func (e *Engine) snapshot(fast bool) Params {
	p := Params{
		Mapping:  e.mapping,
		MaxIter:  e.maxIter,
		Tier:     e.activeTier(),
		Samples:  e.samples,
		Contrast: e.contrast,
		Tuning:   e.tuning,
	}
	if fast && e.baseIter >= 1 && e.baseIter < e.maxIter {
		p.MaxIter = e.baseIter
	}

	if e.useCustom {
		if pal := newLUTPalette(e.customStops, e.tuning.LUTSize); pal != nil {
			p.Palette = pal
		} else {
			p.Palette = ProceduralPalette(0)
			if !e.paletteAdvised {
				e.paletteAdvised = true
				e.advise("no palette texture bound, substituting " + PaletteID(0).String())
			}
		}
	} else {
		p.Palette = ProceduralPalette(e.paletteID)
	}

	if e.perturb {
		if e.orbit != nil && e.orbit.Len() > 0 {
			p.Perturb = true
			p.Orbit = e.orbit
		} else if !e.perturbAdvised {
			e.perturbAdvised = true
			e.advise("no reference orbit bound, using direct iteration")
		}
	}

	return p
}

// render dispatches a snapshot region, preferring a registered
// accelerator and falling back to the engine's renderer.
func (e *Engine) render(p *Params, region image.Rectangle, dst []uint8, stride int) error {
	if a := registeredAccelerator(); a != nil && a.CanAccelerate(p) {
		err := a.RenderRegion(p, region, dst, stride)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrFallbackToCPU) {
			Logger().Debug("mandel: accelerator declined dispatch", slog.String("name", a.Name()))
		} else {
			Logger().Warn("mandel: accelerator dispatch failed", slog.String("name", a.Name()), slog.Any("err", err))
		}
	}
	if e.renderer == nil {
		return ErrRendererUnavailable
	}
	return e.renderer.RenderRegion(p, region, dst, stride)
}

// RenderFrame renders the current live state into the engine's frame
// pixmap and returns it. The call is synchronous; the returned pixmap
// is valid until the next RenderFrame or SetViewport resize.
//
// RenderFrame drives the idle-refine state machine: the frame after a
// gesture ends is a fast first pass, after which (with high-quality
// idle enabled) the redraw-needed signal fires exactly once to request
// the refined pass.
func (e *Engine) RenderFrame() (*Pixmap, error) {
	fast := e.phase == phaseInteractive || e.phase == phaseIdleFirstPass
	p := e.snapshot(fast)

	region := image.Rect(0, 0, e.pix.Width(), e.pix.Height())
	if err := e.render(&p, region, e.pix.Data(), e.pix.Width()*4); err != nil {
		return nil, err
	}

	switch e.phase {
	case phaseIdleFirstPass:
		if e.highQualityIdle {
			e.phase = phaseIdleRefinePending
			if e.onRedraw != nil {
				e.onRedraw()
			}
		} else {
			e.phase = phaseIdleRefined
		}
	case phaseIdleRefinePending:
		e.phase = phaseIdleRefined
	}

	return e.pix, nil
}
