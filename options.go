package mandel

// Option configures an Engine during creation.
//
// Example:
//
//	// Default software rendering, one worker per CPU
//	eng, err := mandel.New(800, 600)
//
//	// Custom renderer (dependency injection)
//	eng, err := mandel.New(800, 600, mandel.WithRenderer(r))
type Option func(*engineOptions)

// engineOptions holds optional configuration for Engine creation.
type engineOptions struct {
	renderer    Renderer
	rendererSet bool
	workers     int
	tuning      Tuning
	tuningSet   bool
	palette     PaletteID
	maxIter     int
}

func defaultOptions() engineOptions {
	return engineOptions{
		palette: PaletteSpectrum,
		maxIter: 500,
	}
}

// WithRenderer sets a custom renderer for the Engine, replacing the
// built-in software renderer. Passing nil marks the engine as having
// no renderer; New then fails with ErrRendererUnavailable.
func WithRenderer(r Renderer) Option {
	return func(o *engineOptions) {
		o.renderer = r
		o.rendererSet = true
	}
}

// WithWorkers sets the number of CPU workers used by the software
// renderer. Zero or negative means one per logical CPU.
func WithWorkers(n int) Option {
	return func(o *engineOptions) {
		o.workers = n
	}
}

// WithTuning replaces the default tuned constants. Out-of-range fields
// are reset to their defaults.
func WithTuning(t Tuning) Option {
	return func(o *engineOptions) {
		t.sanitize()
		o.tuning = t
		o.tuningSet = true
	}
}

// WithPalette sets the initial procedural palette.
func WithPalette(id PaletteID) Option {
	return func(o *engineOptions) {
		o.palette = id
	}
}

// WithMaxIterations sets the initial iteration cap.
func WithMaxIterations(n int) Option {
	return func(o *engineOptions) {
		if n >= 1 {
			o.maxIter = n
		}
	}
}
