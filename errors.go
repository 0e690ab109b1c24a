package mandel

import "errors"

// ErrFallbackToCPU indicates a registered accelerator cannot handle
// this dispatch. The engine transparently falls back to the software
// renderer.
var ErrFallbackToCPU = errors.New("mandel: falling back to CPU rendering")

// ErrRendererUnavailable is returned from New when the engine is
// configured with no usable renderer. An engine in this state cannot
// render and must be discarded.
var ErrRendererUnavailable = errors.New("mandel: no renderer available")

// ErrInvalidSize is returned from New for non-positive dimensions.
var ErrInvalidSize = errors.New("mandel: width and height must be >= 1")

// ErrCaptureBusy is returned from RequestCapture while a previous
// capture is still running. Tiles render strictly serially to bound
// memory, so at most one capture is in flight.
var ErrCaptureBusy = errors.New("mandel: capture already in progress")

// ErrInvalidCapture is returned from RequestCapture for requests with
// non-finite or non-positive geometry, or a missing completion
// callback.
var ErrInvalidCapture = errors.New("mandel: invalid capture request")
