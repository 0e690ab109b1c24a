package mandel

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/mandel/internal/tiles"
)

// defaultTileSize is used when a capture request leaves TileSize zero.
const defaultTileSize = 256

// CaptureRequest describes an offline high-quality render, typically
// larger than the interactive frame.
type CaptureRequest struct {
	Width, Height int

	// TileSize is the square tile edge in pixels; 0 selects the
	// default. Edge tiles are clipped.
	TileSize int

	// Center and Scale frame the capture independently of the live
	// viewport.
	Center complex128
	Scale  float64

	// Iterations is the requested cap. The capture always renders
	// with at least the engine's live cap.
	Iterations int

	// OnProgress, if set, receives the completed-tile fraction in
	// [0, 1]. Values are monotonically non-decreasing and 1.0 is
	// reported exactly once.
	OnProgress func(float64)

	// OnComplete receives the assembled pixmap, or a nil pixmap and
	// an error. It is invoked exactly once per accepted request, from
	// the capture goroutine.
	OnComplete func(*Pixmap, error)
}

// RequestCapture starts an asynchronous tiled capture. The capture
// renders at the highest precision and supersample tiers regardless of
// the live interactive settings, and uses the parameter snapshot taken
// at the time of this call; later setter calls do not affect a capture
// in flight.
//
// Only one capture may run at a time; a second request while one is in
// flight is rejected with ErrCaptureBusy. An invalid request (sizes or
// frame parameters) is rejected with an error wrapping
// ErrInvalidCapture. Rejected requests never invoke OnComplete.
func (e *Engine) RequestCapture(req CaptureRequest) error {
	if req.Width < 1 || req.Height < 1 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidCapture, req.Width, req.Height)
	}
	if req.TileSize < 0 {
		return fmt.Errorf("%w: tile size %d", ErrInvalidCapture, req.TileSize)
	}
	if req.TileSize == 0 {
		req.TileSize = defaultTileSize
	}
	v := Viewport{Center: req.Center, Scale: req.Scale, Width: req.Width, Height: req.Height}
	if !v.valid() {
		return fmt.Errorf("%w: non-finite or non-positive frame", ErrInvalidCapture)
	}
	if req.OnComplete == nil {
		return fmt.Errorf("%w: no completion callback", ErrInvalidCapture)
	}

	if !e.captureBusy.CompareAndSwap(false, true) {
		return ErrCaptureBusy
	}

	p := e.captureSnapshot(&req, v)
	go e.runCapture(req, p)
	return nil
}

// captureSnapshot builds the frozen parameter set for a capture:
// double-double precision, the maximum supersample tier, and the
// larger of the requested and live iteration caps.
func (e *Engine) captureSnapshot(req *CaptureRequest, v Viewport) Params {
	p := e.snapshot(false)
	p.Mapping = v.Mapping()
	p.Tier = TierDoubleDouble
	p.Samples = 16
	if req.Iterations > p.MaxIter {
		p.MaxIter = req.Iterations
	}
	if p.Perturb {
		p.Orbit = BuildOrbit(v.Center, p.MaxIter)
	}
	return p
}

// runCapture renders the tiles serially in spiral order and assembles
// them into one pixmap. Tiles address the plane through the full-image
// mapping with global pixel coordinates, so the assembled result is
// bit-identical to a single-pass render of the same frame.
func (e *Engine) runCapture(req CaptureRequest, p Params) {
	defer e.captureBusy.Store(false)

	log := Logger()
	log.Info("mandel: capture started",
		slog.Int("width", req.Width), slog.Int("height", req.Height),
		slog.Int("tile", req.TileSize), slog.Int("maxIter", p.MaxIter))

	rects := tiles.Partition(req.Width, req.Height, req.TileSize)
	if rects == nil {
		req.OnComplete(nil, fmt.Errorf("%w: empty tile partition", ErrInvalidCapture))
		return
	}
	cols, rows := tiles.Grid(req.Width, req.Height, req.TileSize)
	order := tiles.SpiralOrder(cols, rows)

	out := NewPixmap(req.Width, req.Height)
	buf := make([]uint8, req.TileSize*req.TileSize*4)

	total := len(rects)
	for done, idx := range order {
		r := rects[idx]
		stride := r.W * 4
		if err := e.render(&p, r.Rectangle(), buf[:r.H*stride], stride); err != nil {
			log.Warn("mandel: capture tile failed",
				slog.Int("x", r.X), slog.Int("y", r.Y), slog.Any("err", err))
			req.OnComplete(nil, fmt.Errorf("mandel: capture tile (%d,%d): %w", r.X, r.Y, err))
			return
		}
		copyTile(out, buf, r)
		if req.OnProgress != nil {
			req.OnProgress(float64(done+1) / float64(total))
		}
	}

	log.Info("mandel: capture finished",
		slog.Int("width", req.Width), slog.Int("height", req.Height))
	req.OnComplete(out, nil)
}

// copyTile blits a tile buffer into the accumulation pixmap.
func copyTile(dst *Pixmap, src []uint8, r tiles.Rect) {
	data := dst.Data()
	w := dst.Width()
	for row := 0; row < r.H; row++ {
		d := ((r.Y+row)*w + r.X) * 4
		s := row * r.W * 4
		copy(data[d:d+r.W*4], src[s:s+r.W*4])
	}
}
