package mandel

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/gogpu/mandel/internal/parallel"
)

// Renderer evaluates a region of a parameter snapshot into a packed
// RGBA8 buffer.
//
// region is in global image coordinates; dst holds region.Dx() by
// region.Dy() pixels with the given row stride in bytes. Pixel
// (x, y) of the region lands at dst[(y-region.Min.Y)*stride +
// (x-region.Min.X)*4]. Using global coordinates everywhere means a
// tile rendered at an offset is bit-identical to the same pixels of a
// single-pass render.
type Renderer interface {
	RenderRegion(p *Params, region image.Rectangle, dst []uint8, stride int) error
}

// softwareRenderer is the CPU reference renderer. Scanlines are
// distributed across a worker pool; each row reads only the immutable
// snapshot, so no synchronization beyond the pool's join is needed.
type softwareRenderer struct {
	pool *parallel.Pool
}

// newSoftwareRenderer creates a software renderer over the pool.
func newSoftwareRenderer(pool *parallel.Pool) *softwareRenderer {
	return &softwareRenderer{pool: pool}
}

func (r *softwareRenderer) RenderRegion(p *Params, region image.Rectangle, dst []uint8, stride int) error {
	w, h := region.Dx(), region.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}
	if need := (h-1)*stride + w*4; len(dst) < need {
		return fmt.Errorf("mandel: render buffer too small: %d < %d", len(dst), need)
	}

	r.pool.Run(h, func(row int) {
		gy := region.Min.Y + row
		off := row * stride
		for i := 0; i < w; i++ {
			c := renderPixel(p, region.Min.X+i, gy)
			dst[off+0] = uint8(clamp255(c.R * 255))
			dst[off+1] = uint8(clamp255(c.G * 255))
			dst[off+2] = uint8(clamp255(c.B * 255))
			dst[off+3] = uint8(clamp255(c.A * 255))
			off += 4
		}
	})
	return nil
}

// Accelerator is an optional compute acceleration provider.
//
// When registered via RegisterAccelerator, the engine tries the
// accelerator first for dispatches it reports it can handle. If the
// accelerator returns ErrFallbackToCPU or any other error, rendering
// transparently falls back to the software renderer.
//
// Implementations are provided by backend packages (e.g.
// mandel/backend/wgpu). Users opt in explicitly:
//
//	if err := mandel.RegisterAccelerator(wgpu.New()); err != nil { ... }
type Accelerator interface {
	// Name returns the accelerator name (e.g. "wgpu").
	Name() string

	// Init initializes backend resources. Called once during
	// registration.
	Init() error

	// Close releases backend resources.
	Close()

	// CanAccelerate reports whether the accelerator supports the
	// snapshot. This is a fast check used to skip the backend
	// entirely for unsupported tiers or features.
	CanAccelerate(p *Params) bool

	// RenderRegion renders a region of the snapshot, with the same
	// contract as Renderer.RenderRegion. Returns ErrFallbackToCPU if
	// the dispatch cannot be accelerated.
	RenderRegion(p *Params, region image.Rectangle, dst []uint8, stride int) error
}

var (
	accelMu sync.RWMutex
	accel   Accelerator
)

// RegisterAccelerator installs a global accelerator, initializing it
// first. Any previously registered accelerator is closed. Passing nil
// removes the current accelerator.
func RegisterAccelerator(a Accelerator) error {
	if a != nil {
		if err := a.Init(); err != nil {
			return fmt.Errorf("mandel: accelerator %s init: %w", a.Name(), err)
		}
		propagateLogger(a, Logger())
	}

	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()

	if old != nil {
		old.Close()
	}
	if a != nil {
		Logger().Info("mandel: accelerator registered", slog.String("name", a.Name()))
	}
	return nil
}

// registeredAccelerator returns the current accelerator, or nil.
func registeredAccelerator() Accelerator {
	accelMu.RLock()
	defer accelMu.RUnlock()
	return accel
}
