package main

import (
	"fmt"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/gogpu/mandel"
)

// idleDelayTicks is how many update ticks without input end a gesture.
// 15 ticks is 250ms at 60 TPS.
const idleDelayTicks = 15

const zoomStep = 1.15

// viewer drives the engine from the ebiten game loop. All state is
// owned by the loop goroutine; engine callbacks fire synchronously
// inside RenderFrame, so no locking is needed.
type viewer struct {
	eng *mandel.Engine

	center  complex128
	scale   float64
	w, h    int
	maxIter int

	frame  *ebiten.Image
	hud    *hudOverlay
	dirty  bool
	refine bool

	dragging       bool
	lastX, lastY   int
	sinceInput     int
	interactive    bool
	highQuality    bool
	perturb        bool
	overrideActive bool
	paletteID      mandel.PaletteID

	status       string
	statusExpiry time.Time
	samples      int
}

func newViewer(eng *mandel.Engine, start mandel.Region, width, height, iter int, palette mandel.PaletteID) *viewer {
	sv := start.Viewport(width, height)
	v := &viewer{
		eng:         eng,
		center:      sv.Center,
		scale:       sv.Scale,
		w:           width,
		h:           height,
		maxIter:     iter,
		frame:       ebiten.NewImage(width, height),
		hud:         newHUDOverlay(width),
		dirty:       true,
		highQuality: true,
		paletteID:   palette,
		samples:     1,
	}
	eng.OnRedrawNeeded(func() { v.refine = true })
	eng.OnQualityChange(func(q mandel.QualityChange) {
		v.samples = q.Samples
	})
	eng.OnFallback(func(f mandel.Fallback) {
		v.setStatus(f.Reason)
	})
	eng.SetViewport(v.center, v.scale, width, height, iter)
	return v
}

func (v *viewer) setStatus(s string) {
	v.status = s
	v.statusExpiry = time.Now().Add(4 * time.Second)
}

func (v *viewer) Update() error {
	v.handleMouse()
	v.handleKeys()

	v.sinceInput++
	if v.interactive && v.sinceInput > idleDelayTicks && !v.dragging {
		v.interactive = false
		v.eng.SetInteractive(false, v.baseIter())
		v.dirty = true
	}

	if v.dirty || v.refine {
		v.dirty = false
		v.refine = false
		pix, err := v.eng.RenderFrame()
		if err != nil {
			return err
		}
		v.frame.WritePixels(pix.Data())
	}
	return nil
}

// baseIter is the cheaper cap used for frames during a gesture.
func (v *viewer) baseIter() int {
	base := v.maxIter / 4
	if base < 64 {
		base = 64
	}
	return base
}

// beginGesture flips the engine into interactive mode on the first
// input of a pan or zoom.
func (v *viewer) beginGesture() {
	v.sinceInput = 0
	if !v.interactive {
		v.interactive = true
		v.eng.SetInteractive(true, v.baseIter())
	}
}

func (v *viewer) pushViewport() {
	v.eng.SetViewport(v.center, v.scale, v.w, v.h, v.maxIter)
	v.dirty = true
}

func (v *viewer) handleMouse() {
	x, y := ebiten.CursorPosition()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		v.dragging = true
		v.lastX, v.lastY = x, y
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		v.dragging = false
	}
	if v.dragging && (x != v.lastX || y != v.lastY) {
		v.beginGesture()
		step := 1 / v.scale
		dx := float64(x - v.lastX)
		dy := float64(y - v.lastY)
		v.center -= complex(dx*step, dy*step)
		v.lastX, v.lastY = x, y
		v.pushViewport()
	}

	if _, wy := ebiten.Wheel(); wy != 0 {
		v.beginGesture()
		factor := math.Pow(zoomStep, wy)
		// Keep the plane point under the cursor fixed.
		step := 1 / v.scale
		anchor := v.center + complex(
			(float64(x)-float64(v.w)/2)*step,
			(float64(y)-float64(v.h)/2)*step,
		)
		v.scale *= factor
		step = 1 / v.scale
		v.center = anchor - complex(
			(float64(x)-float64(v.w)/2)*step,
			(float64(y)-float64(v.h)/2)*step,
		)
		v.pushViewport()
	}
}

func (v *viewer) handleKeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		v.paletteID = (v.paletteID + 1) % mandel.PaletteID(len(mandel.PaletteNames()))
		v.eng.SetPalette(v.paletteID)
		v.setStatus("palette: " + v.paletteID.String())
		v.dirty = true

	case inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft):
		if v.maxIter > 64 {
			v.maxIter /= 2
			v.pushViewport()
			v.setStatus(fmt.Sprintf("iterations: %d", v.maxIter))
		}

	case inpututil.IsKeyJustPressed(ebiten.KeyBracketRight):
		v.maxIter *= 2
		v.pushViewport()
		v.setStatus(fmt.Sprintf("iterations: %d", v.maxIter))

	case inpututil.IsKeyJustPressed(ebiten.KeyO):
		v.perturb = !v.perturb
		v.eng.SetPerturbation(v.perturb)
		v.setStatus(fmt.Sprintf("perturbation: %v", v.perturb))
		v.dirty = true

	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		v.eng.RecenterReference(v.center, 0)
		v.setStatus("reference orbit rebuilt")
		v.dirty = true

	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		v.highQuality = !v.highQuality
		v.eng.SetHighQualityIdle(v.highQuality)
		v.setStatus(fmt.Sprintf("high-quality idle: %v", v.highQuality))

	case inpututil.IsKeyJustPressed(ebiten.KeyDigit1):
		v.pinTier(mandel.TierFloat)
	case inpututil.IsKeyJustPressed(ebiten.KeyDigit2):
		v.pinTier(mandel.TierDoubleSingle)
	case inpututil.IsKeyJustPressed(ebiten.KeyDigit3):
		v.pinTier(mandel.TierDoubleDouble)
	case inpututil.IsKeyJustPressed(ebiten.KeyDigit0):
		v.overrideActive = false
		v.eng.ClearPrecisionOverride()
		v.setStatus("precision: auto")
		v.dirty = true

	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		v.screenshot()
	}
}

func (v *viewer) pinTier(t mandel.Tier) {
	v.overrideActive = true
	v.eng.SetPrecisionOverride(t)
	v.setStatus("precision: " + t.String())
	v.dirty = true
}

func (v *viewer) screenshot() {
	pix, err := v.eng.RenderFrame()
	if err != nil {
		v.setStatus("screenshot failed: " + err.Error())
		return
	}
	name := fmt.Sprintf("mandel-%d.png", time.Now().Unix())
	if err := pix.SavePNG(name); err != nil {
		v.setStatus("screenshot failed: " + err.Error())
		return
	}
	v.setStatus("saved " + name)
}

func (v *viewer) Draw(screen *ebiten.Image) {
	screen.DrawImage(v.frame, nil)

	status := v.status
	if status != "" && time.Now().After(v.statusExpiry) {
		status = ""
	}
	v.hud.draw(screen, hudState{
		Scale:   v.scale,
		MaxIter: v.maxIter,
		Samples: v.samples,
		Perturb: v.perturb,
		Status:  status,
	})
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.w, v.h
}
