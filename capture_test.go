package mandel

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"testing"
	"time"
)

func waitCapture(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("capture did not complete")
	}
}

func TestRequestCaptureValidation(t *testing.T) {
	eng := newTestEngine(t, 32, 32)
	complete := func(*Pixmap, error) {}

	bad := []CaptureRequest{
		{Width: 0, Height: 64, Scale: 100, OnComplete: complete},
		{Width: 64, Height: -1, Scale: 100, OnComplete: complete},
		{Width: 64, Height: 64, TileSize: -2, Scale: 100, OnComplete: complete},
		{Width: 64, Height: 64, Scale: 0, OnComplete: complete},
		{Width: 64, Height: 64, Scale: -3, OnComplete: complete},
		{Width: 64, Height: 64, Scale: 100}, // no completion callback
	}
	for i, req := range bad {
		if err := eng.RequestCapture(req); !errors.Is(err, ErrInvalidCapture) {
			t.Errorf("case %d: err = %v, want ErrInvalidCapture", i, err)
		}
	}
}

// The assembled tiled capture is byte-identical to a single-pass
// render of the same frozen parameters.
func TestCaptureMatchesSinglePass(t *testing.T) {
	eng := newTestEngine(t, 32, 32, WithMaxIterations(120))

	// Uneven 4x4 grid: 48-pixel tiles with 16-pixel edge remainders.
	req := CaptureRequest{
		Width: 160, Height: 160, TileSize: 48,
		Center: complex(-0.7435, 0.1314),
		Scale:  2e4,
		// Below the live cap, so the live cap wins.
		Iterations: 100,
	}
	v := Viewport{Center: req.Center, Scale: req.Scale, Width: req.Width, Height: req.Height}
	p := eng.captureSnapshot(&req, v)
	if p.Tier != TierDoubleDouble || p.Samples != 16 {
		t.Fatalf("capture snapshot tier/samples = %v/%d, want double-double/16", p.Tier, p.Samples)
	}
	if p.MaxIter != 120 {
		t.Fatalf("capture cap = %d, want live cap 120", p.MaxIter)
	}

	single := NewPixmap(req.Width, req.Height)
	sw := newSoftwareRenderer(eng.pool)
	if err := sw.RenderRegion(&p, image.Rect(0, 0, req.Width, req.Height), single.Data(), req.Width*4); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	var tiled *Pixmap
	req.OnComplete = func(pix *Pixmap, err error) {
		if err != nil {
			t.Error(err)
		}
		tiled = pix
		close(done)
	}
	if err := eng.RequestCapture(req); err != nil {
		t.Fatal(err)
	}
	waitCapture(t, done)

	if !bytes.Equal(tiled.Data(), single.Data()) {
		diff := 0
		for i := range tiled.Data() {
			if tiled.Data()[i] != single.Data()[i] {
				diff++
			}
		}
		t.Errorf("tiled and single-pass renders differ in %d of %d bytes", diff, len(single.Data()))
	}
}

func TestCaptureProgressMonotonic(t *testing.T) {
	eng := newTestEngine(t, 32, 32)

	var progress []float64
	done := make(chan struct{})
	completions := 0

	err := eng.RequestCapture(CaptureRequest{
		Width: 100, Height: 80, TileSize: 32, // uneven 4x3 grid
		Center: complex(-0.5, 0), Scale: 30, Iterations: 50,
		OnProgress: func(f float64) { progress = append(progress, f) },
		OnComplete: func(pix *Pixmap, err error) {
			if err != nil {
				t.Error(err)
			}
			completions++
			close(done)
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	waitCapture(t, done)

	if completions != 1 {
		t.Errorf("completions = %d, want 1", completions)
	}
	if len(progress) != 12 {
		t.Fatalf("progress reports = %d, want 12 (one per tile)", len(progress))
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Fatalf("progress regressed: %g after %g", progress[i], progress[i-1])
		}
	}
	ones := 0
	for _, f := range progress {
		if f == 1 {
			ones++
		}
	}
	if ones != 1 || progress[len(progress)-1] != 1 {
		t.Errorf("1.0 reported %d times, last %g; want exactly once at the end", ones, progress[len(progress)-1])
	}
}

// Only one capture may run at a time.
func TestCaptureBusy(t *testing.T) {
	gate := make(chan struct{})
	eng := newTestEngine(t, 32, 32, WithRenderer(&gatedRenderer{gate: gate}))

	first := make(chan struct{})
	req := CaptureRequest{
		Width: 64, Height: 64, Scale: 20,
		OnComplete: func(*Pixmap, error) { close(first) },
	}
	if err := eng.RequestCapture(req); err != nil {
		t.Fatal(err)
	}

	second := CaptureRequest{
		Width: 64, Height: 64, Scale: 20,
		OnComplete: func(*Pixmap, error) { t.Error("rejected capture completed") },
	}
	if err := eng.RequestCapture(second); !errors.Is(err, ErrCaptureBusy) {
		t.Errorf("concurrent request err = %v, want ErrCaptureBusy", err)
	}

	close(gate)
	waitCapture(t, first)

	// The slot frees after completion.
	third := make(chan struct{})
	err := eng.RequestCapture(CaptureRequest{
		Width: 64, Height: 64, Scale: 20,
		OnComplete: func(*Pixmap, error) { close(third) },
	})
	if err != nil {
		t.Errorf("request after completion err = %v", err)
	}
	waitCapture(t, third)
}

// A tile failure reports the error through OnComplete, exactly once,
// with no pixmap.
func TestCaptureFailure(t *testing.T) {
	eng := newTestEngine(t, 32, 32, WithRenderer(&failingRenderer{}))

	done := make(chan struct{})
	err := eng.RequestCapture(CaptureRequest{
		Width: 64, Height: 64, TileSize: 32, Scale: 20,
		OnComplete: func(pix *Pixmap, err error) {
			if pix != nil {
				t.Error("failed capture delivered a pixmap")
			}
			if err == nil {
				t.Error("failed capture delivered no error")
			}
			close(done)
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	waitCapture(t, done)
}

// gatedRenderer blocks every dispatch until the gate closes.
type gatedRenderer struct {
	gate <-chan struct{}
}

func (r *gatedRenderer) RenderRegion(p *Params, region image.Rectangle, dst []uint8, stride int) error {
	<-r.gate
	return nil
}

type failingRenderer struct{}

func (failingRenderer) RenderRegion(p *Params, region image.Rectangle, dst []uint8, stride int) error {
	return fmt.Errorf("disk on fire")
}
