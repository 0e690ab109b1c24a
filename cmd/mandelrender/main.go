// Command mandelrender renders a high-quality Mandelbrot image to a
// PNG file using the tiled capture pipeline.
//
//	mandelrender -region seahorse-valley -width 3840 -height 2160 -o out.png
//	mandelrender -center=-0.74275+0.13175i -scale 4e5 -iter 4000 -o deep.png
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/gogpu/mandel"
)

func main() {
	var (
		width    = flag.Int("width", 1920, "output width in pixels")
		height   = flag.Int("height", 1080, "output height in pixels")
		tile     = flag.Int("tile", 256, "capture tile size in pixels")
		centerS  = flag.String("center", "", "view center as a complex number, e.g. -0.5+0i")
		scale    = flag.Float64("scale", 0, "pixels per plane unit (0 = derive from region)")
		regionS  = flag.String("region", "overview", "named region (ignored when -center is set)")
		iter     = flag.Int("iter", 1000, "iteration cap")
		palette  = flag.String("palette", "spectrum", "palette name")
		contrast = flag.Float64("contrast", 1, "contrast exponent")
		perturb  = flag.Bool("perturb", false, "iterate against a reference orbit")
		tuning   = flag.String("tuning", "", "tuning overrides YAML file")
		out      = flag.String("o", "mandel.png", "output PNG path")
		verbose  = flag.Bool("v", false, "log engine diagnostics to stderr")
	)
	flag.Parse()

	if *verbose {
		mandel.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	if err := run(renderConfig{
		Width: *width, Height: *height, Tile: *tile,
		CenterS: *centerS, Scale: *scale, Region: *regionS,
		Iter: *iter, Palette: *palette, Contrast: *contrast,
		Perturb: *perturb, Tuning: *tuning, Out: *out,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "mandelrender:", err)
		os.Exit(1)
	}
}

type renderConfig struct {
	Width, Height, Tile int
	CenterS             string
	Scale               float64
	Region              string
	Iter                int
	Palette             string
	Contrast            float64
	Perturb             bool
	Tuning              string
	Out                 string
}

func run(cfg renderConfig) error {
	center, scale, err := resolveFrame(&cfg)
	if err != nil {
		return err
	}

	opts := []mandel.Option{mandel.WithMaxIterations(cfg.Iter)}
	id, ok := mandel.PaletteIDByName(cfg.Palette)
	if !ok {
		return fmt.Errorf("unknown palette %q (have %v)", cfg.Palette, mandel.PaletteNames())
	}
	opts = append(opts, mandel.WithPalette(id))
	if cfg.Tuning != "" {
		tn, err := mandel.LoadTuning(cfg.Tuning)
		if err != nil {
			return err
		}
		opts = append(opts, mandel.WithTuning(tn))
	}

	// A small engine frame; capture renders at its own size.
	eng, err := mandel.New(64, 64, opts...)
	if err != nil {
		return err
	}
	defer eng.Close()

	eng.SetContrast(cfg.Contrast)
	eng.SetViewport(center, scale, 64, 64, cfg.Iter)
	if cfg.Perturb {
		eng.SetPerturbation(true)
	}

	done := make(chan error, 1)
	err = eng.RequestCapture(mandel.CaptureRequest{
		Width:      cfg.Width,
		Height:     cfg.Height,
		TileSize:   cfg.Tile,
		Center:     center,
		Scale:      scale,
		Iterations: cfg.Iter,
		OnProgress: func(f float64) {
			fmt.Fprintf(os.Stderr, "\rrendering %3.0f%%", f*100)
		},
		OnComplete: func(pix *mandel.Pixmap, err error) {
			fmt.Fprintln(os.Stderr)
			if err != nil {
				done <- err
				return
			}
			done <- pix.SavePNG(cfg.Out)
		},
	})
	if err != nil {
		return err
	}

	if err := <-done; err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%dx%d)\n", cfg.Out, cfg.Width, cfg.Height)
	return nil
}

// resolveFrame picks the capture frame from -center/-scale or a named
// region.
func resolveFrame(cfg *renderConfig) (complex128, float64, error) {
	if cfg.CenterS != "" {
		center, err := strconv.ParseComplex(cfg.CenterS, 128)
		if err != nil {
			return 0, 0, fmt.Errorf("bad -center %q: %w", cfg.CenterS, err)
		}
		scale := cfg.Scale
		if scale <= 0 {
			scale = float64(cfg.Width) / 3.0
		}
		return center, scale, nil
	}

	r, ok := mandel.RegionByName(cfg.Region)
	if !ok {
		return 0, 0, fmt.Errorf("unknown region %q (have %v)", cfg.Region, mandel.RegionNames())
	}
	scale := cfg.Scale
	if scale <= 0 {
		scale = float64(cfg.Width) / r.Span
	}
	return r.Center, scale, nil
}
