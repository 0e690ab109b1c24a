// Command mandelview is an interactive Mandelbrot explorer.
//
// Drag to pan, scroll to zoom at the cursor. Keys:
//
//	P        cycle palettes
//	[ / ]    halve / double the iteration cap
//	O        toggle perturbation
//	1 2 3    pin precision tier (float, double-single, double-double)
//	0        restore automatic precision
//	H        toggle the high-quality idle pass
//	R        rebuild the reference orbit at the view center
//	S        save a screenshot
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gogpu/mandel"
)

func main() {
	var (
		width   = flag.Int("width", 960, "window width in pixels")
		height  = flag.Int("height", 640, "window height in pixels")
		iter    = flag.Int("iter", 500, "iteration cap")
		palette = flag.String("palette", "spectrum", "palette name")
		region  = flag.String("region", "overview", "starting region")
		tuning  = flag.String("tuning", "", "tuning overrides YAML file")
		verbose = flag.Bool("v", false, "log engine diagnostics to stderr")
	)
	flag.Parse()

	if *verbose {
		mandel.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	if err := run(*width, *height, *iter, *palette, *region, *tuning); err != nil {
		fmt.Fprintln(os.Stderr, "mandelview:", err)
		os.Exit(1)
	}
}

func run(width, height, iter int, paletteName, regionName, tuningPath string) error {
	opts := []mandel.Option{mandel.WithMaxIterations(iter)}

	paletteID, ok := mandel.PaletteIDByName(paletteName)
	if !ok {
		return fmt.Errorf("unknown palette %q (have %v)", paletteName, mandel.PaletteNames())
	}
	opts = append(opts, mandel.WithPalette(paletteID))
	if tuningPath != "" {
		tn, err := mandel.LoadTuning(tuningPath)
		if err != nil {
			return err
		}
		opts = append(opts, mandel.WithTuning(tn))
	}

	eng, err := mandel.New(width, height, opts...)
	if err != nil {
		return err
	}
	defer eng.Close()

	start, ok := mandel.RegionByName(regionName)
	if !ok {
		return fmt.Errorf("unknown region %q (have %v)", regionName, mandel.RegionNames())
	}

	v := newViewer(eng, start, width, height, iter, paletteID)

	ebiten.SetWindowTitle("mandelview")
	ebiten.SetWindowSize(width, height)
	ebiten.SetTPS(60)
	return ebiten.RunGame(v)
}
