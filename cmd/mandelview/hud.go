package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const hudHeight = 20

type hudState struct {
	Scale   float64
	MaxIter int
	Samples int
	Perturb bool
	Status  string
}

// hudOverlay renders a one-line status bar with the 7x13 basic font
// into an offscreen image, re-rasterizing only when the text changes.
type hudOverlay struct {
	img      *image.RGBA
	tex      *ebiten.Image
	lastText string
}

func newHUDOverlay(width int) *hudOverlay {
	return &hudOverlay{
		img: image.NewRGBA(image.Rect(0, 0, width, hudHeight)),
		tex: ebiten.NewImage(width, hudHeight),
	}
}

func (h *hudOverlay) draw(screen *ebiten.Image, st hudState) {
	text := fmt.Sprintf("zoom %.3g  iter %d  samples %d", st.Scale, st.MaxIter, st.Samples)
	if st.Perturb {
		text += "  perturb"
	}
	if st.Status != "" {
		text += "  |  " + st.Status
	}

	if text != h.lastText {
		h.lastText = text
		h.rasterize(text)
		h.tex.WritePixels(h.img.Pix)
	}
	screen.DrawImage(h.tex, nil)
}

func (h *hudOverlay) rasterize(text string) {
	draw.Draw(h.img, h.img.Bounds(), image.NewUniform(color.RGBA{A: 160}), image.Point{}, draw.Src)
	face := basicfont.Face7x13
	dr := &font.Drawer{
		Dst:  h.img,
		Src:  image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255}),
		Face: face,
		Dot:  fixed.P(6, hudHeight-6),
	}
	dr.DrawString(text)
}
