package wgpu

import (
	"encoding/binary"
	"image"
	"testing"
	"unsafe"

	"github.com/gogpu/mandel"
)

func testParams(samples int) *mandel.Params {
	v := mandel.Viewport{Center: complex(-0.5, 0), Scale: 200, Width: 64, Height: 48}
	return &mandel.Params{
		Mapping:  v.Mapping(),
		MaxIter:  100,
		Tier:     mandel.TierFloat,
		Samples:  samples,
		Palette:  mandel.ProceduralPalette(mandel.PaletteSpectrum),
		Contrast: 1,
		Tuning:   mandel.DefaultTuning(),
	}
}

func TestFrameParamsLayout(t *testing.T) {
	// The uniform block must match the WGSL struct: 16 four-byte
	// fields, no implicit padding.
	if got := unsafe.Sizeof(gpuFrameParams{}); got != 64 {
		t.Fatalf("gpuFrameParams size = %d, want 64", got)
	}
}

func TestMakeFrameParams(t *testing.T) {
	p := testParams(9)
	p.Contrast = 2

	fp := makeFrameParams(p, image.Rect(16, 8, 48, 40))
	if fp.Width != 32 || fp.Height != 32 {
		t.Errorf("size = %dx%d, want 32x32", fp.Width, fp.Height)
	}
	if fp.MinX != 16 || fp.MinY != 8 {
		t.Errorf("origin = (%d,%d), want (16,8)", fp.MinX, fp.MinY)
	}
	if fp.Samples != 9 || fp.Factor != 3 {
		t.Errorf("samples/factor = %d/%d, want 9/3", fp.Samples, fp.Factor)
	}
	if fp.MaxIter != 100 {
		t.Errorf("maxIter = %d, want 100", fp.MaxIter)
	}
	if fp.InvContrast != 0.5 {
		t.Errorf("invContrast = %g, want 0.5", fp.InvContrast)
	}
}

func TestMakeFrameParamsUnsupportedSamples(t *testing.T) {
	fp := makeFrameParams(testParams(7), image.Rect(0, 0, 8, 8))
	if fp.Samples != 1 || fp.Factor != 1 {
		t.Errorf("samples/factor = %d/%d, want 1/1", fp.Samples, fp.Factor)
	}
}

func TestPackPalette(t *testing.T) {
	pal := mandel.ProceduralPalette(mandel.PaletteGrayscale)
	lut := packPalette(pal)
	if len(lut) != lutSize*4 {
		t.Fatalf("LUT length = %d, want %d", len(lut), lutSize*4)
	}
	for i := 0; i < lutSize; i++ {
		val := binary.LittleEndian.Uint32(lut[i*4:])
		r := val & 0xFF
		g := (val >> 8) & 0xFF
		b := (val >> 16) & 0xFF
		if r != g || g != b {
			t.Fatalf("entry %d: (%d,%d,%d) not gray", i, r, g, b)
		}
	}
	// Grayscale runs dark to light.
	first := binary.LittleEndian.Uint32(lut) & 0xFF
	last := binary.LittleEndian.Uint32(lut[(lutSize-1)*4:]) & 0xFF
	if first >= last {
		t.Errorf("LUT not ascending: first=%d last=%d", first, last)
	}
}

func TestUnpackPixelsStride(t *testing.T) {
	const w, h, stride = 2, 2, 12
	packed := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		v := uint32(i+1) | uint32(i+2)<<8 | uint32(i+3)<<16 | 0xFF<<24
		binary.LittleEndian.PutUint32(packed[i*4:], v)
	}

	dst := make([]uint8, h*stride)
	unpackPixels(packed, dst, w, h, stride)

	for row := 0; row < h; row++ {
		for x := 0; x < w; x++ {
			i := row*w + x
			off := row*stride + x*4
			want := [4]uint8{uint8(i + 1), uint8(i + 2), uint8(i + 3), 0xFF}
			for c := 0; c < 4; c++ {
				if dst[off+c] != want[c] {
					t.Fatalf("pixel (%d,%d) channel %d = %d, want %d",
						x, row, c, dst[off+c], want[c])
				}
			}
		}
	}
	// Stride padding untouched.
	if dst[w*4] != 0 || dst[stride-1] != 0 {
		t.Error("bytes past row end were written")
	}
}

func TestCanAccelerate(t *testing.T) {
	a := New()

	p := testParams(1)
	if a.CanAccelerate(p) {
		t.Error("uninitialized accelerator claims readiness")
	}

	a.ready = true
	if !a.CanAccelerate(p) {
		t.Error("float tier rejected")
	}

	p.Tier = mandel.TierDoubleDouble
	if a.CanAccelerate(p) {
		t.Error("double-double tier accepted")
	}

	p = testParams(1)
	p.Perturb = true
	if a.CanAccelerate(p) {
		t.Error("perturbation accepted")
	}
}

func TestRenderRegionNotReady(t *testing.T) {
	a := New()
	p := testParams(1)
	dst := make([]uint8, 8*8*4)
	if err := a.RenderRegion(p, image.Rect(0, 0, 8, 8), dst, 8*4); err != mandel.ErrFallbackToCPU {
		t.Errorf("err = %v, want ErrFallbackToCPU", err)
	}
}
