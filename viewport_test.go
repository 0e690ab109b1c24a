package mandel

import (
	"math"
	"testing"
)

func TestMappingRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    Viewport
	}{
		{"overview", Viewport{Center: complex(-0.5, 0), Scale: 300, Width: 900, Height: 600}},
		{"deep", Viewport{Center: complex(-0.74275, 0.13175), Scale: 4e6, Width: 1920, Height: 1080}},
		{"off-axis", Viewport{Center: complex(0.3, -1.1), Scale: 5e3, Width: 640, Height: 480}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.v.Mapping()
			for _, px := range [][2]float64{{0, 0}, {1, 1}, {319.5, 240.25}, {639, 479}} {
				c := m.At(px[0], px[1])
				x, y := m.PixelOf(c)
				if math.Abs(x-px[0]) > 0.5 || math.Abs(y-px[1]) > 0.5 {
					t.Errorf("round trip (%g,%g) -> (%g,%g), error above half a pixel",
						px[0], px[1], x, y)
				}
			}
		})
	}
}

func TestMappingCenterPixel(t *testing.T) {
	v := Viewport{Center: complex(-0.5, 0.25), Scale: 200, Width: 800, Height: 600}
	m := v.Mapping()
	c := m.At(400, 300)
	if c != v.Center {
		t.Errorf("center pixel maps to %v, want %v", c, v.Center)
	}
}

func TestMappingSplitFormsAgree(t *testing.T) {
	v := Viewport{Center: complex(-0.743, 0.131), Scale: 1e5, Width: 1024, Height: 768}
	m := v.Mapping()
	for _, px := range [][2]float64{{0, 0}, {512, 384}, {1023, 767}} {
		want := m.At(px[0], px[1])

		sr, si := m.atSingle(px[0], px[1])
		if math.Abs(sr.Float64()-real(want)) > 1e-10 || math.Abs(si.Float64()-imag(want)) > 1e-10 {
			t.Errorf("atSingle(%v) = (%g,%g), want %v", px, sr.Float64(), si.Float64(), want)
		}

		dr, di := m.atDouble(px[0], px[1])
		if math.Abs(dr.Float64()-real(want)) > 1e-14 || math.Abs(di.Float64()-imag(want)) > 1e-14 {
			t.Errorf("atDouble(%v) = (%g,%g), want %v", px, dr.Float64(), di.Float64(), want)
		}
	}
}

func TestViewportValid(t *testing.T) {
	good := Viewport{Center: complex(-0.5, 0), Scale: 100, Width: 10, Height: 10}
	if !good.valid() {
		t.Fatal("valid viewport rejected")
	}

	bad := []Viewport{
		{Center: complex(math.NaN(), 0), Scale: 100, Width: 10, Height: 10},
		{Center: complex(0, math.Inf(1)), Scale: 100, Width: 10, Height: 10},
		{Center: 0, Scale: 0, Width: 10, Height: 10},
		{Center: 0, Scale: -5, Width: 10, Height: 10},
		{Center: 0, Scale: math.NaN(), Width: 10, Height: 10},
		{Center: 0, Scale: 100, Width: 0, Height: 10},
		{Center: 0, Scale: 100, Width: 10, Height: 0},
	}
	for i, v := range bad {
		if v.valid() {
			t.Errorf("case %d: invalid viewport accepted: %+v", i, v)
		}
	}
}
