package mandel

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTuning(t *testing.T) {
	tn := DefaultTuning()
	if tn.ScaleFloatLimit >= tn.ScaleSingleLimit {
		t.Error("precision thresholds not ascending")
	}
	for i := 1; i < 3; i++ {
		if tn.IdleSampleZooms[i] <= tn.IdleSampleZooms[i-1] {
			t.Error("idle sample thresholds not ascending")
		}
		if tn.InteractiveSampleZooms[i] <= tn.InteractiveSampleZooms[i-1] {
			t.Error("interactive sample thresholds not ascending")
		}
	}
	// The interactive table must be lazier than the idle one.
	for i := 0; i < 3; i++ {
		if tn.InteractiveSampleZooms[i] <= tn.IdleSampleZooms[i] {
			t.Error("interactive thresholds not above idle thresholds")
		}
	}
	if tn.AnchorRatio < 1 {
		t.Error("anchor ratio below 1")
	}
}

// A partial YAML file overlays only the fields it names.
func TestLoadTuningPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	content := "smooth_offset: 0.02\nrebase_interval: 128\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tn, err := LoadTuning(path)
	if err != nil {
		t.Fatal(err)
	}
	if tn.SmoothOffset != 0.02 {
		t.Errorf("SmoothOffset = %g, want 0.02", tn.SmoothOffset)
	}
	if tn.RebaseInterval != 128 {
		t.Errorf("RebaseInterval = %d, want 128", tn.RebaseInterval)
	}
	def := DefaultTuning()
	if tn.ScaleFloatLimit != def.ScaleFloatLimit || tn.AnchorRatio != def.AnchorRatio {
		t.Error("unnamed fields did not keep their defaults")
	}
}

// Out-of-range values are reset to defaults, not rejected.
func TestLoadTuningSanitizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	content := "smooth_scale: -1\nanchor_ratio: 0.5\nrebase_interval: 0\nidle_sample_zooms: [-1, 100, 50]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tn, err := LoadTuning(path)
	if err != nil {
		t.Fatal(err)
	}
	def := DefaultTuning()
	if tn.SmoothScale != def.SmoothScale {
		t.Errorf("SmoothScale = %g, want default %g", tn.SmoothScale, def.SmoothScale)
	}
	if tn.AnchorRatio != def.AnchorRatio {
		t.Errorf("AnchorRatio = %g, want default %g", tn.AnchorRatio, def.AnchorRatio)
	}
	if tn.RebaseInterval != def.RebaseInterval {
		t.Errorf("RebaseInterval = %d, want default %d", tn.RebaseInterval, def.RebaseInterval)
	}
	if tn.IdleSampleZooms != def.IdleSampleZooms {
		t.Errorf("IdleSampleZooms = %v, want default %v", tn.IdleSampleZooms, def.IdleSampleZooms)
	}
}

func TestLoadTuningMissingFile(t *testing.T) {
	if _, err := LoadTuning(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file did not error")
	}
}

func TestLoadTuningBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTuning(path); err == nil {
		t.Error("malformed file did not error")
	}
}
