package sketch

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "holo.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"model": "assets/other.glb",
		"settings": {"exposure": 9, "bloomRadius": 0.5},
		"camera": {"fov": 45, "near": 0.1, "far": 50, "position": [0, 1, 3]}
	}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ModelPath != "assets/other.glb" {
		t.Errorf("model %q", cfg.ModelPath)
	}
	if cfg.EnvironmentPath != "assets/env.jpeg" {
		t.Errorf("environment default lost: %q", cfg.EnvironmentPath)
	}
	if cfg.Settings.Exposure != 3 {
		t.Errorf("exposure should clamp to 3, got %v", cfg.Settings.Exposure)
	}
	if cfg.Settings.BloomRadius != 0.5 || cfg.Settings.BloomStrength != 3 {
		t.Errorf("settings %+v", cfg.Settings)
	}
	if cfg.Camera.FOV != 45 || cfg.Camera.Position != [3]float32{0, 1, 3} {
		t.Errorf("camera %+v", cfg.Camera)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadConfig(writeConfig(t, `{"model": 3}`)); err == nil {
		t.Error("expected parse error")
	}
	if _, err := LoadConfig(writeConfig(t, `{"camera": {"fov": 0, "near": 1, "far": 2}}`)); err == nil {
		t.Error("expected fov error")
	}
	if _, err := LoadConfig(writeConfig(t, `{"camera": {"fov": 60, "near": 2, "far": 1}}`)); err == nil {
		t.Error("expected clip range error")
	}
}

func TestValidateFixesPixelRatio(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPixelRatio = 0
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.MaxPixelRatio != 1 {
		t.Errorf("expected 1, got %v", cfg.MaxPixelRatio)
	}
}
