package scene

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-spectral-sdf/pkg/config"
)

func TestTitleCase(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"glass-sphere", "Glass Sphere"},
		{"fog_dense", "Fog Dense"},
		{"UPPER-case", "Upper Case"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			if result := titleCase(tc.input); result != tc.expected {
				t.Errorf("titleCase(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}

func writePresets(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return dir
}

func TestListPresets(t *testing.T) {
	dir := writePresets(t, map[string]string{
		"thick-fog.json": `{"scene": "fog", "name": "Thick Fog", "description": "Dense medium", "group": "Volumes"}`,
		"plain.json":     `{"integrator": {"kind": "ao"}}`,
		"ignored.txt":    `not a preset`,
	})

	presets, err := ListPresets(dir)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(presets) != 2 {
		t.Fatalf("Expected 2 presets, got %d", len(presets))
	}

	plain, fog := presets[0], presets[1]
	if plain.Name != "Plain" || plain.Scene != "default" || plain.Group != "Presets" {
		t.Errorf("Expected fallback metadata, got %+v", plain)
	}
	if fog.ID != "preset:thick-fog" || fog.Scene != "fog" || fog.Group != "Volumes" {
		t.Errorf("Expected parsed metadata, got %+v", fog)
	}

	missing, err := ListPresets(filepath.Join(dir, "nope"))
	if err != nil || len(missing) != 0 {
		t.Errorf("Expected empty list for missing directory, got %v (err %v)", missing, err)
	}
}

func TestListAllScenes(t *testing.T) {
	dir := writePresets(t, map[string]string{
		"thick-fog.json": `{"scene": "fog", "group": "Volumes"}`,
		"plain.json":     `{}`,
	})

	response, err := ListAllScenes(dir)
	if err != nil {
		t.Fatalf("ListAllScenes() error: %v", err)
	}
	if len(response.Groups) != 3 {
		t.Fatalf("Expected 3 groups, got %+v", response.Groups)
	}

	expectedGroups := []string{builtinGroup, "Presets", "Volumes"}
	for i, name := range expectedGroups {
		if response.Groups[i].Name != name {
			t.Errorf("Group %d: expected %q, got %q", i, name, response.Groups[i].Name)
		}
	}

	builtinIDs := make(map[string]bool)
	for _, s := range response.Groups[0].Scenes {
		builtinIDs[s.ID] = true
		if s.Type != "builtin" || s.Name == "" {
			t.Errorf("Expected a named builtin, got %+v", s)
		}
	}
	for _, id := range []string{"default", "lambert-sphere", "glass-sphere", "fog", "glow"} {
		if !builtinIDs[id] {
			t.Errorf("Missing expected built-in scene: %s", id)
		}
	}
}

func TestParsePresetMetadataInvalid(t *testing.T) {
	dir := writePresets(t, map[string]string{"broken.json": `{"scene": `})

	if _, err := ParsePresetMetadata(filepath.Join(dir, "broken.json")); err == nil {
		t.Error("Expected an error for malformed JSON")
	}
	if _, err := ParsePresetMetadata(filepath.Join(dir, "absent.json")); err == nil {
		t.Error("Expected an error for a missing file")
	}
	if _, err := ListPresets(dir); err == nil {
		t.Error("Expected ListPresets to report the malformed preset")
	}
}

func TestResolve(t *testing.T) {
	dir := writePresets(t, map[string]string{
		"ao-fog.json":   `{"scene": "fog", "name": "AO Fog", "integrator": {"kind": "ao"}, "image": {"width": 64}}`,
		"unknown.json":  `{"scene": "cornell-box"}`,
		"no-scene.json": `{"tonemap": {"exposure": 3}}`,
	})

	t.Run("builtin", func(t *testing.T) {
		s, cfg, err := Resolve("lambert-sphere", dir)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if s.Name() != "lambert-sphere" || cfg.Integrator.SunPower != 0 {
			t.Errorf("Expected the scene's recommended config, got %s with sun power %f", s.Name(), cfg.Integrator.SunPower)
		}
	})

	t.Run("preset over scene defaults", func(t *testing.T) {
		s, cfg, err := Resolve("preset:ao-fog", dir)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if s.Name() != "fog" || cfg.Scene != "fog" {
			t.Errorf("Expected the fog scene, got %s (config %q)", s.Name(), cfg.Scene)
		}
		if cfg.Integrator.Kind != config.KindAO || cfg.Image.Width != 64 {
			t.Errorf("Expected preset overrides, got kind %q width %d", cfg.Integrator.Kind, cfg.Image.Width)
		}
		if cfg.Image.Height != config.Default().Image.Height {
			t.Errorf("Expected untouched fields to keep defaults, got height %d", cfg.Image.Height)
		}
	})

	t.Run("preset without scene", func(t *testing.T) {
		s, cfg, err := Resolve("preset:no-scene", dir)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if s.Name() != "default" || cfg.Tonemap.Exposure != 3 {
			t.Errorf("Expected the default scene with exposure 3, got %s / %f", s.Name(), cfg.Tonemap.Exposure)
		}
	})

	for _, id := range []string{"cornell-box", "preset:unknown"} {
		t.Run(id, func(t *testing.T) {
			if _, _, err := Resolve(id, dir); !errors.Is(err, ErrUnknownScene) {
				t.Errorf("Expected ErrUnknownScene, got %v", err)
			}
		})
	}

	if _, _, err := Resolve("preset:absent", dir); err == nil {
		t.Error("Expected an error for a missing preset file")
	}
}

func TestBundledPresets(t *testing.T) {
	presets, err := ListPresets(filepath.Join("..", "..", "scenes"))
	if err != nil {
		t.Fatalf("ListPresets failed: %v", err)
	}
	if len(presets) == 0 {
		t.Fatal("Expected bundled presets")
	}
	for _, p := range presets {
		t.Run(p.ID, func(t *testing.T) {
			_, cfg, err := Resolve(p.ID, filepath.Join("..", "..", "scenes"))
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if err := cfg.Sanitize().Validate(); err != nil {
				t.Errorf("Expected a valid config, got %v", err)
			}
		})
	}
}
