package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/pixelsculpt/internal/sculpt"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if cfg.Image.Width != 128 || cfg.Image.Height != 64 {
		t.Errorf("Expected 128x64 default resolution, got %dx%d", cfg.Image.Width, cfg.Image.Height)
	}
	if cfg.Engine.BlockSize != 8 {
		t.Errorf("Expected block size 8, got %d", cfg.Engine.BlockSize)
	}
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected default addr, got %q", cfg.Server.Addr)
	}
}

func TestLoadConfigPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`engine:
  spatialWeight: 2.5
  enforceThreshold: true
image:
  width: 64
  height: 32
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Engine.SpatialWeight != 2.5 || !cfg.Engine.EnforceThreshold {
		t.Errorf("Engine overrides not applied: %+v", cfg.Engine)
	}
	if cfg.Engine.FeatureWeight != 1.5 || cfg.Engine.BlockSize != 8 {
		t.Errorf("Unset engine keys should keep defaults: %+v", cfg.Engine)
	}
	if cfg.Image.Width != 64 || cfg.Image.Height != 32 {
		t.Errorf("Expected 64x32, got %dx%d", cfg.Image.Width, cfg.Image.Height)
	}
}

func TestLoadConfigRejectsUntileableResolution(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("image:\n  width: 24\n  height: 16\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	_, err := LoadConfig(path)
	if !errors.Is(err, sculpt.ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch for 24x16 with multi-scale, got %v", err)
	}
}

func TestValidateDimensionsRejectsSizesBelowQualityWindow(t *testing.T) {
	p := sculpt.DefaultParams()
	p.BlockSize = 4
	p.MultiScale = false

	if err := ValidateDimensions(8, 4, p); !errors.Is(err, sculpt.ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch for 8x4, got %v", err)
	}
	if err := ValidateDimensions(8, 8, p); err != nil {
		t.Errorf("Expected 8x8 to be accepted, got %v", err)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("engine: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Engine.HalfWeight = 0.25
	cfg.MQTT.SourceTopic = "reef/in"
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Engine != cfg.Engine {
		t.Errorf("Engine params not preserved: got %+v, want %+v", loaded.Engine, cfg.Engine)
	}
	if loaded.MQTT.SourceTopic != "reef/in" {
		t.Errorf("Expected source topic reef/in, got %q", loaded.MQTT.SourceTopic)
	}
}
