package main

import (
	"path/filepath"
	"testing"

	"github.com/cwbudde/pixelsculpt/internal/config"
)

func TestInitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pixelsculpt.yaml")

	if err := initConfigFile(path, false); err != nil {
		t.Fatalf("initConfigFile failed: %v", err)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("Written config should load: %v", err)
	}
	if cfg.Engine != config.DefaultConfig().Engine {
		t.Errorf("Expected default engine params, got %+v", cfg.Engine)
	}

	if err := initConfigFile(path, false); err == nil {
		t.Error("Expected error when the file exists without --force")
	}
	if err := initConfigFile(path, true); err != nil {
		t.Errorf("Expected overwrite with force, got %v", err)
	}
}
