// Package config provides configuration loading and management for pixelsculpt.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/pixelsculpt/internal/sculpt"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Engine holds the transformation constants (block size, weights, blend, gate)
	Engine sculpt.Params `yaml:"engine"`

	// Image parameters
	Image struct {
		// Width and Height are the fixed working resolution both images are resized to.
		// They must be multiples of twice the block size when multi-scale is enabled.
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"image"`

	// Server parameters
	Server struct {
		// Addr is the HTTP listen address
		Addr string `yaml:"addr"`

		// DataDir is where job results are persisted
		DataDir string `yaml:"dataDir"`
	} `yaml:"server"`

	// MQTT transport parameters
	MQTT struct {
		Broker      string `yaml:"broker"`
		Port        int    `yaml:"port"`
		ClientID    string `yaml:"clientID"`
		SourceTopic string `yaml:"sourceTopic"`
		ResultTopic string `yaml:"resultTopic"`
		QoS         byte   `yaml:"qos"`

		// TargetPath is the target image loaded once at startup
		TargetPath string `yaml:"targetPath"`
	} `yaml:"mqtt"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Engine = sculpt.DefaultParams()

	cfg.Image.Width = 128
	cfg.Image.Height = 64

	cfg.Server.Addr = ":8080"
	cfg.Server.DataDir = "./data"

	cfg.MQTT.Broker = "broker.mqttdashboard.com"
	cfg.MQTT.Port = 1883
	cfg.MQTT.ClientID = "pixelsculpt"
	cfg.MQTT.SourceTopic = "coralcrib/img"
	cfg.MQTT.ResultTopic = "pixelsculpt/result"
	cfg.MQTT.QoS = 0
	cfg.MQTT.TargetPath = "target_image.jpg"

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
// Keys missing from the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}

// Validate checks the engine parameters and that the working resolution tiles.
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	return ValidateDimensions(c.Image.Width, c.Image.Height, c.Engine)
}

// ValidateDimensions reports whether a width x height working resolution can be
// tiled at every scale the engine runs.
func ValidateDimensions(width, height int, p sculpt.Params) error {
	if width < sculpt.SSIMWindow || height < sculpt.SSIMWindow {
		return fmt.Errorf("image size %dx%d is below the %dx%d quality window: %w",
			width, height, sculpt.SSIMWindow, sculpt.SSIMWindow, sculpt.ErrDimensionMismatch)
	}
	if _, err := sculpt.Tiles(width, height, p.BlockSize); err != nil {
		return fmt.Errorf("image size: %w", err)
	}
	if p.MultiScale {
		if _, err := sculpt.Tiles(width/2, height/2, p.BlockSize); err != nil {
			return fmt.Errorf("half-scale image size: %w", err)
		}
	}
	return nil
}
