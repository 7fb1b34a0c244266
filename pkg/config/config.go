// Package config provides configuration loading and management for the
// annotation engine. It handles loading configuration from YAML files
// and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the engine configuration loaded from YAML
type Config struct {
	// Tool parameters
	Tools struct {
		// BrushRadius is the default brush radius in pixels (1..30)
		BrushRadius int `yaml:"brushRadius"`

		// EraserRadius is the default eraser radius in pixels (1..30)
		EraserRadius int `yaml:"eraserRadius"`
	} `yaml:"tools"`

	// Preview parameters
	Preview struct {
		// AutoRecompute enables recomputing the interpolation preview
		// after every committed edit
		AutoRecompute bool `yaml:"autoRecompute"`

		// DebounceMs is the coalescing delay for preview recomputes in
		// milliseconds
		DebounceMs int `yaml:"debounceMs"`

		// DotSpacing is the pixel spacing of the dotted preview outline
		DotSpacing int `yaml:"dotSpacing"`
	} `yaml:"preview"`

	// Display parameters
	Display struct {
		// OutlineThickness is the committed outline thickness in pixels
		OutlineThickness int `yaml:"outlineThickness"`

		// Palette is the ROI color cycle, as "#rrggbb" values or color
		// names
		Palette []string `yaml:"palette"`
	} `yaml:"display"`

	// History parameters
	History struct {
		// Depth is the maximum number of undo (and redo) entries
		Depth int `yaml:"depth"`
	} `yaml:"history"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default tool parameters
	cfg.Tools.BrushRadius = 5
	cfg.Tools.EraserRadius = 5

	// Set default preview parameters
	cfg.Preview.AutoRecompute = true
	cfg.Preview.DebounceMs = 150
	cfg.Preview.DotSpacing = 3

	// Set default display parameters
	cfg.Display.OutlineThickness = 1
	cfg.Display.Palette = []string{
		"#e6194b", "#3cb44b", "#0082c8", "#f58231", "#911eb4", "#46f0f0",
		"#f032e6", "#d2f53c", "#fabebe", "#008080", "#e6beff", "#aa6e28",
	}

	// Set default history parameters
	cfg.History.Depth = 40

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
