package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/visual-tutor/engine/buffer"
	"github.com/visual-tutor/engine/showtell"
)

// Config holds initialization parameters for the engine's subsystems.
type Config struct {
	Buffer   buffer.Config   `json:"buffer" yaml:"buffer"`
	ShowTell showtell.Config `json:"show_then_tell" yaml:"show_then_tell"`
}

// DefaultConfig returns a Config with the contract defaults: a capacity
// of 1000 items, a 1000 ms dedup window, and a 400 ms visual lead.
func DefaultConfig() Config {
	return Config{
		Buffer:   buffer.DefaultConfig(),
		ShowTell: showtell.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Buffer.Merge(&source.Buffer)
	c.ShowTell.Merge(&source.ShowTell)
}

// LoadConfig reads a config file, merges it with defaults, and returns
// the result. The decoder is picked by extension: .yaml/.yml use YAML,
// anything else is treated as JSON.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch filepath.Ext(filename) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &loaded); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
