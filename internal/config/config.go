// Package config loads server tuning knobs from YAML, grounded on
// dcosson-h2's internal/config Load/LoadFrom shape. Defaults match
// spec.md §4.2 (screen size, max window) and §4.4.1 (pending-bytes
// cap) when no file is given.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/condrv-project/condrv/internal/cellgrid"
)

// Config holds the server's tunable defaults.
type Config struct {
	ScreenSize struct {
		X int16 `yaml:"x"`
		Y int16 `yaml:"y"`
	} `yaml:"screen_size"`
	MaxWindow struct {
		X int16 `yaml:"x"`
		Y int16 `yaml:"y"`
	} `yaml:"max_window"`
	HistoryBufferSize int    `yaml:"history_buffer_size"`
	PendingBytesCap   int    `yaml:"pending_bytes_cap"`
	LogLevel          string `yaml:"log_level"`
}

// Default returns the classic-console defaults.
func Default() Config {
	var c Config
	c.ScreenSize.X, c.ScreenSize.Y = 120, 40
	c.MaxWindow.X, c.MaxWindow.Y = 1024, 1024
	c.HistoryBufferSize = 50
	c.PendingBytesCap = 128
	c.LogLevel = "info"
	return c
}

// Load reads a YAML config from path, filling any field the file
// omits with the corresponding Default() value. A missing file is not
// an error: Load returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.ScreenSize.X <= 0 || cfg.ScreenSize.Y <= 0 {
		d := Default()
		cfg.ScreenSize = d.ScreenSize
	}
	if cfg.MaxWindow.X <= 0 || cfg.MaxWindow.Y <= 0 {
		d := Default()
		cfg.MaxWindow = d.MaxWindow
	}
	if cfg.HistoryBufferSize <= 0 {
		cfg.HistoryBufferSize = Default().HistoryBufferSize
	}
	if cfg.PendingBytesCap <= 0 {
		cfg.PendingBytesCap = Default().PendingBytesCap
	}
	return cfg, nil
}

// Size converts the configured screen size into a cellgrid.Point.
func (c Config) Size() cellgrid.Point { return cellgrid.Point{X: c.ScreenSize.X, Y: c.ScreenSize.Y} }
