// Package config loads and saves the weave configuration file.
// Settings live in config.toml under the XDG config directory; board
// data goes under the XDG data directory.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"weave/internal/canvas"
)

// Config holds weave configuration.
type Config struct {
	Board   BoardConfig   `toml:"board"`
	Canvas  CanvasConfig  `toml:"canvas"`
	Connect ConnectConfig `toml:"connect"`
	Export  ExportConfig  `toml:"export"`
	UI      UIConfig      `toml:"ui"`
}

// BoardConfig controls where board data is stored and how often it is
// flushed to disk.
type BoardConfig struct {
	DataDirectory string `toml:"data_directory"` // empty means the XDG data dir
	AutosaveMS    int    `toml:"autosave_ms"`
}

// CanvasConfig tunes the canvas engine.
type CanvasConfig struct {
	MinZoom     float64 `toml:"min_zoom"`
	MaxZoom     float64 `toml:"max_zoom"`
	EdgeStyle   string  `toml:"edge_style"` // "straight", "curved", "scurve", "orthogonal", "smart"
	LaneSpacing float64 `toml:"lane_spacing"`
	Margin      float64 `toml:"margin"`
	ProximityPx float64 `toml:"proximity_px"`
}

// ConnectConfig lists the node kind pairs the proximity connector may
// join, written as "kind-kind" (order does not matter).
type ConnectConfig struct {
	Pairs []string `toml:"pairs"`
}

// ExportConfig controls PNG export.
type ExportConfig struct {
	Scale   float64 `toml:"scale"`
	Padding float64 `toml:"padding"`
}

// UIConfig controls display options.
type UIConfig struct {
	Color         bool `toml:"color"`
	Confirmations bool `toml:"confirmations"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Board: BoardConfig{AutosaveMS: 800},
		Canvas: CanvasConfig{
			MinZoom:     0.1,
			MaxZoom:     4.0,
			EdgeStyle:   "smart",
			LaneSpacing: 14,
			Margin:      20,
			ProximityPx: 48,
		},
		Connect: ConnectConfig{Pairs: []string{"note-thread", "image-thread"}},
		Export:  ExportConfig{Scale: 1.0, Padding: 40},
		UI:      UIConfig{Color: true, Confirmations: true},
	}
}

// ConfigDir returns the weave config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "weave")
}

// DataDir returns the weave data directory path.
func DataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "weave")
}

func configPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() *Config {
	cfg := Default()
	data, err := os.ReadFile(configPath())
	if err != nil {
		return cfg
	}
	_ = toml.Unmarshal(data, cfg)
	return cfg
}

// Save writes the config to disk.
func Save(cfg *Config) error {
	path := configPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	if _, err := os.Stat(configPath()); err == nil {
		return nil
	}
	return Save(Default())
}

// BoardDir returns the directory holding the board database and any
// linked content files, creating it if needed.
func (c *Config) BoardDir() string {
	dir := c.Board.DataDirectory
	if dir == "" {
		dir = DataDir()
	} else if strings.HasPrefix(dir, "~") {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	os.MkdirAll(dir, 0o755)
	return dir
}

// DBPath returns the path of the board database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.BoardDir(), "boards.db")
}

// Engine translates the file settings into an engine configuration.
// Unknown edge styles and malformed pairs fall back to the engine
// defaults.
func (c *Config) Engine() canvas.Config {
	ec := canvas.Config{
		MinZoom:            c.Canvas.MinZoom,
		MaxZoom:            c.Canvas.MaxZoom,
		LaneSpacing:        c.Canvas.LaneSpacing,
		CollideMargin:      c.Canvas.Margin,
		ProximityThreshold: c.Canvas.ProximityPx,
	}

	switch c.Canvas.EdgeStyle {
	case "straight":
		ec.PathKind = canvas.PathStraight
	case "curved":
		ec.PathKind = canvas.PathBezier
	case "scurve":
		ec.PathKind = canvas.PathSCurve
	case "orthogonal":
		ec.PathKind = canvas.PathOrtho
	case "smart", "":
		ec.PathKind = canvas.PathSmart
	}

	for _, p := range c.Connect.Pairs {
		a, b, ok := strings.Cut(strings.TrimSpace(p), "-")
		if !ok {
			continue
		}
		ka, kb := canvas.NodeKind(a), canvas.NodeKind(b)
		if !canvas.KnownKind(ka) || !canvas.KnownKind(kb) || ka == kb {
			continue
		}
		ec.Compatibility = append(ec.Compatibility, canvas.KindPair{A: ka, B: kb})
	}

	return ec
}
