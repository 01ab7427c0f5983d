// Package config handles loading, validation, and env overrides of stepgrid configuration files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/mweers/mweers.github.io/internal/layout"
	"github.com/mweers/mweers.github.io/internal/mapping"
	"github.com/mweers/mweers.github.io/internal/stats"
)

// DefaultPath is looked up when --config is not given. A missing file there is not an error.
const DefaultPath = "stepgrid.toml"

// Config represents the complete stepgrid configuration
type Config struct {
	// Where the steps CSV lives: a file path, an http(s) URL or gh:OWNER/REPO/PATH[@REF]
	Source  string        `toml:"source" yaml:"source"`
	Palette PaletteConfig `toml:"palette" yaml:"palette"`
	Layout  LayoutConfig  `toml:"layout" yaml:"layout"`
	Tooltip TooltipConfig `toml:"tooltip" yaml:"tooltip"`
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Log     LogConfig     `toml:"log" yaml:"log"`
	// Daily step goal used by the summary statistics
	Goal int `toml:"goal" yaml:"goal"`
}

// PaletteConfig holds the color band settings
type PaletteConfig struct {
	Bands    int    `toml:"bands" yaml:"bands"`
	BandSize int    `toml:"bandSize" yaml:"bandSize"`
	Start    string `toml:"start" yaml:"start"`
	Middle   string `toml:"middle" yaml:"middle"`
	End      string `toml:"end" yaml:"end"`
}

// LayoutConfig holds the page grid settings (pixels)
type LayoutConfig struct {
	// fit: best-fit squares in reading order; calendar: weekday rows x week columns
	Mode    string `toml:"mode" yaml:"mode"`
	Width   int    `toml:"width" yaml:"width"`
	Height  int    `toml:"height" yaml:"height"`
	Gap     int    `toml:"gap" yaml:"gap"`
	MinCell int    `toml:"minCell" yaml:"minCell"`
	MaxCell int    `toml:"maxCell" yaml:"maxCell"`
}

// TooltipConfig holds the tooltip fade timings
type TooltipConfig struct {
	FadeInMs  int `toml:"fadeInMs" yaml:"fadeInMs"`
	FadeOutMs int `toml:"fadeOutMs" yaml:"fadeOutMs"`
}

// ServerConfig holds the preview server settings
type ServerConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
	// Reload the data when a local CSV changes
	Watch bool `toml:"watch" yaml:"watch"`
	// Quiet period after the last file event before reloading
	Debounce Duration `toml:"debounce" yaml:"debounce"`
}

// LogConfig holds the logger settings
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
	JSON  bool   `toml:"json" yaml:"json"`
}

const (
	LayoutFit      = layout.ModeFit
	LayoutCalendar = layout.ModeCalendar
)

// Duration is a time.Duration that decodes from strings like "250ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Source: "steps.csv",
		Palette: PaletteConfig{
			Bands:    mapping.DefaultBands,
			BandSize: mapping.DefaultBandSize,
			Start:    mapping.DefaultStartColor,
			Middle:   mapping.DefaultMiddleColor,
			End:      mapping.DefaultEndColor,
		},
		Layout: LayoutConfig{
			Mode:    LayoutFit,
			Width:   960,
			Height:  540,
			Gap:     2,
			MinCell: 4,
			MaxCell: 40,
		},
		Tooltip: TooltipConfig{
			FadeInMs:  200,
			FadeOutMs: 500,
		},
		Server: ServerConfig{
			Addr:     "127.0.0.1:8080",
			Watch:    true,
			Debounce: Duration{250 * time.Millisecond},
		},
		Log: LogConfig{
			Level: "info",
		},
		Goal: stats.DefaultGoal,
	}
}

// Load reads the config file at path on top of the defaults. The format is
// picked by extension: .yaml/.yml for YAML, anything else is TOML.
// An empty path loads DefaultPath if it exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	default:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return cfg, &Error{Field: keys[0], Message: fmt.Sprintf("unknown key in %s (unknown: %s)", path, strings.Join(keys, ", "))}
		}
	}
	return cfg, nil
}

// ApplyEnv overlays STEPGRID_* environment variables. Unparseable values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("STEPGRID_SOURCE"); v != "" {
		c.Source = v
	}
	if v := getenv("STEPGRID_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := getenv("STEPGRID_LAYOUT"); v != "" {
		c.Layout.Mode = v
	}
	if v := getenv("STEPGRID_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("STEPGRID_LOG_JSON"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Log.JSON = b
		}
	}
	if v := getenv("STEPGRID_WATCH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Server.Watch = b
		}
	}
	if v := getenv("STEPGRID_GOAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Goal = n
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source) == "" {
		return &Error{Field: "source", Message: "must not be empty"}
	}
	if c.Palette.Bands < 1 {
		return &Error{Field: "palette.bands", Message: "must be at least 1"}
	}
	if c.Palette.BandSize < 1 {
		return &Error{Field: "palette.bandSize", Message: "must be at least 1"}
	}
	if _, err := c.BuildPalette(); err != nil {
		return &Error{Field: "palette", Message: err.Error()}
	}
	switch c.Layout.Mode {
	case LayoutFit, LayoutCalendar:
	default:
		return &Error{Field: "layout.mode", Message: fmt.Sprintf("must be %q or %q, got %q", LayoutFit, LayoutCalendar, c.Layout.Mode)}
	}
	if c.Layout.Width < 1 {
		return &Error{Field: "layout.width", Message: "must be at least 1"}
	}
	if c.Layout.Gap < 0 {
		return &Error{Field: "layout.gap", Message: "must not be negative"}
	}
	if c.Layout.MinCell < 0 || c.Layout.MaxCell < 0 {
		return &Error{Field: "layout.minCell", Message: "cell clamps must not be negative"}
	}
	if c.Layout.MaxCell > 0 && c.Layout.MinCell > c.Layout.MaxCell {
		return &Error{Field: "layout.minCell", Message: "must be <= layout.maxCell"}
	}
	if c.Tooltip.FadeInMs < 0 || c.Tooltip.FadeOutMs < 0 {
		return &Error{Field: "tooltip", Message: "fade durations must not be negative"}
	}
	if c.Server.Debounce.Duration < 0 {
		return &Error{Field: "server.debounce", Message: "must not be negative"}
	}
	if c.Goal < 0 {
		return &Error{Field: "goal", Message: "must not be negative"}
	}
	return nil
}

// BuildPalette converts the palette section into band definitions.
func (c *Config) BuildPalette() (mapping.Palette, error) {
	return mapping.NewPalette(mapping.PaletteOptions{
		Bands:    c.Palette.Bands,
		BandSize: c.Palette.BandSize,
		Start:    c.Palette.Start,
		Middle:   c.Palette.Middle,
		End:      c.Palette.End,
	})
}

// Container returns the page container described by the layout section.
func (c *Config) Container() layout.Container {
	return layout.Container{
		Width:   c.Layout.Width,
		Height:  c.Layout.Height,
		Gap:     c.Layout.Gap,
		MinCell: c.Layout.MinCell,
		MaxCell: c.Layout.MaxCell,
	}
}

// Error represents a configuration error.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return "config error: " + e.Field + " " + e.Message
}
