// Package config handles configuration loading, validation, and management for keycast.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"keycast/internal/keysym"
	"keycast/internal/layout"
	"keycast/internal/logging"
	"keycast/internal/tracker"
)

// Version is the current configuration schema version.
const Version = 1

// Environment variables read by ApplyEnvOverrides and ConfigPath.
const (
	EnvConfig          = "KEYCAST_CONFIG"
	EnvHistoryCapacity = "KEYCAST_HISTORY_CAPACITY"
	EnvFadeMs          = "KEYCAST_FADE_MS"
	EnvJustify         = "KEYCAST_JUSTIFY"
	EnvLogLevel        = "KEYCAST_LOG_LEVEL"
)

// Config holds the complete overlay configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	History HistoryConfig `toml:"history" json:"history" yaml:"history"`
	Fade    FadeConfig    `toml:"fade" json:"fade" yaml:"fade"`
	Overlay OverlayConfig `toml:"overlay" json:"overlay" yaml:"overlay"`
	Input   InputConfig   `toml:"input" json:"input" yaml:"input"`
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
	Notify  NotifyConfig  `toml:"notify" json:"notify" yaml:"notify"`
}

// HistoryConfig sizes the combo history.
type HistoryConfig struct {
	// Capacity is the number of combos shown, 1 to 8.
	Capacity int `toml:"capacity" json:"capacity" yaml:"capacity"`
}

// FadeConfig controls the fade-out after the last key release.
type FadeConfig struct {
	// DurationMs is the fade duration. The decay after the 300ms hold
	// lasts twice this long.
	DurationMs int `toml:"duration_ms" json:"duration_ms" yaml:"duration_ms"`

	// TickMs is the fade timer period.
	TickMs int `toml:"tick_ms" json:"tick_ms" yaml:"tick_ms"`
}

// OverlayConfig holds the chip geometry, in dp.
type OverlayConfig struct {
	// Justify is "left", "right" or "center".
	Justify string `toml:"justify" json:"justify" yaml:"justify"`

	OffsetX      int `toml:"offset_x" json:"offset_x" yaml:"offset_x"`
	OffsetBottom int `toml:"offset_bottom" json:"offset_bottom" yaml:"offset_bottom"`
	Padding      int `toml:"padding" json:"padding" yaml:"padding"`
	ComboSpacing int `toml:"combo_spacing" json:"combo_spacing" yaml:"combo_spacing"`
	LabelSpacing int `toml:"label_spacing" json:"label_spacing" yaml:"label_spacing"`
	LabelGap     int `toml:"label_gap" json:"label_gap" yaml:"label_gap"`

	// GlyphSize and LabelSize are text sizes in sp.
	GlyphSize int `toml:"glyph_size" json:"glyph_size" yaml:"glyph_size"`
	LabelSize int `toml:"label_size" json:"label_size" yaml:"label_size"`

	// Width and Height size the overlay window.
	Width  int `toml:"width" json:"width" yaml:"width"`
	Height int `toml:"height" json:"height" yaml:"height"`
}

// InputConfig selects and tunes the key source.
type InputConfig struct {
	// Device is an evdev path; empty autodetects keyboards. Linux only.
	Device string `toml:"device" json:"device" yaml:"device"`

	// ModifierSampling is "release" or "press".
	ModifierSampling string `toml:"modifier_sampling" json:"modifier_sampling" yaml:"modifier_sampling"`

	// ToggleKey, released with ctrl+alt+shift held, hides or shows the
	// overlay. "none" disables it.
	ToggleKey string `toml:"toggle_key" json:"toggle_key" yaml:"toggle_key"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is "stdout", "stderr", "file" or "both".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file when Output includes a file.
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the maximum log file size before rotation.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
}

// NotifyConfig controls desktop notifications.
type NotifyConfig struct {
	// Enabled posts a notification when the overlay is hidden or shown.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		History: HistoryConfig{Capacity: 3},
		Fade: FadeConfig{
			DurationMs: 1000,
			TickMs:     17,
		},
		Overlay: OverlayConfig{
			Justify:      "right",
			OffsetX:      32,
			OffsetBottom: 48,
			Padding:      12,
			ComboSpacing: 16,
			LabelSpacing: 2,
			LabelGap:     6,
			GlyphSize:    36,
			LabelSize:    11,
			Width:        900,
			Height:       160,
		},
		Input: InputConfig{
			ModifierSampling: "release",
			ToggleKey:        "F6",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   logging.DefaultLogPath(),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Notify: NotifyConfig{Enabled: true},
	}
}

// ConfigPath returns the configuration file path: $KEYCAST_CONFIG if set,
// otherwise config.toml in the platform config directory.
func ConfigPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// Load reads configuration from path, applies environment overrides and
// validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	if _, err := MigrateConfig(cfg, ""); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// loadConfigFromFile decodes path over the defaults, by extension.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := fileDefaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		cfg, err = autoDetectAndParse(data)
		if err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	return cfg, nil
}

// fileDefaults is the decode target for files: the defaults with the
// version cleared, so an unversioned file reads as version 0.
func fileDefaults() *Config {
	cfg := DefaultConfig()
	cfg.Version = 0
	return cfg
}

// autoDetectAndParse tries TOML, then JSON, then YAML, each over fresh
// defaults so a failed attempt leaves nothing behind.
func autoDetectAndParse(data []byte) (*Config, error) {
	cfg := fileDefaults()
	if _, err := toml.Decode(string(data), cfg); err == nil {
		return cfg, nil
	}
	cfg = fileDefaults()
	if err := json.Unmarshal(data, cfg); err == nil {
		return cfg, nil
	}
	cfg = fileDefaults()
	if err := yaml.Unmarshal(data, cfg); err == nil {
		return cfg, nil
	}
	return nil, fmt.Errorf("unable to parse config file (tried TOML, JSON, YAML)")
}

// ApplyEnvOverrides applies KEYCAST_* environment variables.
func (c *Config) ApplyEnvOverrides() error {
	if v := os.Getenv(EnvHistoryCapacity); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHistoryCapacity, err)
		}
		c.History.Capacity = n
	}
	if v := os.Getenv(EnvFadeMs); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvFadeMs, err)
		}
		c.Fade.DurationMs = n
	}
	if v := os.Getenv(EnvJustify); v != "" {
		c.Overlay.Justify = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// FadeDuration returns the fade duration.
func (c *Config) FadeDuration() time.Duration {
	return time.Duration(c.Fade.DurationMs) * time.Millisecond
}

// TickInterval returns the fade timer period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Fade.TickMs) * time.Millisecond
}

// ToggleKey returns the visibility toggle key, or 0 when disabled.
func (c *Config) ToggleKey() (keysym.Code, error) {
	name := c.Input.ToggleKey
	if name == "" || strings.EqualFold(name, "none") {
		return 0, nil
	}
	code, ok := keysym.Parse(name)
	if !ok {
		return 0, fmt.Errorf("unknown toggle key %q", name)
	}
	return code, nil
}

// TrackerConfig converts the input section for the tracker.
func (c *Config) TrackerConfig() (tracker.Config, error) {
	sampling, err := tracker.ParseSampling(c.Input.ModifierSampling)
	if err != nil {
		return tracker.Config{}, err
	}
	toggle, err := c.ToggleKey()
	if err != nil {
		return tracker.Config{}, err
	}
	return tracker.Config{Sampling: sampling, ToggleKey: toggle}, nil
}

// LayoutParams converts the overlay section. The viewport is left zero for
// the caller to fill from the window size.
func (c *Config) LayoutParams() (layout.Params, error) {
	j, err := layout.ParseJustify(c.Overlay.Justify)
	if err != nil {
		return layout.Params{}, err
	}
	o := c.Overlay
	return layout.Params{
		Padding:      float32(o.Padding),
		ComboSpacing: float32(o.ComboSpacing),
		LabelSpacing: float32(o.LabelSpacing),
		LabelGap:     float32(o.LabelGap),
		OffsetX:      float32(o.OffsetX),
		OffsetBottom: float32(o.OffsetBottom),
		Justify:      j,
	}, nil
}

// LoggerConfig converts the logging section.
func (c *Config) LoggerConfig() (*logging.Config, error) {
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(c.Logging.Format)
	if err != nil {
		return nil, err
	}
	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Format = format
	lc.Output = c.Logging.Output
	if c.Logging.FilePath != "" {
		lc.FilePath = c.Logging.FilePath
	}
	if c.Logging.MaxSizeMB > 0 {
		lc.MaxSize = int64(c.Logging.MaxSizeMB)
	}
	lc.MaxBackups = c.Logging.MaxBackups
	return lc, nil
}
