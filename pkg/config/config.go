// Package config holds the settings cfgdot reads once at startup.
//
// Settings come from three layers, later ones winning:
//
//  1. built-in defaults ([Default])
//  2. a TOML file, by default $XDG_CONFIG_HOME/cfgdot/config.toml
//  3. command-line flags, applied by the CLI
//
// A config file looks like:
//
//	dot_path = "/opt/homebrew/bin/dot"
//	default_font = "Menlo"
//	default_font_size = 11
//	dpi = 200
//	debounce = "150ms"
//
// [Config.Validate] enforces the same ranges the settings dialog offers:
// font size 8-40 and DPI 72-300.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	cerrors "github.com/matzehuels/cfgdot/pkg/errors"
)

const appName = "cfgdot"

// Ranges accepted by Validate.
const (
	MinFontSize = 8
	MaxFontSize = 40
	MinDPI      = 72
	MaxDPI      = 300
)

// BuiltinRenderer selects the in-process Graphviz backend instead of an
// external dot executable.
const BuiltinRenderer = "builtin"

// Duration wraps time.Duration so TOML files can say "150ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the full settings surface.
type Config struct {
	// DotPath is the rasterizer executable, or "builtin".
	DotPath string `toml:"dot_path"`
	// DefaultFont is the node font a session starts with.
	DefaultFont string `toml:"default_font"`
	// DefaultFontSize is the node font size a session starts with.
	DefaultFontSize int `toml:"default_font_size"`
	// DPI is passed to the rasterizer as -Gdpi.
	DPI int `toml:"dpi"`
	// Debounce is the delay after the last option change before a refresh.
	Debounce Duration `toml:"debounce"`
	// TempDir holds the reused .dot and image files. Empty means os.TempDir().
	TempDir string `toml:"temp_dir"`

	CacheDir  string `toml:"cache_dir"`
	NoCache   bool   `toml:"no_cache"`
	RedisAddr string `toml:"redis_addr"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DotPath:         "/usr/local/bin/dot",
		DefaultFont:     "Courier",
		DefaultFontSize: 10,
		DPI:             150,
		Debounce:        Duration{150 * time.Millisecond},
	}
}

// Load reads path on top of the defaults. A missing file is not an error;
// an empty path means [Path].
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		p, err := Path()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, cerrors.Wrap(cerrors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	return cfg, nil
}

// Validate checks ranges and required values.
func (c Config) Validate() error {
	if c.DotPath == "" {
		return cerrors.New(cerrors.ErrCodeInvalidConfig, "dot_path must not be empty")
	}
	if c.DefaultFontSize < MinFontSize || c.DefaultFontSize > MaxFontSize {
		return cerrors.New(cerrors.ErrCodeInvalidConfig, "default_font_size %d out of range %d-%d",
			c.DefaultFontSize, MinFontSize, MaxFontSize)
	}
	if c.DPI < MinDPI || c.DPI > MaxDPI {
		return cerrors.New(cerrors.ErrCodeInvalidConfig, "dpi %d out of range %d-%d", c.DPI, MinDPI, MaxDPI)
	}
	if c.Debounce.Duration < 0 {
		return cerrors.New(cerrors.ErrCodeInvalidConfig, "debounce must not be negative")
	}
	return nil
}

// Builtin reports whether the in-process renderer is selected.
func (c Config) Builtin() bool {
	return c.DotPath == BuiltinRenderer
}

// Encode renders c as TOML, for "cfgdot config show".
func (c Config) Encode() (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ClampFontSize pins size into the accepted font size range.
func ClampFontSize(size int) int {
	return max(MinFontSize, min(MaxFontSize, size))
}

// Path returns the default config file location using the XDG standard
// (~/.config/cfgdot/config.toml).
func Path() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// CachePath returns the image cache directory: the configured one, else
// $XDG_CACHE_HOME/cfgdot, else ~/.cache/cfgdot.
func (c Config) CachePath() (string, error) {
	if c.CacheDir != "" {
		return c.CacheDir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate cache dir: %w", err)
	}
	return filepath.Join(home, ".cache", appName), nil
}
