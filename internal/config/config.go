// Package config handles global qbank configuration (config.toml), machine
// local state (state.toml) and per-store settings (qbank.yaml).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultDataDir is the data root used when nothing else is configured,
// relative to the working directory.
const DefaultDataDir = "data"

// Config represents the global qbank configuration.
type Config struct {
	// DataDir is the data root used when no named store is selected.
	DataDir string `toml:"data_dir"`

	// DefaultStore is the name of the default store (from Stores).
	DefaultStore string `toml:"default_store"`

	// Stores maps store names to data root paths.
	Stores map[string]string `toml:"stores"`

	// StateFile optionally overrides where state.toml lives. Relative paths
	// are resolved against the config file's directory.
	StateFile string `toml:"state_file"`

	// Log controls diagnostic logging on stderr.
	Log LogConfig `toml:"log"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default warn).
	Level string `toml:"level"`
	// Format is "text" (default) or "json".
	Format string `toml:"format"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an ANSI color code ("0" to "255") or hex color ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used for code blocks in
	// rendered chapters.
	CodeTheme string `toml:"code_theme"`
}

// GetStorePath returns the data root for a named store. An empty name means
// the default store.
func (c *Config) GetStorePath(name string) (string, error) {
	if name == "" {
		name = c.DefaultStore
	}
	if name == "" {
		return "", fmt.Errorf("no default store configured")
	}
	if path, ok := c.Stores[name]; ok {
		return expandHome(path), nil
	}
	return "", fmt.Errorf("store '%s' not found in config", name)
}

// GetDefaultStorePath returns the default store's data root.
func (c *Config) GetDefaultStorePath() (string, error) {
	return c.GetStorePath("")
}

// StoreNames returns configured store names in sorted order.
func (c *Config) StoreNames() []string {
	names := make([]string, 0, len(c.Stores))
	for name := range c.Stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetDataDir returns DataDir or DefaultDataDir.
func (c *Config) GetDataDir() string {
	if strings.TrimSpace(c.DataDir) != "" {
		return expandHome(c.DataDir)
	}
	return DefaultDataDir
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// Load loads the configuration from the default location.
// Returns an empty config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &config, nil
}

// DefaultPath returns the default config file path.
// Checks ~/.config/qbank/config.toml first (XDG style),
// then falls back to the OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "qbank", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "qbank", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

const defaultConfigTemplate = `# qbank configuration

# Data root used when no store is selected (default: ./data)
# data_dir = "~/quiz/data"

# Default store name (must exist in [stores] below)
# default_store = "school"

# Named data roots
# [stores]
# school = "/path/to/school/data"
# work = "/path/to/work/data"

# Diagnostic logging on stderr
# [log]
# level = "warn"    # debug, info, warn, error
# format = "text"   # text or json

# Optional UI accent color for headers and paths in terminal output.
# Supports ANSI color codes (0-255) or hex (#RRGGBB).
# [ui]
# accent = "39"
# code_theme = "monokai"
`

// CreateDefaultAt writes a commented default config to path unless a file is
// already there. It reports whether a file was created.
func CreateDefaultAt(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}
