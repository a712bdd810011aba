package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/quizbank/qbank/internal/atomicfile"
)

type persistedConfig struct {
	DataDir      *string              `toml:"data_dir,omitempty"`
	DefaultStore *string              `toml:"default_store,omitempty"`
	StateFile    *string              `toml:"state_file,omitempty"`
	Stores       map[string]string    `toml:"stores,omitempty"`
	Log          *persistedLogConfig  `toml:"log,omitempty"`
	UI           *persistedUISettings `toml:"ui,omitempty"`
}

type persistedLogConfig struct {
	Level  *string `toml:"level,omitempty"`
	Format *string `toml:"format,omitempty"`
}

type persistedUISettings struct {
	Accent    *string `toml:"accent,omitempty"`
	CodeTheme *string `toml:"code_theme,omitempty"`
}

func nonEmptyPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// SaveTo writes the global config to path atomically. Empty settings are
// omitted.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	out := persistedConfig{
		DataDir:      nonEmptyPtr(cfg.DataDir),
		DefaultStore: nonEmptyPtr(cfg.DefaultStore),
		StateFile:    nonEmptyPtr(cfg.StateFile),
	}
	if len(cfg.Stores) > 0 {
		out.Stores = cfg.Stores
	}

	level, format := nonEmptyPtr(cfg.Log.Level), nonEmptyPtr(cfg.Log.Format)
	if level != nil || format != nil {
		out.Log = &persistedLogConfig{Level: level, Format: format}
	}

	accent, codeTheme := nonEmptyPtr(cfg.UI.Accent), nonEmptyPtr(cfg.UI.CodeTheme)
	if accent != nil || codeTheme != nil {
		out.UI = &persistedUISettings{Accent: accent, CodeTheme: codeTheme}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}

	return nil
}
