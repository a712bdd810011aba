package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/quizbank/qbank/internal/atomicfile"
)

// StateVersion is the current state.toml schema version.
const StateVersion = 1

// State is machine-local state written by `qbank store use` and
// `qbank subject use`.
type State struct {
	Version       int    `toml:"version"`
	ActiveStore   string `toml:"active_store,omitempty"`
	ActiveSubject string `toml:"active_subject,omitempty"`
}

var errNoStatePath = errors.New("state path is required")

// ResolveConfigPath returns explicit when set, else DefaultPath.
func ResolveConfigPath(explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	return DefaultPath()
}

// ResolveStatePath picks state.toml: the --state flag, then state_file from
// config.toml (relative to the config file), then state.toml next to the
// config file.
func ResolveStatePath(explicitStatePath, configPath string, cfg *Config) string {
	if strings.TrimSpace(explicitStatePath) != "" {
		return explicitStatePath
	}

	configDir := filepath.Dir(ResolveConfigPath(configPath))
	if cfg == nil || strings.TrimSpace(cfg.StateFile) == "" {
		return filepath.Join(configDir, "state.toml")
	}

	p := filepath.FromSlash(strings.TrimSpace(cfg.StateFile))
	// "/..." counts as absolute on Windows too.
	if filepath.IsAbs(p) || strings.HasPrefix(filepath.ToSlash(p), "/") {
		return filepath.Clean(p)
	}
	return filepath.Join(configDir, p)
}

// LoadState reads state.toml. A missing file yields an empty state.
func LoadState(path string) (*State, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errNoStatePath
	}

	state := &State{}
	if _, err := toml.DecodeFile(path, state); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to parse state %s: %w", path, err)
	}
	state.normalize()
	return state, nil
}

// SaveState writes state.toml atomically.
func SaveState(path string, state *State) error {
	if strings.TrimSpace(path) == "" {
		return errNoStatePath
	}

	out := State{}
	if state != nil {
		out = *state
	}
	out.normalize()

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write state %s: %w", path, err)
	}
	return nil
}

// UpdateState loads state.toml, applies mutate and writes it back.
func UpdateState(path string, mutate func(*State)) error {
	state, err := LoadState(path)
	if err != nil {
		return err
	}
	mutate(state)
	return SaveState(path, state)
}

func (s *State) normalize() {
	if s.Version == 0 {
		s.Version = StateVersion
	}
	s.ActiveStore = strings.TrimSpace(s.ActiveStore)
	s.ActiveSubject = strings.TrimSpace(s.ActiveSubject)
}
