package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quizbank/qbank/internal/atomicfile"
)

// SettingsFile is the per-store settings file at the data root.
const SettingsFile = "qbank.yaml"

// StoreSettings is the per-store configuration read from qbank.yaml.
type StoreSettings struct {
	Import *ImportSettings `yaml:"import,omitempty"`
	Export *ExportSettings `yaml:"export,omitempty"`
}

// ImportSettings controls the import pipeline.
type ImportSettings struct {
	// FailOnPartial reports an import as failed when any chapter file could
	// not be written (default: false, the import still succeeds and the
	// failures are listed).
	FailOnPartial *bool `yaml:"fail_on_partial,omitempty"`

	// AutoCatalog refreshes the search catalog after every import
	// (default: true).
	AutoCatalog *bool `yaml:"auto_catalog,omitempty"`
}

// ExportSettings controls `qbank export`.
type ExportSettings struct {
	// Format is "md" (default) or "html".
	Format string `yaml:"format,omitempty"`
}

// IsFailOnPartialEnabled returns the partial-write policy (default: false).
func (s *StoreSettings) IsFailOnPartialEnabled() bool {
	if s == nil || s.Import == nil || s.Import.FailOnPartial == nil {
		return false
	}
	return *s.Import.FailOnPartial
}

// IsAutoCatalogEnabled returns true if the catalog is refreshed after imports
// (default: true).
func (s *StoreSettings) IsAutoCatalogEnabled() bool {
	if s == nil || s.Import == nil || s.Import.AutoCatalog == nil {
		return true
	}
	return *s.Import.AutoCatalog
}

// ExportFormat returns the default export format.
func (s *StoreSettings) ExportFormat() string {
	if s == nil || s.Export == nil {
		return "md"
	}
	switch f := strings.ToLower(strings.TrimSpace(s.Export.Format)); f {
	case "html":
		return f
	default:
		return "md"
	}
}

// LoadStoreSettings reads qbank.yaml from a data root.
// Returns empty settings if the file doesn't exist.
func LoadStoreSettings(root string) (*StoreSettings, error) {
	path := filepath.Join(root, SettingsFile)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &StoreSettings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store settings %s: %w", path, err)
	}

	var settings StoreSettings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse store settings %s: %w", path, err)
	}
	return &settings, nil
}

const defaultSettingsTemplate = `# qbank store settings

import:
  # Report an import as failed when any chapter file cannot be written.
  # When false, the import succeeds and failed chapters are listed.
  fail_on_partial: false

  # Refresh the search catalog (.qbank/catalog.db) after every import.
  auto_catalog: true

# export:
#   format: md   # md or html
`

// CreateDefaultStoreSettings writes a commented qbank.yaml into root unless
// one exists. It reports whether a file was created.
func CreateDefaultStoreSettings(root string) (bool, error) {
	path := filepath.Join(root, SettingsFile)

	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := atomicfile.WriteFile(path, []byte(defaultSettingsTemplate), 0o644); err != nil {
		return false, fmt.Errorf("failed to write store settings: %w", err)
	}
	return true, nil
}

// SaveStoreSettings writes settings back to qbank.yaml.
func SaveStoreSettings(root string, settings *StoreSettings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal store settings: %w", err)
	}

	if err := atomicfile.WriteFile(filepath.Join(root, SettingsFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", SettingsFile, err)
	}
	return nil
}
