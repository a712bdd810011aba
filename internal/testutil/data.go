// Package testutil provides fixture data roots and source files for qbank
// tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// TestData is a temporary data root plus a separate directory for the source
// files being imported.
type TestData struct {
	Root      string
	SourceDir string

	t       *testing.T
	files   map[string]string
	sources map[string]string
}

// NewTestData creates a new fixture builder. Call Build() to create the
// directories.
func NewTestData(t *testing.T) *TestData {
	t.Helper()
	return &TestData{
		t:       t,
		files:   make(map[string]string),
		sources: make(map[string]string),
	}
}

// WithFile adds a file under the data root.
func (d *TestData) WithFile(relPath, content string) *TestData {
	d.files[relPath] = content
	return d
}

// WithSource adds a source file (outside the data root) to import.
func (d *TestData) WithSource(name, content string) *TestData {
	d.sources[name] = content
	return d
}

// Build creates the data root and source directory and writes all configured
// files. The data root is nested so that it does not exist until something
// creates it, unless files were added to it.
func (d *TestData) Build() *TestData {
	d.t.Helper()

	base := d.t.TempDir()
	d.Root = filepath.Join(base, "data")
	d.SourceDir = filepath.Join(base, "sources")

	for rel, content := range d.files {
		writeFile(d.t, filepath.Join(d.Root, rel), content)
	}
	if err := os.MkdirAll(d.SourceDir, 0o755); err != nil {
		d.t.Fatalf("failed to create source dir: %v", err)
	}
	for name, content := range d.sources {
		writeFile(d.t, filepath.Join(d.SourceDir, name), content)
	}
	return d
}

// Source returns the absolute path of a source file.
func (d *TestData) Source(name string) string {
	return filepath.Join(d.SourceDir, name)
}

// WriteSource writes (or overwrites) a source file after Build.
func (d *TestData) WriteSource(name, content string) string {
	d.t.Helper()
	path := d.Source(name)
	writeFile(d.t, path, content)
	return path
}

// ReadFile reads a file under the data root.
func (d *TestData) ReadFile(relPath string) string {
	d.t.Helper()
	content, err := os.ReadFile(filepath.Join(d.Root, relPath))
	if err != nil {
		d.t.Fatalf("failed to read file %s: %v", relPath, err)
	}
	return string(content)
}

// ReadJSON decodes a file under the data root into v.
func (d *TestData) ReadJSON(relPath string, v any) {
	d.t.Helper()
	if err := json.Unmarshal([]byte(d.ReadFile(relPath)), v); err != nil {
		d.t.Fatalf("failed to decode %s: %v", relPath, err)
	}
}

// FileExists reports whether a file exists under the data root.
func (d *TestData) FileExists(relPath string) bool {
	d.t.Helper()
	_, err := os.Stat(filepath.Join(d.Root, relPath))
	return err == nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
}
