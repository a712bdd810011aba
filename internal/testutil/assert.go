package testutil

import (
	"os"
	"path/filepath"
	"strings"
)

// AssertFileExists fails the test if the file does not exist.
func (d *TestData) AssertFileExists(relPath string) {
	d.t.Helper()
	if !d.FileExists(relPath) {
		d.t.Errorf("expected file to exist: %s", relPath)
	}
}

// AssertFileNotExists fails the test if the file exists.
func (d *TestData) AssertFileNotExists(relPath string) {
	d.t.Helper()
	if d.FileExists(relPath) {
		d.t.Errorf("expected file to not exist: %s", relPath)
	}
}

// AssertFileContains fails the test if the file does not contain the substring.
func (d *TestData) AssertFileContains(relPath, substr string) {
	d.t.Helper()
	content := d.ReadFile(relPath)
	if !strings.Contains(content, substr) {
		d.t.Errorf("expected file %s to contain %q, got:\n%s", relPath, substr, content)
	}
}

// AssertDirExists fails the test if the directory does not exist.
func (d *TestData) AssertDirExists(relPath string) {
	d.t.Helper()
	info, err := os.Stat(filepath.Join(d.Root, relPath))
	if os.IsNotExist(err) {
		d.t.Errorf("expected directory to exist: %s", relPath)
		return
	}
	if err == nil && !info.IsDir() {
		d.t.Errorf("expected %s to be a directory, but it's a file", relPath)
	}
}

// ListDir returns the names in a directory under the data root, or nil.
func (d *TestData) ListDir(relPath string) []string {
	d.t.Helper()
	entries, err := os.ReadDir(filepath.Join(d.Root, relPath))
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
