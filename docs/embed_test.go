package docs

import (
	"io/fs"
	"strings"
	"testing"
)

func TestGuidesEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(FS, "guide")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no guides embedded")
	}
	for _, e := range entries {
		data, err := fs.ReadFile(FS, "guide/"+e.Name())
		if err != nil {
			t.Fatalf("ReadFile %s: %v", e.Name(), err)
		}
		if !strings.HasPrefix(string(data), "# ") {
			t.Errorf("%s does not start with a title", e.Name())
		}
	}
}
