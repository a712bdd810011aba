package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigGetStorePath(t *testing.T) {
	t.Run("named store", func(t *testing.T) {
		cfg := &Config{Stores: map[string]string{"school": "/data/school", "work": "/data/work"}}

		path, err := cfg.GetStorePath("work")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if path != "/data/work" {
			t.Errorf("expected '/data/work', got %q", path)
		}
	})

	t.Run("default store", func(t *testing.T) {
		cfg := &Config{DefaultStore: "school", Stores: map[string]string{"school": "/data/school"}}

		path, err := cfg.GetDefaultStorePath()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if path != "/data/school" {
			t.Errorf("expected '/data/school', got %q", path)
		}
	})

	t.Run("no default", func(t *testing.T) {
		cfg := &Config{}
		if _, err := cfg.GetDefaultStorePath(); err == nil {
			t.Fatal("expected error without default store")
		}
	})

	t.Run("store not found", func(t *testing.T) {
		cfg := &Config{Stores: map[string]string{"work": "/data/work"}}
		if _, err := cfg.GetStorePath("nope"); err == nil {
			t.Fatal("expected error for unknown store")
		}
	})
}

func TestGetDataDir(t *testing.T) {
	if got := (&Config{}).GetDataDir(); got != DefaultDataDir {
		t.Fatalf("GetDataDir() = %q, want %q", got, DefaultDataDir)
	}
	if got := (&Config{DataDir: "/srv/quiz"}).GetDataDir(); got != "/srv/quiz" {
		t.Fatalf("GetDataDir() = %q", got)
	}
}

func TestLoadFromAndSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qbank", "config.toml")

	cfg := &Config{
		DataDir:      "/srv/quiz",
		DefaultStore: "school",
		Stores:       map[string]string{"school": "/srv/school"},
		Log:          LogConfig{Level: "debug", Format: "json"},
		UI:           UIConfig{Accent: "39"},
	}
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo returned error: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom returned error: %v", err)
	}
	if loaded.DataDir != "/srv/quiz" || loaded.DefaultStore != "school" {
		t.Fatalf("unexpected config: %#v", loaded)
	}
	if loaded.Stores["school"] != "/srv/school" {
		t.Fatalf("stores not persisted: %#v", loaded.Stores)
	}
	if loaded.Log.Level != "debug" || loaded.Log.Format != "json" {
		t.Fatalf("log config not persisted: %#v", loaded.Log)
	}
	if loaded.UI.Accent != "39" || loaded.UI.CodeTheme != "" {
		t.Fatalf("ui config not persisted: %#v", loaded.UI)
	}
}

func TestLoadFromInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("data_dir = [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCreateDefaultAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	created, err := CreateDefaultAt(path)
	if err != nil || !created {
		t.Fatalf("CreateDefaultAt = %v, %v", created, err)
	}
	if _, err := LoadFrom(path); err != nil {
		t.Fatalf("default config does not parse: %v", err)
	}

	created, err = CreateDefaultAt(path)
	if err != nil || created {
		t.Fatalf("second CreateDefaultAt = %v, %v", created, err)
	}
}

func TestStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.toml")

	state, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState on missing file: %v", err)
	}
	if state.Version != StateVersion || state.ActiveSubject != "" {
		t.Fatalf("unexpected default state: %#v", state)
	}

	state.ActiveStore = " school "
	state.ActiveSubject = "生物"
	if err := SaveState(path, state); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	loaded, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if loaded.ActiveStore != "school" || loaded.ActiveSubject != "生物" {
		t.Fatalf("unexpected state: %#v", loaded)
	}
}

func TestUpdateState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.toml")

	if err := UpdateState(path, func(s *State) { s.ActiveSubject = "biology" }); err != nil {
		t.Fatalf("UpdateState: %v", err)
	}
	if err := UpdateState(path, func(s *State) { s.ActiveStore = "work" }); err != nil {
		t.Fatalf("UpdateState: %v", err)
	}

	state, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if state.ActiveSubject != "biology" || state.ActiveStore != "work" || state.Version != StateVersion {
		t.Fatalf("state = %#v", state)
	}

	if err := UpdateState("", func(*State) {}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestLoadStateRejectsInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.toml")
	if err := os.WriteFile(path, []byte("active_store = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadState(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestResolveStatePath(t *testing.T) {
	cfgPath := filepath.Join("/etc", "qbank", "config.toml")

	if got := ResolveStatePath("/tmp/s.toml", cfgPath, nil); got != "/tmp/s.toml" {
		t.Fatalf("explicit path ignored: %q", got)
	}
	if got := ResolveStatePath("", cfgPath, &Config{StateFile: "local/state.toml"}); got != filepath.Join("/etc", "qbank", "local", "state.toml") {
		t.Fatalf("relative state_file = %q", got)
	}
	if got := ResolveStatePath("", cfgPath, &Config{}); got != filepath.Join("/etc", "qbank", "state.toml") {
		t.Fatalf("sibling state path = %q", got)
	}
}

func TestStoreSettingsDefaults(t *testing.T) {
	root := t.TempDir()

	settings, err := LoadStoreSettings(root)
	if err != nil {
		t.Fatalf("LoadStoreSettings: %v", err)
	}
	if settings.IsFailOnPartialEnabled() {
		t.Error("fail_on_partial should default to false")
	}
	if !settings.IsAutoCatalogEnabled() {
		t.Error("auto_catalog should default to true")
	}
	if settings.ExportFormat() != "md" {
		t.Errorf("export format = %q", settings.ExportFormat())
	}

	created, err := CreateDefaultStoreSettings(root)
	if err != nil || !created {
		t.Fatalf("CreateDefaultStoreSettings = %v, %v", created, err)
	}
	settings, err = LoadStoreSettings(root)
	if err != nil {
		t.Fatalf("default settings do not parse: %v", err)
	}
	if settings.IsFailOnPartialEnabled() || !settings.IsAutoCatalogEnabled() {
		t.Fatalf("default file disagrees with defaults: %#v", settings.Import)
	}
}

func TestStoreSettingsOverrides(t *testing.T) {
	root := t.TempDir()
	yes, no := true, false
	in := &StoreSettings{
		Import: &ImportSettings{FailOnPartial: &yes, AutoCatalog: &no},
		Export: &ExportSettings{Format: "HTML"},
	}
	if err := SaveStoreSettings(root, in); err != nil {
		t.Fatal(err)
	}

	settings, err := LoadStoreSettings(root)
	if err != nil {
		t.Fatal(err)
	}
	if !settings.IsFailOnPartialEnabled() || settings.IsAutoCatalogEnabled() || settings.ExportFormat() != "html" {
		t.Fatalf("overrides not applied: %#v %#v", settings.Import, settings.Export)
	}
}

func TestLoadStoreSettingsInvalid(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, SettingsFile), []byte("import: [oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadStoreSettings(root); err == nil {
		t.Fatal("expected parse error")
	}
}
