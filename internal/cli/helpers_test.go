package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/quizbank/qbank/internal/config"
	"github.com/quizbank/qbank/internal/logging"
	"github.com/quizbank/qbank/internal/store"
	"github.com/quizbank/qbank/internal/testutil"
)

var captureStdoutMu sync.Mutex

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	captureStdoutMu.Lock()
	defer captureStdoutMu.Unlock()

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan string, 1)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		_ = r.Close()
		done <- buf.String()
	}()

	fn()

	os.Stdout = orig
	_ = w.Close()
	return <-done
}

func withJSON(t *testing.T) {
	t.Helper()
	prev := jsonOutput
	t.Cleanup(func() { jsonOutput = prev })
	jsonOutput = true
}

// useStore points the CLI globals at a fixture data root, the way
// PersistentPreRunE would, with config and state in a temp directory.
func useStore(t *testing.T, d *testutil.TestData) {
	t.Helper()

	prevRoot, prevStore, prevSettings := resolvedRoot, dataStore, settings
	prevCfg, prevCfgPath, prevStatePath := cfg, resolvedConfigPath, resolvedStatePath
	prevLogger := logger
	t.Cleanup(func() {
		resolvedRoot, dataStore, settings = prevRoot, prevStore, prevSettings
		cfg, resolvedConfigPath, resolvedStatePath = prevCfg, prevCfgPath, prevStatePath
		logger = prevLogger
	})

	home := t.TempDir()
	cfg = &config.Config{}
	resolvedConfigPath = filepath.Join(home, "config.toml")
	resolvedStatePath = filepath.Join(home, "state.toml")
	logger = logging.Discard()

	resolvedRoot = d.Root
	dataStore = store.New(d.Root, store.WithLogger(logger))
	if err := dataStore.EnsureSetup(); err != nil {
		t.Fatalf("EnsureSetup: %v", err)
	}
	settings = &config.StoreSettings{}
}

// setFlag sets a command flag variable for the duration of a test.
func setFlag[T any](t *testing.T, p *T, v T) {
	t.Helper()
	prev := *p
	t.Cleanup(func() { *p = prev })
	*p = v
}

type testResponse struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Warnings []Warning `json:"warnings"`
}

func decodeResponse(t *testing.T, out string) testResponse {
	t.Helper()
	var resp testResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("parse JSON output: %v; out=%s", err, out)
	}
	return resp
}

func decodeData(t *testing.T, resp testResponse, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(resp.Data, v); err != nil {
		t.Fatalf("parse data: %v; data=%s", err, resp.Data)
	}
}
