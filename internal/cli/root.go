// Package cli implements the command-line interface.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quizbank/qbank/internal/config"
	"github.com/quizbank/qbank/internal/logging"
	"github.com/quizbank/qbank/internal/store"
	"github.com/quizbank/qbank/internal/ui"
)

var (
	// Global flags
	rootFlag      string // Explicit data root
	storeName     string // Named store from config
	configPath    string
	statePathFlag string
	verbose       bool

	// Resolved values
	resolvedRoot       string
	resolvedConfigPath string
	resolvedStatePath  string
	cfg                *config.Config
	settings           *config.StoreSettings
	logger             = logging.Discard()
	dataStore          *store.Store
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "qbank",
	Short: "qbank - a question bank importer",
	Long: `qbank imports quiz question banks exported as JSON, splits them into
chapters and keeps per-subject chapter indexes that a quiz front end reads.

Data lives under a data root (./data by default):
  subjects.json            subject registry
  <subject>/index.json     chapter index
  <subject>/ch_*.json      chapter files`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadGlobals(); err != nil {
			return err
		}

		if skipsStore(cmd) {
			return nil
		}

		root, err := resolveRoot()
		if err != nil {
			return handleError(ErrStoreNotFound, err, "Run 'qbank stores' to see configured stores")
		}
		return openStore(root)
	},
}

// skipsStore reports whether cmd runs without a data root.
func skipsStore(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "init", "completion", "help", "version", "docs", "stores", "config":
		return true
	}
	if p := cmd.Parent(); p != nil {
		switch p.Name() {
		case "config", "completion", "store":
			return true
		}
	}
	return false
}

// errSilent marks a failure that was already reported, as JSON or as
// per-item output.
var errSilent = errors.New("command failed")

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errSilent) {
		fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "Explicit path to the data root")
	rootCmd.PersistentFlags().StringVarP(&storeName, "store", "s", "", "Named store from config")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&statePathFlag, "state", "", "Path to state file (overrides state_file in config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for scripts)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log debug diagnostics to stderr")
}

// loadGlobals loads config.toml, resolves the state path and sets up
// theming and logging.
func loadGlobals() error {
	var err error
	cfg, resolvedConfigPath, err = loadGlobalConfigWithPath()
	if err != nil {
		return handleError(ErrConfigInvalid, fmt.Errorf("failed to load config: %w", err), "")
	}
	resolvedStatePath = config.ResolveStatePath(statePathFlag, resolvedConfigPath, cfg)

	ui.ConfigureTheme(cfg.UI.Accent)
	ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)

	logCfg := cfg.Log
	if verbose {
		logCfg.Level = "debug"
	}
	logger = logging.New(logCfg, os.Stderr)
	return nil
}

// resolveRoot picks the data root: --root > --store > active store in state
// > default store > data_dir > ./data.
func resolveRoot() (string, error) {
	if rootFlag != "" {
		return rootFlag, nil
	}
	if storeName != "" {
		path, err := cfg.GetStorePath(storeName)
		if err != nil {
			return "", fmt.Errorf("store '%s' not found", storeName)
		}
		return path, nil
	}

	state, err := config.LoadState(resolvedStatePath)
	if err != nil {
		return "", fmt.Errorf("failed to load state: %w", err)
	}
	if active := strings.TrimSpace(state.ActiveStore); active != "" {
		if path, err := cfg.GetStorePath(active); err == nil {
			return path, nil
		}
		logger.Warn("active store not found in config, falling back", slog.String("store", active))
	}
	if path, err := cfg.GetDefaultStorePath(); err == nil {
		return path, nil
	}
	return cfg.GetDataDir(), nil
}

// openStore prepares the data root (registry file included) and loads its
// qbank.yaml.
func openStore(root string) error {
	resolvedRoot = root
	dataStore = store.New(root, store.WithLogger(logger))
	if err := dataStore.EnsureSetup(); err != nil {
		return handleError(ErrFileWriteError, err, "")
	}

	var err error
	settings, err = config.LoadStoreSettings(root)
	if err != nil {
		return handleError(ErrConfigInvalid, err, "Fix or remove "+config.SettingsFile)
	}
	return nil
}

// getStore returns the store opened for this invocation.
func getStore() *store.Store {
	return dataStore
}

// getSettings returns the store settings, never nil.
func getSettings() *config.StoreSettings {
	if settings == nil {
		return &config.StoreSettings{}
	}
	return settings
}

func loadGlobalConfigWithPath() (*config.Config, string, error) {
	resolvedPath := config.ResolveConfigPath(configPath)

	var loadedCfg *config.Config
	var err error
	if strings.TrimSpace(configPath) != "" {
		if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
			return &config.Config{}, resolvedPath, nil
		}
		loadedCfg, err = config.LoadFrom(configPath)
	} else {
		loadedCfg, err = config.Load()
	}
	if err != nil {
		return nil, "", err
	}
	if loadedCfg == nil {
		loadedCfg = &config.Config{}
	}
	return loadedCfg, resolvedPath, nil
}

// resolveSubject returns the explicit subject or the active subject from
// state.toml.
func resolveSubject(explicit string) (string, error) {
	if s := strings.TrimSpace(explicit); s != "" {
		return s, nil
	}
	state, err := config.LoadState(resolvedStatePath)
	if err != nil {
		return "", fmt.Errorf("failed to load state: %w", err)
	}
	if s := strings.TrimSpace(state.ActiveSubject); s != "" {
		return s, nil
	}
	return "", fmt.Errorf("a subject name is required")
}
