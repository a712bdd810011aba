package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quizbank/qbank/internal/config"
	"github.com/quizbank/qbank/internal/store"
	"github.com/quizbank/qbank/internal/ui"
)

var initName string

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a data root",
	Long: `Creates a data root with an empty subject registry and default settings.
Without a path the root is resolved like every other command (--root,
--store, the active store, then data_dir, then ./data).

Creates:
  - subjects.json  (subject registry)
  - qbank.yaml     (store settings)
  - .qbank/        (search catalog and lock files)
  - .gitignore     (ignores .qbank/)

With --name the root is also registered as a named store in config.toml.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initName, "name", "", "Register the root as a named store in config.toml")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	var root string
	if len(args) == 1 {
		root = args[0]
	} else {
		var err error
		root, err = resolveRoot()
		if err != nil {
			return handleError(ErrStoreNotFound, err, "")
		}
	}

	st := store.New(root, store.WithLogger(logger))
	if err := st.EnsureSetup(); err != nil {
		return handleError(ErrFileWriteError, err, "")
	}
	if err := os.MkdirAll(st.PrivatePath(), 0o755); err != nil {
		return handleError(ErrFileWriteError, fmt.Errorf("failed to create %s directory: %w", store.PrivateDir, err), "")
	}

	createdSettings, err := config.CreateDefaultStoreSettings(root)
	if err != nil {
		return handleError(ErrFileWriteError, err, "")
	}

	gitignoreStatus, err := ensureGitignore(root)
	if err != nil {
		return handleError(ErrFileWriteError, err, "")
	}

	registered := ""
	if name := strings.TrimSpace(initName); name != "" {
		if err := registerStore(name, root); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}
		registered = name
	}

	if isJSONOutput() {
		outputSuccess(map[string]interface{}{
			"root":             root,
			"settings_created": createdSettings,
			"gitignore":        gitignoreStatus,
			"store":            registered,
		}, nil)
		return nil
	}

	fmt.Printf("Initializing data root at: %s\n", ui.FilePath(root))
	fmt.Println(ui.Success("Ensured " + store.SubjectsFile + " exists"))
	if createdSettings {
		fmt.Println(ui.Success("Created " + config.SettingsFile + " (store settings)"))
	} else {
		fmt.Println("• " + config.SettingsFile + " already exists (kept)")
	}
	fmt.Println(ui.Success("Ensured " + store.PrivateDir + "/ directory exists"))
	switch gitignoreStatus {
	case "created":
		fmt.Println(ui.Success("Created .gitignore"))
	case "updated":
		fmt.Println(ui.Success("Updated .gitignore (added " + store.PrivateDir + "/)"))
	default:
		fmt.Println("• .gitignore already ignores " + store.PrivateDir + "/")
	}
	if registered != "" {
		fmt.Println(ui.Successf("Registered store '%s' in %s", registered, resolvedConfigPath))
	}
	fmt.Println("\nReady. Import a bank with 'qbank import <file.json> --subject <name>'.")
	return nil
}

// ensureGitignore makes sure the root's .gitignore ignores the private
// directory. It returns "created", "updated" or "unchanged".
func ensureGitignore(root string) (string, error) {
	path := filepath.Join(root, ".gitignore")
	entry := store.PrivateDir + "/"

	existing := ""
	if data, err := os.ReadFile(path); err == nil {
		existing = string(data)
	}
	if strings.Contains(existing, entry) {
		return "unchanged", nil
	}

	status := "created"
	content := "# qbank (auto-generated)\n# Search catalog and lock files, rebuilt with 'qbank reindex'\n" + entry + "\n"
	if existing != "" {
		status = "updated"
		content = strings.TrimRight(existing, "\n") + "\n\n# qbank\n" + entry + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write .gitignore: %w", err)
	}
	return status, nil
}

func registerStore(name, root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	if cfg.Stores == nil {
		cfg.Stores = make(map[string]string)
	}
	cfg.Stores[name] = abs
	if strings.TrimSpace(cfg.DefaultStore) == "" {
		cfg.DefaultStore = name
	}
	return config.SaveTo(resolvedConfigPath, cfg)
}
