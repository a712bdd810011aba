package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quizbank/qbank/internal/config"
)

func configData(c *config.Config, exists bool) map[string]interface{} {
	stores := make(map[string]string, len(c.Stores))
	for name, path := range c.Stores {
		stores[name] = path
	}
	return map[string]interface{}{
		"config_path":   resolvedConfigPath,
		"state_path":    resolvedStatePath,
		"exists":        exists,
		"data_dir":      c.GetDataDir(),
		"default_store": strings.TrimSpace(c.DefaultStore),
		"state_file":    strings.TrimSpace(c.StateFile),
		"stores":        stores,
		"log": map[string]interface{}{
			"level":  strings.TrimSpace(c.Log.Level),
			"format": strings.TrimSpace(c.Log.Format),
		},
		"ui": map[string]interface{}{
			"accent":     strings.TrimSpace(c.UI.Accent),
			"code_theme": strings.TrimSpace(c.UI.CodeTheme),
		},
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	c := cfg
	if c == nil {
		c = &config.Config{}
	}
	_, statErr := os.Stat(resolvedConfigPath)
	exists := statErr == nil

	if isJSONOutput() {
		outputSuccess(configData(c, exists), nil)
		return nil
	}

	if !exists {
		fmt.Printf("Config file does not exist: %s\n", resolvedConfigPath)
		fmt.Println("Run 'qbank config init' to create it.")
		return nil
	}

	fmt.Printf("config: %s\n", resolvedConfigPath)
	fmt.Printf("state:  %s\n", resolvedStatePath)
	fmt.Printf("data_dir: %s\n", c.GetDataDir())

	if v := strings.TrimSpace(c.DefaultStore); v != "" {
		fmt.Printf("default_store: %s\n", v)
	}
	if v := strings.TrimSpace(c.StateFile); v != "" {
		fmt.Printf("state_file: %s\n", v)
	}
	if v := strings.TrimSpace(c.Log.Level); v != "" {
		fmt.Printf("log.level: %s\n", v)
	}
	if v := strings.TrimSpace(c.Log.Format); v != "" {
		fmt.Printf("log.format: %s\n", v)
	}
	if v := strings.TrimSpace(c.UI.Accent); v != "" {
		fmt.Printf("ui.accent: %s\n", v)
	}
	if v := strings.TrimSpace(c.UI.CodeTheme); v != "" {
		fmt.Printf("ui.code_theme: %s\n", v)
	}

	names := c.StoreNames()
	if len(names) == 0 {
		fmt.Println("stores: (none)")
		return nil
	}
	fmt.Println("stores:")
	for _, name := range names {
		fmt.Printf("  %s = %s\n", name, c.Stores[name])
	}
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage global qbank config.toml settings",
	Long: `Manage global qbank config.toml settings.

Without a subcommand the effective config is printed.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the global config",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default global config.toml if missing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		targetPath := config.ResolveConfigPath(configPath)

		created, err := config.CreateDefaultAt(targetPath)
		if err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"config_path": targetPath,
				"created":     created,
			}, nil)
			return nil
		}

		if created {
			fmt.Printf("Created config: %s\n", targetPath)
		} else {
			fmt.Printf("Config already exists: %s\n", targetPath)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}
