package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quizbank/qbank/internal/config"
	"github.com/quizbank/qbank/internal/ui"
)

type storeRow struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Default bool   `json:"default"`
	Active  bool   `json:"active"`
}

func storeRows(c *config.Config, state *config.State) []storeRow {
	active := ""
	if state != nil {
		active = strings.TrimSpace(state.ActiveStore)
	}
	rows := make([]storeRow, 0, len(c.Stores))
	for _, name := range c.StoreNames() {
		path, _ := c.GetStorePath(name)
		rows = append(rows, storeRow{
			Name:    name,
			Path:    path,
			Default: name == strings.TrimSpace(c.DefaultStore),
			Active:  name == active,
		})
	}
	return rows
}

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "List configured stores",
	Long: `Lists the named data roots configured in config.toml.

Example config:
  default_store = "school"

  [stores]
  school = "/Users/you/quiz/school"
  work = "/Users/you/quiz/work"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := config.LoadState(resolvedStatePath)
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		rows := storeRows(cfg, state)

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"stores": rows}, &Meta{Count: len(rows)})
			return nil
		}

		if len(rows) == 0 {
			fmt.Println("No stores configured; using data_dir: " + cfg.GetDataDir())
			fmt.Println(ui.Hint("Run 'qbank init <path> --name <store>' to register one."))
			return nil
		}

		tbl := ui.NewTable(3)
		for _, r := range rows {
			marker := " "
			if r.Active {
				marker = "*"
			}
			tag := ""
			if r.Default {
				tag = ui.Muted.Render("(default)")
			}
			tbl.AddRow(marker+" "+ui.Accent.Render(r.Name), ui.FilePath(r.Path), tag)
		}
		fmt.Print(tbl.String())
		return nil
	},
}

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the active store",
}

var storeUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the active store in state.toml",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		path, err := cfg.GetStorePath(name)
		if err != nil || name == "" {
			return handleErrorMsg(ErrStoreNotFound, fmt.Sprintf("store '%s' is not configured", name), "Run 'qbank stores' to see configured stores")
		}

		if err := config.UpdateState(resolvedStatePath, func(s *config.State) { s.ActiveStore = name }); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"active_store": name,
				"path":         path,
				"state_path":   resolvedStatePath,
			}, nil)
			return nil
		}
		fmt.Printf("Active store set to '%s' -> %s\n", name, path)
		return nil
	},
}

var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the active store from state.toml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UpdateState(resolvedStatePath, func(s *config.State) { s.ActiveStore = "" }); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}
		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"active_store": ""}, nil)
			return nil
		}
		fmt.Println("Active store cleared.")
		return nil
	},
}

func init() {
	storeCmd.AddCommand(storeUseCmd, storeClearCmd)
	rootCmd.AddCommand(storesCmd, storeCmd)
}
