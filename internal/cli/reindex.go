package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quizbank/qbank/internal/catalog"
	"github.com/quizbank/qbank/internal/ui"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the search catalog",
	Long: `Clears the search catalog and reads every chapter of every registered
subject into it again. The chapter files stay the source of truth; the
catalog only serves 'qbank search' and 'qbank stats'.

Subjects whose directory or chapter index cannot be read are skipped and
reported.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := openCatalog()
		if err != nil {
			return err
		}
		defer cat.Close()

		var spinner *ui.Spinner
		if !isJSONOutput() {
			fmt.Printf("Reindexing: %s\n", ui.FilePath(resolvedRoot))
			spinner = ui.NewSpinner("Indexing chapters...")
			spinner.Start()
		}

		result, err := cat.Rebuild()
		if spinner != nil {
			spinner.Stop()
		}
		if errors.Is(err, catalog.ErrCatalogLocked) {
			return handleError(ErrCatalogLocked, err, "Another reindex is running; try again when it finishes")
		}
		if err != nil {
			return handleError(ErrCatalogError, err, "")
		}

		if isJSONOutput() {
			var warnings []Warning
			for _, name := range result.Skipped {
				warnings = append(warnings, Warning{
					Code:    WarnCatalogUpdateFailed,
					Message: fmt.Sprintf("subject %s skipped", name),
				})
			}
			outputSuccessWithWarnings(map[string]interface{}{
				"subjects": result.Subjects,
				"skipped":  result.Skipped,
			}, warnings, &Meta{QueryTimeMs: result.Duration.Milliseconds()})
			return nil
		}

		for _, name := range result.Skipped {
			fmt.Println(ui.Warningf("Skipped %s (unreadable chapter index)", name))
		}
		fmt.Println(ui.Successf("Indexed %d subject(s) in %dms", result.Subjects, result.Duration.Milliseconds()))
		return nil
	},
}

// openCatalog opens the store's catalog, reporting failures.
func openCatalog() (*catalog.Catalog, error) {
	cat, err := catalog.Open(getStore(), catalog.WithLogger(logger))
	if err != nil {
		return nil, handleError(ErrCatalogError, err, "Delete "+catalog.Path(getStore())+" and run 'qbank reindex'")
	}
	return cat, nil
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
