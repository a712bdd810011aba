package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quizbank/qbank/internal/ui"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	Long:  `Shows subject, chapter and question counts from the search catalog.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := openCatalog()
		if err != nil {
			return err
		}
		defer cat.Close()

		stats, err := cat.Stats()
		if err != nil {
			return handleError(ErrCatalogError, err, "Run 'qbank reindex' to rebuild the catalog")
		}

		if isJSONOutput() {
			outputSuccess(stats, nil)
			return nil
		}

		fmt.Println(ui.Header("Catalog"))
		fmt.Printf("  Subjects:  %d\n", stats.Subjects)
		fmt.Printf("  Chapters:  %d\n", stats.Chapters)
		fmt.Printf("  Questions: %d\n", stats.Questions)

		if len(stats.PerSubject) > 0 {
			fmt.Println()
			tbl := ui.NewTable(3)
			for _, s := range stats.PerSubject {
				tbl.AddRow("  "+ui.Accent.Render(s.Subject), fmt.Sprintf("%d chapters", s.Chapters), fmt.Sprintf("%d questions", s.Questions))
			}
			fmt.Print(tbl.String())
		}
		if registered := len(getStore().Subjects()); registered != stats.Subjects {
			fmt.Println(ui.Hint(fmt.Sprintf("\n%d subject(s) registered; run 'qbank reindex' if counts look stale.", registered)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
