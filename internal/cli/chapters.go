package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/quizbank/qbank/internal/ui"
)

var chaptersCmd = &cobra.Command{
	Use:   "chapters [subject]",
	Short: "List the chapters of a subject",
	Long: `Lists a subject's chapter index in stored order (by chapter number,
untitled numbers last).

Examples:
  qbank chapters biology
  qbank chapters --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		explicit := ""
		if len(args) == 1 {
			explicit = args[0]
		}
		subject, err := resolveSubject(explicit)
		if err != nil {
			return handleError(ErrMissingArgument, err, "Pass a subject or run 'qbank subject use <name>'")
		}

		chapters, err := getStore().Chapters(subject)
		if err != nil {
			return subjectError(subject, err)
		}

		total := 0
		for _, ch := range chapters {
			total += ch.Count
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"subject":   subject,
				"chapters":  chapters,
				"questions": total,
			}, &Meta{Count: len(chapters)})
			return nil
		}

		fmt.Println(ui.Header(subject))
		if len(chapters) == 0 {
			fmt.Println(ui.Muted.Render("No chapters."))
			return nil
		}

		tbl := ui.NewTable(4)
		for i, ch := range chapters {
			tbl.AddRow(
				ui.Muted.Render(strconv.Itoa(i+1)),
				ch.Title,
				ui.Count(ch.Count, "question", "questions"),
				ui.Muted.Render(ch.UpdatedAt),
			)
		}
		fmt.Print(tbl.String())
		fmt.Println(ui.Muted.Render(fmt.Sprintf("%d chapters, %d questions", len(chapters), total)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chaptersCmd)
}
