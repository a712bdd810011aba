package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quizbank/qbank/internal/export"
	"github.com/quizbank/qbank/internal/ui"
)

var showRaw bool

var showCmd = &cobra.Command{
	Use:   "show <subject> [chapter]",
	Short: "Render a chapter, or a whole subject, in the terminal",
	Long: `Renders the questions of one chapter as markdown. The chapter is looked up
by id, then by title (exact, then case-insensitive). Without a chapter the
whole subject is rendered with a table of contents.

Examples:
  qbank show biology "Chapter 2"
  qbank show biology c_1709285400_1
  qbank show biology --raw > biology.md`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "Print markdown without terminal rendering")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	subject := args[0]
	st := getStore()

	var md string
	if len(args) == 2 {
		ch, err := st.FindChapter(subject, args[1])
		if err != nil {
			return subjectError(subject, err)
		}
		qs, err := st.ReadChapter(subject, ch.File)
		if err != nil {
			return handleError(ErrFileReadError, err, "Run 'qbank import' again to rewrite the chapter")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"subject":   subject,
				"chapter":   ch,
				"questions": qs,
			}, &Meta{Count: len(qs)})
			return nil
		}
		md = export.ChapterMarkdown(ch.Title, qs)
	} else {
		sections, err := export.New(st, logger).Sections(subject)
		if err != nil {
			return subjectError(subject, err)
		}

		if isJSONOutput() {
			out := make([]map[string]interface{}, 0, len(sections))
			for _, sec := range sections {
				out = append(out, map[string]interface{}{
					"chapter":   sec.Chapter,
					"questions": sec.Questions,
				})
			}
			outputSuccess(map[string]interface{}{"subject": subject, "chapters": out}, &Meta{Count: len(sections)})
			return nil
		}
		md = export.SubjectMarkdown(subject, sections)
	}

	if showRaw {
		fmt.Print(md)
		return nil
	}

	display := ui.NewDisplayContext()
	if !display.IsTTY {
		fmt.Print(md)
		return nil
	}
	rendered, err := ui.RenderMarkdown(md, display.TermWidth)
	if err != nil {
		logger.Debug("markdown render failed, printing raw")
		fmt.Print(md)
		return nil
	}
	fmt.Print(rendered)
	return nil
}
