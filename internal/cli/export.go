package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quizbank/qbank/internal/export"
	"github.com/quizbank/qbank/internal/ui"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <subject>",
	Short: "Export a subject as markdown or html documents",
	Long: `Writes one document per chapter, named after the chapter title, plus an
index document linking them. The format defaults to export.format in
qbank.yaml (md when unset).

Examples:
  qbank export biology
  qbank export biology --format html --out site/biology`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject := args[0]

		raw := exportFormat
		if !cmd.Flags().Changed("format") {
			raw = getSettings().ExportFormat()
		}
		format, err := export.ParseFormat(raw)
		if err != nil {
			return handleError(ErrInvalidInput, err, "Use --format md or --format html")
		}

		out := exportOut
		if out == "" {
			out = filepath.Join("export", subject)
		}

		files, err := export.New(getStore(), logger).ExportSubject(subject, out, format)
		if err != nil {
			if len(files) == 0 {
				return subjectError(subject, err)
			}
			return handleError(ErrFileWriteError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"subject": subject,
				"format":  string(format),
				"out":     out,
				"files":   files,
			}, &Meta{Count: len(files)})
			return nil
		}

		for _, f := range files {
			if f.Chapter == "" {
				continue
			}
			fmt.Printf("  %s %s\n", ui.FilePath(f.Path), ui.Muted.Render(ui.Count(f.Questions, "question", "questions")))
		}
		fmt.Println(ui.Successf("Exported %d chapters of %s to %s", len(files)-1, subject, out))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "md", "Output format: md or html")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output directory (default: export/<subject>)")
	rootCmd.AddCommand(exportCmd)
}
