package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quizbank/qbank/internal/catalog"
	"github.com/quizbank/qbank/internal/importer"
	"github.com/quizbank/qbank/internal/ui"
)

var importSubject string

// ImportFileResult is the JSON shape of one imported file.
type ImportFileResult struct {
	File     string                `json:"file"`
	Success  bool                  `json:"success"`
	Message  string                `json:"message"`
	Chapters []ImportChapterResult `json:"chapters,omitempty"`
	Failed   int                   `json:"failed,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// ImportChapterResult is the JSON shape of one chapter of an import.
type ImportChapterResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	File        string `json:"file"`
	Count       int    `json:"count"`
	Replaced    bool   `json:"replaced,omitempty"`
	RemovedFile string `json:"removed_file,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ImportResult is the JSON shape of `qbank import`.
type ImportResult struct {
	Subject string             `json:"subject"`
	Files   []ImportFileResult `json:"files"`
}

var importCmd = &cobra.Command{
	Use:   "import <file.json>...",
	Short: "Import question bank files into a subject",
	Long: `Imports one or more JSON question bank exports into a subject.

Each file is split into chapters by the "chapter" field of its questions
(questions without one are filed under the file name). Every chapter is
written to its own file and recorded in the subject's chapter index; a
chapter with the same title as an existing one replaces it.

The subject comes from --subject, or the active subject set with
'qbank subject use'. It is created on first import.

Examples:
  qbank import export.json --subject biology
  qbank import ch1.json ch2.json ch3.json -S biology
  qbank import "/path/with spaces/bank.json" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importSubject, "subject", "S", "", "Target subject (created if missing)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	subject, err := resolveSubject(importSubject)
	if err != nil {
		return handleError(ErrMissingArgument, err, "Pass --subject <name> or run 'qbank subject use <name>'")
	}

	im, closeCatalog := newImporter()
	defer closeCatalog()

	result := ImportResult{Subject: subject}
	failedFiles := 0

	for _, path := range args {
		path = importer.CleanPath(path)
		if !isJSONOutput() {
			fmt.Printf("Reading: %s ...\n", filepath.Base(path))
		}

		res, err := im.ProcessFile(path, subject)
		if errors.Is(err, importer.ErrInvalidSubject) {
			return handleError(ErrSubjectInvalid, err, "Subject names cannot contain path separators")
		}

		fr := fileResult(path, res, err)
		result.Files = append(result.Files, fr)
		if !fr.Success {
			failedFiles++
		}

		if !isJSONOutput() {
			if err != nil {
				fmt.Println(ui.Error(err.Error()))
			} else {
				fmt.Println(res.Message)
			}
			fmt.Println(ui.Separator())
		}
	}

	if isJSONOutput() {
		var warnings []Warning
		for _, f := range result.Files {
			if f.Failed > 0 {
				warnings = append(warnings, Warning{
					Code:    WarnPartialImport,
					Message: fmt.Sprintf("%s: %d chapter(s) not written", f.File, f.Failed),
				})
			}
		}
		if failedFiles > 0 {
			outputFailure(ErrImportFailed, fmt.Sprintf("%d of %d file(s) failed", failedFiles, len(args)), result, warnings)
			return errSilent
		}
		outputSuccessWithWarnings(result, warnings, &Meta{Count: len(result.Files)})
		return nil
	}

	if failedFiles > 0 {
		fmt.Println(ui.Warningf("%d of %d file(s) failed to import into [%s]", failedFiles, len(args), subject))
		return errSilent
	}
	fmt.Println(ui.Successf("Imported %d file(s) into [%s]", len(args), subject))
	return nil
}

// newImporter builds the importer for this store, wired to the catalog when
// auto_catalog is on. The returned function closes the catalog.
func newImporter() (*importer.Importer, func()) {
	st := getStore()
	s := getSettings()
	opts := []importer.Option{
		importer.WithLogger(logger),
		importer.WithFailOnPartial(s.IsFailOnPartialEnabled()),
	}

	closeFn := func() {}
	if s.IsAutoCatalogEnabled() {
		cat, err := catalog.Open(st, catalog.WithLogger(logger))
		if err != nil {
			logger.Warn("catalog unavailable, imports will not be searchable until 'qbank reindex'",
				slog.String("error", err.Error()))
		} else {
			opts = append(opts, importer.WithIndexer(cat))
			closeFn = func() { cat.Close() }
		}
	}
	return importer.New(st, opts...), closeFn
}

func fileResult(path string, res importer.Result, err error) ImportFileResult {
	fr := ImportFileResult{File: path, Success: err == nil && res.Success, Message: res.Message, Failed: res.Failed}
	if err != nil {
		fr.Error = err.Error()
	}
	for _, ch := range res.Chapters {
		cr := ImportChapterResult{
			ID:          ch.ID,
			Title:       ch.Title,
			File:        ch.File,
			Count:       ch.Count,
			Replaced:    ch.Replaced,
			RemovedFile: ch.RemovedFile,
		}
		if ch.Err != nil {
			cr.Error = ch.Err.Error()
		}
		fr.Chapters = append(fr.Chapters, cr)
	}
	return fr
}
