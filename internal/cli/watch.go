package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quizbank/qbank/internal/importer"
	"github.com/quizbank/qbank/internal/ui"
	"github.com/quizbank/qbank/internal/watcher"
)

var (
	watchSubject  string
	watchExisting bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Import question banks dropped into a directory",
	Long: `Watches a directory and imports every *.json file created or rewritten
in it into one subject, once writes to the file have settled. Hidden files
and editor temp files (~*) are ignored. Subdirectories are not watched.

With --json every import attempt is reported as one JSON document.
Stop with Ctrl-C.

Examples:
  qbank watch ~/Downloads/banks --subject biology
  qbank watch inbox -S physics --existing`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchSubject, "subject", "S", "", "Target subject (created if missing)")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "Also import *.json files already in the directory")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "Quiet period before a changed file is imported")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	subject, err := resolveSubject(watchSubject)
	if err != nil {
		return handleError(ErrMissingArgument, err, "Pass --subject <name> or run 'qbank subject use <name>'")
	}

	im, closeCatalog := newImporter()
	defer closeCatalog()

	w, err := watcher.New(watcher.Config{
		Dir:            args[0],
		Subject:        subject,
		Importer:       im,
		DebounceDelay:  watchDebounce,
		ImportExisting: watchExisting,
		Logger:         logger,
		OnImport:       reportWatchImport,
	})
	if err != nil {
		return handleError(ErrInvalidInput, err, "")
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !isJSONOutput() {
		fmt.Printf("Watching %s for question banks -> [%s]\n", ui.FilePath(args[0]), subject)
		fmt.Println(ui.Hint("Press Ctrl-C to stop."))
	}

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return handleError(ErrInternal, err, "")
	}
	if !isJSONOutput() {
		fmt.Println("\nStopped watching.")
	}
	return nil
}

func reportWatchImport(path string, res importer.Result, err error) {
	if isJSONOutput() {
		fr := fileResult(path, res, err)
		if fr.Success {
			outputSuccess(fr, nil)
		} else {
			outputFailure(ErrImportFailed, fmt.Sprintf("%s failed to import", filepath.Base(path)), fr, nil)
		}
		return
	}

	fmt.Printf("Reading: %s ...\n", filepath.Base(path))
	if err != nil {
		fmt.Println(ui.Error(err.Error()))
	} else {
		fmt.Println(res.Message)
	}
	fmt.Println(ui.Separator())
}
