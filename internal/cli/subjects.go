package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quizbank/qbank/internal/config"
	"github.com/quizbank/qbank/internal/store"
	"github.com/quizbank/qbank/internal/ui"
)

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "List subjects in the registry",
	Long: `Lists every subject recorded in subjects.json, in registration order.

Examples:
  qbank subjects
  qbank subjects --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		subjects := getStore().Subjects()

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"subjects": subjects}, &Meta{Count: len(subjects)})
			return nil
		}

		if len(subjects) == 0 {
			fmt.Println("No subjects yet.")
			fmt.Println(ui.Hint("Run 'qbank import <file.json> --subject <name>' to create one."))
			return nil
		}

		active := activeSubject()
		tbl := ui.NewTable(4)
		for _, s := range subjects {
			marker := " "
			if s.Name == active {
				marker = "*"
			}
			tbl.AddRow(marker+" "+ui.Accent.Render(s.Name), ui.Muted.Render(s.ID), "created "+s.CreatedAt, ui.Muted.Render("updated "+s.UpdatedAt))
		}
		fmt.Print(tbl.String())
		return nil
	},
}

var subjectCmd = &cobra.Command{
	Use:   "subject",
	Short: "Manage the active subject",
}

var subjectUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the default subject for import, chapters, show and export",
	Long: `Stores the subject in state.toml so other commands can omit it.
The subject does not need to exist yet; it is created by its first import.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		if !store.ValidSubjectName(name) {
			return handleErrorMsg(ErrSubjectInvalid, fmt.Sprintf("invalid subject name %q", args[0]), "")
		}
		if err := config.UpdateState(resolvedStatePath, func(s *config.State) { s.ActiveSubject = name }); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		_, findErr := getStore().FindSubject(name)
		exists := findErr == nil

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"active_subject": name,
				"exists":         exists,
				"state_path":     resolvedStatePath,
			}, nil)
			return nil
		}
		fmt.Println(ui.Successf("Active subject: %s", name))
		if !exists {
			fmt.Println(ui.Hint("Not in the registry yet; it will be created by the first import."))
		}
		return nil
	},
}

var subjectCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the active subject",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := activeSubject()
		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"active_subject": name}, nil)
			return nil
		}
		if name == "" {
			fmt.Println("No active subject.")
			return nil
		}
		fmt.Println(name)
		return nil
	},
}

var subjectClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the active subject",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UpdateState(resolvedStatePath, func(s *config.State) { s.ActiveSubject = "" }); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}
		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"active_subject": ""}, nil)
			return nil
		}
		fmt.Println(ui.Success("Active subject cleared"))
		return nil
	},
}

func activeSubject() string {
	state, err := config.LoadState(resolvedStatePath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(state.ActiveSubject)
}

// subjectError maps store lookup errors to CLI errors.
func subjectError(subject string, err error) error {
	if errors.Is(err, store.ErrSubjectNotFound) {
		return handleError(ErrSubjectNotFound, err, "Run 'qbank subjects' to see available subjects")
	}
	if errors.Is(err, store.ErrChapterNotFound) {
		return handleError(ErrChapterNotFound, err, fmt.Sprintf("Run 'qbank chapters %s' to see its chapters", subject))
	}
	return handleError(ErrFileReadError, err, "")
}

func init() {
	subjectCmd.AddCommand(subjectUseCmd, subjectCurrentCmd, subjectClearCmd)
	rootCmd.AddCommand(subjectsCmd, subjectCmd)
}
