package cli

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quizbank/qbank/docs"
	"github.com/quizbank/qbank/internal/ui"
)

var docsCmd = &cobra.Command{
	Use:   "docs [topic]",
	Short: "Read the bundled guides",
	Long: `Without a topic, lists the bundled guides. With a topic, renders it.

Examples:
  qbank docs
  qbank docs importing`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topics, err := docTopics()
		if err != nil {
			return handleError(ErrInternal, err, "")
		}

		if len(args) == 0 {
			if isJSONOutput() {
				outputSuccess(map[string]interface{}{"topics": topics}, &Meta{Count: len(topics)})
				return nil
			}
			fmt.Println(ui.Header("Guides"))
			for _, t := range topics {
				fmt.Printf("  %s\n", t)
			}
			fmt.Println(ui.Hint("\nRun 'qbank docs <topic>' to read one."))
			return nil
		}

		topic := strings.TrimSuffix(strings.ToLower(args[0]), ".md")
		data, err := fs.ReadFile(docs.FS, path.Join("guide", topic+".md"))
		if err != nil {
			return handleErrorMsg(ErrInvalidInput, fmt.Sprintf("unknown topic %q", args[0]), "Available: "+strings.Join(topics, ", "))
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"topic": topic, "content": string(data)}, nil)
			return nil
		}

		display := ui.NewDisplayContext()
		rendered, err := ui.RenderMarkdown(string(data), display.TermWidth)
		if err != nil || !display.IsTTY {
			fmt.Print(string(data))
			return nil
		}
		fmt.Print(rendered)
		return nil
	},
}

func docTopics() ([]string, error) {
	entries, err := fs.ReadDir(docs.FS, "guide")
	if err != nil {
		return nil, err
	}
	topics := make([]string, 0, len(entries))
	for _, e := range entries {
		if name := e.Name(); strings.HasSuffix(name, ".md") {
			topics = append(topics, strings.TrimSuffix(name, ".md"))
		}
	}
	return topics, nil
}

func init() {
	rootCmd.AddCommand(docsCmd)
}
