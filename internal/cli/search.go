package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/quizbank/qbank/internal/catalog"
	"github.com/quizbank/qbank/internal/ui"
)

var (
	searchSubjects []string
	searchLimit    int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Full-text search over imported questions",
	Long: `Searches question text, options and answers in the catalog. Words are
stemmed, so "cell" also matches "cells". Quoted phrases, OR, NOT and
prefix* terms are supported.

The catalog is refreshed after each import (import.auto_catalog); run
'qbank reindex' after editing chapter files by hand.

Examples:
  qbank search mitochondria
  qbank search "krebs cycle" --subject biology,genetics
  qbank search photo* --limit 5 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		if strings.TrimSpace(query) == "" {
			return handleErrorMsg(ErrMissingArgument, "search query is empty", "")
		}

		cat, err := openCatalog()
		if err != nil {
			return err
		}
		defer cat.Close()

		start := time.Now()
		results, err := cat.Search(query, searchSubjects, searchLimit)
		if err != nil {
			return handleError(ErrInvalidInput, fmt.Errorf("search failed: %w", err), "Check quotes and operators in the query")
		}
		elapsed := time.Since(start).Milliseconds()

		if isJSONOutput() {
			if results == nil {
				results = []catalog.SearchResult{}
			}
			outputSuccess(map[string]interface{}{
				"query":   query,
				"results": results,
			}, &Meta{Count: len(results), QueryTimeMs: elapsed})
			return nil
		}

		if len(results) == 0 {
			fmt.Printf("No results for %q\n", query)
			return nil
		}

		tbl := ui.NewResultsTable(ui.NewDisplayContext())
		for _, r := range results {
			tbl.AddRow(ui.ResultRow{
				Snippet:  r.Snippet,
				Chapter:  r.Chapter,
				Location: r.Subject + " #" + strconv.Itoa(r.Position+1),
			})
		}
		fmt.Println(tbl.Render())
		fmt.Println(ui.Muted.Render(fmt.Sprintf("%d result(s) in %dms", len(results), elapsed)))
		return nil
	},
}

func init() {
	searchCmd.Flags().StringSliceVarP(&searchSubjects, "subject", "S", nil, "Restrict to these subjects (repeatable)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", catalog.DefaultSearchLimit, "Maximum number of results")
	rootCmd.AddCommand(searchCmd)
}
