package ui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// ResultRow is one search hit as displayed.
type ResultRow struct {
	Snippet  string
	Chapter  string
	Location string
}

// ResultsTable renders numbered search hits sized to the terminal.
type ResultsTable struct {
	display *DisplayContext
	rows    []ResultRow
}

// NewResultsTable creates an empty results table.
func NewResultsTable(display *DisplayContext) *ResultsTable {
	return &ResultsTable{display: display}
}

// AddRow appends a hit.
func (t *ResultsTable) AddRow(row ResultRow) {
	t.rows = append(t.rows, row)
}

// SnippetWidth is the width available for the snippet column.
func (t *ResultsTable) SnippetWidth() int {
	const numWidth, chapterWidth, locationWidth, gaps = 4, 24, 20, 6
	w := t.display.AvailableWidth(MarkdownRenderMargin) - numWidth - chapterWidth - locationWidth - gaps
	if w < 30 {
		w = 30
	}
	return w
}

// Render generates the table output.
func (t *ResultsTable) Render() string {
	if len(t.rows) == 0 {
		return ""
	}

	snippetWidth := t.SnippetWidth()
	rows := make([][]string, len(t.rows))
	for i, r := range t.rows {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			TruncateWithEllipsis(r.Snippet, snippetWidth),
			TruncateWithEllipsis(r.Chapter, 24),
			TruncateWithEllipsis(r.Location, 20),
		}
	}

	tbl := table.New().
		Border(lipgloss.Border{Middle: "─"}).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderRow(false).
		BorderColumn(false).
		BorderHeader(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle()
			switch col {
			case 0:
				style = Muted.Align(lipgloss.Right).PaddingRight(2)
			case 1:
				style = style.PaddingRight(2)
			case 2:
				style = Accent.PaddingRight(2)
			default:
				style = Muted
			}
			return style
		}).
		Rows(rows...)

	return tbl.Render()
}
