// Package export renders chapters as markdown or HTML documents.
package export

import (
	"fmt"
	"strings"

	"github.com/quizbank/qbank/internal/bank"
	"github.com/quizbank/qbank/internal/slugs"
	"github.com/quizbank/qbank/internal/store"
)

// Record fields rendered below the question when present.
const (
	AnswerField      = "answer"
	ExplanationField = "explanation"
)

// Section is one chapter with its records.
type Section struct {
	Chapter   store.Chapter
	Questions []bank.Question
}

// ChapterMarkdown renders one chapter as a markdown document.
func ChapterMarkdown(title string, qs []bank.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	writeQuestions(&b, qs, "##")
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// SubjectMarkdown renders a whole subject: a table of contents linking to
// each chapter, followed by every chapter in index order.
func SubjectMarkdown(subject string, sections []Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", subject)

	anchors := make(map[string]bool, len(sections))
	ids := make([]string, len(sections))
	for i, sec := range sections {
		ids[i] = slugs.Unique(anchorOrFallback(sec.Chapter), anchors)
		fmt.Fprintf(&b, "- [%s](#%s) (%d)\n", sec.Chapter.Title, ids[i], len(sec.Questions))
	}
	b.WriteString("\n")

	for i, sec := range sections {
		fmt.Fprintf(&b, "<a id=\"%s\"></a>\n\n## %s\n\n", ids[i], sec.Chapter.Title)
		writeQuestions(&b, sec.Questions, "###")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func anchorOrFallback(ch store.Chapter) string {
	if a := slugs.AnchorSlug(ch.Title); a != "" {
		return a
	}
	return ch.ID
}

func writeQuestions(b *strings.Builder, qs []bank.Question, level string) {
	for i, q := range qs {
		fmt.Fprintf(b, "%s %d. %s\n\n", level, i+1, oneLine(q.Text()))
		if opts := q.Options(); len(opts) > 0 {
			for _, o := range opts {
				fmt.Fprintf(b, "- %s\n", o)
			}
			b.WriteString("\n")
		}
		if ans := q.Field(AnswerField); ans != "" {
			fmt.Fprintf(b, "**Answer:** %s\n\n", ans)
		}
		if exp := q.Field(ExplanationField); exp != "" {
			fmt.Fprintf(b, "> %s\n\n", strings.ReplaceAll(exp, "\n", "\n> "))
		}
	}
}

// oneLine folds line breaks so multi-line question text stays in its heading.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
