package export

import (
	"bytes"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/quizbank/qbank/internal/atomicfile"
	"github.com/quizbank/qbank/internal/logging"
	"github.com/quizbank/qbank/internal/slugs"
	"github.com/quizbank/qbank/internal/store"
)

// Format is an export file format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ParseFormat accepts "md", "markdown" and "html".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want md or html)", s)
	}
}

// File describes one written export file.
type File struct {
	Chapter   string `json:"chapter"`
	Path      string `json:"path"`
	Questions int    `json:"questions"`
}

// Exporter writes chapters of a store to documents.
type Exporter struct {
	store  *store.Store
	logger *slog.Logger
	md     goldmark.Markdown
}

// New returns an Exporter reading from st.
func New(st *store.Store, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Exporter{
		store:  st,
		logger: logger,
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Sections loads every chapter of subject in index order.
func (e *Exporter) Sections(subject string) ([]Section, error) {
	chapters, err := e.store.Chapters(subject)
	if err != nil {
		return nil, err
	}
	sections := make([]Section, 0, len(chapters))
	for _, ch := range chapters {
		qs, err := e.store.ReadChapter(subject, ch.File)
		if err != nil {
			return nil, fmt.Errorf("read chapter %s: %w", ch.Title, err)
		}
		sections = append(sections, Section{Chapter: ch, Questions: qs})
	}
	return sections, nil
}

// ExportSubject writes one document per chapter of subject into outDir,
// named after the chapter title, plus an index document linking them.
func (e *Exporter) ExportSubject(subject, outDir string, format Format) ([]File, error) {
	sections, err := e.Sections(subject)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	ext := "." + string(format)
	taken := map[string]bool{"index": true}
	files := make([]File, 0, len(sections)+1)

	var toc strings.Builder
	fmt.Fprintf(&toc, "# %s\n\n", subject)

	for _, sec := range sections {
		name := slugs.Unique(slugs.FileSlug(sec.Chapter.Title, sec.Chapter.ID), taken) + ext
		path := filepath.Join(outDir, name)
		if err := e.write(path, sec.Chapter.Title, ChapterMarkdown(sec.Chapter.Title, sec.Questions), format); err != nil {
			return files, err
		}
		files = append(files, File{Chapter: sec.Chapter.Title, Path: path, Questions: len(sec.Questions)})
		fmt.Fprintf(&toc, "- [%s](%s) (%d)\n", sec.Chapter.Title, name, len(sec.Questions))
		e.logger.Debug("chapter exported", slog.String("chapter", sec.Chapter.Title), slog.String("path", path))
	}

	indexPath := filepath.Join(outDir, "index"+ext)
	if err := e.write(indexPath, subject, toc.String(), format); err != nil {
		return files, err
	}
	files = append(files, File{Path: indexPath})
	return files, nil
}

func (e *Exporter) write(path, title, md string, format Format) error {
	data := []byte(md)
	if format == FormatHTML {
		var err error
		if data, err = e.HTML(title, md); err != nil {
			return err
		}
	}
	if err := atomicfile.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// HTML converts a markdown document to a standalone HTML page. Raw HTML in
// question text is not passed through.
func (e *Exporter) HTML(title, md string) ([]byte, error) {
	var body bytes.Buffer
	if err := e.md.Convert([]byte(md), &body); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(title))
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}
