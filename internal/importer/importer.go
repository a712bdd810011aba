// Package importer drives a question bank import: read and extract the
// records, split them into chapters, write one file per chapter, and update
// the subject's chapter index and the subject registry.
package importer

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/quizbank/qbank/internal/bank"
	"github.com/quizbank/qbank/internal/logging"
	"github.com/quizbank/qbank/internal/store"
	"github.com/quizbank/qbank/internal/ui"
)

// MsgNoQuestions is the result message for exports without question records.
const MsgNoQuestions = "no question data found"

// ErrInvalidSubject is returned for subject names that cannot name a
// directory under the data root.
var ErrInvalidSubject = errors.New("invalid subject name")

// Indexer is refreshed with a subject after each successful import.
type Indexer interface {
	IndexSubject(subject string) error
}

// ChapterOutcome reports what happened to one chapter of an import.
type ChapterOutcome struct {
	ID    string
	Title string
	File  string
	Count int

	// Err is set when the chapter file could not be written; the chapter is
	// then missing from the index.
	Err error

	// Replaced is true when the chapter overwrote an existing index entry.
	Replaced bool

	// RemovedFile names the superseded chapter file that was deleted.
	RemovedFile string
}

// Result is the outcome of one ProcessFile call.
type Result struct {
	Success bool

	// Message is the human-readable log: one line per chapter, or the reason
	// the import was rejected.
	Message string

	Subject        string
	Source         string
	Chapters       []ChapterOutcome
	Failed         int
	SubjectCreated bool
}

// Partial reports whether some chapters failed to write.
func (r Result) Partial() bool {
	return r.Failed > 0
}

// Importer imports question bank files into a store.
type Importer struct {
	store         *store.Store
	logger        *slog.Logger
	now           func() time.Time
	failOnPartial bool
	indexer       Indexer
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(im *Importer) {
		if l != nil {
			im.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(im *Importer) {
		if now != nil {
			im.now = now
		}
	}
}

// WithFailOnPartial makes an import fail when any chapter file could not be
// written. By default such imports succeed and list the failures.
func WithFailOnPartial(enabled bool) Option {
	return func(im *Importer) {
		im.failOnPartial = enabled
	}
}

// WithIndexer sets the indexer refreshed after each successful import.
func WithIndexer(ix Indexer) Option {
	return func(im *Importer) {
		im.indexer = ix
	}
}

// New returns an Importer writing into st.
func New(st *store.Store, opts ...Option) *Importer {
	im := &Importer{
		store:  st,
		logger: logging.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// CleanPath strips quote characters wrapped around a pasted path.
func CleanPath(p string) string {
	return strings.Trim(strings.Trim(p, `"`), "'")
}

// ProcessFileWithSubject imports sourcePath into subject and reports only a
// success flag and the log message. Errors that ProcessFile returns are
// folded into the message.
func (im *Importer) ProcessFileWithSubject(sourcePath, subject string) (bool, string) {
	res, err := im.ProcessFile(sourcePath, subject)
	if err != nil {
		return false, err.Error()
	}
	return res.Success, res.Message
}

// ProcessFile imports one question bank file into subject.
//
// Problems with the input (unreadable or invalid JSON, no questions) yield a
// Result with Success=false and no writes. A chapter file that cannot be
// written is recorded in the Result and the import continues. Failures to
// create the subject directory or to write the index or registry are returned
// as errors; files already written by this call stay in place.
func (im *Importer) ProcessFile(sourcePath, subject string) (Result, error) {
	if !store.ValidSubjectName(subject) {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidSubject, subject)
	}

	path := CleanPath(sourcePath)
	res := Result{Subject: subject, Source: path}
	log := im.logger.With(slog.String("subject", subject), slog.String("source", path))

	content, err := bank.ReadFile(path)
	if err != nil {
		res.Message = fmt.Sprintf("JSON read failed: %v", err)
		log.Info("import rejected", slog.String("reason", res.Message))
		return res, nil
	}

	questions, err := bank.Extract(content)
	if err != nil {
		res.Message = fmt.Sprintf("JSON read failed: %v", err)
		return res, nil
	}
	if len(questions) == 0 {
		res.Message = MsgNoQuestions
		log.Info("import rejected", slog.String("reason", res.Message))
		return res, nil
	}

	if err := im.store.EnsureSubjectDir(subject); err != nil {
		return res, err
	}

	unlock, err := im.store.LockSubject(subject)
	if err != nil {
		return res, err
	}
	defer unlock()

	groups := bank.Partition(questions, bank.FallbackLabel(path))
	now := im.now()

	ts, err := im.runTimestamp(subject, groups, now.Unix())
	if err != nil {
		return res, err
	}

	lines := make([]string, 0, len(groups))
	for i, g := range groups {
		out := ChapterOutcome{
			ID:    fmt.Sprintf("c_%d_%d", ts, i),
			Title: g.Label,
			File:  fmt.Sprintf("ch_%d_%d.json", ts, i),
			Count: len(g.Questions),
		}

		if err := im.store.WriteChapterFile(subject, out.File, g.Questions); err != nil {
			out.Err = err
			res.Failed++
			res.Chapters = append(res.Chapters, out)
			lines = append(lines, ui.Errorf("%s save failed: %v", g.Label, err))
			log.Warn("chapter write failed", slog.String("chapter", g.Label), slog.String("error", err.Error()))
			continue
		}

		upd, err := im.store.UpdateSubjectIndex(subject, store.Chapter{
			ID:        out.ID,
			Title:     out.Title,
			File:      out.File,
			Count:     out.Count,
			UpdatedAt: now.Format(store.TimestampLayout),
		})
		if err != nil {
			return res, err
		}
		out.Replaced = upd.Replaced
		out.RemovedFile = upd.RemovedFile

		res.Chapters = append(res.Chapters, out)
		lines = append(lines, ui.Successf("[%s] %s (%d questions)", subject, g.Label, out.Count))
		log.Debug("chapter written",
			slog.String("chapter", g.Label),
			slog.String("file", out.File),
			slog.Int("count", out.Count),
			slog.Bool("replaced", upd.Replaced))
	}

	_, created, err := im.store.TouchSubject(subject, now)
	if err != nil {
		return res, err
	}
	res.SubjectCreated = created

	if im.indexer != nil {
		if err := im.indexer.IndexSubject(subject); err != nil {
			log.Warn("catalog refresh failed", slog.String("error", err.Error()))
		}
	}

	res.Success = !(im.failOnPartial && res.Failed > 0)
	res.Message = strings.Join(lines, "\n")
	log.Info("import finished",
		slog.Int("chapters", len(groups)),
		slog.Int("failed", res.Failed),
		slog.Bool("success", res.Success))
	return res, nil
}

// runTimestamp returns the timestamp used for this run's file names. It
// starts at base and moves forward while a generated name is already taken by
// a chapter with another title, so a second import within the same second
// cannot overwrite an unrelated chapter.
func (im *Importer) runTimestamp(subject string, groups []bank.Group, base int64) (int64, error) {
	chapters, err := im.store.Chapters(subject)
	if err != nil {
		return 0, err
	}
	owner := make(map[string]string, len(chapters))
	for _, ch := range chapters {
		owner[ch.File] = ch.Title
	}

	ts := base
	for {
		clash := false
		for i, g := range groups {
			if title, ok := owner[fmt.Sprintf("ch_%d_%d.json", ts, i)]; ok && title != g.Label {
				clash = true
				break
			}
		}
		if !clash {
			return ts, nil
		}
		ts++
	}
}
