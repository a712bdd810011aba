package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/quizbank/qbank/internal/atomicfile"
	"github.com/quizbank/qbank/internal/bank"
)

// Chapter is one entry of a subject's chapter index.
type Chapter struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	File      string `json:"file"`
	Count     int    `json:"count"`
	UpdatedAt string `json:"updated_at"`

	// Extra holds fields written by other tools.
	Extra map[string]json.RawMessage `json:"-"`
}

// IndexUpdate describes the outcome of UpdateSubjectIndex.
type IndexUpdate struct {
	// Count is the number of entries in the index after the update.
	Count int
	// Replaced is true when an entry with the same title already existed.
	Replaced bool
	// RemovedFile names the superseded chapter file that was deleted.
	RemovedFile string
	// CleanupErr is set when the superseded file could not be deleted. It
	// never fails the update.
	CleanupErr error
}

func (s *Store) indexPath(subject string) string {
	return filepath.Join(s.SubjectDir(subject), IndexFile)
}

// Chapters returns a subject's chapter index. A subject directory without an
// index yields an empty list; a missing directory is ErrSubjectNotFound.
func (s *Store) Chapters(subject string) ([]Chapter, error) {
	if st, err := os.Stat(s.SubjectDir(subject)); err != nil || !st.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrSubjectNotFound, subject)
	}
	return s.loadIndex(subject)
}

func (s *Store) loadIndex(subject string) ([]Chapter, error) {
	data, err := os.ReadFile(s.indexPath(subject))
	if errors.Is(err, os.ErrNotExist) {
		return []Chapter{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read chapter index of %s: %w", subject, err)
	}
	var chapters []Chapter
	if err := json.Unmarshal(data, &chapters); err != nil {
		return nil, fmt.Errorf("parse chapter index of %s: %w", subject, err)
	}
	if chapters == nil {
		chapters = []Chapter{}
	}
	return chapters, nil
}

func (s *Store) saveIndex(subject string, chapters []Chapter) error {
	if err := atomicfile.WriteJSON(s.indexPath(subject), chapters); err != nil {
		return fmt.Errorf("save chapter index of %s: %w", subject, err)
	}
	return nil
}

// UpdateSubjectIndex records ch in the subject's chapter index. An entry with
// the same title is replaced in place, and its chapter file is deleted when
// ch points at a different file; otherwise ch is appended. The index is then
// re-sorted with SortChapters and written back.
//
// The subject directory must exist. Callers importing into a subject hold its
// lock (see LockSubject) across the whole import.
func (s *Store) UpdateSubjectIndex(subject string, ch Chapter) (IndexUpdate, error) {
	chapters, err := s.loadIndex(subject)
	if err != nil {
		return IndexUpdate{}, err
	}

	var upd IndexUpdate
	idx := -1
	for i := range chapters {
		if chapters[i].Title == ch.Title {
			idx = i
			break
		}
	}

	if idx != -1 {
		upd.Replaced = true
		if old := chapters[idx].File; old != ch.File {
			upd.RemovedFile, upd.CleanupErr = s.removeChapterFile(subject, old)
			if upd.CleanupErr != nil {
				s.logger.Warn("stale chapter file not removed",
					slog.String("subject", subject),
					slog.String("file", old),
					slog.String("error", upd.CleanupErr.Error()))
			}
		}
		chapters[idx] = ch
	} else {
		chapters = append(chapters, ch)
	}

	SortChapters(chapters)

	if err := s.saveIndex(subject, chapters); err != nil {
		return IndexUpdate{}, err
	}
	upd.Count = len(chapters)
	return upd, nil
}

// removeChapterFile deletes a superseded chapter file. A file that is already
// gone is not an error.
func (s *Store) removeChapterFile(subject, file string) (string, error) {
	if file == "" {
		return "", nil
	}
	if filepath.Base(file) != file || file == IndexFile {
		return "", fmt.Errorf("refusing to delete %q outside the chapter set", file)
	}
	err := os.Remove(filepath.Join(s.SubjectDir(subject), file))
	switch {
	case err == nil:
		return file, nil
	case errors.Is(err, os.ErrNotExist):
		return "", nil
	default:
		return "", err
	}
}

// WriteChapterFile writes the records of one chapter into the subject
// directory under file.
func (s *Store) WriteChapterFile(subject, file string, qs []bank.Question) error {
	return os.WriteFile(filepath.Join(s.SubjectDir(subject), file), bank.MarshalChapter(qs), 0o644)
}

// ReadChapter loads the records of a chapter file.
func (s *Store) ReadChapter(subject, file string) ([]bank.Question, error) {
	if filepath.Base(file) != file {
		return nil, fmt.Errorf("invalid chapter file name %q", file)
	}
	data, err := os.ReadFile(filepath.Join(s.SubjectDir(subject), file))
	if err != nil {
		return nil, err
	}
	var qs []bank.Question
	if err := json.Unmarshal(data, &qs); err != nil {
		return nil, fmt.Errorf("parse chapter file %s: %w", file, err)
	}
	return qs, nil
}

// FindChapter looks a chapter up by id, then by exact title, then by
// case-insensitive title.
func (s *Store) FindChapter(subject, ref string) (Chapter, error) {
	chapters, err := s.Chapters(subject)
	if err != nil {
		return Chapter{}, err
	}
	for _, ch := range chapters {
		if ch.ID == ref {
			return ch, nil
		}
	}
	for _, ch := range chapters {
		if ch.Title == ref {
			return ch, nil
		}
	}
	for _, ch := range chapters {
		if strings.EqualFold(ch.Title, ref) {
			return ch, nil
		}
	}
	return Chapter{}, fmt.Errorf("%w: %s in %s", ErrChapterNotFound, ref, subject)
}

// SortChapters orders chapters by the first number in their title. Titles
// without a number go last; ties keep their current order.
func SortChapters(chapters []Chapter) {
	sort.SliceStable(chapters, func(i, j int) bool {
		return compareTitleKeys(TitleNumber(chapters[i].Title), TitleNumber(chapters[j].Title)) < 0
	})
}

// TitleNumber returns the first run of decimal digits in title as ASCII
// digits with leading zeros removed ("0" for an all-zero run). It returns ""
// when the title has no digits. Any Unicode decimal digit counts, so
// full-width "第１２章" yields "12".
func TitleNumber(title string) string {
	var b strings.Builder
	started := false
	for _, r := range title {
		if unicode.IsDigit(r) {
			started = true
			b.WriteByte(byte('0' + digitValue(r)))
			continue
		}
		if started {
			break
		}
	}
	if !started {
		return ""
	}
	n := strings.TrimLeft(b.String(), "0")
	if n == "" {
		n = "0"
	}
	return n
}

// digitValue returns the numeric value of a Unicode decimal digit. Decimal
// digit blocks are contiguous runs of ten starting at zero.
func digitValue(r rune) int {
	if r >= '0' && r <= '9' {
		return int(r - '0')
	}
	start := r
	for unicode.IsDigit(start - 1) {
		start--
	}
	return int(r-start) % 10
}

// compareTitleKeys compares two TitleNumber results numerically. The empty
// key is larger than every number.
func compareTitleKeys(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	case len(a) != len(b):
		if len(a) < len(b) {
			return -1
		}
		return 1
	case a < b:
		return -1
	default:
		return 1
	}
}
