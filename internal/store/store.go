// Package store owns the on-disk layout of a qbank data root:
//
//	<root>/subjects.json            subject registry
//	<root>/<subject>/index.json     chapter index of one subject
//	<root>/<subject>/ch_*.json      chapter files
//	<root>/.qbank/                  derived data and lock files
package store

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/quizbank/qbank/internal/config"
)

const (
	// SubjectsFile is the registry file name at the root.
	SubjectsFile = "subjects.json"

	// IndexFile is the chapter index file name inside a subject directory.
	IndexFile = "index.json"

	// PrivateDir holds files owned by qbank itself (catalog, locks).
	PrivateDir = ".qbank"

	// DateLayout formats subject creation dates.
	DateLayout = "2006-01-02"

	// TimestampLayout formats updated_at values.
	TimestampLayout = "2006-01-02 15:04:05"
)

var (
	// ErrSubjectNotFound indicates the subject has no directory under the root.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrChapterNotFound indicates no chapter index entry matched.
	ErrChapterNotFound = errors.New("chapter not found")
)

// Store is a handle on one data root.
type Store struct {
	root   string
	logger *slog.Logger
	locks  *lockSet
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for soft failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Store rooted at root. Nothing is touched on disk until
// EnsureSetup or a write is called.
func New(root string, opts ...Option) *Store {
	s := &Store{
		root:   filepath.Clean(root),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.locks = newLockSet(filepath.Join(s.root, PrivateDir, "locks"))
	return s
}

// Root returns the data root directory.
func (s *Store) Root() string {
	return s.root
}

// SubjectDir returns the directory holding a subject's chapters.
func (s *Store) SubjectDir(subject string) string {
	return filepath.Join(s.root, subject)
}

// PrivatePath joins elem under the root's private directory.
func (s *Store) PrivatePath(elem ...string) string {
	return filepath.Join(append([]string{s.root, PrivateDir}, elem...)...)
}

// EnsureSetup creates the root directory and an empty subject registry when
// they are missing. It is safe to call before every operation.
func (s *Store) EnsureSetup() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create data root %s: %w", s.root, err)
	}

	path := filepath.Join(s.root, SubjectsFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
			return fmt.Errorf("create %s: %w", SubjectsFile, err)
		}
	} else if err != nil {
		return fmt.Errorf("stat %s: %w", SubjectsFile, err)
	}
	return nil
}

// EnsureSubjectDir creates the subject's directory if needed.
func (s *Store) EnsureSubjectDir(subject string) error {
	if err := os.MkdirAll(s.SubjectDir(subject), 0o755); err != nil {
		return fmt.Errorf("create subject directory %s: %w", subject, err)
	}
	return nil
}

// reservedRootNames are root entries that can never be subject directories.
// Matching ignores case for case-insensitive file systems.
var reservedRootNames = []string{".", "..", PrivateDir, SubjectsFile, config.SettingsFile, ".gitignore"}

// ValidSubjectName reports whether name can be used as a subject directory.
func ValidSubjectName(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	for _, r := range reservedRootNames {
		if strings.EqualFold(name, r) {
			return false
		}
	}
	return !strings.ContainsAny(name, `/\`)
}
