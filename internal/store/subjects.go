package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/quizbank/qbank/internal/atomicfile"
)

// Subject is one entry of the subject registry.
type Subject struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Dir       string `json:"dir"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`

	// Extra holds fields written by other tools.
	Extra map[string]json.RawMessage `json:"-"`
}

// LoadSubjects reads the registry, returning any read or parse error.
func (s *Store) LoadSubjects() ([]Subject, error) {
	data, err := os.ReadFile(filepath.Join(s.root, SubjectsFile))
	if err != nil {
		return nil, err
	}
	var subjects []Subject
	if err := json.Unmarshal(data, &subjects); err != nil {
		return nil, fmt.Errorf("parse %s: %w", SubjectsFile, err)
	}
	return subjects, nil
}

// Subjects reads the registry. An unreadable or corrupt registry is reported
// as empty.
func (s *Store) Subjects() []Subject {
	subjects, err := s.LoadSubjects()
	if err != nil {
		s.logger.Warn("subject registry unreadable, treating as empty",
			slog.String("path", filepath.Join(s.root, SubjectsFile)),
			slog.String("error", err.Error()))
		return []Subject{}
	}
	if subjects == nil {
		subjects = []Subject{}
	}
	return subjects
}

// SaveSubjects replaces the registry contents.
func (s *Store) SaveSubjects(subjects []Subject) error {
	if subjects == nil {
		subjects = []Subject{}
	}
	if err := atomicfile.WriteJSON(filepath.Join(s.root, SubjectsFile), subjects); err != nil {
		return fmt.Errorf("save %s: %w", SubjectsFile, err)
	}
	return nil
}

// FindSubject returns the registry entry named name.
func (s *Store) FindSubject(name string) (Subject, error) {
	for _, sub := range s.Subjects() {
		if sub.Name == name {
			return sub, nil
		}
	}
	return Subject{}, fmt.Errorf("%w: %s", ErrSubjectNotFound, name)
}

// TouchSubject upserts the registry entry for name: a missing entry is
// created with a fresh id and creation date, and updated_at is refreshed
// either way. It reports whether the entry was created.
func (s *Store) TouchSubject(name string, now time.Time) (Subject, bool, error) {
	unlock, err := s.locks.lock(registryLockKey)
	if err != nil {
		return Subject{}, false, err
	}
	defer unlock()

	subjects := s.Subjects()

	idx := -1
	for i := range subjects {
		if subjects[i].Name == name {
			idx = i
			break
		}
	}

	created := idx == -1
	if created {
		subjects = append(subjects, Subject{
			ID:        fmt.Sprintf("sub_%d", now.Unix()),
			Name:      name,
			Dir:       name,
			CreatedAt: now.Format(DateLayout),
		})
		idx = len(subjects) - 1
	}
	subjects[idx].UpdatedAt = now.Format(TimestampLayout)

	if err := s.SaveSubjects(subjects); err != nil {
		return Subject{}, false, err
	}
	if created {
		s.logger.Debug("subject registered", slog.String("subject", name), slog.String("id", subjects[idx].ID))
	}
	return subjects[idx], created, nil
}
