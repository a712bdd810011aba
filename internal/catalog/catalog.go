// Package catalog maintains a derived SQLite database of every imported
// question, used for full-text search and statistics. The chapter files and
// index.json stay the source of truth; the catalog can be rebuilt from them
// at any time.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/quizbank/qbank/internal/logging"
	"github.com/quizbank/qbank/internal/store"
)

// FileName is the catalog database name inside the store's private directory.
const FileName = "catalog.db"

// ErrCatalogLocked indicates another process is rebuilding the catalog.
var ErrCatalogLocked = errors.New("catalog is locked for rebuild")

// CurrentVersion is the catalog schema version.
// v2: chapter title stored on question rows for snippets
const CurrentVersion = 2

// Catalog is the catalog database handle.
type Catalog struct {
	db     *sql.DB
	store  *store.Store
	logger *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// Path returns the catalog database path of a store.
func Path(st *store.Store) string {
	return st.PrivatePath(FileName)
}

// Open opens or creates the catalog of st. A database written by an older
// schema version is discarded and recreated empty; callers should Rebuild.
func Open(st *store.Store, opts ...Option) (*Catalog, error) {
	if err := os.MkdirAll(st.PrivatePath(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", store.PrivateDir, err)
	}

	path := Path(st)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	c := &Catalog{db: db, store: st, logger: logging.Discard()}
	for _, opt := range opts {
		opt(c)
	}

	if v, ok := c.version(); ok && v != CurrentVersion {
		db.Close()
		c.logger.Info("catalog schema changed, recreating",
			slog.Int("found", v), slog.Int("want", CurrentVersion))
		if err := removeDatabaseFiles(path); err != nil {
			return nil, err
		}
		if c.db, err = sql.Open("sqlite", path); err != nil {
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
	}

	if err := c.initialize(); err != nil {
		c.db.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) version() (int, bool) {
	var v int
	err := c.db.QueryRow(`SELECT CAST(value AS INTEGER) FROM meta WHERE key = 'version'`).Scan(&v)
	if err != nil {
		return 0, false
	}
	return v, true
}

func removeDatabaseFiles(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

func (c *Catalog) initialize() error {
	schema := `
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS chapters (
			subject TEXT NOT NULL,
			chapter_id TEXT NOT NULL,
			title TEXT NOT NULL,
			file TEXT NOT NULL,
			question_count INTEGER NOT NULL,
			updated_at TEXT,
			indexed_at INTEGER,
			PRIMARY KEY (subject, chapter_id)
		);

		CREATE INDEX IF NOT EXISTS idx_chapters_subject ON chapters(subject);

		CREATE VIRTUAL TABLE IF NOT EXISTS fts_questions USING fts5(
			subject UNINDEXED,
			chapter_id UNINDEXED,
			chapter UNINDEXED,
			position UNINDEXED,
			content,
			tokenize='porter unicode61'
		);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	_, err := c.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('version', ?)`,
		fmt.Sprintf("%d", CurrentVersion))
	if err != nil {
		return fmt.Errorf("failed to set catalog version: %w", err)
	}
	return nil
}

// IndexSubject replaces everything the catalog holds for subject with the
// current contents of its chapter index and chapter files. A chapter file
// that cannot be read is skipped with a warning.
func (c *Catalog) IndexSubject(subject string) error {
	chapters, err := c.store.Chapters(subject)
	if err != nil {
		return err
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteSubject(tx, subject); err != nil {
		return err
	}

	now := time.Now().Unix()
	for _, ch := range chapters {
		qs, err := c.store.ReadChapter(subject, ch.File)
		if err != nil {
			c.logger.Warn("chapter file skipped",
				slog.String("subject", subject),
				slog.String("file", ch.File),
				slog.String("error", err.Error()))
			continue
		}

		if _, err := tx.Exec(`
			INSERT OR REPLACE INTO chapters (subject, chapter_id, title, file, question_count, updated_at, indexed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, subject, ch.ID, ch.Title, ch.File, len(qs), ch.UpdatedAt, now); err != nil {
			return fmt.Errorf("failed to index chapter %s: %w", ch.Title, err)
		}

		for i, q := range qs {
			if _, err := tx.Exec(`
				INSERT INTO fts_questions (subject, chapter_id, chapter, position, content)
				VALUES (?, ?, ?, ?, ?)
			`, subject, ch.ID, ch.Title, i, searchableContent(q.Text(), q.Options(), q.Field("answer"))); err != nil {
				return fmt.Errorf("failed to index question %d of %s: %w", i, ch.Title, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	c.logger.Debug("subject cataloged", slog.String("subject", subject), slog.Int("chapters", len(chapters)))
	return nil
}

// RemoveSubject drops a subject from the catalog.
func (c *Catalog) RemoveSubject(subject string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := deleteSubject(tx, subject); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteSubject(tx *sql.Tx, subject string) error {
	if _, err := tx.Exec("DELETE FROM chapters WHERE subject = ?", subject); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM fts_questions WHERE subject = ?", subject); err != nil {
		return err
	}
	return nil
}

func searchableContent(text string, options []string, answer string) string {
	parts := make([]string, 0, len(options)+2)
	parts = append(parts, text)
	parts = append(parts, options...)
	if answer != "" {
		parts = append(parts, answer)
	}
	return strings.Join(parts, "\n")
}

// RebuildResult summarizes a full rebuild.
type RebuildResult struct {
	Subjects int
	Skipped  []string
	Duration time.Duration
}

// Rebuild clears the catalog and indexes every registered subject. Subjects
// whose directory or index cannot be read are skipped and listed in the
// result. It returns ErrCatalogLocked when another rebuild is running.
func (c *Catalog) Rebuild() (*RebuildResult, error) {
	lock, err := store.TryLockFile(c.store.PrivatePath("locks", "catalog.lock"))
	if errors.Is(err, store.ErrLocked) {
		return nil, ErrCatalogLocked
	}
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	start := time.Now()
	if err := c.clear(); err != nil {
		return nil, err
	}

	result := &RebuildResult{}
	for _, sub := range c.store.Subjects() {
		if err := c.IndexSubject(sub.Name); err != nil {
			c.logger.Warn("subject skipped during rebuild",
				slog.String("subject", sub.Name),
				slog.String("error", err.Error()))
			result.Skipped = append(result.Skipped, sub.Name)
			continue
		}
		result.Subjects++
	}

	if _, err := c.db.Exec("ANALYZE"); err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

func (c *Catalog) clear() error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec("DELETE FROM chapters"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM fts_questions"); err != nil {
		return err
	}
	return tx.Commit()
}
