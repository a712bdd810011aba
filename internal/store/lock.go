package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrLocked is returned by TryLockFile when another process holds the lock.
var ErrLocked = errors.New("locked by another process")

const registryLockKey = "registry"

// FileLock is an exclusive advisory lock on a file.
type FileLock struct {
	file *os.File
}

// LockFile blocks until it holds an exclusive lock on path, creating the file
// and its directory if needed.
func LockFile(path string) (*FileLock, error) {
	return acquireFileLock(path, true)
}

// TryLockFile is LockFile without waiting; it returns ErrLocked when the lock
// is held elsewhere.
func TryLockFile(path string) (*FileLock, error) {
	return acquireFileLock(path, false)
}

func acquireFileLock(path string, wait bool) (*FileLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := lockFileExclusive(f, wait); err != nil {
		f.Close()
		if isWouldBlockError(err) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("acquire lock %s: %w", filepath.Base(path), err)
	}
	return &FileLock{file: f}, nil
}

// Release drops the lock.
func (l *FileLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unlockFile(l.file)
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}

// lockSet serializes read-modify-write cycles on registry and index files,
// within the process (mutex per key) and across processes (lock file per key).
type lockSet struct {
	dir string

	mu    sync.Mutex
	byKey map[string]*sync.Mutex
}

func newLockSet(dir string) *lockSet {
	return &lockSet{dir: dir, byKey: make(map[string]*sync.Mutex)}
}

func (ls *lockSet) mutex(key string) *sync.Mutex {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	m, ok := ls.byKey[key]
	if !ok {
		m = &sync.Mutex{}
		ls.byKey[key] = m
	}
	return m
}

func (ls *lockSet) lock(key string) (func(), error) {
	m := ls.mutex(key)
	m.Lock()

	fl, err := LockFile(filepath.Join(ls.dir, key+".lock"))
	if err != nil {
		m.Unlock()
		return nil, err
	}
	return func() {
		_ = fl.Release()
		m.Unlock()
	}, nil
}

// LockSubject takes the exclusive import lock for a subject. The returned
// function releases it.
func (s *Store) LockSubject(subject string) (func(), error) {
	return s.locks.lock("subject." + subject)
}
