package kvstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

// FileStore keeps every record in one YAML document. Writers hold an
// exclusive flock on a sidecar lock file and replace the document with a
// rename; readers hold a shared lock.
type FileStore struct {
	path     string
	lockPath string

	mu sync.RWMutex
}

// NewFileStore prepares a store backed by path. The file itself is created on
// the first write.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("kvstore: ensure state dir: %w", err)
	}
	return &FileStore{path: path, lockPath: path + ".lock"}, nil
}

// Path returns the document location.
func (s *FileStore) Path() string { return s.path }

// ReadString returns the value stored under key. A missing document is not an
// error; a corrupt one is.
func (s *FileStore) ReadString(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lock := flock.New(s.lockPath)
	if err := lock.RLock(); err != nil {
		return "", false, fmt.Errorf("kvstore: shared lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	doc, err := s.readDocument()
	if err != nil {
		return "", false, err
	}
	value, ok := doc[key]
	return value, ok, nil
}

// WriteString stores value under key, leaving other keys untouched.
func (s *FileStore) WriteString(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock := flock.New(s.lockPath)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("kvstore: exclusive lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	doc, err := s.readDocument()
	if err != nil {
		// A corrupt document would otherwise block every later save.
		doc = map[string]string{}
	}
	doc[key] = value
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("kvstore: encode: %w", err)
	}
	return writeFileAtomic(s.path, data, 0o644)
}

// Close is a no-op; locks are only held for the duration of a call.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) readDocument() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("kvstore: read %s: %w", s.path, err)
	}
	doc := map[string]string{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("kvstore: parse %s: %w", s.path, err)
	}
	if doc == nil {
		doc = map[string]string{}
	}
	return doc, nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("kvstore: create temp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("kvstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("kvstore: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("kvstore: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return fmt.Errorf("kvstore: chmod temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("kvstore: replace %s: %w", path, err)
	}
	return nil
}
