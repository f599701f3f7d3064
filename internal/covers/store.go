package covers

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var ErrNotFound = errors.New("cover not found")

// UploadsPrefix is the prefix of cover paths as stored on a story row.
const UploadsPrefix = "uploads/"

// Store persists processed cover files by name.
type Store interface {
	Save(name string, data []byte) error
	Read(name string) ([]byte, error)
	Remove(name string) error
	Exists(name string) bool
	List() ([]string, error)
}

// FileName is the file name used for a story's cover.
func FileName(storyID uint) string {
	return fmt.Sprintf("%d.jpg", storyID)
}

// StoredPath is the value kept in the story's cover_image column.
func StoredPath(storyID uint) string {
	return UploadsPrefix + FileName(storyID)
}

// NameFromStoredPath maps a cover_image value back to a store file name.
func NameFromStoredPath(stored string) string {
	if stored == "" {
		return ""
	}
	return path.Base(filepath.ToSlash(stored))
}

// FileStore keeps covers as files in a single directory.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("cover directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cover dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes data atomically: a temp file in the same directory is renamed into place.
func (s *FileStore) Save(name string, data []byte) error {
	target, err := s.path(name)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("cover data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmpFile, err := os.CreateTemp(s.dir, "cover_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // no-op after a successful rename
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("write cover: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, target)
}

func (s *FileStore) Read(name string) ([]byte, error) {
	target, err := s.path(name)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(target)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read cover: %w", err)
	}
	return data, nil
}

// Remove deletes the named cover. A missing file is not an error.
func (s *FileStore) Remove(name string) error {
	target, err := s.path(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove cover: %w", err)
	}
	return nil
}

func (s *FileStore) Exists(name string) bool {
	target, err := s.path(name)
	if err != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err = os.Stat(target)
	return err == nil
}

// List returns the names of stored cover files, sorted.
func (s *FileStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), "cover_tmp_") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Dir returns the backing directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid cover name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}
