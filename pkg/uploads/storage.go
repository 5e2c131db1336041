package uploads

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrOutsideRoot is returned for stored paths that resolve outside the
// storage root.
var ErrOutsideRoot = errors.New("path escapes storage root")

// FileStorage keeps uploaded file bytes under a root directory. Every saved
// file gets a unique name so same-named uploads never overwrite each other.
type FileStorage struct {
	root string
}

// NewFileStorage creates the root directory if needed and returns a
// FileStorage rooted there.
func NewFileStorage(root string) (*FileStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &FileStorage{root: abs}, nil
}

// Root returns the absolute storage root.
func (fs *FileStorage) Root() string { return fs.root }

// Save writes data under a fresh name derived from originalName and returns
// the path relative to the root.
func (fs *FileStorage) Save(originalName string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	rel := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(fs.root, rel), data, 0o640); err != nil {
		return "", fmt.Errorf("write upload %q: %w", originalName, err)
	}
	return rel, nil
}

// ReadFile returns the bytes stored at rel.
func (fs *FileStorage) ReadFile(rel string) ([]byte, error) {
	full, err := fs.resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// Remove deletes the file stored at rel. A missing file is not an error.
func (fs *FileStorage) Remove(rel string) error {
	full, err := fs.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

func (fs *FileStorage) resolve(rel string) (string, error) {
	clean := filepath.Clean(rel)
	if rel == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return filepath.Join(fs.root, clean), nil
}
