package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidPath is returned for object paths escaping the bucket root.
var ErrInvalidPath = errors.New("invalid object path")

// LocalStorage keeps uploaded admission documents on disk under one bucket
// directory, laid out as <college id>/<object name>.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the bucket directory exists and returns a handle.
func NewLocalStorage(rootDir, bucket string) (*LocalStorage, error) {
	if rootDir == "" {
		rootDir = "./uploads"
	}
	baseDir := filepath.Join(rootDir, bucket)
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create bucket directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// SaveStream copies r into a new object and returns the bytes written. An
// existing object is never overwritten; a failed copy leaves nothing behind.
func (s *LocalStorage) SaveStream(objectPath string, r io.Reader) (int64, error) {
	path, err := s.resolve(objectPath)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("prepare object directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create object: %w", err)
	}
	defer file.Close() //nolint:errcheck
	written, err := io.Copy(file, r)
	if err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("write object stream: %w", err)
	}
	return written, nil
}

// Open returns a read-only handle for the stored object.
func (s *LocalStorage) Open(objectPath string) (*os.File, error) {
	path, err := s.resolve(objectPath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	return file, nil
}

// Delete removes a stored object if present.
func (s *LocalStorage) Delete(objectPath string) error {
	path, err := s.resolve(objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (s *LocalStorage) resolve(objectPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(objectPath))
	if objectPath == "" || filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || clean == ".." {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.baseDir, clean), nil
}
