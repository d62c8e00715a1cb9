// Package examplestore is a reference file-backed implementation of
// transport.PersistentStorage. It is illustrative, not a product-grade
// security database backend.
package examplestore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/SashankSharma/iotivity/pkg/transport"
)

// FileStorage implements transport.PersistentStorage against a base
// directory on disk.
type FileStorage struct {
	baseDir string
}

// New creates a FileStorage rooted at baseDir, creating it if necessary.
func New(baseDir string) (*FileStorage, error) {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("examplestore: create base dir: %w", err)
	}
	return &FileStorage{baseDir: baseDir}, nil
}

func (s *FileStorage) resolve(path string) string {
	return filepath.Join(s.baseDir, filepath.Clean(string(filepath.Separator)+path))
}

// Open implements transport.PersistentStorage.Open with stdio-style mode
// strings ("r", "w", "a", "r+").
func (s *FileStorage) Open(path, mode string) (transport.StorageFile, error) {
	var flag int
	switch mode {
	case "r":
		flag = os.O_RDONLY
	case "w":
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case "a":
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	case "r+":
		flag = os.O_RDWR
	default:
		return nil, fmt.Errorf("examplestore: unsupported mode %q", mode)
	}

	f, err := os.OpenFile(s.resolve(path), flag, 0o600)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Unlink implements transport.PersistentStorage.Unlink.
func (s *FileStorage) Unlink(path string) error {
	err := os.Remove(s.resolve(path))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

var _ transport.PersistentStorage = (*FileStorage)(nil)
