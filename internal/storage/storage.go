// Package storage is the filesystem blob store for uploaded images. Paths
// handed out are storage-relative (e.g. "maps/<uuid>.png") so records stay
// portable across hosts; the HTTP layer serves the root under /storage.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Store struct {
	root   string
	logger *zap.Logger
}

func New(root string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Store{root: root, logger: logger}, nil
}

// Save writes the blob under prefix with a generated name, keeping the
// original file's extension, and returns the storage-relative path.
func (s *Store) Save(prefix, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	rel := filepath.ToSlash(filepath.Join(prefix, uuid.NewString()+ext))

	abs := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}

	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(abs)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(abs)
		return "", err
	}
	return rel, nil
}

func (s *Store) Delete(rel string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// DeleteQuietly removes a blob best-effort: a failure is logged and the
// caller's operation continues.
func (s *Store) DeleteQuietly(rel string) {
	if rel == "" {
		return
	}
	if err := s.Delete(rel); err != nil {
		s.logger.Warn("failed to delete blob", zap.String("path", rel), zap.Error(err))
	}
}

// Ready reports whether the storage root is still a usable directory.
func (s *Store) Ready() error {
	info, err := os.Stat(s.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("storage root %s is not a directory", s.root)
	}
	return nil
}

func (s *Store) Exists(rel string) bool {
	_, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(rel)))
	return err == nil
}
