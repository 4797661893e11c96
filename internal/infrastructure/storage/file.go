// Package storage provides model artifact sources backed by the local
// filesystem or S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/healthrisk/risk-api/internal/core/domain"
	"github.com/healthrisk/risk-api/internal/core/ports"
)

// FileSource reads artifacts from the local filesystem. Relative paths are
// resolved against Root when it is set.
type FileSource struct {
	Root string
}

func NewFileSource(root string) *FileSource {
	return &FileSource{Root: root}
}

func (s *FileSource) resolve(path string) string {
	if s.Root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.Root, path)
}

func (s *FileSource) Open(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(s.resolve(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrModelNotFound, path)
		}
		return nil, err
	}
	return f, nil
}

func (s *FileSource) Stat(_ context.Context, path string) (*ports.ArtifactInfo, error) {
	full := s.resolve(path)
	fi, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrModelNotFound, path)
		}
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrModelNotFound, path)
	}
	return &ports.ArtifactInfo{
		Location:     full,
		Size:         fi.Size(),
		LastModified: fi.ModTime().UTC(),
	}, nil
}
