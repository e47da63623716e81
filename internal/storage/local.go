package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalArtifacts stores artifacts on the local filesystem under a base
// directory. Suitable for single-node deployments and development.
type LocalArtifacts struct {
	basePath string
}

// NewLocalArtifacts creates a local artifact store rooted at basePath
func NewLocalArtifacts(basePath string) (*LocalArtifacts, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalArtifacts{basePath: basePath}, nil
}

// resolve maps a storage key onto the base directory, rejecting keys that
// would escape it
func (s *LocalArtifacts) resolve(key string) (string, error) {
	full := filepath.Join(s.basePath, filepath.FromSlash(key))
	base := filepath.Clean(s.basePath)
	if full != base && !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", fmt.Errorf("artifact key %q escapes the storage root", key)
	}
	return full, nil
}

func (s *LocalArtifacts) Put(_ context.Context, key string, data []byte, _ string) error {
	filePath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (s *LocalArtifacts) Get(_ context.Context, key string) (io.ReadCloser, int64, error) {
	filePath, err := s.resolve(key)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

func (s *LocalArtifacts) Delete(_ context.Context, key string) error {
	filePath, err := s.resolve(key)
	if err != nil {
		return err
	}
	return os.Remove(filePath)
}

func (s *LocalArtifacts) Exists(_ context.Context, key string) (bool, error) {
	filePath, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
