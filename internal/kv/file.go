package kv

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// FileConfig holds settings for FileStore.
type FileConfig struct {
	Dir string `yaml:"dir" env:"DIR"`
}

// FileStore keeps one file per key under Dir. Files are replaced
// atomically, so a crash mid-flush leaves either the old or the new value.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(cfg FileConfig) (*FileStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("file store directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileStore{dir: cfg.Dir}, nil
}

func (s *FileStore) path(key []byte) string {
	// An empty key still needs a file name.
	return filepath.Join(s.dir, "k"+hex.EncodeToString(key))
}

func (s *FileStore) Get(_ context.Context, key []byte) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return data, nil
}

func (s *FileStore) Put(_ context.Context, key, value []byte) error {
	if err := atomic.WriteFile(s.path(key), bytes.NewReader(value)); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

func (s *FileStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("stat state dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("state dir %s is not a directory", s.dir)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
