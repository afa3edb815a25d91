package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileStore keeps one indented JSON file per snapshot in a directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based store.
// If baseDir is empty, [DefaultDir] is used.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		baseDir = dir
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// DefaultDir returns $XDG_DATA_HOME/metroflow/maps, falling back to
// ~/.local/share/metroflow/maps.
func DefaultDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "metroflow", "maps"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "metroflow", "maps"), nil
}

func (s *FileStore) snapshotPath(name string) string {
	return filepath.Join(s.baseDir, name+".json")
}

func (s *FileStore) Put(ctx context.Context, name string, data []byte) (err error) {
	defer observe(ctx, BackendFile, "put", time.Now(), &err)
	if err := checkPut(name, data); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.baseDir, ".put-*")
	if err != nil {
		return storeErr(BackendFile, "put", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return storeErr(BackendFile, "put", err)
	}
	if err := tmp.Close(); err != nil {
		return storeErr(BackendFile, "put", err)
	}
	return storeErr(BackendFile, "put", os.Rename(tmp.Name(), s.snapshotPath(name)))
}

func (s *FileStore) Get(ctx context.Context, name string) (data []byte, err error) {
	defer observe(ctx, BackendFile, "get", time.Now(), &err)
	if err := validName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err = os.ReadFile(s.snapshotPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, storeErr(BackendFile, "get", err)
	}
	return data, nil
}

func (s *FileStore) List(ctx context.Context) (infos []Info, err error) {
	defer observe(ctx, BackendFile, "list", time.Now(), &err)

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, storeErr(BackendFile, "list", err)
	}
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), ".json")
		if entry.IsDir() || !ok || strings.HasPrefix(name, ".") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{Name: name, Size: fi.Size(), Updated: fi.ModTime()})
	}
	sortInfos(infos)
	return infos, nil
}

func (s *FileStore) Delete(ctx context.Context, name string) (err error) {
	defer observe(ctx, BackendFile, "delete", time.Now(), &err)
	if err := validName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = os.Remove(s.snapshotPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return notFound(name)
	}
	return storeErr(BackendFile, "delete", err)
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory for snapshot files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)
