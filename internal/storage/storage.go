package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// ParamsKey holds the user's wallet parameters document
	ParamsKey = "bitcoin-params"
	// DataKey holds the last computed valuation snapshot document
	DataKey = "bitcoin-data"

	fileSuffix = ".json"
)

// ErrNotFound is returned by Get when no document is stored under a key
var ErrNotFound = errors.New("no data found")

// Store is a key-value store of opaque JSON documents. Put replaces the whole
// document; the store never retries a failed write.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Keys() ([]string, error)
}

// FileStore keeps one <key>.json file per key inside a directory
type FileStore struct {
	dir string
}

// GetAppDataDir returns the default application data directory
func GetAppDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".wallet-watch"), nil
}

// NewFileStore creates the directory if needed and returns a store rooted in it
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		var err error
		dir, err = GetAppDataDir()
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create app data directory: %w", err)
	}

	return &FileStore{dir: dir}, nil
}

// Dir returns the directory backing the store
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid store key %q", key)
	}
	return filepath.Join(s.dir, key+fileSuffix), nil
}

// Get reads the document stored under key
func (s *FileStore) Get(key string) ([]byte, error) {
	filePath, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	return data, nil
}

// Put writes the document through a temporary file so readers never observe a
// partially written document
func (s *FileStore) Put(key string, value []byte) error {
	filePath, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", key, err)
	}

	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions on %s: %w", key, err)
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}

	return nil
}

// Keys lists the stored keys in lexical order
func (s *FileStore) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read app data directory: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(entry.Name(), fileSuffix))
	}

	sort.Strings(keys)
	return keys, nil
}
