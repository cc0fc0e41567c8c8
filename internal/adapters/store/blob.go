// Package store persists entity collections as JSON blobs behind an
// opaque string key-value contract.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Blob is the persistence contract: opaque string key to JSON string.
// There is no transactionality and no schema versioning; concurrent
// writers follow last-write-wins.
type Blob interface {
	// Get returns the stored value for key, and whether it exists.
	Get(key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
}

// FileBlob keeps one file per key inside a data directory.
type FileBlob struct {
	dir string
}

// NewFileBlob creates the data directory if needed and returns a
// file-backed blob.
func NewFileBlob(dir string) (*FileBlob, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileBlob{dir: dir}, nil
}

func (b *FileBlob) path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

// Get reads the file for key. A missing file means the key is unset.
func (b *FileBlob) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(b.path(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read blob %q: %w", key, err)
	}
	return string(data), true, nil
}

// Set writes the value for key. The write replaces the whole file;
// there is no partial-write recovery.
func (b *FileBlob) Set(key, value string) error {
	if err := os.WriteFile(b.path(key), []byte(value), 0o644); err != nil {
		return fmt.Errorf("write blob %q: %w", key, err)
	}
	return nil
}

// MemoryBlob is an in-process blob, used in tests and demo mode.
type MemoryBlob struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryBlob returns an empty in-memory blob.
func NewMemoryBlob() *MemoryBlob {
	return &MemoryBlob{values: make(map[string]string)}
}

// Get returns the stored value for key.
func (b *MemoryBlob) Get(key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (b *MemoryBlob) Set(key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
	return nil
}
