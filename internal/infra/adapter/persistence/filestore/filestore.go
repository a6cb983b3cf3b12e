// Package filestore implements the repositories on plain JSON files, one file
// per table, in the same spirit as the queue substrate: the whole collection
// is a JSON array, every write rewrites the file through temp-and-rename, and
// an in-process mutex serializes access. It stands in for a relational store
// so the whole backend can run from a single state directory.
package filestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"tatami-backend/internal/domain/entity"
)

// table is a mutex-guarded JSON-array file holding values of one type.
type table[T any] struct {
	path string
	mu   sync.Mutex
}

// newTable creates a table backed by the file at path, creating the parent
// directory if needed.
func newTable[T any](path string) (*table[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create filestore directory: %w", err)
	}
	return &table[T]{path: path}, nil
}

// load reads the whole collection. A missing file is empty; a malformed file
// is corrupted storage.
func (t *table[T]) load() ([]T, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", t.path, err)
	}
	if len(data) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrStorageCorrupted, t.path, err)
	}
	return items, nil
}

// store atomically replaces the whole collection.
func (t *table[T]) store(items []T) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", t.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(t.path), filepath.Base(t.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", t.path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file for %s: %w", t.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file for %s: %w", t.path, err)
	}
	if err := os.Rename(tmpPath, t.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", t.path, err)
	}
	return nil
}

// appendItem loads, appends, and stores under the table lock.
func (t *table[T]) appendItem(item T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	items, err := t.load()
	if err != nil {
		return err
	}
	return t.store(append(items, item))
}

// replaceAll stores a new collection under the table lock.
func (t *table[T]) replaceAll(items []T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store(items)
}

// all loads the collection under the table lock.
func (t *table[T]) all() ([]T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.load()
}
