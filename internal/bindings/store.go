// Package bindings persists merchant-category bindings as a single JSON
// file. The set is always read and replaced whole; there are no per-entry
// update semantics.
package bindings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dvloznov/easybudget/internal/domain"
)

// FileStore stores the binding set in one JSON file, replace-on-write.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given file path. The file does
// not need to exist yet; a missing file reads as an empty set.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the full binding set. A missing file is an empty set, not an
// error.
func (s *FileStore) Load() ([]domain.CategoryBinding, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []domain.CategoryBinding{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Load: reading %s: %w", s.path, err)
	}

	var set []domain.CategoryBinding
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("Load: parsing %s: %w", s.path, err)
	}
	if set == nil {
		set = []domain.CategoryBinding{}
	}
	return set, nil
}

// Replace overwrites the stored set with the given one. Last writer wins; an
// empty slice removes all bindings. The write goes through a temp file and
// rename so a crash never leaves a half-written set.
func (s *FileStore) Replace(set []domain.CategoryBinding) error {
	if set == nil {
		set = []domain.CategoryBinding{}
	}
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("Replace: encoding bindings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".bindings-*.json")
	if err != nil {
		return fmt.Errorf("Replace: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("Replace: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("Replace: closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("Replace: replacing %s: %w", s.path, err)
	}
	return nil
}

// Lookup builds an exact-match, case-sensitive index over a binding set.
// Merchant labels from exports must match the stored key byte for byte.
func Lookup(set []domain.CategoryBinding) map[string]domain.CategoryBinding {
	idx := make(map[string]domain.CategoryBinding, len(set))
	for _, b := range set {
		idx[b.MerchantCategory] = b
	}
	return idx
}
