// Package state persists the mapping from document ID to the vectors it
// currently owns in the index.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"docsync-rag/internal/models"
)

// Store reads and writes the processed-files mapping as indented JSON.
// Writes go to a temp file in the same directory and are renamed into
// place, so a crash mid-write leaves the previous mapping intact.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the persisted mapping. A missing file is an empty mapping;
// an unreadable or malformed file is reported as models.ErrStateCorrupt.
func (s *Store) Load() (map[string]models.IndexRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]models.IndexRecord{}, nil
		}
		return nil, fmt.Errorf("%w: %v", models.ErrStateCorrupt, err)
	}
	records := map[string]models.IndexRecord{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStateCorrupt, err)
	}
	return records, nil
}

// Save rewrites the whole mapping atomically.
func (s *Store) Save(records map[string]models.IndexRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
