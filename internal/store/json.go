package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperjump/mieru/internal/models"
)

// JSONStore persists records as a single JSON file: an array of
// {"path": ..., "vector": [...]} objects. Every Save rewrites the file in
// full; there is no incremental append and no backup of the prior snapshot.
type JSONStore struct {
	path string
}

// NewJSONStore creates a store backed by the file at path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the snapshot file path.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads and parses the snapshot. Returns ErrNotFound when the file
// does not exist and ErrCorrupt when it exists but cannot be parsed into
// valid records. An empty array loads as zero records without error.
func (s *JSONStore) Load(ctx context.Context) ([]models.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	for i, rec := range records {
		if rec.Path == "" {
			return nil, fmt.Errorf("%w: record %d has no path", ErrCorrupt, i)
		}
		if rec.Vector == nil {
			return nil, fmt.Errorf("%w: record %d (%s) has no vector", ErrCorrupt, i, rec.Path)
		}
	}
	return records, nil
}

// Save serializes records and replaces the snapshot file. The write goes to
// a temp file in the same directory first and is moved into place, so a
// failed save leaves the previous snapshot intact.
func (s *JSONStore) Save(ctx context.Context, records []models.Record) error {
	if records == nil {
		records = []models.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
