// Package store persists the vector snapshot: the full set of indexed
// records, rewritten as a whole on every save.
package store

import (
	"context"
	"errors"

	"github.com/hyperjump/mieru/internal/models"
)

var (
	// ErrNotFound is returned by Load when no snapshot exists yet.
	ErrNotFound = errors.New("snapshot not found")
	// ErrCorrupt is returned by Load when a snapshot exists but cannot be
	// parsed into valid records.
	ErrCorrupt = errors.New("snapshot corrupt")
)

// Store defines snapshot persistence. Load returns every record; Save
// replaces the durable snapshot in full. An empty record set is a valid,
// loadable state distinct from ErrNotFound.
type Store interface {
	Load(ctx context.Context) ([]models.Record, error)
	Save(ctx context.Context, records []models.Record) error
	Path() string
}
