// Package registry tracks trained model versions and their artifact files.
// The detection core depends only on the narrow Registry interface; the
// file-backed and SQLite-backed implementations are interchangeable adapters.
package registry

import (
	"context"
	"time"
)

// Record describes one registered model version.
type Record struct {
	CreatedAt time.Time          `json:"created_at"`
	Files     map[string]string  `json:"files"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	Metadata  map[string]string  `json:"metadata,omitempty"`
	Version   string             `json:"version"`
	Active    bool               `json:"is_active"`
}

// Registry is the model version store. At most one version is active at a
// time; activating a version deactivates all others. Implementations return
// common.ErrNotFound for unknown versions and common.ErrNoActiveModel when no
// version is active.
type Registry interface {
	// Register stores a new model version. Registering an existing
	// version fails with common.ErrDuplicateModel.
	Register(ctx context.Context, rec Record) error
	// SetActive marks the given version active and all others inactive.
	SetActive(ctx context.Context, version string) error
	// Get returns the record for a specific version.
	Get(ctx context.Context, version string) (*Record, error)
	// Active returns the currently active record.
	Active(ctx context.Context) (*Record, error)
	// List returns all registered versions, newest first.
	List(ctx context.Context) ([]Record, error)
}
