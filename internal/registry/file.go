package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fecaudit/fecaudit/internal/common"
)

// fileDocument is the on-disk layout of the JSON registry file.
type fileDocument struct {
	ActiveVersion string   `json:"active_version"`
	Models        []Record `json:"models"`
}

// FileRegistry stores the model registry as a single JSON document, the
// simplest adapter for single-process deployments. All operations rewrite the
// whole file under a process-local lock.
type FileRegistry struct {
	path string
	mu   sync.Mutex
}

// NewFileRegistry creates a JSON-file-backed registry at path, initializing
// an empty document if none exists.
func NewFileRegistry(path string) (*FileRegistry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}
	r := &FileRegistry{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := r.save(&fileDocument{Models: []Record{}}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register implements Registry.
func (r *FileRegistry) Register(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}
	for i := range doc.Models {
		if doc.Models[i].Version == rec.Version {
			return fmt.Errorf("%w: %s", common.ErrDuplicateModel, rec.Version)
		}
	}
	rec.Active = false
	doc.Models = append(doc.Models, rec)
	return r.save(doc)
}

// SetActive implements Registry.
func (r *FileRegistry) SetActive(_ context.Context, version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}
	found := false
	for i := range doc.Models {
		if doc.Models[i].Version == version {
			doc.Models[i].Active = true
			found = true
		} else {
			doc.Models[i].Active = false
		}
	}
	if !found {
		return fmt.Errorf("model version %s: %w", version, common.ErrNotFound)
	}
	doc.ActiveVersion = version
	return r.save(doc)
}

// Get implements Registry.
func (r *FileRegistry) Get(_ context.Context, version string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	for i := range doc.Models {
		if doc.Models[i].Version == version {
			rec := doc.Models[i]
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("model version %s: %w", version, common.ErrNotFound)
}

// Active implements Registry.
func (r *FileRegistry) Active(_ context.Context) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	if doc.ActiveVersion == "" {
		return nil, common.ErrNoActiveModel
	}
	for i := range doc.Models {
		if doc.Models[i].Version == doc.ActiveVersion {
			rec := doc.Models[i]
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("%w: active version %s has no record", common.ErrCorruptRegistry, doc.ActiveVersion)
}

// List implements Registry.
func (r *FileRegistry) List(_ context.Context) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(doc.Models))
	copy(out, doc.Models)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *FileRegistry) load() (*fileDocument, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}
	doc := &fileDocument{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCorruptRegistry, err)
	}
	return doc, nil
}

func (r *FileRegistry) save(doc *fileDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o640); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
