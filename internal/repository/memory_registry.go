package repository

import (
	"context"
	"fmt"
	"sync"

	"ShopIntent/internal/domain/models"
)

// MemoryRegistry is an in-process ModelRegistry. It is the reference
// implementation of the registry semantics and the backend for tests
// and single-node runs without a warehouse.
type MemoryRegistry struct {
	mu       sync.RWMutex
	versions map[string][]models.ModelVersion
	defaults map[string]string
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		versions: make(map[string][]models.ModelVersion),
		defaults: make(map[string]string),
	}
}

func (r *MemoryRegistry) GetDefault(_ context.Context, name string) (models.ModelVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	versionID, ok := r.defaults[name]
	if !ok {
		return models.ModelVersion{}, fmt.Errorf("%w: no default for model %q", models.ErrNotFound, name)
	}
	v, ok := r.find(name, versionID)
	if !ok {
		return models.ModelVersion{}, fmt.Errorf("%w: default %q of model %q is dangling", models.ErrNotFound, versionID, name)
	}
	return v, nil
}

func (r *MemoryRegistry) GetLatest(_ context.Context, name string) (models.ModelVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	vs := r.versions[name]
	if len(vs) == 0 {
		return models.ModelVersion{}, fmt.Errorf("%w: model %q has no versions", models.ErrNotFound, name)
	}
	latest := vs[0]
	for _, v := range vs[1:] {
		if v.Newer(latest) {
			latest = v
		}
	}
	return latest, nil
}

func (r *MemoryRegistry) GetVersion(_ context.Context, name, versionID string) (models.ModelVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.find(name, versionID)
	if !ok {
		return models.ModelVersion{}, fmt.Errorf("%w: version %q of model %q", models.ErrNotFound, versionID, name)
	}
	return v, nil
}

func (r *MemoryRegistry) ListVersions(_ context.Context, name string) ([]models.ModelVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ModelVersion, len(r.versions[name]))
	copy(out, r.versions[name])
	return out, nil
}

func (r *MemoryRegistry) SetDefault(_ context.Context, name, versionID, expectedOld string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.find(name, versionID); !ok {
		return fmt.Errorf("%w: version %q of model %q", models.ErrNotFound, versionID, name)
	}
	if cur, ok := r.defaults[name]; ok && expectedOld != "" && cur != expectedOld {
		return fmt.Errorf("%w: default of %q moved from %q to %q",
			models.ErrConflict, name, expectedOld, cur)
	}
	r.defaults[name] = versionID
	return nil
}

func (r *MemoryRegistry) LogVersion(_ context.Context, v models.ModelVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.find(v.Name, v.VersionID); ok {
		return fmt.Errorf("%w: %q already registered for model %q",
			models.ErrDuplicateVersion, v.VersionID, v.Name)
	}
	r.versions[v.Name] = append(r.versions[v.Name], v)
	return nil
}

// find requires the caller to hold at least a read lock.
func (r *MemoryRegistry) find(name, versionID string) (models.ModelVersion, bool) {
	for _, v := range r.versions[name] {
		if v.VersionID == versionID {
			return v, true
		}
	}
	return models.ModelVersion{}, false
}
