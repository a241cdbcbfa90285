package admission

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository for
// testing and local development.
type InMemoryRepository struct {
	mu     sync.RWMutex
	sights map[string][]Row
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{sights: make(map[string][]Row)}
}

// AddSight registers a sight with no rows.
func (r *InMemoryRepository) AddSight(sightID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sights[sightID]; !ok {
		r.sights[sightID] = nil
	}
}

// SightExists reports whether the sight was registered.
func (r *InMemoryRepository) SightExists(_ context.Context, sightID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sights[sightID]
	return ok, nil
}

// ListRows returns a copy of the sight's rows ordered by idx.
func (r *InMemoryRepository) ListRows(_ context.Context, sightID string) ([]Row, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := append([]Row(nil), r.sights[sightID]...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Idx < rows[j].Idx })
	return rows, nil
}

// ReplaceAll swaps the sight's rows.
func (r *InMemoryRepository) ReplaceAll(_ context.Context, sightID string, rows []Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sights[sightID]; !ok {
		return ErrSightNotFound
	}
	r.sights[sightID] = append([]Row(nil), rows...)
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
