package openinghours

import (
	"context"
	"sync"
)

type memorySight struct {
	sight      Sight
	rules      []Rule
	exceptions []Exception
}

// InMemoryRepository is an in-memory implementation of Repository for
// testing and local development.
type InMemoryRepository struct {
	mu     sync.RWMutex
	sights map[string]*memorySight
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{sights: make(map[string]*memorySight)}
}

// AddSight registers a sight with no rules.
func (r *InMemoryRepository) AddSight(sight Sight) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sights[sight.ID]; !ok {
		r.sights[sight.ID] = &memorySight{sight: sight}
	}
}

// GetSight returns the sight.
func (r *InMemoryRepository) GetSight(_ context.Context, sightID string) (*Sight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sights[sightID]
	if !ok {
		return nil, ErrSightNotFound
	}
	sight := s.sight
	return &sight, nil
}

// ListRules returns a copy of the sight's rules.
func (r *InMemoryRepository) ListRules(_ context.Context, sightID string) ([]Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sights[sightID]
	if !ok {
		return nil, nil
	}
	return append([]Rule(nil), s.rules...), nil
}

// ListExceptions returns a copy of the sight's exceptions.
func (r *InMemoryRepository) ListExceptions(_ context.Context, sightID string) ([]Exception, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sights[sightID]
	if !ok {
		return nil, nil
	}
	return append([]Exception(nil), s.exceptions...), nil
}

// ReplaceAll swaps the sight's rules and exceptions.
func (r *InMemoryRepository) ReplaceAll(_ context.Context, sightID string, rules []Rule, exceptions []Exception) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sights[sightID]
	if !ok {
		return ErrSightNotFound
	}
	s.rules = append([]Rule(nil), rules...)
	s.exceptions = append([]Exception(nil), exceptions...)
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
