package catalog

import (
	"context"
	"sync"
	"sync/atomic"
)

// InMemorySource is a Source and NoteSource backed by maps. Intended for tests.
type InMemorySource struct {
	mu       sync.RWMutex
	entities map[string]*Entity
	notes    map[string]*Note
	failures map[string]error
	lookups  atomic.Int64
}

// NewInMemorySource creates an empty in-memory source.
func NewInMemorySource() *InMemorySource {
	return &InMemorySource{
		entities: make(map[string]*Entity),
		notes:    make(map[string]*Note),
		failures: make(map[string]error),
	}
}

// Put stores an entity under its id.
func (s *InMemorySource) Put(e *Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cpy := *e
	s.entities[e.ID] = &cpy
}

// PutNote stores a note under its id.
func (s *InMemorySource) PutNote(n *Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cpy := *n
	s.notes[n.ID] = &cpy
}

// FailWith makes every lookup of id return err.
func (s *InMemorySource) FailWith(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[id] = err
}

// Lookups returns how many lookups of either kind were made.
func (s *InMemorySource) Lookups() int {
	return int(s.lookups.Load())
}

// Lookup returns the stored entity.
func (s *InMemorySource) Lookup(_ context.Context, id string) (*Entity, error) {
	s.lookups.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err, ok := s.failures[id]; ok {
		return nil, err
	}
	e, ok := s.entities[id]
	if !ok {
		return nil, ErrNotVisible
	}
	cpy := *e
	return &cpy, nil
}

// LookupNote returns the stored note.
func (s *InMemorySource) LookupNote(_ context.Context, id string) (*Note, error) {
	s.lookups.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err, ok := s.failures[id]; ok {
		return nil, err
	}
	n, ok := s.notes[id]
	if !ok {
		return nil, ErrNotVisible
	}
	cpy := *n
	return &cpy, nil
}

var (
	_ Source     = (*InMemorySource)(nil)
	_ NoteSource = (*InMemorySource)(nil)
)
