package itinerary

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type memoryKey struct {
	collection string
	id         string
}

type memoryItinerary struct {
	stops []Stop
	legs  []TransportLeg
}

// InMemoryRepository is an in-memory implementation of Repository for
// testing and local development.
type InMemoryRepository struct {
	mu          sync.RWMutex
	itineraries map[memoryKey]*memoryItinerary
	failNext    error
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{itineraries: make(map[memoryKey]*memoryItinerary)}
}

// AddItinerary registers an empty parent itinerary.
func (r *InMemoryRepository) AddItinerary(schema Schema, itineraryID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := memoryKey{schema.Name, itineraryID}
	if _, ok := r.itineraries[key]; !ok {
		r.itineraries[key] = &memoryItinerary{}
	}
}

// FailNextReplace makes the next ReplaceAll return err without writing.
func (r *InMemoryRepository) FailNextReplace(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNext = err
}

// ItineraryExists reports whether the itinerary was registered.
func (r *InMemoryRepository) ItineraryExists(_ context.Context, schema Schema, itineraryID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.itineraries[memoryKey{schema.Name, itineraryID}]
	return ok, nil
}

// ListStops returns copies of the stored stops ordered by sort order, then
// id, matching the SQL repository.
func (r *InMemoryRepository) ListStops(_ context.Context, schema Schema, itineraryID string) ([]Stop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.itineraries[memoryKey{schema.Name, itineraryID}]
	if !ok {
		return nil, nil
	}
	stops := append([]Stop(nil), it.stops...)
	sort.SliceStable(stops, func(i, j int) bool {
		if stops[i].order() != stops[j].order() {
			return stops[i].order() < stops[j].order()
		}
		return stops[i].ID < stops[j].ID
	})
	return stops, nil
}

// ListLegs returns copies of the stored legs ordered by sort order, then id.
func (r *InMemoryRepository) ListLegs(_ context.Context, schema Schema, itineraryID string) ([]TransportLeg, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.itineraries[memoryKey{schema.Name, itineraryID}]
	if !ok {
		return nil, nil
	}
	legs := append([]TransportLeg(nil), it.legs...)
	sort.SliceStable(legs, func(i, j int) bool {
		if legs[i].order() != legs[j].order() {
			return legs[i].order() < legs[j].order()
		}
		return legs[i].ID < legs[j].ID
	})
	return legs, nil
}

// ReplaceAll swaps the itinerary's rows. Legs must reference stops in the
// new set, mirroring the foreign keys of the SQL schema.
func (r *InMemoryRepository) ReplaceAll(_ context.Context, schema Schema, itineraryID string, stops []Stop, legs []TransportLeg) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.failNext; err != nil {
		r.failNext = nil
		return err
	}

	it, ok := r.itineraries[memoryKey{schema.Name, itineraryID}]
	if !ok {
		return ErrItineraryNotFound
	}

	ids := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		if _, dup := ids[s.ID]; dup {
			return fmt.Errorf("insert %s: duplicate stop id %s", schema.StopsTable, s.ID)
		}
		ids[s.ID] = struct{}{}
	}
	for _, l := range legs {
		_, fromOK := ids[l.FromItemID]
		_, toOK := ids[l.ToItemID]
		if !fromOK || !toOK {
			return fmt.Errorf("insert %s: leg %s references unknown stop", schema.LegsTable, l.ID)
		}
	}

	it.stops = append([]Stop(nil), stops...)
	it.legs = append([]TransportLeg(nil), legs...)
	for i := range it.stops {
		it.stops[i].ItineraryID = itineraryID
	}
	for i := range it.legs {
		it.legs[i].ItineraryID = itineraryID
	}
	return nil
}

// ListItineraryIDs returns the registered itinerary ids, sorted.
func (r *InMemoryRepository) ListItineraryIDs(_ context.Context, schema Schema) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for k := range r.itineraries {
		if k.collection == schema.Name {
			ids = append(ids, k.id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

var _ Repository = (*InMemoryRepository)(nil)
