package itinerary

import "context"

// Repository persists the stops and legs of every collection. Each method
// takes the collection schema that names the tables to use.
type Repository interface {
	// ItineraryExists reports whether the parent itinerary row exists.
	ItineraryExists(ctx context.Context, schema Schema, itineraryID string) (bool, error)

	// ListStops returns the itinerary's stops ordered by sort order,
	// unordered stops last.
	ListStops(ctx context.Context, schema Schema, itineraryID string) ([]Stop, error)

	// ListLegs returns the itinerary's transport legs ordered by sort order.
	ListLegs(ctx context.Context, schema Schema, itineraryID string) ([]TransportLeg, error)

	// ReplaceAll swaps every stop and leg of the itinerary in one atomic
	// write. On error the previous rows are left untouched. Returns
	// ErrItineraryNotFound when the parent row does not exist.
	ReplaceAll(ctx context.Context, schema Schema, itineraryID string, stops []Stop, legs []TransportLeg) error

	// ListItineraryIDs returns the ids of every itinerary in the collection.
	ListItineraryIDs(ctx context.Context, schema Schema) ([]string, error)
}
