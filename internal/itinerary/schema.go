package itinerary

import "fmt"

// Schema describes one itinerary collection: where its children live and
// which stop types it accepts. Excursions and day itineraries share the
// engine and differ only here.
type Schema struct {
	// Name is the collection name used in URLs, cache keys and events.
	Name string

	// ParentTable holds the itinerary rows themselves.
	ParentTable string

	// StopsTable and LegsTable hold the child rows.
	StopsTable string
	LegsTable  string

	// ParentColumn is the foreign key column on both child tables.
	ParentColumn string

	// AllowsMeals enables the meal stop type and its columns.
	AllowsMeals bool
}

// Collections served by the engine.
var (
	Excursions = Schema{
		Name:         "excursions",
		ParentTable:  "excursions",
		StopsTable:   "excursion_items",
		LegsTable:    "excursion_transport_legs",
		ParentColumn: "excursion_id",
	}

	DayItineraries = Schema{
		Name:         "day-itineraries",
		ParentTable:  "day_itineraries",
		StopsTable:   "day_itinerary_items",
		LegsTable:    "day_itinerary_transport_legs",
		ParentColumn: "day_itinerary_id",
		AllowsMeals:  true,
	}
)

// Schemas returns every collection.
func Schemas() []Schema {
	return []Schema{Excursions, DayItineraries}
}

// SchemaByName finds a collection by its URL name.
func SchemaByName(name string) (Schema, bool) {
	for _, s := range Schemas() {
		if s.Name == name {
			return s, true
		}
	}
	return Schema{}, false
}

// Accepts reports whether the collection allows stops of type t.
func (s Schema) Accepts(t ItemType) bool {
	if !t.Valid() {
		return false
	}
	if t.IsMeal() {
		return s.AllowsMeals
	}
	return true
}

func (s Schema) cacheKey(itineraryID string) string {
	return fmt.Sprintf("flow:%s:%s", s.Name, itineraryID)
}
