// Package itinerary assembles excursions and day itineraries: it links
// authored transport legs to stops, hydrates stops from the catalog, and
// merges both into one ordered flow.
package itinerary

import (
	"errors"
	"math"
	"strings"

	"github.com/wayfarer/wayfarer/internal/catalog"
)

// Repository errors.
var (
	ErrItineraryNotFound = errors.New("itinerary not found")
)

// ItemType is the kind of a stop.
type ItemType string

const (
	ItemSight         ItemType = "sight"
	ItemExperience    ItemType = "experience"
	ItemTour          ItemType = "tour"
	ItemAccommodation ItemType = "accommodation"
	ItemFoodDrink     ItemType = "food_drink"
	ItemNote          ItemType = "note"
	ItemMeal          ItemType = "meal"
)

type itemKind int

const (
	kindEntity itemKind = iota
	kindNote
	kindMeal
)

type itemTypeInfo struct {
	kind  itemKind
	table string
}

// itemTypeTable is the single source of truth for the closed item type set.
var itemTypeTable = map[ItemType]itemTypeInfo{
	ItemSight:         {kind: kindEntity, table: "sights"},
	ItemExperience:    {kind: kindEntity, table: "experiences"},
	ItemTour:          {kind: kindEntity, table: "tours"},
	ItemAccommodation: {kind: kindEntity, table: "accommodations"},
	ItemFoodDrink:     {kind: kindEntity, table: "food_drinks"},
	ItemNote:          {kind: kindNote},
	ItemMeal:          {kind: kindMeal},
}

// ItemTypes returns every known item type in display order.
func ItemTypes() []ItemType {
	return []ItemType{
		ItemSight, ItemExperience, ItemTour, ItemAccommodation, ItemFoodDrink, ItemNote, ItemMeal,
	}
}

// EntityTypes returns the item types backed by a catalog table.
func EntityTypes() []ItemType {
	var out []ItemType
	for _, t := range ItemTypes() {
		if t.IsEntity() {
			out = append(out, t)
		}
	}
	return out
}

// ParseItemType parses s case-insensitively.
func ParseItemType(s string) (ItemType, bool) {
	t := ItemType(strings.ToLower(strings.TrimSpace(s)))
	_, ok := itemTypeTable[t]
	return t, ok
}

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	_, ok := itemTypeTable[t]
	return ok
}

// IsEntity reports whether t references a catalog row.
func (t ItemType) IsEntity() bool {
	info, ok := itemTypeTable[t]
	return ok && info.kind == kindEntity
}

// IsNote reports whether t is an inline or stored note.
func (t ItemType) IsNote() bool {
	info, ok := itemTypeTable[t]
	return ok && info.kind == kindNote
}

// IsMeal reports whether t is an inline meal.
func (t ItemType) IsMeal() bool {
	info, ok := itemTypeTable[t]
	return ok && info.kind == kindMeal
}

// Table returns the catalog table for entity types, or "".
func (t ItemType) Table() string {
	return itemTypeTable[t].table
}

// Stop is one planned element of an itinerary.
type Stop struct {
	ID              string   `json:"id"`
	ItineraryID     string   `json:"itineraryId"`
	ItemType        ItemType `json:"itemType"`
	RefID           *string  `json:"refId,omitempty"`
	SortOrder       *int     `json:"sortOrder,omitempty"`
	InlineTitle     *string  `json:"inlineTitle,omitempty"`
	InlineDetails   *string  `json:"inlineDetails,omitempty"`
	MealType        *string  `json:"mealType,omitempty"`
	Details         *string  `json:"details,omitempty"`
	DurationMinutes *int     `json:"durationMinutes,omitempty"`
	MapsURL         *string  `json:"mapsUrl,omitempty"`
}

// order returns the stop's sort key, +Inf when unset.
func (s Stop) order() float64 {
	if s.SortOrder == nil {
		return math.Inf(1)
	}
	return float64(*s.SortOrder)
}

// Step is one sub-step of a transport leg.
type Step struct {
	Mode        string `json:"mode,omitempty"`
	Instruction string `json:"instruction,omitempty"`
	Line        string `json:"line,omitempty"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	DurationMin *int   `json:"duration_min,omitempty"`
	DistanceM   *int   `json:"distance_m,omitempty"`
}

// LegDraft is a transport leg as authored, before it is linked to stops.
// SortOrder is the flow position the leg is inserted at.
type LegDraft struct {
	Mode        string   `json:"mode"`
	Title       string   `json:"title,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Steps       []Step   `json:"steps"`
	MapsURL     *string  `json:"mapsUrl,omitempty"`
	Details     *string  `json:"details,omitempty"`
	DurationMin *float64 `json:"durationMin,omitempty"`
	DistanceM   *float64 `json:"distanceM,omitempty"`
	DistanceKm  *float64 `json:"distanceKm,omitempty"`
	CostMin     *float64 `json:"costMin,omitempty"`
	CostMax     *float64 `json:"costMax,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	SortOrder   int      `json:"sortOrder"`
}

// TransportLeg is a directed, persisted edge between two stops.
type TransportLeg struct {
	ID             string       `json:"id"`
	ItineraryID    string       `json:"itineraryId"`
	FromItemID     string       `json:"fromItemId"`
	ToItemID       string       `json:"toItemId"`
	PrimaryMode    string       `json:"primaryMode"`
	Title          *string      `json:"title,omitempty"`
	Summary        *string      `json:"summary,omitempty"`
	Notes          *string      `json:"notes,omitempty"`
	Steps          StepsPayload `json:"steps"`
	EstDurationMin *int         `json:"estDurationMin,omitempty"`
	EstDistanceM   *int         `json:"estDistanceM,omitempty"`
	EstCostMin     *float64     `json:"estCostMin,omitempty"`
	EstCostMax     *float64     `json:"estCostMax,omitempty"`
	Currency       *string      `json:"currency,omitempty"`
	SortOrder      *int         `json:"sortOrder,omitempty"`
}

func (l TransportLeg) order() float64 {
	if l.SortOrder == nil {
		return math.Inf(1)
	}
	return float64(*l.SortOrder)
}

// Resolution records how a stop was hydrated.
type Resolution string

const (
	ResolutionResolved     Resolution = "resolved"
	ResolutionInline       Resolution = "inline"
	ResolutionPassThrough  Resolution = "pass_through"
	ResolutionMalformedRef Resolution = "malformed_ref"
	ResolutionLookupFailed Resolution = "lookup_failed"
	ResolutionNotVisible   Resolution = "not_visible"
)

// Failed reports whether the resolution is one of the degraded outcomes.
func (r Resolution) Failed() bool {
	switch r {
	case ResolutionMalformedRef, ResolutionLookupFailed, ResolutionNotVisible:
		return true
	}
	return false
}

// HydratedStop is a stop with its display entity attached.
type HydratedStop struct {
	Stop
	Entity     *catalog.Entity `json:"entity"`
	Note       *catalog.Note   `json:"note,omitempty"`
	Resolution Resolution      `json:"resolution,omitempty"`
}

// Assembled is the read model of one itinerary.
type Assembled struct {
	Collection  string         `json:"collection"`
	ItineraryID string         `json:"itineraryId"`
	Stops       []HydratedStop `json:"stops"`
	Legs        []TransportLeg `json:"legs"`
	Flow        []FlowEntry    `json:"flow"`
}
