package itinerary

import (
	"fmt"

	"github.com/wayfarer/wayfarer/internal/validate"
)

// SaveRequest is the full authored content of an itinerary. Stop ids are
// ignored; Save assigns fresh ones.
type SaveRequest struct {
	Stops []Stop
	Legs  []LegDraft
}

// Validate checks the request against the collection's rules and returns
// *validate.Error when it is rejected.
func (r SaveRequest) Validate(schema Schema) error {
	var v validate.Collector
	add := v.Add

	for i, s := range r.Stops {
		field := fmt.Sprintf("stops[%d]", i)
		switch {
		case !s.ItemType.Valid():
			add(field+".itemType", "invalid_item_type", "unknown item type %q", s.ItemType)
			continue
		case !schema.Accepts(s.ItemType):
			add(field+".itemType", "item_type_not_allowed", "%s does not allow %s stops", schema.Name, s.ItemType)
			continue
		}

		switch {
		case s.ItemType.IsEntity():
			if nonBlank(s.RefID) == nil {
				add(field+".refId", validate.CodeRequired, "refId is required for %s stops", s.ItemType)
			} else if !validRef(s.RefID) {
				add(field+".refId", "invalid_ref", "refId must be a UUID")
			}
		case s.ItemType.IsNote():
			if !hasInlineNote(s) && nonBlank(s.RefID) == nil {
				add(field, validate.CodeRequired, "note stops need an inline title, details or a refId")
			} else if !hasInlineNote(s) && !validRef(s.RefID) {
				add(field+".refId", "invalid_ref", "refId must be a UUID")
			}
		}

		if s.DurationMinutes != nil && *s.DurationMinutes < 0 {
			add(field+".durationMinutes", validate.CodeOutOfRange, "durationMinutes must not be negative")
		}
	}

	for i, l := range r.Legs {
		field := fmt.Sprintf("legs[%d]", i)
		lo, hi := finite(l.CostMin), finite(l.CostMax)
		if lo != nil && hi != nil && *lo > *hi {
			add(field+".costMin", validate.CodeOutOfRange, "costMin must not exceed costMax")
		}
		if d := finite(l.DurationMin); d != nil && *d < 0 {
			add(field+".durationMin", validate.CodeOutOfRange, "durationMin must not be negative")
		}
	}

	return v.Err()
}
