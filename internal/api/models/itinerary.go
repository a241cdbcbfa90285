package models

import (
	"fmt"
	"strings"

	"github.com/wayfarer/wayfarer/internal/itinerary"
)

// SaveItemsRequest is the body of PUT /v1/admin/{collection}/{id}/items. It
// replaces every stop and leg of the itinerary.
type SaveItemsRequest struct {
	Stops []StopInput `json:"stops"`
	Legs  []LegInput  `json:"legs"`
}

// StopInput is one authored stop.
type StopInput struct {
	ItemType        string  `json:"itemType"`
	RefID           *string `json:"refId"`
	SortOrder       Number  `json:"sortOrder"`
	InlineTitle     *string `json:"inlineTitle"`
	InlineDetails   *string `json:"inlineDetails"`
	MealType        *string `json:"mealType"`
	Details         *string `json:"details"`
	DurationMinutes Number  `json:"durationMinutes"`
	MapsURL         *string `json:"mapsUrl"`
}

// LegInput is one authored transport leg, positioned by sortOrder.
type LegInput struct {
	Mode        string           `json:"mode"`
	Title       string           `json:"title"`
	Summary     string           `json:"summary"`
	Notes       string           `json:"notes"`
	Steps       []itinerary.Step `json:"steps"`
	MapsURL     *string          `json:"mapsUrl"`
	Details     *string          `json:"details"`
	DurationMin Number           `json:"durationMin"`
	DistanceM   Number           `json:"distanceM"`
	DistanceKm  Number           `json:"distanceKm"`
	CostMin     Number           `json:"costMin"`
	CostMax     Number           `json:"costMax"`
	Currency    string           `json:"currency"`
	SortOrder   Number           `json:"sortOrder"`
}

// ToSaveRequest converts the body. Item types are matched case-insensitively;
// unknown ones are passed through for the domain validation to reject.
// Legs without a sortOrder are reported as field errors.
func (req SaveItemsRequest) ToSaveRequest() (itinerary.SaveRequest, []FieldError) {
	var (
		out  itinerary.SaveRequest
		errs []FieldError
	)

	out.Stops = make([]itinerary.Stop, len(req.Stops))
	for i, s := range req.Stops {
		itemType, ok := itinerary.ParseItemType(s.ItemType)
		if !ok {
			itemType = itinerary.ItemType(strings.TrimSpace(s.ItemType))
		}
		out.Stops[i] = itinerary.Stop{
			ItemType:        itemType,
			RefID:           trimmed(s.RefID),
			SortOrder:       s.SortOrder.Int(),
			InlineTitle:     s.InlineTitle,
			InlineDetails:   s.InlineDetails,
			MealType:        trimmed(s.MealType),
			Details:         s.Details,
			DurationMinutes: s.DurationMinutes.Int(),
			MapsURL:         trimmed(s.MapsURL),
		}
	}

	out.Legs = make([]itinerary.LegDraft, 0, len(req.Legs))
	for i, l := range req.Legs {
		order := l.SortOrder.Int()
		if order == nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("legs[%d].sortOrder", i),
				Message: "sortOrder is required",
				Code:    "required",
			})
			continue
		}
		out.Legs = append(out.Legs, itinerary.LegDraft{
			Mode:        l.Mode,
			Title:       l.Title,
			Summary:     l.Summary,
			Notes:       l.Notes,
			Steps:       l.Steps,
			MapsURL:     l.MapsURL,
			Details:     l.Details,
			DurationMin: l.DurationMin.Float(),
			DistanceM:   l.DistanceM.Float(),
			DistanceKm:  l.DistanceKm.Float(),
			CostMin:     l.CostMin.Float(),
			CostMax:     l.CostMax.Float(),
			Currency:    strings.ToUpper(strings.TrimSpace(l.Currency)),
			SortOrder:   *order,
		})
	}

	return out, errs
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
