package itinerary

import (
	"sort"

	"github.com/google/uuid"
)

// DropReason explains why an authored leg was not linked.
type DropReason string

const (
	// DropNoAnchor means there were no positioned entity stops to attach to.
	DropNoAnchor DropReason = "no_anchor"

	// DropBoundary means the leg was authored before the first stop or after
	// the last one and would link a stop to itself.
	DropBoundary DropReason = "boundary"
)

// DroppedLeg is an authored leg the linker refused to persist.
type DroppedLeg struct {
	Index     int        `json:"index"`
	SortOrder int        `json:"sortOrder"`
	Reason    DropReason `json:"reason"`
}

// LinkOptions tunes the linker.
type LinkOptions struct {
	// KeepBoundaryLegs links boundary legs as self-edges (A→A) instead of
	// dropping them. Older itineraries were saved this way.
	KeepBoundaryLegs bool

	// NewID generates leg ids. Defaults to time-ordered UUIDs.
	NewID func() string
}

// newOrderedID returns a UUIDv7. Ids minted later sort after earlier ones,
// so rows sharing a sort order read back in authored order.
func newOrderedID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// LinkResult holds the linked legs in authored order and the dropped ones.
type LinkResult struct {
	Legs    []TransportLeg
	Dropped []DroppedLeg
}

// LinkLegs computes the from/to edge for every authored leg.
//
// Only entity stops with a sort order anchor legs; notes and meals are
// display-only. For a leg at position p, from is the last anchor ordered
// strictly before p (or the first anchor), and to is the first anchor
// ordered at or after p (or the last anchor).
func LinkLegs(itineraryID string, stops []Stop, drafts []LegDraft, opts LinkOptions) LinkResult {
	newID := opts.NewID
	if newID == nil {
		newID = newOrderedID
	}

	anchors := anchorStops(stops)
	result := LinkResult{Legs: make([]TransportLeg, 0, len(drafts))}

	for i, d := range drafts {
		from, to, ok := neighbors(anchors, d.SortOrder)
		if !ok {
			result.Dropped = append(result.Dropped, DroppedLeg{Index: i, SortOrder: d.SortOrder, Reason: DropNoAnchor})
			continue
		}
		if from.ID == to.ID && !opts.KeepBoundaryLegs {
			result.Dropped = append(result.Dropped, DroppedLeg{Index: i, SortOrder: d.SortOrder, Reason: DropBoundary})
			continue
		}

		leg := buildLeg(itineraryID, d)
		leg.ID = newID()
		leg.FromItemID = from.ID
		leg.ToItemID = to.ID
		result.Legs = append(result.Legs, leg)
	}

	return result
}

// anchorStops returns positioned entity stops ordered by sort order,
// keeping authored order among equal keys.
func anchorStops(stops []Stop) []Stop {
	anchors := make([]Stop, 0, len(stops))
	for _, s := range stops {
		if s.ItemType.IsEntity() && s.SortOrder != nil && s.ID != "" {
			anchors = append(anchors, s)
		}
	}
	sort.SliceStable(anchors, func(i, j int) bool {
		return *anchors[i].SortOrder < *anchors[j].SortOrder
	})
	return anchors
}

func neighbors(anchors []Stop, p int) (from, to Stop, ok bool) {
	if len(anchors) == 0 {
		return Stop{}, Stop{}, false
	}

	fromIdx, toIdx := -1, -1
	for i, s := range anchors {
		order := *s.SortOrder
		if order < p {
			fromIdx = i
		}
		if order >= p && toIdx == -1 {
			toIdx = i
		}
	}
	if fromIdx == -1 {
		fromIdx = 0
	}
	if toIdx == -1 {
		toIdx = len(anchors) - 1
	}
	return anchors[fromIdx], anchors[toIdx], true
}

// buildLeg normalizes a draft's attributes. Endpoints are set by the caller.
func buildLeg(itineraryID string, d LegDraft) TransportLeg {
	order := d.SortOrder
	return TransportLeg{
		ItineraryID:    itineraryID,
		PrimaryMode:    NormalizeMode(d.Mode),
		Title:          optional(d.Title),
		Summary:        optional(d.Summary),
		Notes:          optional(d.Notes),
		Steps:          packSteps(d),
		EstDurationMin: roundedInt(d.DurationMin),
		EstDistanceM:   distanceMeters(d.DistanceM, d.DistanceKm),
		EstCostMin:     finite(d.CostMin),
		EstCostMax:     finite(d.CostMax),
		Currency:       optional(d.Currency),
		SortOrder:      &order,
	}
}
