package itinerary

import (
	"encoding/json"
	"math"
	"sort"
)

// FlowKind tags a flow entry.
type FlowKind string

const (
	FlowLeg  FlowKind = "leg"
	FlowItem FlowKind = "item"
)

// FlowEntry is one element of the merged display sequence. Exactly one of
// Leg and Stop is set. SortOrder is +Inf when the source had no order.
type FlowEntry struct {
	Kind      FlowKind
	SortOrder float64
	IsNote    bool
	Leg       *TransportLeg
	Stop      *HydratedStop
}

type flowEntryJSON struct {
	Kind      FlowKind      `json:"kind"`
	SortOrder *float64      `json:"sortOrder"`
	IsNote    bool          `json:"isNote"`
	Leg       *TransportLeg `json:"leg,omitempty"`
	Stop      *HydratedStop `json:"item,omitempty"`
}

// MarshalJSON encodes an unordered entry's sort order as null.
func (e FlowEntry) MarshalJSON() ([]byte, error) {
	out := flowEntryJSON{Kind: e.Kind, IsNote: e.IsNote, Leg: e.Leg, Stop: e.Stop}
	if !math.IsInf(e.SortOrder, 0) && !math.IsNaN(e.SortOrder) {
		order := e.SortOrder
		out.SortOrder = &order
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a null sort order as +Inf.
func (e *FlowEntry) UnmarshalJSON(data []byte) error {
	var in flowEntryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*e = FlowEntry{Kind: in.Kind, IsNote: in.IsNote, Leg: in.Leg, Stop: in.Stop, SortOrder: math.Inf(1)}
	if in.SortOrder != nil {
		e.SortOrder = *in.SortOrder
	}
	return nil
}

// priority breaks sort order ties: legs, then stops, then notes.
func (e FlowEntry) priority() int {
	switch {
	case e.Kind == FlowLeg:
		return 0
	case e.IsNote:
		return 2
	default:
		return 1
	}
}

// MergeFlow interleaves stops and legs into one sequence ordered by sort
// order. At equal order a leg comes before a stop and a stop before a
// note; entries still tied keep their input order, stops before legs.
func MergeFlow(stops []HydratedStop, legs []TransportLeg) []FlowEntry {
	flow := make([]FlowEntry, 0, len(stops)+len(legs))
	for i := range stops {
		flow = append(flow, FlowEntry{
			Kind:      FlowItem,
			SortOrder: stops[i].order(),
			IsNote:    stops[i].ItemType.IsNote(),
			Stop:      &stops[i],
		})
	}
	for i := range legs {
		flow = append(flow, FlowEntry{
			Kind:      FlowLeg,
			SortOrder: legs[i].order(),
			Leg:       &legs[i],
		})
	}

	sort.SliceStable(flow, func(i, j int) bool {
		a, b := flow[i], flow[j]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.priority() < b.priority()
	})
	return flow
}
