package itinerary

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flowIDs(flow []FlowEntry) []string {
	ids := make([]string, len(flow))
	for i, e := range flow {
		if e.Kind == FlowLeg {
			ids[i] = "leg:" + e.Leg.ID
		} else {
			ids[i] = "item:" + e.Stop.ID
		}
	}
	return ids
}

func TestMergeFlow_TieBreak(t *testing.T) {
	stops := []HydratedStop{
		{Stop: Stop{ID: "note", ItemType: ItemNote, SortOrder: intPtr(2)}},
		{Stop: Stop{ID: "stop", ItemType: ItemSight, SortOrder: intPtr(2)}},
	}
	legs := []TransportLeg{{ID: "leg", SortOrder: intPtr(2)}}

	flow := MergeFlow(stops, legs)
	assert.Equal(t, []string{"leg:leg", "item:stop", "item:note"}, flowIDs(flow))
	assert.True(t, flow[2].IsNote)
	assert.False(t, flow[1].IsNote)
}

func TestMergeFlow_OrdersAndPutsUnorderedLast(t *testing.T) {
	stops := []HydratedStop{
		{Stop: Stop{ID: "late", ItemType: ItemMeal}},
		{Stop: Stop{ID: "B", ItemType: ItemSight, SortOrder: intPtr(20)}},
		{Stop: Stop{ID: "A", ItemType: ItemSight, SortOrder: intPtr(10)}},
	}
	legs := []TransportLeg{
		{ID: "unordered"},
		{ID: "ab", SortOrder: intPtr(15)},
	}

	flow := MergeFlow(stops, legs)
	assert.Equal(t, []string{"item:A", "leg:ab", "item:B", "leg:unordered", "item:late"}, flowIDs(flow))
	assert.True(t, math.IsInf(flow[4].SortOrder, 1))
}

func TestMergeFlow_StableAmongEqualEntries(t *testing.T) {
	stops := []HydratedStop{
		{Stop: Stop{ID: "first", ItemType: ItemTour, SortOrder: intPtr(5)}},
		{Stop: Stop{ID: "second", ItemType: ItemSight, SortOrder: intPtr(5)}},
	}
	flow := MergeFlow(stops, nil)
	assert.Equal(t, []string{"item:first", "item:second"}, flowIDs(flow))
}

func TestFlowEntry_JSON(t *testing.T) {
	flow := MergeFlow([]HydratedStop{{Stop: Stop{ID: "x", ItemType: ItemMeal}}}, nil)

	raw, err := json.Marshal(flow[0])
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "item", decoded["kind"])
	assert.Nil(t, decoded["sortOrder"])
	assert.Contains(t, decoded, "item")

	var back FlowEntry
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, math.IsInf(back.SortOrder, 1))
	assert.Equal(t, "x", back.Stop.ID)
}
