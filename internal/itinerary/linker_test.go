package itinerary

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sightStop(id string, order int) Stop {
	return Stop{ID: id, ItemType: ItemSight, RefID: strPtr("00000000-0000-0000-0000-000000000001"), SortOrder: intPtr(order)}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("leg-%d", n)
	}
}

func abc() []Stop {
	return []Stop{sightStop("A", 10), sightStop("B", 20), sightStop("C", 30)}
}

func TestLinkLegs_BetweenStops(t *testing.T) {
	res := LinkLegs("it-1", abc(), []LegDraft{{Mode: "walk", SortOrder: 15}}, LinkOptions{NewID: sequentialIDs()})

	require.Len(t, res.Legs, 1)
	assert.Empty(t, res.Dropped)
	leg := res.Legs[0]
	assert.Equal(t, "A", leg.FromItemID)
	assert.Equal(t, "B", leg.ToItemID)
	assert.Equal(t, "leg-1", leg.ID)
	assert.Equal(t, "it-1", leg.ItineraryID)
	assert.Equal(t, ModeWalk, leg.PrimaryMode)
	assert.Equal(t, 15, *leg.SortOrder)
}

func TestLinkLegs_AtStopPositionLeadsIntoThatStop(t *testing.T) {
	res := LinkLegs("it-1", abc(), []LegDraft{{SortOrder: 20}}, LinkOptions{})

	require.Len(t, res.Legs, 1)
	assert.Equal(t, "A", res.Legs[0].FromItemID)
	assert.Equal(t, "B", res.Legs[0].ToItemID)
	assert.Equal(t, ModeOther, res.Legs[0].PrimaryMode)
}

func TestLinkLegs_BoundaryLegs(t *testing.T) {
	drafts := []LegDraft{{SortOrder: 5}, {SortOrder: 35}}

	t.Run("dropped by default", func(t *testing.T) {
		res := LinkLegs("it-1", abc(), drafts, LinkOptions{})
		assert.Empty(t, res.Legs)
		assert.Equal(t, []DroppedLeg{
			{Index: 0, SortOrder: 5, Reason: DropBoundary},
			{Index: 1, SortOrder: 35, Reason: DropBoundary},
		}, res.Dropped)
	})

	t.Run("kept as self-edges for compatibility", func(t *testing.T) {
		res := LinkLegs("it-1", abc(), drafts, LinkOptions{KeepBoundaryLegs: true})
		require.Len(t, res.Legs, 2)
		assert.Equal(t, "A", res.Legs[0].FromItemID)
		assert.Equal(t, "A", res.Legs[0].ToItemID)
		assert.Equal(t, "C", res.Legs[1].FromItemID)
		assert.Equal(t, "C", res.Legs[1].ToItemID)
		assert.Empty(t, res.Dropped)
	})
}

func TestLinkLegs_NoAnchors(t *testing.T) {
	stops := []Stop{
		{ID: "N", ItemType: ItemNote, InlineTitle: strPtr("Bring water"), SortOrder: intPtr(10)},
		{ID: "M", ItemType: ItemMeal, SortOrder: intPtr(20)},
	}
	res := LinkLegs("it-1", stops, []LegDraft{{SortOrder: 15}}, LinkOptions{KeepBoundaryLegs: true})

	assert.Empty(t, res.Legs)
	assert.Equal(t, []DroppedLeg{{Index: 0, SortOrder: 15, Reason: DropNoAnchor}}, res.Dropped)

	res = LinkLegs("it-1", nil, []LegDraft{{SortOrder: 1}}, LinkOptions{})
	assert.Equal(t, DropNoAnchor, res.Dropped[0].Reason)
}

func TestLinkLegs_IgnoresNotesMealsAndUnorderedStops(t *testing.T) {
	stops := []Stop{
		sightStop("A", 10),
		{ID: "N", ItemType: ItemNote, InlineTitle: strPtr("Photo stop"), SortOrder: intPtr(14)},
		{ID: "X", ItemType: ItemTour, RefID: strPtr("00000000-0000-0000-0000-000000000002")},
		sightStop("B", 20),
	}
	res := LinkLegs("it-1", stops, []LegDraft{{SortOrder: 15}}, LinkOptions{})

	require.Len(t, res.Legs, 1)
	assert.Equal(t, "A", res.Legs[0].FromItemID)
	assert.Equal(t, "B", res.Legs[0].ToItemID)
}

func TestLinkLegs_UnsortedInput(t *testing.T) {
	stops := []Stop{sightStop("C", 30), sightStop("A", 10), sightStop("B", 20)}
	res := LinkLegs("it-1", stops, []LegDraft{{SortOrder: 25}}, LinkOptions{})

	require.Len(t, res.Legs, 1)
	assert.Equal(t, "B", res.Legs[0].FromItemID)
	assert.Equal(t, "C", res.Legs[0].ToItemID)
}

func TestLinkLegs_CoercesNumbers(t *testing.T) {
	draft := LegDraft{
		Mode:        "Bus",
		Title:       "  ",
		DurationMin: floatPtr(12.6),
		DistanceKm:  floatPtr(3.25),
		CostMin:     floatPtr(math.NaN()),
		CostMax:     floatPtr(math.Inf(1)),
		Currency:    "VND",
		SortOrder:   15,
	}
	res := LinkLegs("it-1", abc(), []LegDraft{draft}, LinkOptions{})
	require.Len(t, res.Legs, 1)
	leg := res.Legs[0]

	assert.Nil(t, leg.Title)
	assert.Equal(t, 13, *leg.EstDurationMin)
	assert.Equal(t, 3250, *leg.EstDistanceM)
	assert.Nil(t, leg.EstCostMin)
	assert.Nil(t, leg.EstCostMax)
	assert.Equal(t, "VND", *leg.Currency)

	draft.DistanceM = floatPtr(800.4)
	res = LinkLegs("it-1", abc(), []LegDraft{draft}, LinkOptions{})
	assert.Equal(t, 800, *res.Legs[0].EstDistanceM)
}

func TestLinkLegs_NeighborProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 200; round++ {
		n := 1 + rng.Intn(8)
		stops := make([]Stop, n)
		byID := make(map[string]int, n)
		for i := range stops {
			order := rng.Intn(100)
			id := fmt.Sprintf("s%d", i)
			stops[i] = sightStop(id, order)
			byID[id] = order
		}
		anchors := anchorStops(stops)
		first, last := anchors[0].ID, anchors[len(anchors)-1].ID

		p := rng.Intn(120) - 10
		res := LinkLegs("it", stops, []LegDraft{{SortOrder: p}}, LinkOptions{KeepBoundaryLegs: true})
		require.Len(t, res.Legs, 1)
		leg := res.Legs[0]

		from, to := byID[leg.FromItemID], byID[leg.ToItemID]
		assert.True(t, from < p || leg.FromItemID == first, "round %d: from %d p %d", round, from, p)
		assert.True(t, to >= p || leg.ToItemID == last, "round %d: to %d p %d", round, to, p)
		assert.LessOrEqual(t, from, to, "round %d", round)
	}
}

func TestNewOrderedID_SortsInMintOrder(t *testing.T) {
	prev := newOrderedID()
	for i := 0; i < 1000; i++ {
		next := newOrderedID()
		require.Less(t, prev, next)
		prev = next
	}
}
