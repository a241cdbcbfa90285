package itinerary

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer/wayfarer/internal/catalog"
	"github.com/wayfarer/wayfarer/internal/validate"
)

const itineraryID = "5a4b3c2d-1e0f-4a9b-8c7d-6e5f4a3b2c1d"

type testFlags struct {
	keepBoundary  bool
	cacheDisabled bool
	eventsOff     bool
}

func (f testFlags) KeepBoundaryLegs(context.Context) bool        { return f.keepBoundary }
func (f testFlags) FlowCacheDisabled(context.Context) bool       { return f.cacheDisabled }
func (f testFlags) EventPublishingDisabled(context.Context) bool { return f.eventsOff }
func (f testFlags) FlowCacheTTL(context.Context) time.Duration   { return time.Minute }

type serviceFixture struct {
	service   *Service
	repo      *InMemoryRepository
	cache     *InMemoryCache
	publisher *RecordingPublisher
	source    *catalog.InMemorySource
}

func newFixture(t *testing.T, flags Flags) *serviceFixture {
	t.Helper()

	src := seededSource()
	repo := NewInMemoryRepository()
	repo.AddItinerary(Excursions, itineraryID)
	repo.AddItinerary(DayItineraries, itineraryID)
	cache := NewInMemoryCache()
	publisher := &RecordingPublisher{}

	n := 0
	svc := NewService(ServiceConfig{
		Repository: repo,
		Hydrator:   newTestHydrator(t, src),
		Logger:     zerolog.Nop(),
		Cache:      cache,
		Publisher:  publisher,
		Flags:      flags,
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%02d", n)
		},
		Now: func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) },
	})

	return &serviceFixture{service: svc, repo: repo, cache: cache, publisher: publisher, source: src}
}

func sampleRequest() SaveRequest {
	return SaveRequest{
		Stops: []Stop{
			{ItemType: ItemSight, RefID: strPtr(sightID), SortOrder: intPtr(10)},
			{ItemType: ItemNote, InlineTitle: strPtr("Cover shoulders"), SortOrder: intPtr(20)},
			{ItemType: ItemTour, RefID: strPtr(tourID), SortOrder: intPtr(20)},
		},
		Legs: []LegDraft{
			{Mode: "taxi", SortOrder: 20, MapsURL: strPtr("https://maps.example.com/r/1")},
			{Mode: "walk", SortOrder: 99},
		},
	}
}

func TestService_Save(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res, err := f.service.Save(ctx, Excursions, itineraryID, sampleRequest())
	require.NoError(t, err)

	require.Len(t, res.Stops, 3)
	assert.Equal(t, "id-01", res.Stops[0].ID)
	assert.Equal(t, itineraryID, res.Stops[2].ItineraryID)

	require.Len(t, res.Legs, 1)
	assert.Equal(t, "id-01", res.Legs[0].FromItemID)
	assert.Equal(t, "id-03", res.Legs[0].ToItemID)
	assert.Equal(t, ModeTaxi, res.Legs[0].PrimaryMode)
	assert.Equal(t, []DroppedLeg{{Index: 1, SortOrder: 99, Reason: DropBoundary}}, res.Dropped)

	stored, err := f.repo.ListStops(ctx, Excursions, itineraryID)
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	events := f.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, SavedEvent{
		Type:        EventSaved,
		Collection:  "excursions",
		ItineraryID: itineraryID,
		Stops:       3,
		Legs:        1,
		SavedAt:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}, events[0])
}

func TestService_SaveKeepsBoundaryLegsWhenFlagged(t *testing.T) {
	f := newFixture(t, testFlags{keepBoundary: true})

	res, err := f.service.Save(context.Background(), Excursions, itineraryID, sampleRequest())
	require.NoError(t, err)

	require.Len(t, res.Legs, 2)
	assert.Equal(t, res.Legs[1].FromItemID, res.Legs[1].ToItemID)
	assert.Empty(t, res.Dropped)
}

func TestService_SaveValidation(t *testing.T) {
	f := newFixture(t, nil)

	req := SaveRequest{
		Stops: []Stop{
			{ItemType: ItemMeal, MealType: strPtr("dinner")},
			{ItemType: ItemSight},
			{ItemType: ItemTour, RefID: strPtr("42")},
			{ItemType: ItemNote},
			{ItemType: ItemType("casino")},
		},
		Legs: []LegDraft{{CostMin: floatPtr(20), CostMax: floatPtr(10)}},
	}

	_, err := f.service.Save(context.Background(), Excursions, itineraryID, req)
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)

	codes := make(map[string]string)
	for _, fe := range verr.Errors {
		codes[fe.Field] = fe.Code
	}
	assert.Equal(t, map[string]string{
		"stops[0].itemType": "item_type_not_allowed",
		"stops[1].refId":    "required",
		"stops[2].refId":    "invalid_ref",
		"stops[3]":          "required",
		"stops[4].itemType": "invalid_item_type",
		"legs[0].costMin":   "out_of_range",
	}, codes)

	// meals are fine on day itineraries
	_, err = f.service.Save(context.Background(), DayItineraries, itineraryID, SaveRequest{
		Stops: []Stop{{ItemType: ItemMeal, MealType: strPtr("dinner"), SortOrder: intPtr(1)}},
	})
	assert.NoError(t, err)
}

func TestService_SaveUnknownItinerary(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.service.Save(context.Background(), Excursions, "missing", sampleRequest())
	assert.ErrorIs(t, err, ErrItineraryNotFound)
}

func TestService_SaveIsAllOrNothing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.service.Save(ctx, Excursions, itineraryID, sampleRequest())
	require.NoError(t, err)
	before, err := f.repo.ListStops(ctx, Excursions, itineraryID)
	require.NoError(t, err)

	f.repo.FailNextReplace(errors.New("insert excursion_transport_legs: connection lost"))
	_, err = f.service.Save(ctx, Excursions, itineraryID, SaveRequest{
		Stops: []Stop{{ItemType: ItemSight, RefID: strPtr(tourID), SortOrder: intPtr(1)}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save excursions")

	after, err := f.repo.ListStops(ctx, Excursions, itineraryID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, f.publisher.Events(), 1, "no event for the failed save")
}

func TestService_SaveSurvivesPublishFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.publisher.FailWith(errors.New("topic not found"))

	_, err := f.service.Save(context.Background(), Excursions, itineraryID, sampleRequest())
	assert.NoError(t, err)
}

func TestService_SaveWithEventsDisabled(t *testing.T) {
	f := newFixture(t, testFlags{eventsOff: true})

	_, err := f.service.Save(context.Background(), Excursions, itineraryID, sampleRequest())
	require.NoError(t, err)
	assert.Empty(t, f.publisher.Events())
}

func TestService_Assemble(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.service.Save(ctx, Excursions, itineraryID, sampleRequest())
	require.NoError(t, err)

	a, err := f.service.Assemble(ctx, Excursions, itineraryID)
	require.NoError(t, err)

	assert.Equal(t, "excursions", a.Collection)
	require.Len(t, a.Stops, 3)
	assert.Equal(t, "Temple of Literature", a.Stops[0].Entity.Name)

	var kinds []string
	for _, e := range a.Flow {
		if e.Kind == FlowLeg {
			kinds = append(kinds, "leg")
		} else {
			kinds = append(kinds, string(e.Stop.ItemType))
		}
	}
	assert.Equal(t, []string{"sight", "leg", "tour", "note"}, kinds)
}

func TestService_AssembleUsesCache(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.service.Save(ctx, Excursions, itineraryID, sampleRequest())
	require.NoError(t, err)

	first, err := f.service.Assemble(ctx, Excursions, itineraryID)
	require.NoError(t, err)
	lookups := f.source.Lookups()

	second, err := f.service.Assemble(ctx, Excursions, itineraryID)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, lookups, f.source.Lookups())

	// saving invalidates
	_, err = f.service.Save(ctx, Excursions, itineraryID, sampleRequest())
	require.NoError(t, err)
	_, ok, err := f.cache.Get(ctx, Excursions.cacheKey(itineraryID))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_AssembleBypassesDisabledCache(t *testing.T) {
	f := newFixture(t, testFlags{cacheDisabled: true})
	ctx := context.Background()

	_, err := f.service.Assemble(ctx, Excursions, itineraryID)
	require.NoError(t, err)

	_, ok, err := f.cache.Get(ctx, Excursions.cacheKey(itineraryID))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_AssembleNotFound(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.service.Assemble(context.Background(), DayItineraries, "nope")
	assert.ErrorIs(t, err, ErrItineraryNotFound)
}

func TestService_AssembleEmpty(t *testing.T) {
	f := newFixture(t, nil)
	a, err := f.service.Assemble(context.Background(), DayItineraries, itineraryID)
	require.NoError(t, err)
	assert.Empty(t, a.Stops)
	assert.NotNil(t, a.Legs)
	assert.Empty(t, a.Flow)
}

func TestService_Editable(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.service.Save(ctx, Excursions, itineraryID, sampleRequest())
	require.NoError(t, err)

	view, err := f.service.Editable(ctx, Excursions, itineraryID)
	require.NoError(t, err)

	require.Len(t, view.Legs, 1)
	assert.Equal(t, "taxi", view.Legs[0].Mode)
	assert.Equal(t, "https://maps.example.com/r/1", *view.Legs[0].MapsURL)
	assert.Equal(t, 20, view.Legs[0].SortOrder)
	assert.Len(t, view.Flow, 4)
	assert.Equal(t, FlowLeg, view.Flow[1].Kind)
	assert.Zero(t, f.source.Lookups(), "editing view does not hydrate")
}

func TestService_RefreshRewarmsCache(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.service.Refresh(ctx, Excursions, itineraryID))
	_, ok, err := f.cache.Get(ctx, Excursions.cacheKey(itineraryID))
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := f.service.ItineraryIDs(ctx, Excursions)
	require.NoError(t, err)
	assert.Equal(t, []string{itineraryID}, ids)
}

func TestService_SaveDefaultIDsKeepAuthoredOrderOnTies(t *testing.T) {
	repo := NewInMemoryRepository()
	repo.AddItinerary(DayItineraries, itineraryID)
	svc := NewService(ServiceConfig{
		Repository: repo,
		Hydrator:   newTestHydrator(t, seededSource()),
		Logger:     zerolog.Nop(),
		Cache:      NewInMemoryCache(),
	})
	ctx := context.Background()

	titles := []string{"Meet at the fountain", "Buy tickets", "Queue at gate B"}
	req := SaveRequest{}
	for _, title := range titles {
		req.Stops = append(req.Stops, Stop{ItemType: ItemNote, InlineTitle: strPtr(title), SortOrder: intPtr(10)})
	}
	_, err := svc.Save(ctx, DayItineraries, itineraryID, req)
	require.NoError(t, err)

	stops, err := repo.ListStops(ctx, DayItineraries, itineraryID)
	require.NoError(t, err)
	require.Len(t, stops, len(titles))
	for i, st := range stops {
		assert.Equal(t, titles[i], *st.InlineTitle)
	}

	a, err := svc.Assemble(ctx, DayItineraries, itineraryID)
	require.NoError(t, err)
	require.Len(t, a.Stops, len(titles))
	for i, st := range a.Stops {
		assert.Equal(t, titles[i], *st.InlineTitle)
	}
}
