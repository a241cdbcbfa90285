package itinerary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultFlowCacheTTL is used when no flag source is configured.
const DefaultFlowCacheTTL = 5 * time.Minute

// Flags are the runtime switches the service consults.
type Flags interface {
	KeepBoundaryLegs(ctx context.Context) bool
	FlowCacheDisabled(ctx context.Context) bool
	EventPublishingDisabled(ctx context.Context) bool
	FlowCacheTTL(ctx context.Context) time.Duration
}

type staticFlags struct{ ttl time.Duration }

func (staticFlags) KeepBoundaryLegs(context.Context) bool        { return false }
func (staticFlags) FlowCacheDisabled(context.Context) bool       { return false }
func (staticFlags) EventPublishingDisabled(context.Context) bool { return false }
func (f staticFlags) FlowCacheTTL(context.Context) time.Duration { return f.ttl }

// ServiceConfig holds configuration for the itinerary service.
type ServiceConfig struct {
	Repository Repository
	Hydrator   *Hydrator
	Logger     zerolog.Logger

	// Cache, Publisher and Flags are optional.
	Cache     FlowCache
	Publisher Publisher
	Flags     Flags

	// NewID generates stop and leg ids. Defaults to time-ordered UUIDs.
	NewID func() string

	// Now defaults to time.Now.
	Now func() time.Time
}

// Service saves and assembles itineraries of every collection.
type Service struct {
	repo      Repository
	hydrator  *Hydrator
	logger    zerolog.Logger
	cache     FlowCache
	publisher Publisher
	flags     Flags
	newID     func() string
	now       func() time.Time
}

// NewService creates a new itinerary service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:      cfg.Repository,
		hydrator:  cfg.Hydrator,
		logger:    cfg.Logger,
		cache:     cfg.Cache,
		publisher: cfg.Publisher,
		flags:     cfg.Flags,
		newID:     cfg.NewID,
		now:       cfg.Now,
	}
	if s.publisher == nil {
		s.publisher = NoopPublisher{}
	}
	if s.flags == nil {
		s.flags = staticFlags{ttl: DefaultFlowCacheTTL}
	}
	if s.newID == nil {
		s.newID = newOrderedID
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// SaveResult is what Save persisted.
type SaveResult struct {
	Stops   []Stop         `json:"stops"`
	Legs    []TransportLeg `json:"legs"`
	Dropped []DroppedLeg   `json:"dropped"`
}

// Save replaces an itinerary's stops and legs. Stops get fresh ids, legs are
// linked to their neighboring stops, and everything is written in one
// transaction. A rejected request returns *validate.Error.
func (s *Service) Save(ctx context.Context, schema Schema, itineraryID string, req SaveRequest) (*SaveResult, error) {
	if err := req.Validate(schema); err != nil {
		return nil, err
	}

	exists, err := s.repo.ItineraryExists(ctx, schema, itineraryID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrItineraryNotFound
	}

	stops := make([]Stop, len(req.Stops))
	for i, st := range req.Stops {
		st.ID = s.newID()
		st.ItineraryID = itineraryID
		if !st.ItemType.IsMeal() {
			st.MealType = nil
		}
		stops[i] = st
	}

	linked := LinkLegs(itineraryID, stops, req.Legs, LinkOptions{
		KeepBoundaryLegs: s.flags.KeepBoundaryLegs(ctx),
		NewID:            s.newID,
	})
	for _, d := range linked.Dropped {
		s.logger.Debug().
			Str("collection", schema.Name).
			Str("itinerary_id", itineraryID).
			Int("leg_index", d.Index).
			Int("sort_order", d.SortOrder).
			Str("reason", string(d.Reason)).
			Msg("transport leg dropped")
	}

	if err := s.repo.ReplaceAll(ctx, schema, itineraryID, stops, linked.Legs); err != nil {
		if errors.Is(err, ErrItineraryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("save %s %s: %w", schema.Name, itineraryID, err)
	}

	s.invalidate(ctx, schema, itineraryID)
	s.publishSaved(ctx, schema, itineraryID, len(stops), len(linked.Legs))

	s.logger.Info().
		Str("collection", schema.Name).
		Str("itinerary_id", itineraryID).
		Int("stops", len(stops)).
		Int("legs", len(linked.Legs)).
		Int("dropped_legs", len(linked.Dropped)).
		Msg("itinerary saved")

	return &SaveResult{Stops: stops, Legs: linked.Legs, Dropped: linked.Dropped}, nil
}

// Assemble returns the hydrated, merged read model of an itinerary, served
// from the flow cache when possible.
func (s *Service) Assemble(ctx context.Context, schema Schema, itineraryID string) (*Assembled, error) {
	useCache := s.cache != nil && !s.flags.FlowCacheDisabled(ctx)
	key := schema.cacheKey(itineraryID)

	if useCache {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("flow cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	assembled, err := s.build(ctx, schema, itineraryID)
	if err != nil {
		return nil, err
	}

	if useCache {
		if err := s.cache.Set(ctx, key, assembled, s.flags.FlowCacheTTL(ctx)); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("flow cache write failed")
		}
	}
	return assembled, nil
}

// Refresh rebuilds an itinerary's flow and replaces the cached copy.
func (s *Service) Refresh(ctx context.Context, schema Schema, itineraryID string) error {
	s.invalidate(ctx, schema, itineraryID)
	_, err := s.Assemble(ctx, schema, itineraryID)
	return err
}

// ItineraryIDs lists every itinerary of a collection.
func (s *Service) ItineraryIDs(ctx context.Context, schema Schema) ([]string, error) {
	return s.repo.ListItineraryIDs(ctx, schema)
}

func (s *Service) build(ctx context.Context, schema Schema, itineraryID string) (*Assembled, error) {
	stops, legs, err := s.load(ctx, schema, itineraryID)
	if err != nil {
		return nil, err
	}

	hydrated := s.hydrator.Hydrate(ctx, stops)
	if legs == nil {
		legs = []TransportLeg{}
	}
	return &Assembled{
		Collection:  schema.Name,
		ItineraryID: itineraryID,
		Stops:       hydrated,
		Legs:        legs,
		Flow:        MergeFlow(hydrated, legs),
	}, nil
}

func (s *Service) load(ctx context.Context, schema Schema, itineraryID string) ([]Stop, []TransportLeg, error) {
	exists, err := s.repo.ItineraryExists(ctx, schema, itineraryID)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		return nil, nil, ErrItineraryNotFound
	}

	stops, err := s.repo.ListStops(ctx, schema, itineraryID)
	if err != nil {
		return nil, nil, err
	}
	legs, err := s.repo.ListLegs(ctx, schema, itineraryID)
	if err != nil {
		return nil, nil, err
	}
	return stops, legs, nil
}

// EditableView is an itinerary as the editor loads it: stops unhydrated and
// legs unpacked back into drafts.
type EditableView struct {
	Collection  string      `json:"collection"`
	ItineraryID string      `json:"itineraryId"`
	Stops       []Stop      `json:"stops"`
	Legs        []LegDraft  `json:"legs"`
	Flow        []FlowEntry `json:"flow"`
}

// Editable returns the re-editing view of an itinerary.
func (s *Service) Editable(ctx context.Context, schema Schema, itineraryID string) (*EditableView, error) {
	stops, legs, err := s.load(ctx, schema, itineraryID)
	if err != nil {
		return nil, err
	}

	plain := make([]HydratedStop, len(stops))
	for i, st := range stops {
		plain[i] = HydratedStop{Stop: st}
	}
	drafts := make([]LegDraft, len(legs))
	for i, l := range legs {
		drafts[i] = UnpackLeg(l)
	}
	if stops == nil {
		stops = []Stop{}
	}

	return &EditableView{
		Collection:  schema.Name,
		ItineraryID: itineraryID,
		Stops:       stops,
		Legs:        drafts,
		Flow:        MergeFlow(plain, legs),
	}, nil
}

func (s *Service) invalidate(ctx context.Context, schema Schema, itineraryID string) {
	if s.cache == nil {
		return
	}
	key := schema.cacheKey(itineraryID)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("flow cache invalidation failed")
	}
}

func (s *Service) publishSaved(ctx context.Context, schema Schema, itineraryID string, stops, legs int) {
	if s.flags.EventPublishingDisabled(ctx) {
		return
	}
	event := SavedEvent{
		Type:        EventSaved,
		Collection:  schema.Name,
		ItineraryID: itineraryID,
		Stops:       stops,
		Legs:        legs,
		SavedAt:     s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).
			Str("collection", schema.Name).
			Str("itinerary_id", itineraryID).
			Msg("failed to publish save event")
	}
}
