package itinerary

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/wayfarer/wayfarer/internal/catalog"
	"github.com/wayfarer/wayfarer/internal/telemetry"
)

const instrumentationName = "github.com/wayfarer/wayfarer/internal/itinerary"

// DefaultHydrationConcurrency bounds in-flight catalog lookups per call.
const DefaultHydrationConcurrency = 8

var errNoSource = errors.New("no catalog source for item type")

// HydratorConfig holds configuration for the Hydrator.
type HydratorConfig struct {
	// Sources maps each entity item type to its catalog source.
	Sources map[ItemType]catalog.Source

	// Notes resolves stored notes referenced by note stops.
	Notes catalog.NoteSource

	Logger      zerolog.Logger
	Concurrency int

	// Tracer and Meter default to the global providers.
	Tracer trace.Tracer
	Meter  metric.Meter
}

// Hydrator resolves stops to their display entities.
type Hydrator struct {
	sources     map[ItemType]catalog.Source
	notes       catalog.NoteSource
	logger      zerolog.Logger
	concurrency int
	tracer      trace.Tracer
	failures    metric.Int64Counter
}

// NewHydrator creates a Hydrator.
func NewHydrator(cfg HydratorConfig) (*Hydrator, error) {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultHydrationConcurrency
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer(instrumentationName)
	}
	meter := cfg.Meter
	if meter == nil {
		meter = telemetry.Meter(instrumentationName)
	}

	failures, err := meter.Int64Counter(
		"itinerary.hydration.failures",
		metric.WithDescription("Stops that could not be resolved to a visible entity"),
		metric.WithUnit("{stop}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create hydration failure counter: %w", err)
	}

	return &Hydrator{
		sources:     cfg.Sources,
		notes:       cfg.Notes,
		logger:      cfg.Logger,
		concurrency: concurrency,
		tracer:      tracer,
		failures:    failures,
	}, nil
}

// SourcesFor builds a source per entity item type from a constructor that
// receives the type's catalog table.
func SourcesFor(newSource func(table string) catalog.Source) map[ItemType]catalog.Source {
	sources := make(map[ItemType]catalog.Source)
	for _, t := range EntityTypes() {
		sources[t] = newSource(t.Table())
	}
	return sources
}

// Hydrate resolves every stop independently. The result has the same
// length and order as stops; an unresolved stop carries a nil entity and a
// failed Resolution but never fails the call.
func (h *Hydrator) Hydrate(ctx context.Context, stops []Stop) []HydratedStop {
	ctx, span := h.tracer.Start(ctx, "itinerary.hydrate",
		trace.WithAttributes(attribute.Int("itinerary.stops", len(stops))),
	)
	defer span.End()

	out := make([]HydratedStop, len(stops))
	sem := make(chan struct{}, h.concurrency)
	var wg sync.WaitGroup

	for i := range stops {
		if !h.needsLookup(stops[i]) {
			out[i] = h.resolveLocal(stops[i])
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			out[i] = h.resolve(ctx, stops[i])
		}(i)
	}
	wg.Wait()

	failed := 0
	for i := range out {
		if out[i].Resolution.Failed() {
			failed++
			h.report(ctx, i, out[i])
		}
	}
	span.SetAttributes(attribute.Int("itinerary.hydration.failed", failed))

	return out
}

// needsLookup reports whether resolving s requires a catalog round trip.
func (h *Hydrator) needsLookup(s Stop) bool {
	switch {
	case s.ItemType.IsEntity():
		return validRef(s.RefID)
	case s.ItemType.IsNote():
		return !hasInlineNote(s) && validRef(s.RefID)
	}
	return false
}

// resolveLocal handles stops that never reach a source.
func (h *Hydrator) resolveLocal(s Stop) HydratedStop {
	hs := HydratedStop{Stop: s}
	switch {
	case s.ItemType.IsEntity():
		hs.Resolution = ResolutionMalformedRef
	case s.ItemType.IsNote():
		if hasInlineNote(s) || s.RefID == nil {
			hs.Note = inlineNote(s)
			hs.Resolution = ResolutionInline
		} else {
			hs.Resolution = ResolutionMalformedRef
		}
	default:
		hs.Resolution = ResolutionPassThrough
	}
	return hs
}

func (h *Hydrator) resolve(ctx context.Context, s Stop) HydratedStop {
	hs := HydratedStop{Stop: s}
	id := *s.RefID

	if s.ItemType.IsNote() {
		if h.notes == nil {
			hs.Resolution = ResolutionLookupFailed
			return hs
		}
		note, err := h.notes.LookupNote(ctx, id)
		hs.Resolution = classify(err, note == nil)
		if hs.Resolution == ResolutionResolved {
			hs.Note = note
		}
		return hs
	}

	source, ok := h.sources[s.ItemType]
	if !ok {
		h.logger.Error().Err(errNoSource).Str("item_type", string(s.ItemType)).Msg("hydrator misconfigured")
		hs.Resolution = ResolutionLookupFailed
		return hs
	}
	entity, err := source.Lookup(ctx, id)
	hs.Resolution = classify(err, entity == nil)
	if hs.Resolution == ResolutionResolved {
		hs.Entity = entity
	} else if hs.Resolution == ResolutionLookupFailed {
		h.logger.Debug().Err(err).
			Str("item_type", string(s.ItemType)).
			Str("ref_id", id).
			Msg("catalog lookup failed")
	}
	return hs
}

func classify(err error, empty bool) Resolution {
	switch {
	case errors.Is(err, catalog.ErrNotVisible):
		return ResolutionNotVisible
	case err != nil:
		return ResolutionLookupFailed
	case empty:
		return ResolutionNotVisible
	}
	return ResolutionResolved
}

func (h *Hydrator) report(ctx context.Context, index int, hs HydratedStop) {
	ref := ""
	if hs.RefID != nil {
		ref = *hs.RefID
	}
	h.logger.Warn().
		Int("index", index).
		Str("item_type", string(hs.ItemType)).
		Str("stop_id", hs.ID).
		Str("ref_id", ref).
		Str("reason", string(hs.Resolution)).
		Msg("stop not hydrated")

	h.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", string(hs.Resolution)),
		attribute.String("item_type", string(hs.ItemType)),
	))
}

// validRef accepts only the canonical hyphenated UUID form.
func validRef(ref *string) bool {
	if ref == nil || len(*ref) != 36 {
		return false
	}
	_, err := uuid.Parse(*ref)
	return err == nil
}

func hasInlineNote(s Stop) bool {
	return nonBlank(s.InlineTitle) != nil || nonBlank(s.InlineDetails) != nil
}

func inlineNote(s Stop) *catalog.Note {
	if !hasInlineNote(s) {
		return nil
	}
	return &catalog.Note{
		ID:      s.ID,
		Title:   deref(s.InlineTitle),
		Details: nonEmpty(s.InlineDetails),
	}
}
