package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/wayfarer/wayfarer/internal/itinerary"
	"github.com/wayfarer/wayfarer/internal/telemetry"
)

// Refresher rebuilds cached flows. *itinerary.Service satisfies it.
type Refresher interface {
	ItineraryIDs(ctx context.Context, schema itinerary.Schema) ([]string, error)
	Refresh(ctx context.Context, schema itinerary.Schema, itineraryID string) error
}

// RefreshJob rebuilds the flow cache for whole collections or single
// itineraries.
type RefreshJob struct {
	config    RefreshConfig
	refresher Refresher
	logger    zerolog.Logger
	refreshed metric.Int64Counter

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	Runs               int64
	ItinerariesRefresh int64
	FailedRefreshes    int64
	MissingItineraries int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config    RefreshConfig
	Refresher Refresher
	Logger    zerolog.Logger

	// Meter defaults to the global provider.
	Meter metric.Meter
}

// NewRefreshJob creates a new refresh job.
func NewRefreshJob(cfg RefreshJobConfig) (*RefreshJob, error) {
	meter := cfg.Meter
	if meter == nil {
		meter = telemetry.Meter("github.com/wayfarer/wayfarer/internal/worker")
	}
	refreshed, err := meter.Int64Counter(
		"worker.flow.refreshed",
		metric.WithDescription("Itinerary flows rebuilt by the worker"),
		metric.WithUnit("{itinerary}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create refresh counter: %w", err)
	}

	return &RefreshJob{
		config:    cfg.Config.withDefaults(),
		refresher: cfg.Refresher,
		logger:    cfg.Logger,
		refreshed: refreshed,
		metrics:   &RefreshMetrics{},
	}, nil
}

// RefreshResult contains the result of a Run.
type RefreshResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Total      int
	Successful int
	Missing    int
	Failed     int
	Errors     []RefreshError
}

// RefreshError records one itinerary that could not be rebuilt. An empty
// ItineraryID means the collection could not be listed.
type RefreshError struct {
	Collection  string
	ItineraryID string
	Error       string
}

type outcome int

const (
	outcomeRefreshed outcome = iota
	outcomeMissing
	outcomeFailed
)

func (o outcome) String() string {
	switch o {
	case outcomeRefreshed:
		return "refreshed"
	case outcomeMissing:
		return "missing"
	default:
		return "failed"
	}
}

// Run rebuilds every itinerary of the configured collections. Failures are
// collected in the result; Run itself only stops early when ctx is done.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{StartTime: startTime}

	j.logger.Info().
		Strs("collections", j.config.CollectionNames()).
		Int("concurrency", j.config.Concurrency).
		Msg("starting flow refresh job")

	var mu sync.Mutex
	record := func(collection, id string, o outcome, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch o {
		case outcomeRefreshed:
			result.Successful++
			return
		case outcomeMissing:
			result.Missing++
			return
		}
		result.Failed++
		result.Errors = append(result.Errors, RefreshError{Collection: collection, ItineraryID: id, Error: err.Error()})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.config.Concurrency)

	for _, schema := range j.config.Collections {
		ids, err := j.refresher.ItineraryIDs(ctx, schema)
		if err != nil {
			j.logger.Error().Err(err).Str("collection", schema.Name).Msg("failed to list itineraries")
			record(schema.Name, "", outcomeFailed, err)
			continue
		}
		result.Total += len(ids)

		for _, id := range ids {
			g.Go(func() error {
				if gctx.Err() != nil {
					record(schema.Name, id, outcomeFailed, gctx.Err())
					return nil
				}
				o, err := j.refresh(gctx, schema, id)
				record(schema.Name, id, o, err)
				return nil
			})
		}
	}
	_ = g.Wait() //nolint:errcheck // workers record their own errors

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("total", result.Total).
		Int("successful", result.Successful).
		Int("missing", result.Missing).
		Int("failed", result.Failed).
		Msg("flow refresh job completed")

	return result
}

// RefreshOne rebuilds a single itinerary. An itinerary deleted since the
// event was published is not an error.
func (j *RefreshJob) RefreshOne(ctx context.Context, schema itinerary.Schema, itineraryID string) error {
	o, err := j.refresh(ctx, schema, itineraryID)
	j.metrics.mu.Lock()
	switch o {
	case outcomeRefreshed:
		j.metrics.ItinerariesRefresh++
	case outcomeMissing:
		j.metrics.MissingItineraries++
	default:
		j.metrics.FailedRefreshes++
	}
	j.metrics.mu.Unlock()
	return err
}

func (j *RefreshJob) refresh(ctx context.Context, schema itinerary.Schema, itineraryID string) (outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	o := outcomeRefreshed
	err := j.refresher.Refresh(ctx, schema, itineraryID)
	switch {
	case errors.Is(err, itinerary.ErrItineraryNotFound):
		o, err = outcomeMissing, nil
		j.logger.Debug().
			Str("collection", schema.Name).
			Str("itinerary_id", itineraryID).
			Msg("itinerary no longer exists, skipping refresh")
	case err != nil:
		o = outcomeFailed
		err = fmt.Errorf("refresh %s %s: %w", schema.Name, itineraryID, err)
	}

	j.refreshed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("collection", schema.Name),
		attribute.String("outcome", o.String()),
	))
	return o, err
}

// Schedule runs the job every interval until ctx is done. A non-positive
// interval returns immediately.
func (j *RefreshJob) Schedule(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("scheduled refresh stopped")
			return
		case <-ticker.C:
			j.Run(ctx)
		}
	}
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.Runs++
	j.metrics.ItinerariesRefresh += int64(result.Successful)
	j.metrics.MissingItineraries += int64(result.Missing)
	j.metrics.FailedRefreshes += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		Runs:               j.metrics.Runs,
		ItinerariesRefresh: j.metrics.ItinerariesRefresh,
		FailedRefreshes:    j.metrics.FailedRefreshes,
		MissingItineraries: j.metrics.MissingItineraries,
		LastRunAt:          j.metrics.LastRunAt,
		LastRunDuration:    j.metrics.LastRunDuration,
		TotalDuration:      j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns the current metrics as a map for health output.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"runs":                  m.Runs,
		"itineraries_refreshed": m.ItinerariesRefresh,
		"failed_refreshes":      m.FailedRefreshes,
		"missing_itineraries":   m.MissingItineraries,
		"last_run_at":           m.LastRunAt,
		"last_run_duration":     m.LastRunDuration.String(),
		"total_duration":        m.TotalDuration.String(),
	}
}
