package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wayfarer/wayfarer/internal/itinerary"
)

// Job types understood by the worker.
const (
	JobItinerarySaved = itinerary.EventSaved
	JobRefreshAll     = "refresh_all"
	JobHealthCheck    = "health_check"
)

// ErrUnprocessable marks a message that can never succeed. Such messages are
// acknowledged so they are not redelivered.
var ErrUnprocessable = errors.New("unprocessable message")

// JobMessage is the envelope of every worker message. Save events decode
// into it directly.
type JobMessage struct {
	JobType     string `json:"job_type"`
	Collection  string `json:"collection,omitempty"`
	ItineraryID string `json:"itinerary_id,omitempty"`
}

// Check is a named dependency probe run by health_check jobs.
type Check struct {
	Name  string
	Check func(ctx context.Context) error
}

// Dispatcher routes decoded messages to the refresh job.
type Dispatcher struct {
	job    *RefreshJob
	checks []Check
	logger zerolog.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(job *RefreshJob, checks []Check, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{job: job, checks: checks, logger: logger}
}

// Handle decodes and runs one message. Errors wrapping ErrUnprocessable
// should be acknowledged; any other error should be retried.
func (d *Dispatcher) Handle(ctx context.Context, data []byte) error {
	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnprocessable, err)
	}

	switch msg.JobType {
	case JobItinerarySaved:
		return d.handleSaved(ctx, msg)
	case JobRefreshAll:
		return d.handleRefreshAll(ctx)
	case JobHealthCheck:
		return d.handleHealthCheck(ctx)
	default:
		return fmt.Errorf("%w: unknown job type %q", ErrUnprocessable, msg.JobType)
	}
}

func (d *Dispatcher) handleSaved(ctx context.Context, msg JobMessage) error {
	schema, ok := itinerary.SchemaByName(msg.Collection)
	if !ok {
		return fmt.Errorf("%w: unknown collection %q", ErrUnprocessable, msg.Collection)
	}
	if msg.ItineraryID == "" {
		return fmt.Errorf("%w: itinerary_id is required", ErrUnprocessable)
	}
	return d.job.RefreshOne(ctx, schema, msg.ItineraryID)
}

func (d *Dispatcher) handleRefreshAll(ctx context.Context) error {
	result := d.job.Run(ctx)

	// A run where most itineraries failed is retried as a whole.
	if result.Failed > result.Successful+result.Missing {
		return fmt.Errorf("too many refresh failures: %d/%d", result.Failed, result.Total)
	}
	return nil
}

func (d *Dispatcher) handleHealthCheck(ctx context.Context) error {
	d.logger.Debug().Int("checks", len(d.checks)).Msg("running health check")

	var errs []error
	for _, c := range d.checks {
		if err := c.Check(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	d.logger.Debug().Msg("health check passed")
	return nil
}
