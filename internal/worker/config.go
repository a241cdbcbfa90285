// Package worker re-warms the assembled-flow cache in the background, either
// in response to save events from Pub/Sub or on a fixed schedule.
package worker

import (
	"time"

	"github.com/wayfarer/wayfarer/internal/itinerary"
)

// RefreshConfig holds configuration for the flow refresh job.
type RefreshConfig struct {
	// Collections are refreshed by Run. If empty, every collection is.
	Collections []itinerary.Schema

	// Concurrency is the number of itineraries refreshed at once.
	// Default: 4
	Concurrency int

	// Timeout bounds the refresh of a single itinerary.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Collections: itinerary.Schemas(),
		Concurrency: 4,
		Timeout:     30 * time.Second,
	}
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	d := DefaultRefreshConfig()
	if len(c.Collections) == 0 {
		c.Collections = d.Collections
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	return c
}

// CollectionNames returns the names of the refreshed collections.
func (c RefreshConfig) CollectionNames() []string {
	names := make([]string, len(c.Collections))
	for i, s := range c.Collections {
		names[i] = s.Name
	}
	return names
}
