package worker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer/wayfarer/internal/itinerary"
	"github.com/wayfarer/wayfarer/internal/worker"
)

func TestDispatcher_Handle(t *testing.T) {
	r := newFakeRefresher()
	r.ids["excursions"] = []string{"e1"}
	r.fail["broken"] = errors.New("catalog unavailable")
	r.fail["gone"] = itinerary.ErrItineraryNotFound
	job := newJob(t, r, worker.RefreshConfig{})

	healthy := true
	d := worker.NewDispatcher(job, []worker.Check{{
		Name: "database",
		Check: func(context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("connection refused")
		},
	}}, zerolog.Nop())

	tests := []struct {
		name          string
		body          string
		unhealthy     bool
		wantErr       bool
		unprocessable bool
	}{
		{name: "save event", body: `{"job_type":"itinerary.saved","collection":"day-itineraries","itinerary_id":"d1","stops":3,"legs":2}`},
		{name: "save event for deleted itinerary", body: `{"job_type":"itinerary.saved","collection":"excursions","itinerary_id":"gone"}`},
		{name: "failing refresh is retried", body: `{"job_type":"itinerary.saved","collection":"excursions","itinerary_id":"broken"}`, wantErr: true},
		{name: "unknown collection", body: `{"job_type":"itinerary.saved","collection":"cruises","itinerary_id":"x"}`, wantErr: true, unprocessable: true},
		{name: "missing itinerary id", body: `{"job_type":"itinerary.saved","collection":"excursions"}`, wantErr: true, unprocessable: true},
		{name: "refresh all", body: `{"job_type":"refresh_all"}`},
		{name: "health check", body: `{"job_type":"health_check"}`},
		{name: "failing health check", body: `{"job_type":"health_check"}`, unhealthy: true, wantErr: true},
		{name: "unknown job", body: `{"job_type":"provider_refresh"}`, wantErr: true, unprocessable: true},
		{name: "malformed", body: `{`, wantErr: true, unprocessable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			healthy = !tt.unhealthy
			err := d.Handle(context.Background(), []byte(tt.body))
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.unprocessable, errors.Is(err, worker.ErrUnprocessable))
		})
	}

	assert.Contains(t, r.Refreshed(), "day-itineraries/d1")
	assert.Contains(t, r.Refreshed(), "excursions/e1")
}

func TestDispatcher_RefreshAllFailsWhenMostFail(t *testing.T) {
	r := newFakeRefresher()
	r.ids["excursions"] = []string{"a", "b", "c"}
	r.fail["a"] = errors.New("boom")
	r.fail["b"] = errors.New("boom")
	job := newJob(t, r, worker.RefreshConfig{})

	err := worker.NewDispatcher(job, nil, zerolog.Nop()).Handle(context.Background(), []byte(`{"job_type":"refresh_all"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many refresh failures: 2/3")
	assert.False(t, errors.Is(err, worker.ErrUnprocessable))
}

func TestDispatcher_RefreshAllToleratesDeletedItineraries(t *testing.T) {
	r := newFakeRefresher()
	r.ids["excursions"] = []string{"a", "b", "c"}
	r.fail["a"] = errors.New("boom")
	r.fail["b"] = itinerary.ErrItineraryNotFound
	r.fail["c"] = itinerary.ErrItineraryNotFound
	job := newJob(t, r, worker.RefreshConfig{})

	err := worker.NewDispatcher(job, nil, zerolog.Nop()).Handle(context.Background(), []byte(`{"job_type":"refresh_all"}`))
	require.NoError(t, err)
}
