package itinerary

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub/v2"
)

// EventSaved is the type of the event published after a successful save.
const EventSaved = "itinerary.saved"

// SavedEvent announces that an itinerary's stops and legs were replaced.
type SavedEvent struct {
	Type        string    `json:"job_type"`
	Collection  string    `json:"collection"`
	ItineraryID string    `json:"itinerary_id"`
	Stops       int       `json:"stops"`
	Legs        int       `json:"legs"`
	SavedAt     time.Time `json:"saved_at"`
}

// Publisher delivers save events.
type Publisher interface {
	Publish(ctx context.Context, event SavedEvent) error
}

// PubSubPublisher publishes events to a Pub/Sub topic.
type PubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topic     string
}

// PubSubPublisherConfig holds configuration for the PubSubPublisher.
type PubSubPublisherConfig struct {
	ProjectID string
	Topic     string
}

// NewPubSubPublisher creates a publisher for the configured topic.
func NewPubSubPublisher(ctx context.Context, cfg PubSubPublisherConfig) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	return &PubSubPublisher{
		client:    client,
		publisher: client.Publisher(cfg.Topic),
		topic:     cfg.Topic,
	}, nil
}

// Publish sends the event and waits for the server acknowledgement.
func (p *PubSubPublisher) Publish(ctx context.Context, event SavedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"type":       event.Type,
			"collection": event.Collection,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes pending messages and closes the client.
func (p *PubSubPublisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}

// NoopPublisher discards events.
type NoopPublisher struct{}

// Publish does nothing.
func (NoopPublisher) Publish(context.Context, SavedEvent) error { return nil }

// RecordingPublisher keeps published events in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []SavedEvent
	err    error
}

// FailWith makes subsequent publishes return err.
func (p *RecordingPublisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Publish records the event.
func (p *RecordingPublisher) Publish(_ context.Context, event SavedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

// Events returns the recorded events.
func (p *RecordingPublisher) Events() []SavedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]SavedEvent(nil), p.events...)
}

var (
	_ Publisher = (*PubSubPublisher)(nil)
	_ Publisher = NoopPublisher{}
	_ Publisher = (*RecordingPublisher)(nil)
)
