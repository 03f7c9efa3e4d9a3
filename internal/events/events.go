// Package events announces record changes to other services.
package events

import (
	"context"
	"sync"
	"time"

	"schedule_bot/internal/models"
)

const (
	TopicEventCreated = "schedule.event.created"
	TopicEventUpdated = "schedule.event.updated"
	TopicEventDeleted = "schedule.event.deleted"

	TopicImageCreated  = "schedule.image.created"
	TopicImageUploaded = "schedule.image.uploaded"
	TopicImageDeleted  = "schedule.image.deleted"
)

type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Date      time.Time `json:"date"`
	CreatedBy string    `json:"created_by"`
	GroupID   string    `json:"group_id,omitempty"`
	Scope     string    `json:"scope"`
}

func EventOf(e *models.EventModel) Event {
	return Event{
		ID:        e.ID,
		Name:      e.Name,
		Kind:      string(e.Kind),
		Date:      e.Date,
		CreatedBy: e.CreatedBy,
		GroupID:   e.GroupID,
		Scope:     string(e.Scope),
	}
}

type Image struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url,omitempty"`
	CreatedBy string `json:"created_by"`
	GroupID   string `json:"group_id,omitempty"`
	Scope     string `json:"scope"`
}

func ImageOf(m *models.ImageModel) Image {
	img := Image{
		ID:        m.ID,
		Name:      m.Name,
		CreatedBy: m.CreatedBy,
		GroupID:   m.GroupID,
		Scope:     string(m.Scope),
	}
	if f, ok := m.Fulfilled(); ok {
		img.URL = f.URL
	}
	return img
}

type Deleted struct {
	ID string `json:"id"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// NoopPublisher is a Publisher that does nothing (used when NATS is not configured).
type NoopPublisher struct{}

func (*NoopPublisher) Publish(context.Context, string, any) error { return nil }

func (*NoopPublisher) Close() error { return nil }

type Published struct {
	Topic string
	Event any
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Published
}

func (r *Recorder) Publish(_ context.Context, topic string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Published{Topic: topic, Event: event})
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Published, len(r.events))
	copy(out, r.events)
	return out
}

// Topics lists the published topics in order.
func (r *Recorder) Topics() []string {
	var out []string
	for _, p := range r.Events() {
		out = append(out, p.Topic)
	}
	return out
}
