// Package bus is the typed in-process event bus that replaces the
// dashboard's window-level custom events. Publishers and subscribers meet on
// explicit event types, so the coupling is visible and mockable.
package bus

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// TypeJobUploaded is broadcast after any successful upload or manual submit.
// The dashboard container refreshes silently on it and the setup tracker
// marks its PMS step complete.
const TypeJobUploaded = "pms.job-uploaded"

// Entry types carried on TypeJobUploaded events. A manual entry is saved
// directly and never spawns an automation job, so the watcher ignores it.
const (
	EntryPMSUpload = "pms_upload"
	EntryManual    = "manual"
)

// Event is one bus message.
type Event struct {
	At        time.Time `json:"at"`
	Type      string    `json:"type"`
	ClientID  string    `json:"clientId"`
	EntryType string    `json:"entryType,omitempty"`
}

// NewJobUploaded builds the standard upload event.
func NewJobUploaded(clientID, entryType string) Event {
	return Event{
		Type:      TypeJobUploaded,
		ClientID:  clientID,
		EntryType: entryType,
		At:        time.Now(),
	}
}

// Forwarder mirrors published events outside the process, for surfaces that
// are not this one.
type Forwarder interface {
	Forward(ctx context.Context, event Event) error
}

const subscriberBuffer = 16

type subscriber struct {
	ch        chan Event
	eventType string
}

// Bus fans events out to in-process subscribers and any attached forwarders.
// Delivery to subscribers is non-blocking: a subscriber that stops draining
// its channel loses events rather than wedging publishers.
type Bus struct {
	logger     *slog.Logger
	subs       map[int]*subscriber
	forwarders []Forwarder
	nextID     int
	mu         sync.RWMutex
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		subs:   make(map[int]*subscriber),
		logger: slog.Default().With("component", "bus"),
	}
}

// Subscribe registers for one event type. The returned cancel function
// releases the subscription and closes the channel.
func (b *Bus) Subscribe(eventType string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	sub := &subscriber{eventType: eventType, ch: make(chan Event, subscriberBuffer)}
	b.subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish delivers an event to matching subscribers and all forwarders.
// Forwarder failures are logged, never propagated; local delivery must not
// depend on external infrastructure being up.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	for _, sub := range b.subs {
		if sub.eventType != event.Type {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.logger.Warn("dropping event for slow subscriber", "type", event.Type)
		}
	}
	forwarders := make([]Forwarder, len(b.forwarders))
	copy(forwarders, b.forwarders)
	b.mu.RUnlock()

	for _, f := range forwarders {
		if err := f.Forward(ctx, event); err != nil {
			b.logger.Warn("event forward failed", "type", event.Type, "error", err)
		}
	}
}

// AttachForwarder adds an external mirror for all published events.
func (b *Bus) AttachForwarder(f Forwarder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forwarders = append(b.forwarders, f)
}
