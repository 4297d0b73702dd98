package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event is one emitted callback record handed to the downstream consumer.
type Event struct {
	ID         string      `json:"id"`
	Kind       string      `json:"kind"`
	ReceivedAt time.Time   `json:"received_at"`
	Payload    interface{} `json:"payload"`
}

// NewEvent wraps a payload for dispatch.
func NewEvent(kind string, payload interface{}) Event {
	return Event{
		ID:         uuid.New().String(),
		Kind:       kind,
		ReceivedAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Dispatcher hands emitted events downstream. Implementations must not
// block the webhook acknowledgment on delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

// LogDispatcher logs emitted events. Used when no Redis is configured.
type LogDispatcher struct {
	logger zerolog.Logger
}

// NewLogDispatcher creates a dispatcher that only logs events.
func NewLogDispatcher(logger zerolog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

// Dispatch logs the event and succeeds.
func (d *LogDispatcher) Dispatch(_ context.Context, event Event) error {
	d.logger.Info().
		Str("event_id", event.ID).
		Str("kind", event.Kind).
		Msg("callback event emitted")
	return nil
}

// MemoryDispatcher collects events in memory for tests.
type MemoryDispatcher struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryDispatcher creates an in-memory dispatcher.
func NewMemoryDispatcher() *MemoryDispatcher {
	return &MemoryDispatcher{}
}

// Dispatch records the event.
func (d *MemoryDispatcher) Dispatch(_ context.Context, event Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

// Events returns a copy of everything dispatched so far.
func (d *MemoryDispatcher) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Event, len(d.events))
	copy(out, d.events)
	return out
}
