package alerting

import (
	"sync"
	"time"

	"github.com/platformbuilds/alert-engine/internal/models"
	"github.com/platformbuilds/alert-engine/pkg/logger"
)

// Lifecycle event names published by the engine.
const (
	EventAlertCreated      = "alertCreated"
	EventAlertProcessed    = "alertProcessed"
	EventAlertAcknowledged = "alertAcknowledged"
	EventAlertResolved     = "alertResolved"
	EventAlertEscalated    = "alertEscalated"
)

// Event is one lifecycle notification. Alert is always a copy; Outcome is
// set on alertProcessed only.
type Event struct {
	Name    string                    `json:"name"`
	Time    time.Time                 `json:"time"`
	Alert   *models.Alert             `json:"alert,omitempty"`
	Outcome *models.ProcessingOutcome `json:"outcome,omitempty"`
}

// Handler consumes one event. Handlers run synchronously in subscription
// order; a panicking handler is recovered and logged, never fatal.
type Handler func(Event)

// Bus is an in-process observer registry for engine lifecycle events.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	all      []Handler
	logger   logger.Logger
}

func NewBus(logger logger.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for one event name.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// SubscribeAll registers a handler for every event.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish delivers the event to all matching handlers. Callers must not
// hold store locks; handlers may call back into the engine.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	matched := make([]Handler, 0, len(b.handlers[evt.Name])+len(b.all))
	matched = append(matched, b.handlers[evt.Name]...)
	matched = append(matched, b.all...)
	b.mu.RUnlock()

	for _, h := range matched {
		b.invoke(h, evt)
	}
}

func (b *Bus) invoke(h Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event handler panic", "event", evt.Name, "panic", r)
		}
	}()
	h(evt)
}
