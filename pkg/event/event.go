// pkg/event/event.go
package event

import (
	"sync"
)

// Type represents the type of event
type Type string

// Common event types
const (
	AircraftSpawned Type = "aircraft_spawned"
	AircraftRemoved Type = "aircraft_removed"
	AircraftLanded  Type = "aircraft_landed"
	AircraftTookOff Type = "aircraft_took_off"
	StallWarning    Type = "stall_warning"
	PlayerJoined    Type = "player_joined"
	PlayerLeft      Type = "player_left"
	SimStarted      Type = "sim_started"
	SimStopped      Type = "sim_stopped"
)

// Event is what flows through the bus. Concrete events embed
// BaseEvent and add their own payload fields.
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent carries the type tag and the publisher.
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

func (e *BaseEvent) GetType() Type          { return e.EventType }
func (e *BaseEvent) GetSource() interface{} { return e.Source }

// Handler receives published events. Handlers run synchronously on the
// publisher's goroutine.
type Handler func(Event)

// Subscription represents a registered handler. Cancel removes the
// handler from the bus.
type Subscription struct {
	ID     uint64
	Cancel func()
}

type registeredHandler struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching
type Bus struct {
	handlers map[Type][]registeredHandler
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]registeredHandler),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type and returns a
// subscription whose Cancel function removes the handler.
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], registeredHandler{id: id, handler: handler})

	return &Subscription{
		ID:     id,
		Cancel: func() { b.unsubscribe(eventType, id) },
	}
}

// unsubscribe removes the handler with the given id for an event type
func (b *Bus) unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers, ok := b.handlers[eventType]
	if !ok {
		return
	}

	for i, h := range handlers {
		if h.id == id {
			b.handlers[eventType] = append(handlers[:i], handlers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribed handlers
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	registered := b.handlers[event.GetType()]
	handlers := make([]Handler, len(registered))
	for i, h := range registered {
		handlers[i] = h.handler
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// Specific event implementations

// AircraftEvent contains information about aircraft lifecycle events
type AircraftEvent struct {
	BaseEvent
	AircraftID uint64
	PilotID    uint64
}

// NewAircraftEvent creates a new aircraft event
func NewAircraftEvent(eventType Type, source interface{}, aircraftID, pilotID uint64) *AircraftEvent {
	return &AircraftEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		AircraftID: aircraftID,
		PilotID:    pilotID,
	}
}

// StallEvent is published while an airborne aircraft is stalled
type StallEvent struct {
	BaseEvent
	AircraftID uint64
	Severity   float64
	Altitude   float64
}

// NewStallEvent creates a new stall warning event. Severity is in (0, 1]
// where 1 is a fully developed stall.
func NewStallEvent(source interface{}, aircraftID uint64, severity, altitude float64) *StallEvent {
	return &StallEvent{
		BaseEvent: BaseEvent{
			EventType: StallWarning,
			Source:    source,
		},
		AircraftID: aircraftID,
		Severity:   severity,
		Altitude:   altitude,
	}
}

// PlayerEvent contains information about player join and leave events
type PlayerEvent struct {
	BaseEvent
	PlayerID uint64
	Name     string
}

// NewPlayerEvent creates a new player event
func NewPlayerEvent(eventType Type, source interface{}, playerID uint64, name string) *PlayerEvent {
	return &PlayerEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		PlayerID: playerID,
		Name:     name,
	}
}
