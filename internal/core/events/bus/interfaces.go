package bus

import "time"

// EventBus is a thread-safe, in-process pub/sub bus.
//
// Handlers subscribe by Event.Type() and are called synchronously in the
// publisher's goroutine. Handler errors are combined and returned from Publish.
// Metrics are collected only while at least one observer is registered.
type EventBus interface {
	// Publish delivers the event to every active subscriber of event.Type().
	Publish(event Event) error
	// PublishAsync publishes from a new goroutine. The returned channel receives the
	// combined handler error (or nil) and is then closed.
	PublishAsync(event Event) <-chan error

	// Subscribe registers handler for eventType.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels sub. A nil sub is ignored.
	Unsubscribe(sub Subscription) error

	AddObserver(obs EventBusObserver)
	RemoveObserver(obs EventBusObserver)
	// GetMetrics returns a snapshot of the counters.
	GetMetrics() EventBusMetrics
}

// Event is an immutable message carried by the bus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

// EventHandler is called once per delivered event.
type EventHandler func(event Event) error

// Subscription is a handler bound to one event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel removes the handler. Multiple calls are safe.
	Cancel() error
}

// EventBusObserver is notified around every delivery. Observers should return quickly.
type EventBusObserver interface {
	OnPublish(eventType string, event Event)
	OnDelivered(eventType string, handlers int, err error, took time.Duration)
}

// EventBusMetrics are cumulative counters, updated only while observed.
type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
