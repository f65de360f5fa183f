package ports

import (
	"context"
	"encoding/json"
)

// HandlerFunc handles one inbound named event. The payload is the raw JSON
// object sent by the peer.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// Notifier sends named events to the remote side.
type Notifier interface {
	// Notify encodes payload as JSON and delivers it under name.
	Notify(ctx context.Context, name string, payload any) error
}

// EventChannel is a bidirectional named-event channel.
// Implementations invoke handlers concurrently, one goroutine per event,
// so a slow handler never blocks delivery of other events.
type EventChannel interface {
	Notifier

	// On registers the handler for name, replacing any previous one.
	On(name string, handler HandlerFunc)
}
