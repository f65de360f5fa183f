package ports

import (
	"context"
	"encoding/json"

	"github.com/bft-labs/scenevisor/internal/domain"
)

// DescriptorFetcher resolves a scene id to its parcel data.
// Implementations return an error wrapping domain.ErrSceneNotFound for
// unknown ids.
type DescriptorFetcher interface {
	Fetch(ctx context.Context, sceneID string) (domain.Descriptor, error)
}

// Preloader warms the assets of a scene before it is started.
type Preloader interface {
	Preload(ctx context.Context, desc domain.Descriptor) error
}

// SceneObject is the opaque content object executed by a worker.
type SceneObject interface {
	// Descriptor returns the parcel data the scene was built from.
	Descriptor() domain.Descriptor

	// SetFPSThrottling marks the scene for a throttled frame budget.
	SetFPSThrottling(enabled bool)
}

// SceneFactory builds scene objects from descriptors.
type SceneFactory interface {
	New(desc domain.Descriptor) SceneObject
}

// SceneFactoryFunc adapts a function to SceneFactory.
type SceneFactoryFunc func(desc domain.Descriptor) SceneObject

// New calls f(desc).
func (f SceneFactoryFunc) New(desc domain.Descriptor) SceneObject {
	return f(desc)
}

// Transport is the communication handle owned by a scene worker.
// Close is called exactly once when the worker is disposed.
type Transport interface {
	Close() error
}

// TransportFactory opens the transport for a new worker.
type TransportFactory interface {
	Open(desc domain.Descriptor) Transport
}

// TrackingQueue accepts analytics events without acknowledgement.
type TrackingQueue interface {
	Enqueue(name string, data json.RawMessage)
}

// Dispatcher receives global state notifications.
type Dispatcher interface {
	Dispatch(action domain.Action)
}

// TrackingSender delivers a batch of analytics events upstream.
type TrackingSender interface {
	SendTracking(ctx context.Context, events []domain.TrackingEvent) error
}
