package scenevisor

import (
	"github.com/bft-labs/scenevisor/internal/app"
	"github.com/bft-labs/scenevisor/internal/domain"
	"github.com/bft-labs/scenevisor/internal/ports"
)

// Re-exported types. They are identical to the internal ones so values
// flow between the orchestrator and its adapters without conversion.
type (
	// Logger is the interface for structured logging.
	Logger = ports.Logger

	// LogField represents a structured log field.
	LogField = ports.Field

	// HTTPClient is the interface for making HTTP requests.
	// *http.Client satisfies this interface.
	HTTPClient = ports.HTTPClient

	// EventChannel is the named-event channel to the script host.
	EventChannel = ports.EventChannel

	// HandlerFunc handles one inbound named event.
	HandlerFunc = ports.HandlerFunc

	Descriptor    = domain.Descriptor
	Vector2       = domain.Vector2
	Mapping       = domain.Mapping
	SceneStatus   = domain.SceneStatus
	SpawnPoint    = domain.SpawnPoint
	ParcelChange  = domain.ParcelChange
	Action        = domain.Action
	SceneState    = domain.SceneState
	SceneObject   = ports.SceneObject
	Transport     = ports.Transport
	TrackingEvent = domain.TrackingEvent

	DescriptorFetcher = ports.DescriptorFetcher
	Preloader         = ports.Preloader
	SceneFactory      = ports.SceneFactory
	SceneFactoryFunc  = ports.SceneFactoryFunc
	TransportFactory  = ports.TransportFactory
	Dispatcher        = ports.Dispatcher
	TrackingSender    = ports.TrackingSender

	// SceneCallbacks notify the renderer of loaded and unloaded scenes.
	SceneCallbacks = app.SceneCallbacks

	// PositionCallbacks notify the renderer of settled and unsettled positions.
	PositionCallbacks = app.PositionCallbacks
)

// NewParcelScene builds the default scene object for desc.
func NewParcelScene(desc Descriptor) SceneObject {
	return app.NewParcelScene(desc)
}

// Per-scene lifecycle states.
const (
	SceneUnloaded    = domain.SceneUnloaded
	ScenePrefetching = domain.ScenePrefetching
	SceneStarting    = domain.SceneStarting
	SceneStarted     = domain.SceneStarted
	SceneFailed      = domain.SceneFailed
)

// StatusFailed is the status sent for a scene that did not start in time.
const StatusFailed = domain.StatusFailed
