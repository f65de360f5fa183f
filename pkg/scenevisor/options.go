package scenevisor

import (
	"github.com/bft-labs/scenevisor/internal/ports"
)

// Option configures optional behavior of an Orchestrator.
type Option func(*options)

// options holds the optional configuration for an Orchestrator.
type options struct {
	httpClient        ports.HTTPClient
	logger            ports.Logger
	eventHandler      EventHandler
	plugins           []Plugin
	descriptors       ports.DescriptorFetcher
	preloader         ports.Preloader
	factory           ports.SceneFactory
	transports        ports.TransportFactory
	dispatcher        ports.Dispatcher
	trackingSender    ports.TrackingSender
	sceneCallbacks    SceneCallbacks
	positionCallbacks PositionCallbacks
}

// WithHTTPClient sets a custom HTTP client for content and analytics requests.
// If not provided, a default client with the configured timeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for orchestrator events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when the orchestrator starts.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithDescriptorFetcher replaces the configured descriptor source.
func WithDescriptorFetcher(f DescriptorFetcher) Option {
	return func(o *options) {
		o.descriptors = f
	}
}

// WithPreloader replaces the configured preloader.
func WithPreloader(p Preloader) Option {
	return func(o *options) {
		o.preloader = p
	}
}

// WithSceneFactory sets the factory building scene objects.
func WithSceneFactory(f SceneFactory) Option {
	return func(o *options) {
		o.factory = f
	}
}

// WithTransports sets the factory opening a transport per worker.
func WithTransports(f TransportFactory) Option {
	return func(o *options) {
		o.transports = f
	}
}

// WithDispatcher sets the sink of global unload notifications.
func WithDispatcher(d Dispatcher) Option {
	return func(o *options) {
		o.dispatcher = d
	}
}

// WithTrackingSender sets where analytics batches go, overriding AnalyticsURL.
func WithTrackingSender(s TrackingSender) Option {
	return func(o *options) {
		o.trackingSender = s
	}
}

// WithSceneCallbacks sets the renderer load and unload callbacks.
func WithSceneCallbacks(cb SceneCallbacks) Option {
	return func(o *options) {
		o.sceneCallbacks = cb
	}
}

// WithPositionCallbacks sets the renderer position callbacks.
func WithPositionCallbacks(cb PositionCallbacks) Option {
	return func(o *options) {
		o.positionCallbacks = cb
	}
}
