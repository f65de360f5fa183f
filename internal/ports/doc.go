// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// application needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [EventChannel]: Named bidirectional events with the script host or renderer
//   - [DescriptorFetcher]: Resolves a scene id to its parcel data
//   - [Preloader]: Warms scene assets ahead of a start request
//   - [SceneFactory]: Builds the opaque scene object run by a worker
//   - [Transport]: The communication handle owned by a worker
//   - [TrackingQueue]: Fire-and-forget analytics sink
//   - [Dispatcher]: Global state sink for unload notifications
//   - [Logger]: Structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement these interfaces
// with concrete implementations (WebSocket, HTTP, file system, zerolog).
package ports
