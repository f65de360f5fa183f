package domain

import "errors"

// Domain errors represent error conditions in the scenevisor domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("scenevisor: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("scenevisor: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("scenevisor: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("scenevisor: invalid configuration")

	// ErrUpstream wraps failures of the descriptor source or the preloader.
	// Operations failing with it are never retried by the controller.
	ErrUpstream = errors.New("scenevisor: upstream failure")

	// ErrSceneNotFound is returned by descriptor sources for unknown scene ids.
	ErrSceneNotFound = errors.New("scenevisor: scene not found")

	// ErrInvalidTransition is returned when a scene state change is not allowed.
	ErrInvalidTransition = errors.New("scenevisor: invalid scene state transition")

	// ErrNoPeers is returned when a notification has no connected receiver.
	ErrNoPeers = errors.New("scenevisor: no connected peers")

	// ErrHandlerPanic is reported when an event handler panics.
	ErrHandlerPanic = errors.New("scenevisor: event handler panicked")

	// ErrUnauthorized is returned when a channel peer fails authentication.
	ErrUnauthorized = errors.New("scenevisor: unauthorized")
)
