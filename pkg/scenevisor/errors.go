package scenevisor

import "github.com/bft-labs/scenevisor/internal/domain"

// Errors returned by the orchestrator. Use errors.Is to match them.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrUpstream        = domain.ErrUpstream
	ErrSceneNotFound   = domain.ErrSceneNotFound
	ErrNoPeers         = domain.ErrNoPeers
	ErrHandlerPanic    = domain.ErrHandlerPanic
)
