package scenevisor

import (
	"github.com/bft-labs/scenevisor/internal/app"
	"github.com/bft-labs/scenevisor/internal/domain"
)

// State represents the lifecycle state of an Orchestrator.
type State int

const (
	// StateStopped indicates the orchestrator is not running.
	StateStopped State = iota
	// StateStarting indicates plugins and background loops are starting.
	StateStarting
	// StateRunning indicates the orchestrator is serving lifecycle requests.
	StateRunning
	// StateStopping indicates a graceful shutdown is in progress.
	StateStopping
	// StateCrashed indicates startup or shutdown failed.
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	return app.State(s).String()
}

// StateChangeEvent describes an orchestrator state transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// SceneStateChangeEvent describes a per-scene lifecycle transition.
type SceneStateChangeEvent struct {
	SceneID  string
	Previous SceneState
	Current  SceneState
	Reason   string
}

// HandlerErrorEvent describes a failed inbound event handler.
type HandlerErrorEvent struct {
	Event string
	Error error
}

// EventHandler receives orchestrator notifications. Methods are called
// synchronously and should return quickly.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnSceneStateChange(event SceneStateChangeEvent)
	OnHandlerError(event HandlerErrorEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to
// override only the methods you need.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)           {}
func (BaseEventHandler) OnSceneStateChange(SceneStateChangeEvent) {}
func (BaseEventHandler) OnHandlerError(HandlerErrorEvent)         {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: State(previous),
		Current:  State(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnSceneStateChange(sceneID string, previous, current domain.SceneState, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnSceneStateChange(SceneStateChangeEvent{
		SceneID:  sceneID,
		Previous: previous,
		Current:  current,
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) onHandlerError(event string, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnHandlerError(HandlerErrorEvent{Event: event, Error: err})
}
