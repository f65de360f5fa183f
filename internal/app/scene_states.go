package app

import (
	"sync"

	"github.com/bft-labs/scenevisor/internal/domain"
	"github.com/bft-labs/scenevisor/internal/ports"
)

// SceneEventEmitter is called when a scene changes lifecycle state.
type SceneEventEmitter interface {
	OnSceneStateChange(sceneID string, previous, current domain.SceneState, reason string)
}

// SceneStates tracks the lifecycle state of every known scene id.
// Scenes in SceneUnloaded are not stored.
type SceneStates struct {
	mu      sync.Mutex
	states  map[string]domain.SceneState
	logger  ports.Logger
	emitter SceneEventEmitter
}

// NewSceneStates creates an empty tracker. emitter may be nil.
func NewSceneStates(logger ports.Logger, emitter SceneEventEmitter) *SceneStates {
	return &SceneStates{
		states:  make(map[string]domain.SceneState),
		logger:  logger,
		emitter: emitter,
	}
}

// State returns the current state of sceneID.
func (s *SceneStates) State(sceneID string) domain.SceneState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[sceneID]
}

// TransitionTo moves sceneID to newState and returns the previous state.
// Returns domain.ErrInvalidTransition if the move is not allowed.
func (s *SceneStates) TransitionTo(sceneID string, newState domain.SceneState, reason string) (domain.SceneState, error) {
	ch := s.change(sceneID, newState, reason)
	if !ch.ok {
		return ch.from, domain.ErrInvalidTransition
	}
	s.publish(ch)
	return ch.from, nil
}

// TransitionIf moves sceneID to newState only while it is in expected.
func (s *SceneStates) TransitionIf(sceneID string, expected, newState domain.SceneState, reason string) bool {
	ch := s.changeIf(sceneID, expected, newState, reason)
	s.publish(ch)
	return ch.ok
}

// stateChange is an applied transition whose event has not been emitted yet.
type stateChange struct {
	sceneID  string
	from, to domain.SceneState
	reason   string
	ok       bool
}

// change applies a transition without emitting it. Callers holding their
// own locks publish the result after releasing them.
func (s *SceneStates) change(sceneID string, newState domain.SceneState, reason string) stateChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.states[sceneID]
	ch := stateChange{sceneID: sceneID, from: old, to: newState, reason: reason}
	if !domain.CanTransition(old, newState) {
		return ch
	}
	s.set(sceneID, newState)
	ch.ok = true
	return ch
}

func (s *SceneStates) changeIf(sceneID string, expected, newState domain.SceneState, reason string) stateChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := stateChange{sceneID: sceneID, from: s.states[sceneID], to: newState, reason: reason}
	if ch.from != expected || !domain.CanTransition(expected, newState) {
		return ch
	}
	s.set(sceneID, newState)
	ch.ok = true
	return ch
}

// publish emits an applied change. Must not be called with a lock held.
func (s *SceneStates) publish(ch stateChange) {
	if ch.ok {
		s.emit(ch.sceneID, ch.from, ch.to, ch.reason)
	}
}

// Snapshot returns a copy of all tracked states.
func (s *SceneStates) Snapshot() map[string]domain.SceneState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.SceneState, len(s.states))
	for id, st := range s.states {
		out[id] = st
	}
	return out
}

func (s *SceneStates) set(sceneID string, st domain.SceneState) {
	if st == domain.SceneUnloaded {
		delete(s.states, sceneID)
		return
	}
	s.states[sceneID] = st
}

func (s *SceneStates) emit(sceneID string, from, to domain.SceneState, reason string) {
	if s.emitter != nil {
		s.emitter.OnSceneStateChange(sceneID, from, to, reason)
	}
	s.logger.Info("scene state transition",
		ports.SceneID(sceneID),
		ports.String("from", from.String()),
		ports.String("to", to.String()),
		ports.String("reason", reason),
	)
}
