package domain

// SceneState is the lifecycle state of one scene id.
type SceneState int

const (
	SceneUnloaded SceneState = iota
	ScenePrefetching
	SceneStarting
	SceneStarted
	SceneFailed
)

// String returns a human-readable representation of the state.
func (s SceneState) String() string {
	switch s {
	case SceneUnloaded:
		return "Unloaded"
	case ScenePrefetching:
		return "Prefetching"
	case SceneStarting:
		return "Starting"
	case SceneStarted:
		return "Started"
	case SceneFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// CanTransition reports whether a scene may move from one state to another.
//
// Valid transitions:
//   - Unloaded -> Prefetching, Starting
//   - Prefetching -> Starting, Unloaded
//   - Starting -> Started, Failed, Unloaded
//   - Started -> Unloaded
//   - Failed -> Unloaded
func CanTransition(from, to SceneState) bool {
	switch from {
	case SceneUnloaded:
		return to == ScenePrefetching || to == SceneStarting
	case ScenePrefetching:
		return to == SceneStarting || to == SceneUnloaded
	case SceneStarting:
		return to == SceneStarted || to == SceneFailed || to == SceneUnloaded
	case SceneStarted, SceneFailed:
		return to == SceneUnloaded
	}
	return false
}
