package scenevisor

// Version information for the scenevisor module.
const (
	// Version is the current version of the scenevisor module.
	Version = "0.1.0"

	// MinCompatibleVersion is the minimum version that is compatible with this version.
	MinCompatibleVersion = "0.1.0"
)
