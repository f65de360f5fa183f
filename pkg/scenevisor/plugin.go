package scenevisor

import "context"

// Plugin extends an Orchestrator with optional functionality.
// Plugins are initialized in registration order on Start and shut down in
// reverse order on Stop.
type Plugin interface {
	// Name returns the plugin identifier used in logs.
	Name() string

	// Initialize starts the plugin. A returned error aborts Start.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown stops the plugin.
	Shutdown(ctx context.Context) error
}

// DescriptorCache lets plugins drop cached scene descriptors.
type DescriptorCache interface {
	Invalidate(sceneID string)
	Purge()
}

// PluginConfig is handed to plugins on Initialize.
type PluginConfig struct {
	ScenesDir   string
	ContentURL  string
	Descriptors DescriptorCache
	Logger      Logger
}
