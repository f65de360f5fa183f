package descriptorwatcher

import "github.com/bft-labs/scenevisor/pkg/scenevisor"

// WithDescriptorWatcher returns an Option that enables scenes directory
// watching. It has no effect unless Config.ScenesDir is set.
//
// Usage:
//
//	orch, err := scenevisor.New(cfg, channel,
//	    descriptorwatcher.WithDescriptorWatcher(descriptorwatcher.Config{
//	        DebounceDelay: 250 * time.Millisecond,
//	    }),
//	)
func WithDescriptorWatcher(cfg Config) scenevisor.Option {
	return scenevisor.WithPlugin(New(cfg))
}

// WithDefaultDescriptorWatcher enables watching with a 100ms debounce.
func WithDefaultDescriptorWatcher() scenevisor.Option {
	return WithDescriptorWatcher(DefaultConfig())
}
