// Package scenevisor provides an embeddable orchestrator for parcel scenes.
//
// A script host decides which parcel scenes should be prefetched, started or
// unloaded and asks for it over a named-event channel. The orchestrator
// fetches the scene descriptors, keeps one worker per running scene, waits a
// bounded time for the first status of a started scene and relays player
// position and analytics between the renderer and the script host.
//
// # Basic Usage
//
//	cfg := scenevisor.Config{
//	    ContentURL: "https://content.example.org",
//	}
//
//	orch, err := scenevisor.New(cfg, channel)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := orch.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// ... run until shutdown signal ...
//
//	if err := orch.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// The channel is any [EventChannel]. The scenevisor command serves one over
// WebSocket.
//
// # Configuration
//
// Set exactly one of ContentURL or ScenesDir, or inject a descriptor source
// with [WithDescriptorFetcher]. All other fields have defaults set via
// [Config.SetDefaults].
//
// # Scene Lifecycle
//
// Inbound Scene.shouldPrefetch, Scene.shouldStart and Scene.shouldUnload
// requests are handled as soon as New returns. A started scene that reports
// no status within StartTimeout gets a single "failed" status; its worker is
// kept until the script host unloads it. Scenes loaded with
// [Orchestrator.LoadPersistent] ignore ordinary unload requests.
//
// # Renderer Side
//
// Statuses reported by scenes enter through [Orchestrator.ReportStatus];
// teleports and parcel changes through [Orchestrator.Teleport] and
// [Orchestrator.ParcelChanged]. Renderer notifications are delivered through
// [SceneCallbacks], [PositionCallbacks] and [Orchestrator.OnRenderState].
//
// # Event Handling
//
// Implement [EventHandler] and pass it via [WithEventHandler] to observe
// service and per-scene state changes and failing event handlers.
//
// # Plugins
//
//	import "github.com/bft-labs/scenevisor/plugins/descriptorwatcher"
//
//	orch, err := scenevisor.New(cfg, channel,
//	    descriptorwatcher.WithDescriptorWatcher(descriptorwatcher.DefaultConfig()),
//	)
//
// # Version
//
// Current version: 0.1.0
package scenevisor
