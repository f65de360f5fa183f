package scenevisor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/bft-labs/scenevisor/internal/adapters/fs"
	httpAdapter "github.com/bft-labs/scenevisor/internal/adapters/http"
	logAdapter "github.com/bft-labs/scenevisor/internal/adapters/log"
	"github.com/bft-labs/scenevisor/internal/app"
	"github.com/bft-labs/scenevisor/internal/domain"
	"github.com/bft-labs/scenevisor/internal/ports"
	"github.com/bft-labs/scenevisor/internal/registry"
)

// Orchestrator supervises the parcel scenes requested by a script host.
// Use New() to create an instance, then Start() to begin serving.
type Orchestrator struct {
	config    Config
	lifecycle *app.Lifecycle
	logger    ports.Logger
	emitter   *eventEmitterWrapper

	cache      *app.DescriptorCache
	controller *app.Controller
	relay      *app.Relay
	tracking   *app.TrackingQueue
	bridge     *app.Bridge

	plugins []Plugin

	mu sync.Mutex
}

// New creates an orchestrator bound to channel, the event channel of the
// script host. Inbound lifecycle events are handled as soon as New returns;
// Start runs the background loops and plugins.
// Returns an error if configuration is invalid.
func New(cfg Config, channel EventChannel, opts ...Option) (*Orchestrator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, fmt.Errorf("%w: nil event channel", ErrInvalidConfig)
	}

	o := options{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		logger:     logAdapter.NewNoopLogger(),
		factory:    ports.SceneFactoryFunc(app.NewParcelScene),
	}
	for _, opt := range opts {
		opt(&o)
	}

	descriptors, preloader, err := contentSource(cfg, o)
	if err != nil {
		return nil, err
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}
	cache := app.NewDescriptorCache(descriptors)

	controller := app.NewController(app.ControllerDeps{
		Registry:     registry.New(),
		Descriptors:  cache,
		Preloader:    preloader,
		Factory:      o.factory,
		Transports:   o.transports,
		Notifier:     channel,
		Dispatcher:   o.dispatcher,
		Emitter:      emitter,
		Callbacks:    o.sceneCallbacks,
		Logger:       o.logger,
		StartTimeout: cfg.StartTimeout,
	})

	sender := o.trackingSender
	switch {
	case sender != nil:
	case cfg.AnalyticsURL != "":
		sender = httpAdapter.NewTrackingSender(o.httpClient, cfg.AnalyticsURL, cfg.AnalyticsKey, hostname())
	default:
		sender = app.NewLogTrackingSender(o.logger)
	}
	tracking := app.NewTrackingQueue(app.TrackingConfig{
		BatchSize:     cfg.AnalyticsBatchSize,
		FlushInterval: cfg.AnalyticsFlushInterval,
	}, sender, o.logger)

	relay := app.NewRelay(channel, tracking, o.positionCallbacks, o.logger)
	bridge := app.NewBridge(controller, relay, o.logger, emitter.onHandlerError)
	bridge.Attach(channel)

	return &Orchestrator{
		config:     cfg,
		lifecycle:  app.NewLifecycle(o.logger, emitter),
		logger:     o.logger,
		emitter:    emitter,
		cache:      cache,
		controller: controller,
		relay:      relay,
		tracking:   tracking,
		bridge:     bridge,
		plugins:    o.plugins,
	}, nil
}

// contentSource picks the descriptor fetcher and preloader.
func contentSource(cfg Config, o options) (ports.DescriptorFetcher, ports.Preloader, error) {
	descriptors, preloader := o.descriptors, o.preloader

	switch {
	case cfg.ScenesDir != "":
		dir := fs.NewDescriptorDir(cfg.ScenesDir)
		if descriptors == nil {
			descriptors = dir
		}
		if preloader == nil {
			preloader = dir
		}
	case cfg.ContentURL != "":
		if descriptors == nil {
			descriptors = httpAdapter.NewDescriptorFetcher(o.httpClient, cfg.ContentURL)
		}
		if preloader == nil {
			preloader = httpAdapter.NewPreloader(o.httpClient, cfg.ContentURL, o.logger)
		}
	}

	if descriptors == nil {
		return nil, nil, fmt.Errorf("%w: ContentURL, ScenesDir or a descriptor fetcher is required", ErrInvalidConfig)
	}
	if preloader == nil {
		preloader = nopPreloader{}
	}
	return descriptors, preloader, nil
}

// Start launches the analytics loop, the position relay and the plugins.
// Returns ErrAlreadyRunning if already running.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.lifecycle.CanStart() {
		return ErrAlreadyRunning
	}
	if err := o.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.lifecycle.SetCancel(cancel)

	pluginCfg := PluginConfig{
		ScenesDir:   o.config.ScenesDir,
		ContentURL:  o.config.ContentURL,
		Descriptors: o.cache,
		Logger:      o.logger,
	}
	for i, p := range o.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			o.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			o.shutdownPlugins(o.plugins[:i])
			cancel()
			_ = o.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		o.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	o.tracking.Start(runCtx)
	o.relay.Attach()
	o.lifecycle.Go(func() {
		<-runCtx.Done()
		o.tracking.Stop()
	})

	return o.lifecycle.TransitionTo(app.StateRunning, "started")
}

// Stop detaches the relay, unloads every scene, flushes analytics and
// shuts plugins down. Returns ErrShutdownTimeout if background loops do
// not finish in time.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	if !o.lifecycle.CanStop() {
		o.mu.Unlock()
		return ErrNotRunning
	}
	if err := o.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		o.mu.Unlock()
		return err
	}
	o.lifecycle.Cancel()
	o.mu.Unlock()

	o.relay.Detach()
	for _, id := range o.controller.Registry().SceneIDs() {
		_ = o.controller.ForceUnload(context.Background(), id)
	}

	err := o.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
	o.shutdownPlugins(o.plugins)

	if err != nil {
		_ = o.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = o.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// shutdownPlugins stops plugins in reverse order.
func (o *Orchestrator) shutdownPlugins(plugins []Plugin) {
	ctx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			o.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
		} else {
			o.logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
		}
	}
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (o *Orchestrator) Status() State {
	return State(o.lifecycle.State())
}

// ReportStatus publishes a status reported by a running scene. The first
// status of a starting scene completes its start.
func (o *Orchestrator) ReportStatus(status SceneStatus) {
	o.controller.ReportStatus(status)
}

// Teleport relays a teleport destination to the script host.
func (o *Orchestrator) Teleport(pos Vector2) {
	o.relay.Teleports().Notify(pos)
}

// ParcelChanged relays a parcel change to the script host unless it is
// immediate.
func (o *Orchestrator) ParcelChanged(change ParcelChange) {
	o.relay.Parcels().Notify(change)
}

// OnRenderState subscribes fn to render state broadcasts and returns a
// function removing the subscription.
func (o *Orchestrator) OnRenderState(fn func(enabled bool)) (unsubscribe func()) {
	token := o.relay.RenderState().Add(fn)
	return func() { o.relay.RenderState().Remove(token) }
}

// LoadPersistent registers a scene that ordinary unload requests never
// remove, such as a permanent UI scene.
func (o *Orchestrator) LoadPersistent(scene SceneObject, transport Transport) {
	o.controller.LoadPersistent(scene, transport)
}

// ForceUnload removes a scene even when it is persistent.
func (o *Orchestrator) ForceUnload(ctx context.Context, sceneID string) error {
	return o.controller.ForceUnload(ctx, sceneID)
}

// Scenes returns the ids of all registered scenes, sorted.
func (o *Orchestrator) Scenes() []string {
	return o.controller.Registry().SceneIDs()
}

// SceneState returns the lifecycle state of sceneID.
func (o *Orchestrator) SceneState(sceneID string) SceneState {
	return o.controller.States().State(sceneID)
}

// Events returns the inbound event names handled on the channel.
func (o *Orchestrator) Events() []string {
	return o.bridge.Events()
}

// OnStatus subscribes fn to every reported scene status and returns a
// function removing the subscription.
func (o *Orchestrator) OnStatus(fn func(SceneStatus)) (unsubscribe func()) {
	token := o.controller.Statuses().Add(fn)
	return func() { o.controller.Statuses().Remove(token) }
}

type health struct {
	Status string `json:"status"`
	Scenes int    `json:"scenes"`
}

// HealthHandler serves the orchestrator state and registered scene count.
// It answers 503 unless the orchestrator is running.
func (o *Orchestrator) HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := o.Status()
		w.Header().Set("Content-Type", "application/json")
		if state != StateRunning {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(health{
			Status: state.String(),
			Scenes: o.controller.Registry().Len(),
		})
	})
}

type nopPreloader struct{}

func (nopPreloader) Preload(context.Context, domain.Descriptor) error { return nil }

// hostname returns the current hostname.
func hostname() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}
