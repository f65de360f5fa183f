package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/scenevisor/internal/domain"
	"github.com/bft-labs/scenevisor/internal/observable"
	"github.com/bft-labs/scenevisor/internal/ports"
	"github.com/bft-labs/scenevisor/internal/registry"
	"github.com/bft-labs/scenevisor/internal/worker"
)

// DefaultStartTimeout bounds the time between a start request and the first
// status reported by the scene.
const DefaultStartTimeout = 90 * time.Second

// SceneCallbacks are optional renderer notifications. Nil fields are skipped.
type SceneCallbacks struct {
	OnLoadParcelScenes   func(scenes []domain.Descriptor)
	OnUnloadParcelScenes func(scenes []domain.Descriptor)
}

// ControllerDeps holds the collaborators of a Controller.
type ControllerDeps struct {
	Registry    *registry.Registry
	Descriptors ports.DescriptorFetcher
	Preloader   ports.Preloader
	Factory     ports.SceneFactory
	Transports  ports.TransportFactory // optional
	Notifier    ports.Notifier
	Dispatcher  ports.Dispatcher // optional
	Emitter     SceneEventEmitter // optional
	Callbacks   SceneCallbacks
	Logger      ports.Logger

	StartTimeout time.Duration
}

// Controller drives the per-scene lifecycle: prefetch, start with a bounded
// wait for the first status, and unload.
type Controller struct {
	registry     *registry.Registry
	descriptors  ports.DescriptorFetcher
	preloader    ports.Preloader
	factory      ports.SceneFactory
	transports   ports.TransportFactory
	notifier     ports.Notifier
	dispatcher   ports.Dispatcher
	callbacks    SceneCallbacks
	logger       ports.Logger
	startTimeout time.Duration

	states   *SceneStates
	statuses *observable.Observable[domain.SceneStatus]

	mu        sync.Mutex
	observers map[string]*lifecycleObserver
}

// NewController creates a controller. Registry, Descriptors, Preloader,
// Factory, Notifier and Logger are required.
func NewController(deps ControllerDeps) *Controller {
	timeout := deps.StartTimeout
	if timeout <= 0 {
		timeout = DefaultStartTimeout
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = NewLogDispatcher(deps.Logger)
	}
	return &Controller{
		registry:     deps.Registry,
		descriptors:  deps.Descriptors,
		preloader:    deps.Preloader,
		factory:      deps.Factory,
		transports:   deps.Transports,
		notifier:     deps.Notifier,
		dispatcher:   dispatcher,
		callbacks:    deps.Callbacks,
		logger:       deps.Logger,
		startTimeout: timeout,
		states:       NewSceneStates(deps.Logger, deps.Emitter),
		statuses:     observable.New[domain.SceneStatus](),
		observers:    make(map[string]*lifecycleObserver),
	}
}

// Registry returns the worker registry.
func (c *Controller) Registry() *registry.Registry {
	return c.registry
}

// States returns the per-scene state tracker.
func (c *Controller) States() *SceneStates {
	return c.states
}

// Statuses returns the stream scene statuses are published on.
func (c *Controller) Statuses() *observable.Observable[domain.SceneStatus] {
	return c.statuses
}

// ReportStatus publishes a status reported by a running scene.
func (c *Controller) ReportStatus(status domain.SceneStatus) {
	c.statuses.Notify(status)
}

// Prefetch fetches and preloads a scene, then acknowledges with
// Scene.prefetchDone. No worker is created. A prefetch for a scene that is
// already prefetching is absorbed and gets no Scene.prefetchDone of its own;
// one for a scene that already has a worker is acknowledged without
// preloading again.
func (c *Controller) Prefetch(ctx context.Context, sceneID string) error {
	prev, err := c.states.TransitionTo(sceneID, domain.ScenePrefetching, "prefetch requested")
	if err != nil {
		if prev == domain.ScenePrefetching {
			c.logger.Debug("prefetch absorbed, already prefetching", ports.SceneID(sceneID))
			return nil
		}
		c.logger.Debug("prefetch acknowledged, scene already loaded",
			ports.SceneID(sceneID), ports.String("state", prev.String()))
		return c.ackPrefetch(ctx, sceneID)
	}

	desc, err := c.descriptors.Fetch(ctx, sceneID)
	if err != nil {
		c.states.TransitionIf(sceneID, domain.ScenePrefetching, domain.SceneUnloaded, "descriptor fetch failed")
		return upstream(sceneID, "fetch descriptor", err)
	}
	if err := c.preloader.Preload(ctx, desc); err != nil {
		c.states.TransitionIf(sceneID, domain.ScenePrefetching, domain.SceneUnloaded, "preload failed")
		return upstream(sceneID, "preload", err)
	}

	return c.ackPrefetch(ctx, sceneID)
}

func (c *Controller) ackPrefetch(ctx context.Context, sceneID string) error {
	if err := c.notifier.Notify(ctx, domain.EventPrefetchDone, domain.SceneRequest{SceneID: sceneID}); err != nil {
		return fmt.Errorf("notify %s: %w", domain.EventPrefetchDone, err)
	}
	return nil
}

// Start creates and registers the worker for a scene, notifies the renderer
// and waits up to the start timeout for the first status of the scene.
// Starting a scene that already has a worker is absorbed: no worker is
// built and no timer or observer is added.
func (c *Controller) Start(ctx context.Context, sceneID string) error {
	if c.registry.Get(sceneID) != nil {
		c.logger.Debug("start absorbed, worker already registered", ports.SceneID(sceneID))
		return nil
	}

	desc, err := c.descriptors.Fetch(ctx, sceneID)
	if err != nil {
		return upstream(sceneID, "fetch descriptor", err)
	}
	desc.SceneID = sceneID

	w, created := c.registry.InsertIfAbsent(sceneID, func() *worker.Worker {
		return c.newWorker(desc)
	})
	if !created {
		c.logger.Debug("start absorbed, worker registered concurrently", ports.SceneID(sceneID))
		return nil
	}

	obs, ok := c.watch(w)
	if !ok {
		c.logger.Debug("start dropped, worker unloaded before it was armed", ports.SceneID(sceneID))
		return nil
	}

	// Subscribe before the renderer hears about the scene so a fast status
	// cannot be missed.
	obs.arm(c.statuses, c.startTimeout,
		func(status domain.SceneStatus) { c.onStatus(obs, status) },
		func() { c.onTimeout(obs) },
	)

	if c.callbacks.OnLoadParcelScenes != nil {
		c.callbacks.OnLoadParcelScenes([]domain.Descriptor{w.Descriptor()})
	}
	return nil
}

func (c *Controller) newWorker(desc domain.Descriptor) *worker.Worker {
	scene := c.factory.New(desc)
	scene.SetFPSThrottling(true)

	var transport ports.Transport
	if c.transports != nil {
		transport = c.transports.Open(scene.Descriptor())
	}
	return worker.New(scene, transport, false)
}

// watch moves a freshly registered worker to Starting and records its
// lifecycle observer. It reports false if w was removed in the meantime.
func (c *Controller) watch(w *worker.Worker) (*lifecycleObserver, bool) {
	sceneID := w.SceneID()
	obs := &lifecycleObserver{sceneID: sceneID, worker: w}

	c.mu.Lock()
	if c.registry.Get(sceneID) != w {
		c.mu.Unlock()
		return nil, false
	}
	prev := c.observers[sceneID]
	c.observers[sceneID] = obs
	ch := c.states.change(sceneID, domain.SceneStarting, "start requested")
	c.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
	if !ch.ok {
		c.logger.Debug("unexpected scene state on start",
			ports.SceneID(sceneID), ports.String("state", ch.from.String()))
	}
	c.states.publish(ch)
	return obs, true
}

func (c *Controller) onStatus(obs *lifecycleObserver, status domain.SceneStatus) {
	if status.SceneID != obs.sceneID || !obs.resolve() {
		return
	}
	obs.release()

	c.mu.Lock()
	c.forgetLocked(obs)
	current := c.registry.Get(obs.sceneID) == obs.worker
	var ch stateChange
	if current {
		obs.worker.MarkStarted()
		ch = c.states.changeIf(obs.sceneID, domain.SceneStarting, domain.SceneStarted, "status "+status.Status)
	}
	c.mu.Unlock()
	if !current {
		return
	}

	c.states.publish(ch)
	c.notify(domain.EventSceneStatus, status)
}

func (c *Controller) onTimeout(obs *lifecycleObserver) {
	if !obs.resolve() {
		return
	}
	obs.release()

	w := obs.worker
	c.mu.Lock()
	c.forgetLocked(obs)
	stuck := c.registry.Get(obs.sceneID) == w && !w.Started()
	var ch stateChange
	if stuck {
		w.MarkFailed()
		ch = c.states.changeIf(obs.sceneID, domain.SceneStarting, domain.SceneFailed, "start timeout")
	}
	c.mu.Unlock()
	if !stuck {
		return
	}

	c.logger.Warn("scene did not start in time",
		ports.SceneID(obs.sceneID),
		ports.Duration("timeout", c.startTimeout),
	)
	c.states.publish(ch)
	c.notify(domain.EventSceneStatus, domain.SceneStatus{SceneID: obs.sceneID, Status: domain.StatusFailed})
}

// forgetLocked drops obs from the pending set if it is still the current
// one. c.mu must be held.
func (c *Controller) forgetLocked(obs *lifecycleObserver) {
	if c.observers[obs.sceneID] == obs {
		delete(c.observers, obs.sceneID)
	}
}

// PendingStarts returns the number of scenes still waiting for a status.
func (c *Controller) PendingStarts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.observers)
}

// Unload disposes the worker of a scene. Absent scenes and persistent
// workers are left alone and produce no notifications.
func (c *Controller) Unload(ctx context.Context, sceneID string) error {
	w := c.registry.Get(sceneID)
	if w == nil {
		c.states.TransitionIf(sceneID, domain.ScenePrefetching, domain.SceneUnloaded, "unload requested")
		c.logger.Debug("unload ignored, no worker", ports.SceneID(sceneID))
		return nil
	}
	if w.Persistent() {
		c.logger.Debug("unload ignored, persistent worker", ports.SceneID(sceneID))
		return nil
	}
	c.stop(w, "unload requested")
	return nil
}

// ForceUnload disposes the worker of a scene even when it is persistent.
func (c *Controller) ForceUnload(ctx context.Context, sceneID string) error {
	w := c.registry.Get(sceneID)
	if w == nil {
		return nil
	}
	c.stop(w, "forced unload")
	return nil
}

// LoadPersistent registers a persistent, already running scene such as a
// permanent UI scene. It returns the registered worker, which is the
// existing one if the id is taken.
func (c *Controller) LoadPersistent(scene ports.SceneObject, transport ports.Transport) *worker.Worker {
	sceneID := scene.Descriptor().SceneID
	w, created := c.registry.InsertIfAbsent(sceneID, func() *worker.Worker {
		return worker.New(scene, transport, true)
	})
	if !created {
		return w
	}
	w.MarkStarted()
	for _, st := range []domain.SceneState{domain.SceneStarting, domain.SceneStarted} {
		if _, err := c.states.TransitionTo(sceneID, st, "persistent scene loaded"); err != nil {
			c.logger.Debug("unexpected scene state on persistent load",
				ports.SceneID(sceneID), ports.String("to", st.String()), ports.Err(err))
		}
	}
	return w
}

// stop disposes w and removes it from the registry. Only the caller that
// removes the worker sends the unload notifications.
func (c *Controller) stop(w *worker.Worker, reason string) {
	sceneID := w.SceneID()

	// The observer and state are settled before the registry slot is freed,
	// so a start racing this stop only ever sees its own worker.
	c.mu.Lock()
	owned := c.registry.Get(sceneID) == w && !w.Disposed()
	var obs *lifecycleObserver
	var ch stateChange
	if owned {
		if err := w.Dispose(); err != nil {
			c.logger.Warn("worker transport close failed", ports.SceneID(sceneID), ports.Err(err))
		}
		if o := c.observers[sceneID]; o != nil && o.worker == w {
			obs = o
			delete(c.observers, sceneID)
		}
		ch = c.states.change(sceneID, domain.SceneUnloaded, reason)
		c.registry.Remove(sceneID)
	}
	c.mu.Unlock()
	if !owned {
		return
	}

	if obs != nil && obs.cancel() {
		c.logger.Debug("start observer cancelled", ports.SceneID(sceneID))
	}
	c.states.publish(ch)

	c.dispatcher.Dispatch(domain.Action{Type: domain.ActionSceneUnloaded, SceneID: sceneID})
	if c.callbacks.OnUnloadParcelScenes != nil {
		c.callbacks.OnUnloadParcelScenes([]domain.Descriptor{w.Descriptor()})
	}
}

func (c *Controller) notify(name string, payload any) {
	if err := c.notifier.Notify(context.Background(), name, payload); err != nil {
		c.logger.Warn("notify failed", ports.String("event", name), ports.Err(err))
	}
}

func upstream(sceneID, op string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", domain.ErrUpstream, op, sceneID, err)
}
