package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/bft-labs/scenevisor/internal/domain"
	"github.com/bft-labs/scenevisor/internal/ports"
	"github.com/bft-labs/scenevisor/internal/registry"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

type notification struct {
	name    string
	payload any
}

// fakeChannel records notifications and invokes handlers synchronously.
type fakeChannel struct {
	mu       sync.Mutex
	handlers map[string]ports.HandlerFunc
	sent     []notification
	err      error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{handlers: make(map[string]ports.HandlerFunc)}
}

func (f *fakeChannel) On(name string, h ports.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[name] = h
}

func (f *fakeChannel) Notify(ctx context.Context, name string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, notification{name: name, payload: payload})
	return nil
}

// deliver invokes the handler registered for name with payload encoded as JSON.
func (f *fakeChannel) deliver(name string, payload any) error {
	f.mu.Lock()
	h, ok := f.handlers[name]
	f.mu.Unlock()
	if !ok {
		return errors.New("no handler for " + name)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return h(context.Background(), raw)
}

func (f *fakeChannel) sentNamed(name string) []notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notification
	for _, n := range f.sent {
		if n.name == name {
			out = append(out, n)
		}
	}
	return out
}

// fakeFetcher serves descriptors from a map and counts calls.
type fakeFetcher struct {
	mu     sync.Mutex
	scenes map[string]domain.Descriptor
	calls  map[string]int
	err    error
}

func newFakeFetcher(ids ...string) *fakeFetcher {
	f := &fakeFetcher{scenes: make(map[string]domain.Descriptor), calls: make(map[string]int)}
	for _, id := range ids {
		f.scenes[id] = domain.Descriptor{SceneID: id, Name: "scene " + id}
	}
	return f
}

func (f *fakeFetcher) Fetch(ctx context.Context, sceneID string) (domain.Descriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[sceneID]++
	if f.err != nil {
		return domain.Descriptor{}, f.err
	}
	desc, ok := f.scenes[sceneID]
	if !ok {
		return domain.Descriptor{}, domain.ErrSceneNotFound
	}
	return desc, nil
}

func (f *fakeFetcher) callCount(sceneID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[sceneID]
}

// fakePreloader records preloads; block, when set, holds each call open.
type fakePreloader struct {
	mu     sync.Mutex
	loaded []string
	err    error
	block  chan struct{}
}

func (p *fakePreloader) Preload(ctx context.Context, desc domain.Descriptor) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.loaded = append(p.loaded, desc.SceneID)
	return nil
}

// fakeTransport counts Close calls.
type fakeTransport struct {
	mu     sync.Mutex
	closed int
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed++
	return nil
}

func (t *fakeTransport) closeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

type transportFactory struct {
	mu     sync.Mutex
	opened []*fakeTransport
}

func (f *transportFactory) Open(desc domain.Descriptor) ports.Transport {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTransport{}
	f.opened = append(f.opened, t)
	return t
}

// recordingDispatcher records dispatched actions.
type recordingDispatcher struct {
	mu      sync.Mutex
	actions []domain.Action
}

func (d *recordingDispatcher) Dispatch(action domain.Action) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions = append(d.actions, action)
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.actions)
}

type sceneChange struct {
	sceneID  string
	previous domain.SceneState
	current  domain.SceneState
}

// recordingEmitter records scene state changes.
type recordingEmitter struct {
	mu      sync.Mutex
	changes []sceneChange
}

func (e *recordingEmitter) OnSceneStateChange(sceneID string, previous, current domain.SceneState, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.changes = append(e.changes, sceneChange{sceneID, previous, current})
}

func (e *recordingEmitter) Changes() []sceneChange {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]sceneChange{}, e.changes...)
}

// callbackRecorder records renderer load/unload callbacks.
type callbackRecorder struct {
	mu       sync.Mutex
	loaded   []string
	unloaded []string
}

func (r *callbackRecorder) callbacks() SceneCallbacks {
	return SceneCallbacks{
		OnLoadParcelScenes: func(scenes []domain.Descriptor) {
			r.mu.Lock()
			defer r.mu.Unlock()
			for _, s := range scenes {
				r.loaded = append(r.loaded, s.SceneID)
			}
		},
		OnUnloadParcelScenes: func(scenes []domain.Descriptor) {
			r.mu.Lock()
			defer r.mu.Unlock()
			for _, s := range scenes {
				r.unloaded = append(r.unloaded, s.SceneID)
			}
		},
	}
}

func (r *callbackRecorder) counts() (loaded, unloaded int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.loaded), len(r.unloaded)
}

type harness struct {
	ch         *fakeChannel
	fetcher    *fakeFetcher
	preloader  *fakePreloader
	transports *transportFactory
	dispatcher *recordingDispatcher
	emitter    *recordingEmitter
	recorder   *callbackRecorder
	controller *Controller
}

func newHarness(timeout time.Duration, ids ...string) *harness {
	h := &harness{
		ch:         newFakeChannel(),
		fetcher:    newFakeFetcher(ids...),
		preloader:  &fakePreloader{},
		transports: &transportFactory{},
		dispatcher: &recordingDispatcher{},
		emitter:    &recordingEmitter{},
		recorder:   &callbackRecorder{},
	}
	h.controller = NewController(ControllerDeps{
		Registry:     registry.New(),
		Descriptors:  h.fetcher,
		Preloader:    h.preloader,
		Factory:      DefaultSceneFactory,
		Transports:   h.transports,
		Notifier:     h.ch,
		Dispatcher:   h.dispatcher,
		Emitter:      h.emitter,
		Callbacks:    h.recorder.callbacks(),
		Logger:       mockLogger{},
		StartTimeout: timeout,
	})
	return h
}

// eventually polls cond until it holds or the deadline passes.
func eventually(d time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}
