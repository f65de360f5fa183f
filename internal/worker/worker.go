// Package worker holds the runtime object that supervises one scene.
package worker

import (
	"sync"

	"github.com/bft-labs/scenevisor/internal/domain"
	"github.com/bft-labs/scenevisor/internal/ports"
)

// Worker represents one running or pending scene instance.
// Disposal is irreversible; a later worker for the same scene id is a new
// instance.
type Worker struct {
	scene      ports.SceneObject
	transport  ports.Transport
	persistent bool

	mu       sync.RWMutex
	started  bool
	failed   bool
	disposed bool
}

// New creates a worker for scene. transport may be nil.
func New(scene ports.SceneObject, transport ports.Transport, persistent bool) *Worker {
	return &Worker{
		scene:      scene,
		transport:  transport,
		persistent: persistent,
	}
}

// SceneID returns the content-addressed id of the scene.
func (w *Worker) SceneID() string {
	return w.scene.Descriptor().SceneID
}

// Descriptor returns the parcel data the scene was built from.
func (w *Worker) Descriptor() domain.Descriptor {
	return w.scene.Descriptor()
}

// Scene returns the scene object run by this worker.
func (w *Worker) Scene() ports.SceneObject {
	return w.scene
}

// Persistent reports whether ordinary stop requests are ignored.
func (w *Worker) Persistent() bool {
	return w.persistent
}

// Started reports whether the scene signalled that it is executing.
func (w *Worker) Started() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// MarkStarted records that the scene began executing.
func (w *Worker) MarkStarted() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.disposed {
		w.started = true
	}
}

// Failed reports whether the scene missed its start deadline.
func (w *Worker) Failed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.failed
}

// MarkFailed records that the scene missed its start deadline.
func (w *Worker) MarkFailed() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failed = true
}

// Disposed reports whether the worker was released.
func (w *Worker) Disposed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.disposed
}

// Dispose releases the transport. Only the first call has an effect.
func (w *Worker) Dispose() error {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return nil
	}
	w.disposed = true
	t := w.transport
	w.transport = nil
	w.mu.Unlock()

	if t != nil {
		return t.Close()
	}
	return nil
}
