// Package registry maps scene ids to their workers.
//
// The registry is the only component allowed to mutate the mapping, and it
// does so through InsertIfAbsent and Remove only. Both are serialized by a
// mutex, which is what keeps at most one non-disposed worker per scene id.
package registry

import (
	"sort"
	"sync"

	"github.com/bft-labs/scenevisor/internal/worker"
)

// Registry holds the workers of the current session.
type Registry struct {
	mu      sync.RWMutex
	workers map[string]*worker.Worker
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{workers: make(map[string]*worker.Worker)}
}

// Get returns the worker registered for sceneID, or nil.
func (r *Registry) Get(sceneID string) *worker.Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.workers[sceneID]
}

// InsertIfAbsent returns the worker registered for sceneID. When none exists
// it stores the result of factory and reports created = true. factory is not
// called when an entry exists, and runs under the registry lock.
func (r *Registry) InsertIfAbsent(sceneID string, factory func() *worker.Worker) (w *worker.Worker, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.workers[sceneID]; ok {
		return existing, false
	}
	w = factory()
	r.workers[sceneID] = w
	return w, true
}

// Remove deletes the entry for sceneID if present.
func (r *Registry) Remove(sceneID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workers, sceneID)
}

// Len returns the number of registered workers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}

// SceneIDs returns the registered scene ids in sorted order.
func (r *Registry) SceneIDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.workers))
	for id := range r.workers {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}
