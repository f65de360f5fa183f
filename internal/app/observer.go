package app

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/scenevisor/internal/domain"
	"github.com/bft-labs/scenevisor/internal/observable"
	"github.com/bft-labs/scenevisor/internal/worker"
)

// lifecycleObserver waits for the first status of one starting scene.
// It owns a status subscription and a start timer. Whichever of status,
// timeout or cancel resolves it first wins; the others become no-ops.
// An observer belongs to one worker instance, not to the scene id.
type lifecycleObserver struct {
	sceneID  string
	worker   *worker.Worker
	resolved atomic.Bool

	mu     sync.Mutex
	token  observable.Token
	timer  *time.Timer
	source *observable.Observable[domain.SceneStatus]
}

// arm subscribes onStatus to source and schedules onTimeout after d.
// An observer cancelled before it was armed stays idle.
func (o *lifecycleObserver) arm(
	source *observable.Observable[domain.SceneStatus],
	d time.Duration,
	onStatus func(domain.SceneStatus),
	onTimeout func(),
) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.resolved.Load() {
		return
	}
	o.source = source
	o.token = source.Add(onStatus)
	o.timer = time.AfterFunc(d, onTimeout)
}

// resolve reports whether this call is the first to resolve the observer.
func (o *lifecycleObserver) resolve() bool {
	return o.resolved.CompareAndSwap(false, true)
}

// release removes the subscription and stops the timer.
func (o *lifecycleObserver) release() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.source != nil {
		o.source.Remove(o.token)
	}
	if o.timer != nil {
		o.timer.Stop()
	}
}

// cancel resolves the observer without effect. Safe after it already fired.
func (o *lifecycleObserver) cancel() bool {
	if !o.resolve() {
		return false
	}
	o.release()
	return true
}
