// Package descriptorwatcher keeps the orchestrator's descriptor cache in
// step with a scenes directory. When a <sceneId>.json file is written,
// replaced or removed, the cached descriptor for that scene is dropped so
// the next start or prefetch reads the file again.
package descriptorwatcher

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/scenevisor/internal/adapters/fs"
	"github.com/bft-labs/scenevisor/internal/ports"
	"github.com/bft-labs/scenevisor/pkg/scenevisor"
)

// Plugin watches the scenes directory and invalidates changed descriptors.
type Plugin struct {
	mu sync.Mutex

	// Configuration
	debounceDelay time.Duration

	// Runtime state
	dir      string
	cache    scenevisor.DescriptorCache
	logger   scenevisor.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
	pending  map[string]struct{}
}

// Config holds configuration options for the descriptor watcher plugin.
type Config struct {
	// DebounceDelay is how long to wait after the last change to a file
	// before invalidating it. Editors often write a file in several steps.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a new descriptor watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{
		debounceDelay: cfg.DebounceDelay,
		pending:       make(map[string]struct{}),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "descriptorwatcher"
}

// Initialize starts watching cfg.ScenesDir. Without a scenes directory the
// plugin stays idle.
func (p *Plugin) Initialize(ctx context.Context, cfg scenevisor.PluginConfig) error {
	p.mu.Lock()
	p.dir = cfg.ScenesDir
	p.cache = cfg.Descriptors
	p.logger = cfg.Logger
	p.mu.Unlock()

	if p.dir == "" || p.cache == nil {
		p.logger.Warn("descriptor watcher disabled: no scenes directory")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(p.dir); err != nil {
		watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("descriptor watcher started", ports.String("dir", p.dir))

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)
	return nil
}

// Shutdown stops the watcher and drops pending invalidations.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.debounce != nil {
		p.debounce.Stop()
		p.debounce = nil
	}
	p.pending = make(map[string]struct{})
	return nil
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			sceneID, ok := fs.SceneIDFromPath(event.Name)
			if !ok {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			p.schedule(sceneID)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			// Events may have been lost.
			p.logger.Warn("descriptor watcher error, purging cache", ports.Err(err))
			p.cache.Purge()
		}
	}
}

// schedule queues sceneID and restarts the debounce timer.
func (p *Plugin) schedule(sceneID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending[sceneID] = struct{}{}
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.debounceDelay, p.flush)
}

func (p *Plugin) flush() {
	p.mu.Lock()
	pending := p.pending
	p.pending = make(map[string]struct{})
	p.mu.Unlock()

	for sceneID := range pending {
		p.cache.Invalidate(sceneID)
		p.logger.Debug("descriptor invalidated", ports.SceneID(sceneID))
	}
}

// Ensure Plugin implements scenevisor.Plugin.
var _ scenevisor.Plugin = (*Plugin)(nil)
