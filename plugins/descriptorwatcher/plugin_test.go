package descriptorwatcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/scenevisor/pkg/scenevisor"
)

type noopLogger struct{}

func (noopLogger) Debug(string, ...scenevisor.LogField) {}
func (noopLogger) Info(string, ...scenevisor.LogField)  {}
func (noopLogger) Warn(string, ...scenevisor.LogField)  {}
func (noopLogger) Error(string, ...scenevisor.LogField) {}

// recordingCache records invalidations.
type recordingCache struct {
	mu          sync.Mutex
	invalidated []string
	purges      int
}

func (c *recordingCache) Invalidate(sceneID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, sceneID)
}

func (c *recordingCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purges++
}

func (c *recordingCache) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.invalidated...)
}

func startPlugin(t *testing.T, dir string, cache scenevisor.DescriptorCache) *Plugin {
	t.Helper()
	p := New(Config{DebounceDelay: 20 * time.Millisecond})
	err := p.Initialize(context.Background(), scenevisor.PluginConfig{
		ScenesDir:   dir,
		Descriptors: cache,
		Logger:      noopLogger{},
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() {
		if err := p.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown failed: %v", err)
		}
	})
	return p
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestPlugin_InvalidatesChangedDescriptor(t *testing.T) {
	dir := t.TempDir()
	cache := &recordingCache{}
	startPlugin(t, dir, cache)

	path := filepath.Join(dir, "QmScene.json")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte(`{"sceneId":"QmScene"}`), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	waitFor(t, func() bool { return len(cache.snapshot()) > 0 })
	for _, id := range cache.snapshot() {
		if id != "QmScene" {
			t.Errorf("invalidated %q, want QmScene", id)
		}
	}
}

func TestPlugin_InvalidatesRemovedDescriptor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "QmGone.json")
	if err := os.WriteFile(path, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	cache := &recordingCache{}
	startPlugin(t, dir, cache)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		got := cache.snapshot()
		return len(got) == 1 && got[0] == "QmGone"
	})
}

func TestPlugin_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	cache := &recordingCache{}
	startPlugin(t, dir, cache)

	for _, name := range []string{"notes.txt", "QmScene.tmp.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(150 * time.Millisecond)

	if got := cache.snapshot(); len(got) != 0 {
		t.Errorf("invalidated = %v, want none", got)
	}
}

func TestPlugin_DisabledWithoutDir(t *testing.T) {
	p := New(DefaultConfig())
	err := p.Initialize(context.Background(), scenevisor.PluginConfig{
		Descriptors: &recordingCache{},
		Logger:      noopLogger{},
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestPlugin_MissingDirFails(t *testing.T) {
	p := New(DefaultConfig())
	err := p.Initialize(context.Background(), scenevisor.PluginConfig{
		ScenesDir:   filepath.Join(t.TempDir(), "missing"),
		Descriptors: &recordingCache{},
		Logger:      noopLogger{},
	})
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestPlugin_WithOrchestrator(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "QmLive.json")
	if err := os.WriteFile(path, []byte(`{"name":"before"}`), 0644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var names []string
	cb := scenevisor.SceneCallbacks{
		OnLoadParcelScenes: func(scenes []scenevisor.Descriptor) {
			mu.Lock()
			defer mu.Unlock()
			names = append(names, scenes[0].Name)
		},
	}

	ch := &nullChannel{handlers: make(map[string]scenevisor.HandlerFunc)}
	orch, err := scenevisor.New(scenevisor.Config{ScenesDir: dir}, ch,
		scenevisor.WithSceneCallbacks(cb),
		WithDescriptorWatcher(Config{DebounceDelay: 20 * time.Millisecond}))
	if err != nil {
		t.Fatal(err)
	}
	if err := orch.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer orch.Stop()

	start := func() {
		if err := ch.handlers["Scene.shouldStart"](context.Background(), []byte(`{"sceneId":"QmLive"}`)); err != nil {
			t.Fatalf("start: %v", err)
		}
	}
	start()
	if err := orch.ForceUnload(context.Background(), "QmLive"); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(`{"name":"after"}`), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	start()

	mu.Lock()
	defer mu.Unlock()
	if len(names) != 2 || names[0] != "before" || names[1] != "after" {
		t.Errorf("loaded names = %v, want [before after]", names)
	}
}

// nullChannel accepts handlers and discards notifications.
type nullChannel struct {
	handlers map[string]scenevisor.HandlerFunc
}

func (c *nullChannel) On(name string, h scenevisor.HandlerFunc) { c.handlers[name] = h }

func (c *nullChannel) Notify(context.Context, string, any) error { return nil }
