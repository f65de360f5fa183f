package app

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/scenevisor/internal/domain"
)

type bridgeHarness struct {
	*harness
	relay  *Relay
	queue  *recordingQueue
	bridge *Bridge

	mu     sync.Mutex
	errs   map[string]error
	spawns []domain.SpawnPoint
}

type recordingQueue struct {
	mu     sync.Mutex
	events []domain.TrackingEvent
}

func (q *recordingQueue) Enqueue(name string, data json.RawMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, domain.TrackingEvent{Name: name, Data: data})
}

func newBridgeHarness(ids ...string) *bridgeHarness {
	bh := &bridgeHarness{
		harness: newHarness(time.Second, ids...),
		queue:   &recordingQueue{},
		errs:    make(map[string]error),
	}
	bh.relay = NewRelay(bh.ch, bh.queue, PositionCallbacks{
		OnPositionSettled: func(spawn domain.SpawnPoint) {
			bh.mu.Lock()
			defer bh.mu.Unlock()
			bh.spawns = append(bh.spawns, spawn)
		},
	}, mockLogger{})
	bh.bridge = NewBridge(bh.controller, bh.relay, mockLogger{}, func(event string, err error) {
		bh.mu.Lock()
		defer bh.mu.Unlock()
		bh.errs[event] = err
	})
	bh.bridge.Attach(bh.ch)
	return bh
}

func (bh *bridgeHarness) errFor(event string) error {
	bh.mu.Lock()
	defer bh.mu.Unlock()
	return bh.errs[event]
}

func TestBridge_Events(t *testing.T) {
	bh := newBridgeHarness()

	got := bh.bridge.Events()
	sort.Strings(got)
	want := []string{
		domain.EventTrack,
		domain.EventPositionSettled,
		domain.EventPositionUnsettled,
		domain.EventShouldPrefetch,
		domain.EventShouldStart,
		domain.EventShouldUnload,
	}
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("Events() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Events()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestBridge_SceneRequests(t *testing.T) {
	bh := newBridgeHarness("A")

	if err := bh.ch.deliver(domain.EventShouldPrefetch, domain.SceneRequest{SceneID: "A"}); err != nil {
		t.Fatalf("prefetch error = %v", err)
	}
	if n := len(bh.ch.sentNamed(domain.EventPrefetchDone)); n != 1 {
		t.Errorf("got %d prefetchDone, want 1", n)
	}

	if err := bh.ch.deliver(domain.EventShouldStart, domain.SceneRequest{SceneID: "A"}); err != nil {
		t.Fatalf("start error = %v", err)
	}
	if bh.controller.Registry().Get("A") == nil {
		t.Fatal("start should register a worker")
	}

	if err := bh.ch.deliver(domain.EventShouldUnload, domain.SceneRequest{SceneID: "A"}); err != nil {
		t.Fatalf("unload error = %v", err)
	}
	if bh.controller.Registry().Get("A") != nil {
		t.Error("unload should remove the worker")
	}
}

func TestBridge_ErrorsAreReported(t *testing.T) {
	bh := newBridgeHarness()

	err := bh.ch.deliver(domain.EventShouldStart, domain.SceneRequest{SceneID: "missing"})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("start error = %v, want ErrUpstream", err)
	}
	if !errors.Is(bh.errFor(domain.EventShouldStart), domain.ErrUpstream) {
		t.Error("upstream failure should reach the error callback")
	}

	if err := bh.ch.deliver(domain.EventShouldStart, map[string]string{}); err == nil {
		t.Error("missing sceneId should be rejected")
	}
	if err := bh.ch.deliver(domain.EventShouldStart, "not an object"); err == nil {
		t.Error("malformed payload should be rejected")
	}
}

func TestBridge_PanicIsolated(t *testing.T) {
	bh := newBridgeHarness("A")
	bh.relay.callbacks.OnPositionUnsettled = func() { panic("renderer gone") }

	err := bh.ch.deliver(domain.EventPositionUnsettled, struct{}{})
	if !errors.Is(err, domain.ErrHandlerPanic) {
		t.Fatalf("unsettled error = %v, want ErrHandlerPanic", err)
	}

	// Other handlers keep working.
	if err := bh.ch.deliver(domain.EventShouldPrefetch, domain.SceneRequest{SceneID: "A"}); err != nil {
		t.Fatalf("prefetch after panic error = %v", err)
	}
	if n := len(bh.ch.sentNamed(domain.EventPrefetchDone)); n != 1 {
		t.Errorf("got %d prefetchDone, want 1", n)
	}
}

func TestBridge_PositionAndTracking(t *testing.T) {
	bh := newBridgeHarness()

	spawn := domain.SpawnPoint{Position: domain.Vector2{X: 3, Y: -7}}
	if err := bh.ch.deliver(domain.EventPositionSettled, domain.SettledPayload{SpawnPoint: spawn}); err != nil {
		t.Fatalf("settled error = %v", err)
	}
	if len(bh.spawns) != 1 || bh.spawns[0].Position != spawn.Position {
		t.Errorf("spawns = %+v", bh.spawns)
	}

	track := domain.TrackingEvent{Name: "scene_load", Data: json.RawMessage(`{"ms":12}`)}
	if err := bh.ch.deliver(domain.EventTrack, track); err != nil {
		t.Fatalf("track error = %v", err)
	}
	if len(bh.queue.events) != 1 || bh.queue.events[0].Name != "scene_load" {
		t.Errorf("queued = %+v", bh.queue.events)
	}
}

func TestDecode_EmptyPayload(t *testing.T) {
	for _, raw := range []json.RawMessage{nil, json.RawMessage("null")} {
		v, err := decode[domain.SceneRequest](raw)
		if err != nil || v.SceneID != "" {
			t.Errorf("decode(%q) = %+v, %v", raw, v, err)
		}
	}
}
