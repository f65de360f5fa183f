package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/scenevisor/internal/domain"
)

type recordingSender struct {
	mu      sync.Mutex
	batches [][]domain.TrackingEvent
	fails   int
}

func (s *recordingSender) SendTracking(ctx context.Context, events []domain.TrackingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails > 0 {
		s.fails--
		return errors.New("collector unavailable")
	}
	s.batches = append(s.batches, append([]domain.TrackingEvent{}, events...))
	return nil
}

func (s *recordingSender) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func (s *recordingSender) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func TestTrackingQueue_SendsFullBatch(t *testing.T) {
	sender := &recordingSender{}
	q := NewTrackingQueue(TrackingConfig{BatchSize: 3, FlushInterval: time.Hour}, sender, mockLogger{})
	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 3; i++ {
		q.Enqueue("evt", json.RawMessage(`{}`))
	}

	if !eventually(time.Second, func() bool { return sender.total() == 3 }) {
		t.Fatalf("sent %d events, want 3", sender.total())
	}
	if sender.batchCount() != 1 {
		t.Errorf("sent %d batches, want 1", sender.batchCount())
	}
}

func TestTrackingQueue_FlushesOnInterval(t *testing.T) {
	sender := &recordingSender{}
	q := NewTrackingQueue(TrackingConfig{BatchSize: 100, FlushInterval: 10 * time.Millisecond}, sender, mockLogger{})
	q.Start(context.Background())
	defer q.Stop()

	q.Enqueue("evt", nil)

	if !eventually(time.Second, func() bool { return sender.total() == 1 }) {
		t.Fatalf("sent %d events, want 1", sender.total())
	}
}

func TestTrackingQueue_StopFlushesPending(t *testing.T) {
	sender := &recordingSender{}
	q := NewTrackingQueue(TrackingConfig{BatchSize: 100, FlushInterval: time.Hour}, sender, mockLogger{})
	q.Start(context.Background())

	q.Enqueue("a", nil)
	q.Enqueue("b", nil)
	q.Stop()

	if sender.total() != 2 {
		t.Errorf("sent %d events on stop, want 2", sender.total())
	}
	q.Stop() // idempotent
}

func TestTrackingQueue_RetriesFailedSend(t *testing.T) {
	sender := &recordingSender{fails: 1}
	q := NewTrackingQueue(TrackingConfig{BatchSize: 1, FlushInterval: time.Hour}, sender, mockLogger{})
	q.Start(context.Background())
	defer q.Stop()

	q.Enqueue("evt", nil)

	if !eventually(3*time.Second, func() bool { return sender.total() == 1 }) {
		t.Fatalf("sent %d events, want 1 after retry", sender.total())
	}
}

func TestTrackingQueue_DropsWhenFull(t *testing.T) {
	sender := &recordingSender{}
	q := NewTrackingQueue(TrackingConfig{BatchSize: 100, FlushInterval: time.Hour, BufferSize: 2}, sender, mockLogger{})

	for i := 0; i < 5; i++ {
		q.Enqueue("evt", nil)
	}
	if len(q.events) != 2 {
		t.Errorf("buffered %d events, want 2", len(q.events))
	}
}

func TestNewTrackingQueue_Defaults(t *testing.T) {
	q := NewTrackingQueue(TrackingConfig{}, NewLogTrackingSender(mockLogger{}), mockLogger{})
	if q.config != DefaultTrackingConfig() {
		t.Errorf("config = %+v, want defaults", q.config)
	}
}

func TestTrackingBatcher(t *testing.T) {
	b := newTrackingBatcher(2, time.Hour)
	if b.HasPending() || b.ShouldSend() {
		t.Fatal("empty batcher should have nothing to send")
	}
	if b.Add(domain.TrackingEvent{Name: "a"}) {
		t.Error("batch should not be full after one event")
	}
	if !b.Add(domain.TrackingEvent{Name: "b"}) {
		t.Error("batch should be full after two events")
	}
	if b.ShouldSend() {
		t.Error("batch should not be due before the interval")
	}
	b.Reset()
	if b.HasPending() {
		t.Error("reset should clear events")
	}
}
