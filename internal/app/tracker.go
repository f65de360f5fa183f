package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/bft-labs/scenevisor/internal/domain"
	"github.com/bft-labs/scenevisor/internal/ports"
)

// TrackingConfig configures the analytics queue.
type TrackingConfig struct {
	BatchSize     int
	FlushInterval time.Duration
	BufferSize    int
}

// DefaultTrackingConfig returns the queue defaults.
func DefaultTrackingConfig() TrackingConfig {
	return TrackingConfig{
		BatchSize:     50,
		FlushInterval: 5 * time.Second,
		BufferSize:    1024,
	}
}

// TrackingQueue buffers analytics events and ships them in batches.
// Enqueue never blocks; events are dropped when the buffer is full.
type TrackingQueue struct {
	config TrackingConfig
	sender ports.TrackingSender
	logger ports.Logger
	events chan domain.TrackingEvent

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTrackingQueue creates a stopped queue.
func NewTrackingQueue(cfg TrackingConfig, sender ports.TrackingSender, logger ports.Logger) *TrackingQueue {
	def := DefaultTrackingConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	return &TrackingQueue{
		config: cfg,
		sender: sender,
		logger: logger,
		events: make(chan domain.TrackingEvent, cfg.BufferSize),
	}
}

// Enqueue adds an event without waiting.
func (q *TrackingQueue) Enqueue(name string, data json.RawMessage) {
	select {
	case q.events <- domain.TrackingEvent{Name: name, Data: data}:
	default:
		q.logger.Warn("tracking queue full, event dropped", ports.String("event", name))
	}
}

// Start runs the shipping loop until Stop is called or ctx is done.
func (q *TrackingQueue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.run(runCtx)
	}()
}

// Stop ends the loop after one last attempt to ship pending events.
func (q *TrackingQueue) Stop() {
	q.mu.Lock()
	cancel := q.cancel
	q.cancel = nil
	q.mu.Unlock()

	if cancel != nil {
		cancel()
		q.wg.Wait()
	}
}

func (q *TrackingQueue) run(ctx context.Context) {
	batcher := newTrackingBatcher(q.config.BatchSize, q.config.FlushInterval)
	bo := newBackoff(DefaultBackoffInitial, DefaultBackoffMax)
	ticker := time.NewTicker(q.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			q.drain(batcher)
			if batcher.HasPending() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				q.trySend(flushCtx, batcher, nil)
				cancel()
			}
			return

		case ev := <-q.events:
			if batcher.Add(ev) {
				q.trySend(ctx, batcher, bo)
			}

		case <-ticker.C:
			if batcher.ShouldSend() {
				q.trySend(ctx, batcher, bo)
			}
		}
	}
}

// drain moves everything buffered into the batch.
func (q *TrackingQueue) drain(batcher *trackingBatcher) {
	for {
		select {
		case ev := <-q.events:
			batcher.Add(ev)
		default:
			return
		}
	}
}

// trySend ships the batch, retrying with bo until success or ctx is done.
// A nil bo makes a single attempt.
func (q *TrackingQueue) trySend(ctx context.Context, batcher *trackingBatcher, bo *backoff) {
	for {
		err := q.sender.SendTracking(ctx, batcher.Events())
		if err == nil {
			q.logger.Debug("tracking batch sent", ports.Int("events", len(batcher.Events())))
			batcher.Reset()
			if bo != nil {
				bo.Reset()
			}
			return
		}

		q.logger.Error("tracking send failed",
			ports.Err(err),
			ports.Int("events", len(batcher.Events())),
		)
		if bo == nil {
			batcher.Reset()
			return
		}
		if !bo.Wait(ctx) {
			return
		}
	}
}

// LogTrackingSender discards events after logging them at debug level.
type LogTrackingSender struct {
	logger ports.Logger
}

// NewLogTrackingSender creates a sender for deployments without analytics.
func NewLogTrackingSender(logger ports.Logger) *LogTrackingSender {
	return &LogTrackingSender{logger: logger}
}

// SendTracking logs each event.
func (s *LogTrackingSender) SendTracking(ctx context.Context, events []domain.TrackingEvent) error {
	for _, ev := range events {
		s.logger.Debug("tracking event", ports.String("event", ev.Name))
	}
	return nil
}
