package app

import (
	"time"

	"github.com/bft-labs/scenevisor/internal/domain"
)

// trackingBatcher accumulates tracking events until a size or time trigger.
type trackingBatcher struct {
	events    []domain.TrackingEvent
	maxEvents int
	interval  time.Duration
	lastSend  time.Time
}

func newTrackingBatcher(maxEvents int, interval time.Duration) *trackingBatcher {
	return &trackingBatcher{
		maxEvents: maxEvents,
		interval:  interval,
		lastSend:  time.Now(),
	}
}

// Add appends ev. Returns true if the batch is full after this add.
func (b *trackingBatcher) Add(ev domain.TrackingEvent) bool {
	b.events = append(b.events, ev)
	return b.maxEvents > 0 && len(b.events) >= b.maxEvents
}

// ShouldSend returns true if the batch is due by time.
func (b *trackingBatcher) ShouldSend() bool {
	return len(b.events) > 0 && time.Since(b.lastSend) >= b.interval
}

// Events returns the pending events.
func (b *trackingBatcher) Events() []domain.TrackingEvent {
	return b.events
}

// HasPending returns true if there are events waiting to be sent.
func (b *trackingBatcher) HasPending() bool {
	return len(b.events) > 0
}

// Reset clears the batch and updates the last send time.
func (b *trackingBatcher) Reset() {
	b.events = nil
	b.lastSend = time.Now()
}
