package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/bft-labs/scenevisor/internal/domain"
	"github.com/bft-labs/scenevisor/internal/observable"
	"github.com/bft-labs/scenevisor/internal/ports"
)

// PositionCallbacks are optional renderer notifications. Nil fields are skipped.
type PositionCallbacks struct {
	OnPositionSettled   func(spawn domain.SpawnPoint)
	OnPositionUnsettled func()
}

// Relay forwards player position and analytics between the renderer side
// and the script host.
type Relay struct {
	notifier  ports.Notifier
	tracking  ports.TrackingQueue
	callbacks PositionCallbacks
	logger    ports.Logger

	teleports   *observable.Observable[domain.Vector2]
	parcels     *observable.Observable[domain.ParcelChange]
	renderState *observable.Observable[bool]

	mu       sync.Mutex
	attached bool
	tokens   [2]observable.Token
}

// NewRelay creates a detached relay.
func NewRelay(notifier ports.Notifier, tracking ports.TrackingQueue, callbacks PositionCallbacks, logger ports.Logger) *Relay {
	return &Relay{
		notifier:    notifier,
		tracking:    tracking,
		callbacks:   callbacks,
		logger:      logger,
		teleports:   observable.New[domain.Vector2](),
		parcels:     observable.New[domain.ParcelChange](),
		renderState: observable.New[bool](),
	}
}

// Teleports is where teleport destinations are published.
func (r *Relay) Teleports() *observable.Observable[domain.Vector2] { return r.teleports }

// Parcels is where parcel changes are published.
func (r *Relay) Parcels() *observable.Observable[domain.ParcelChange] { return r.parcels }

// RenderState broadcasts whether the renderer should draw the world.
func (r *Relay) RenderState() *observable.Observable[bool] { return r.renderState }

// Attach starts forwarding teleports and parcel changes as User.setPosition.
func (r *Relay) Attach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attached {
		return
	}
	r.tokens[0] = r.teleports.Add(func(pos domain.Vector2) {
		r.setPosition(pos, true)
	})
	r.tokens[1] = r.parcels.Add(func(change domain.ParcelChange) {
		// Immediate repositions stay local, otherwise the host reloads scenes.
		if change.Immediate {
			return
		}
		r.setPosition(change.NewParcel, false)
	})
	r.attached = true
}

// Detach stops forwarding position changes.
func (r *Relay) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.attached {
		return
	}
	r.teleports.Remove(r.tokens[0])
	r.parcels.Remove(r.tokens[1])
	r.attached = false
}

func (r *Relay) setPosition(pos domain.Vector2, teleported bool) {
	payload := domain.SetPositionPayload{Position: pos, Teleported: teleported}
	err := r.notifier.Notify(context.Background(), domain.EventSetPosition, payload)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNoPeers):
		r.logger.Debug("position not relayed, host not connected", ports.Bool("teleported", teleported))
	default:
		r.logger.Warn("position relay failed", ports.Err(err))
	}
}

// Settled hands the spawn point to the settle callback.
func (r *Relay) Settled(spawn domain.SpawnPoint) {
	if r.callbacks.OnPositionSettled != nil {
		r.callbacks.OnPositionSettled(spawn)
	}
}

// Unsettled runs the unsettle callback and turns rendering off.
func (r *Relay) Unsettled() {
	if r.callbacks.OnPositionUnsettled != nil {
		r.callbacks.OnPositionUnsettled()
	}
	r.renderState.Notify(false)
}

// Track queues an analytics event.
func (r *Relay) Track(name string, data json.RawMessage) {
	r.tracking.Enqueue(name, data)
}
