package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bft-labs/scenevisor/internal/domain"
	"github.com/bft-labs/scenevisor/internal/ports"
)

// HandlerErrorFunc observes errors returned or panics raised by handlers.
type HandlerErrorFunc func(event string, err error)

// Bridge maps the script host's named events onto controller and relay
// calls. Every handler invocation is isolated: an error or panic is logged
// and reported, never propagated to other events.
type Bridge struct {
	controller *Controller
	relay      *Relay
	logger     ports.Logger
	onError    HandlerErrorFunc
}

// NewBridge creates a bridge. onError may be nil.
func NewBridge(controller *Controller, relay *Relay, logger ports.Logger, onError HandlerErrorFunc) *Bridge {
	return &Bridge{
		controller: controller,
		relay:      relay,
		logger:     logger,
		onError:    onError,
	}
}

// Attach registers every handler on ch.
func (b *Bridge) Attach(ch ports.EventChannel) {
	for name, h := range b.handlers() {
		ch.On(name, b.isolate(name, h))
	}
}

// Events returns the names handled by the bridge.
func (b *Bridge) Events() []string {
	names := make([]string, 0, 6)
	for name := range b.handlers() {
		names = append(names, name)
	}
	return names
}

func (b *Bridge) handlers() map[string]ports.HandlerFunc {
	return map[string]ports.HandlerFunc{
		domain.EventShouldPrefetch: b.sceneHandler(b.controller.Prefetch),
		domain.EventShouldStart:    b.sceneHandler(b.controller.Start),
		domain.EventShouldUnload:   b.sceneHandler(b.controller.Unload),

		domain.EventPositionSettled: func(ctx context.Context, payload json.RawMessage) error {
			p, err := decode[domain.SettledPayload](payload)
			if err != nil {
				return err
			}
			b.relay.Settled(p.SpawnPoint)
			return nil
		},
		domain.EventPositionUnsettled: func(ctx context.Context, payload json.RawMessage) error {
			b.relay.Unsettled()
			return nil
		},
		domain.EventTrack: func(ctx context.Context, payload json.RawMessage) error {
			ev, err := decode[domain.TrackingEvent](payload)
			if err != nil {
				return err
			}
			b.relay.Track(ev.Name, ev.Data)
			return nil
		},
	}
}

func (b *Bridge) sceneHandler(op func(context.Context, string) error) ports.HandlerFunc {
	return func(ctx context.Context, payload json.RawMessage) error {
		req, err := decode[domain.SceneRequest](payload)
		if err != nil {
			return err
		}
		if req.SceneID == "" {
			return errors.New("missing sceneId")
		}
		return op(ctx, req.SceneID)
	}
}

func (b *Bridge) isolate(name string, h ports.HandlerFunc) ports.HandlerFunc {
	return func(ctx context.Context, payload json.RawMessage) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %s: %v", domain.ErrHandlerPanic, name, r)
			}
			if err != nil {
				b.report(name, err)
			}
		}()
		return h(ctx, payload)
	}
}

func (b *Bridge) report(name string, err error) {
	b.logger.Error("event handler failed", ports.String("event", name), ports.Err(err))
	if b.onError != nil {
		b.onError(name, err)
	}
}

// decode unmarshals payload into T. An empty payload yields the zero value.
func decode[T any](payload json.RawMessage) (T, error) {
	var v T
	if len(payload) == 0 || string(payload) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}
