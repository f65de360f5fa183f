package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/bft-labs/scenevisor/internal/domain"
	"github.com/bft-labs/scenevisor/internal/ports"
	"github.com/bft-labs/scenevisor/pkg/scenevisor"
)

// rendererLink connects the renderer endpoint to an orchestrator. Scene
// statuses and player movement flow in; load, unload, position and render
// state notifications flow out.
type rendererLink struct {
	channel ports.EventChannel
	logger  ports.Logger

	mu          sync.Mutex
	unsubscribe func()
}

func newRendererLink(channel ports.EventChannel, logger ports.Logger) *rendererLink {
	return &rendererLink{channel: channel, logger: logger}
}

func (l *rendererLink) sceneCallbacks() scenevisor.SceneCallbacks {
	return scenevisor.SceneCallbacks{
		OnLoadParcelScenes: func(scenes []scenevisor.Descriptor) {
			l.send(domain.EventRendererLoadScenes, scenes)
		},
		OnUnloadParcelScenes: func(scenes []scenevisor.Descriptor) {
			l.send(domain.EventRendererUnloadScenes, scenes)
		},
	}
}

func (l *rendererLink) positionCallbacks() scenevisor.PositionCallbacks {
	return scenevisor.PositionCallbacks{
		OnPositionSettled: func(spawn scenevisor.SpawnPoint) {
			l.send(domain.EventRendererPositionSettled, domain.SettledPayload{SpawnPoint: spawn})
		},
		OnPositionUnsettled: func() {
			l.send(domain.EventRendererPositionUnsettled, struct{}{})
		},
	}
}

// attach registers the inbound renderer events and forwards render state.
func (l *rendererLink) attach(orch *scenevisor.Orchestrator) {
	l.channel.On(domain.EventRendererSceneStatus, func(ctx context.Context, payload json.RawMessage) error {
		var status scenevisor.SceneStatus
		if err := decode(payload, &status); err != nil {
			return err
		}
		if status.SceneID == "" {
			return fmt.Errorf("%s: missing sceneId", domain.EventRendererSceneStatus)
		}
		orch.ReportStatus(status)
		return nil
	})
	l.channel.On(domain.EventRendererTeleport, func(ctx context.Context, payload json.RawMessage) error {
		var p domain.TeleportPayload
		if err := decode(payload, &p); err != nil {
			return err
		}
		orch.Teleport(p.Position)
		return nil
	})
	l.channel.On(domain.EventRendererParcel, func(ctx context.Context, payload json.RawMessage) error {
		var change scenevisor.ParcelChange
		if err := decode(payload, &change); err != nil {
			return err
		}
		orch.ParcelChanged(change)
		return nil
	})

	unsubscribe := orch.OnRenderState(func(enabled bool) {
		l.send(domain.EventRendererRenderState, domain.RenderStatePayload{Enabled: enabled})
	})
	l.mu.Lock()
	l.unsubscribe = unsubscribe
	l.mu.Unlock()
}

// detach stops forwarding render state.
func (l *rendererLink) detach() {
	l.mu.Lock()
	unsubscribe := l.unsubscribe
	l.unsubscribe = nil
	l.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (l *rendererLink) send(name string, payload any) {
	err := l.channel.Notify(context.Background(), name, payload)
	switch {
	case err == nil:
	case errors.Is(err, scenevisor.ErrNoPeers):
		l.logger.Debug("renderer not connected", ports.String("event", name))
	default:
		l.logger.Warn("renderer notify failed", ports.String("event", name), ports.Err(err))
	}
}

func decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return fmt.Errorf("empty payload")
	}
	return json.Unmarshal(payload, v)
}
