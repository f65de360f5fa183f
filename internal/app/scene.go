package app

import (
	"sync"

	"github.com/bft-labs/scenevisor/internal/domain"
	"github.com/bft-labs/scenevisor/internal/ports"
)

// ParcelScene is the default scene object: the loadable parcel data and its
// frame budget flag. Execution happens in the renderer.
type ParcelScene struct {
	mu   sync.RWMutex
	data domain.Descriptor
}

// NewParcelScene builds a scene object from a descriptor.
func NewParcelScene(desc domain.Descriptor) ports.SceneObject {
	return &ParcelScene{data: desc}
}

// DefaultSceneFactory builds ParcelScene objects.
var DefaultSceneFactory ports.SceneFactory = ports.SceneFactoryFunc(NewParcelScene)

// Descriptor returns a copy of the parcel data.
func (p *ParcelScene) Descriptor() domain.Descriptor {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data
}

// SetFPSThrottling marks the scene for a throttled frame budget.
func (p *ParcelScene) SetFPSThrottling(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data.UseFPSThrottling = enabled
}
