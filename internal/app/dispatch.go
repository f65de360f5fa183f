package app

import (
	"github.com/bft-labs/scenevisor/internal/domain"
	"github.com/bft-labs/scenevisor/internal/ports"
)

// LogDispatcher is the dispatch sink used when none is configured.
type LogDispatcher struct {
	logger ports.Logger
}

// NewLogDispatcher creates a dispatcher that logs every action.
func NewLogDispatcher(logger ports.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

// Dispatch logs the action.
func (d *LogDispatcher) Dispatch(action domain.Action) {
	d.logger.Info("dispatch", ports.String("type", action.Type), ports.SceneID(action.SceneID))
}
