// Package scenevisor runs a standalone parcel scene orchestrator serving
// the script host and the renderer over WebSocket.
//
// Example usage:
//
//	cfg := scenevisor.DefaultConfig()
//	cfg.ContentURL = "https://content.example.org"
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	if err := scenevisor.Run(ctx, cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// To embed the orchestrator over a channel of your own, use
// github.com/bft-labs/scenevisor/pkg/scenevisor instead.
package scenevisor

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/bft-labs/scenevisor/internal/cliconfig"
	"github.com/bft-labs/scenevisor/internal/server"
)

// Config holds the configuration of a standalone orchestrator.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = cliconfig.Config

// DefaultListenAddr is the default address of the endpoints.
const DefaultListenAddr = cliconfig.DefaultListenAddr

// DefaultConfig returns a Config with sensible default values.
// At minimum, set ContentURL or ScenesDir before calling Run.
func DefaultConfig() Config {
	return cliconfig.DefaultConfig()
}

// Run serves cfg until the context is cancelled, logging as configured
// by cfg's log settings. cfg must have been validated.
func Run(ctx context.Context, cfg Config) error {
	logger, closer, err := cliconfig.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()
	return server.Run(ctx, cfg, logger)
}

// RunWithLogger is Run with a caller-supplied logger.
func RunWithLogger(ctx context.Context, cfg Config, logger zerolog.Logger) error {
	return server.Run(ctx, cfg, logger)
}
