// Package server runs an orchestrator behind the lifecycle and renderer
// WebSocket endpoints and a health endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	logAdapter "github.com/bft-labs/scenevisor/internal/adapters/log"
	"github.com/bft-labs/scenevisor/internal/adapters/ws"
	"github.com/bft-labs/scenevisor/internal/cliconfig"
	"github.com/bft-labs/scenevisor/pkg/scenevisor"
	"github.com/bft-labs/scenevisor/plugins/descriptorwatcher"
)

// HTTP paths served by a Server.
const (
	LifecyclePath = "/ws/lifecycle"
	RendererPath  = "/ws/renderer"
	HealthPath    = "/healthz"
)

const shutdownTimeout = 10 * time.Second

// Server owns the orchestrator and both endpoints.
type Server struct {
	log       zerolog.Logger
	orch      *scenevisor.Orchestrator
	lifecycle *ws.Endpoint
	renderer  *ws.Endpoint
	link      *rendererLink
	mux       *http.ServeMux
}

// New wires an orchestrator for cfg. cfg must be validated.
func New(cfg cliconfig.Config, log zerolog.Logger) (*Server, error) {
	logger := logAdapter.NewZerologAdapterWithLogger(log)

	var endpointOpts []ws.EndpointOption
	if cfg.AuthSecret != "" {
		endpointOpts = append(endpointOpts, ws.WithVerifier(ws.NewVerifier(cfg.AuthSecret)))
	} else {
		log.Warn().Msg("auth-secret not set, endpoints accept any client")
	}
	lifecycle := ws.NewEndpoint("lifecycle", logger, endpointOpts...)
	renderer := ws.NewEndpoint("renderer", logger, endpointOpts...)
	link := newRendererLink(renderer, logger)

	opts := []scenevisor.Option{
		scenevisor.WithLogger(logger),
		scenevisor.WithEventHandler(&stateLogger{log: log}),
		scenevisor.WithSceneCallbacks(link.sceneCallbacks()),
		scenevisor.WithPositionCallbacks(link.positionCallbacks()),
	}
	if cfg.WatchScenes && cfg.ScenesDir != "" {
		opts = append(opts, descriptorwatcher.WithDefaultDescriptorWatcher())
	}

	orch, err := scenevisor.New(scenevisor.Config{
		ContentURL:             cfg.ContentURL,
		ScenesDir:              cfg.ScenesDir,
		StartTimeout:           cfg.StartTimeout,
		HTTPTimeout:            cfg.HTTPTimeout,
		AnalyticsURL:           cfg.AnalyticsURL,
		AnalyticsKey:           cfg.AnalyticsKey,
		AnalyticsFlushInterval: cfg.AnalyticsFlushInterval,
		AnalyticsBatchSize:     cfg.AnalyticsBatchSize,
	}, lifecycle, opts...)
	if err != nil {
		lifecycle.Close()
		renderer.Close()
		return nil, fmt.Errorf("create orchestrator: %w", err)
	}
	link.attach(orch)

	mux := http.NewServeMux()
	mux.Handle(LifecyclePath, lifecycle)
	mux.Handle(RendererPath, renderer)
	mux.Handle(HealthPath, orch.HealthHandler())

	return &Server{
		log:       log,
		orch:      orch,
		lifecycle: lifecycle,
		renderer:  renderer,
		link:      link,
		mux:       mux,
	}, nil
}

// Handler serves the endpoints.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Orchestrator returns the orchestrator behind the endpoints.
func (s *Server) Orchestrator() *scenevisor.Orchestrator {
	return s.orch
}

// Start starts the orchestrator.
func (s *Server) Start(ctx context.Context) error {
	return s.orch.Start(ctx)
}

// Close stops the orchestrator, then disconnects every peer.
func (s *Server) Close() error {
	err := s.orch.Stop()
	if errors.Is(err, scenevisor.ErrNotRunning) {
		err = nil
	}
	s.link.detach()
	s.lifecycle.Close()
	s.renderer.Close()
	return err
}

// Run serves cfg on cfg.ListenAddr until ctx is cancelled.
func Run(ctx context.Context, cfg cliconfig.Config, log zerolog.Logger) error {
	s, err := New(cfg, log)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		s.Close()
		return fmt.Errorf("listen: %w", err)
	}
	if err := s.Start(ctx); err != nil {
		listener.Close()
		s.Close()
		return fmt.Errorf("start orchestrator: %w", err)
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(listener)
	}()
	log.Info().
		Str("addr", listener.Addr().String()).
		Str("lifecycle", LifecyclePath).
		Str("renderer", RendererPath).
		Msg("listening")

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("stopping...")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("serve: %w", err)
		}
	}

	// Stop accepting first, then unload scenes while peers are still
	// connected so they hear about it.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	if err := s.Close(); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("stop orchestrator: %w", err))
	}
	return runErr
}

// stateLogger logs scene transitions and failing handlers.
type stateLogger struct {
	scenevisor.BaseEventHandler
	log zerolog.Logger
}

func (s *stateLogger) OnSceneStateChange(ev scenevisor.SceneStateChangeEvent) {
	level := zerolog.DebugLevel
	if ev.Current == scenevisor.SceneFailed {
		level = zerolog.WarnLevel
	}
	s.log.WithLevel(level).
		Str("sceneId", ev.SceneID).
		Str("from", ev.Previous.String()).
		Str("to", ev.Current.String()).
		Str("reason", ev.Reason).
		Msg("scene state")
}

func (s *stateLogger) OnHandlerError(ev scenevisor.HandlerErrorEvent) {
	s.log.Warn().Str("event", ev.Event).Err(ev.Error).Msg("event handler failed")
}
