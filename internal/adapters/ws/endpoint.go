package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bft-labs/scenevisor/internal/domain"
	"github.com/bft-labs/scenevisor/internal/ports"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

// Envelope is the wire format of every named event.
type Envelope struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Endpoint implements ports.EventChannel over WebSocket connections.
// Notify broadcasts to every connected peer; inbound events from any peer
// are dispatched to the registered handler on their own goroutine.
type Endpoint struct {
	name     string
	logger   ports.Logger
	verifier *Verifier
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	handlers map[string]ports.HandlerFunc
	peers    map[*peer]struct{}
	closed   bool
}

// EndpointOption configures an Endpoint.
type EndpointOption func(*Endpoint)

// WithVerifier requires a valid token on upgrade.
func WithVerifier(v *Verifier) EndpointOption {
	return func(e *Endpoint) {
		e.verifier = v
	}
}

// WithCheckOrigin overrides the upgrade origin check.
func WithCheckOrigin(check func(r *http.Request) bool) EndpointOption {
	return func(e *Endpoint) {
		e.upgrader.CheckOrigin = check
	}
}

// NewEndpoint creates an endpoint. name identifies it in logs.
func NewEndpoint(name string, logger ports.Logger, opts ...EndpointOption) *Endpoint {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Endpoint{
		name:     name,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		handlers: make(map[string]ports.HandlerFunc),
		peers:    make(map[*peer]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// On registers the handler for name, replacing any previous one.
func (e *Endpoint) On(name string, handler ports.HandlerFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[name] = handler
}

// Notify sends the event to every connected peer.
// Returns domain.ErrNoPeers if nobody is connected.
func (e *Endpoint) Notify(ctx context.Context, name string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	data, err := json.Marshal(Envelope{Name: name, Payload: raw})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	peers := e.snapshot()
	if len(peers) == 0 {
		return domain.ErrNoPeers
	}

	var errs []error
	for _, p := range peers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.write(websocket.TextMessage, data); err != nil {
			errs = append(errs, fmt.Errorf("peer %s: %w", p.remote, err))
		}
	}
	if len(errs) == len(peers) {
		return errors.Join(errs...)
	}
	for _, err := range errs {
		e.logger.Warn("event not delivered to peer", ports.String("endpoint", e.name), ports.String("event", name), ports.Err(err))
	}
	return nil
}

// Peers returns the number of connected peers.
func (e *Endpoint) Peers() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.peers)
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	subject := ""
	if e.verifier != nil {
		sub, err := e.verifier.VerifyRequest(r)
		if err != nil {
			e.logger.Warn("peer rejected", ports.String("endpoint", e.name), ports.String("remote", r.RemoteAddr), ports.Err(err))
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		subject = sub
	}

	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.logger.Warn("ws upgrade failed", ports.String("endpoint", e.name), ports.Err(err))
		return
	}

	p := &peer{conn: conn, remote: r.RemoteAddr, done: make(chan struct{})}
	if !e.add(p) {
		_ = conn.Close()
		return
	}
	e.logger.Info("peer connected",
		ports.String("endpoint", e.name),
		ports.String("remote", p.remote),
		ports.String("subject", subject),
	)

	defer func() {
		e.remove(p)
		p.close()
		e.logger.Info("peer disconnected", ports.String("endpoint", e.name), ports.String("remote", p.remote))
	}()

	go p.keepalive()
	e.readLoop(p)
}

func (e *Endpoint) readLoop(p *peer) {
	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				e.logger.Debug("peer read failed", ports.String("endpoint", e.name), ports.Err(err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Name == "" {
			e.logger.Warn("malformed envelope", ports.String("endpoint", e.name), ports.String("remote", p.remote))
			continue
		}
		e.dispatch(env)
	}
}

func (e *Endpoint) dispatch(env Envelope) {
	e.mu.RLock()
	h, ok := e.handlers[env.Name]
	closed := e.closed
	if ok && !closed {
		e.wg.Add(1)
	}
	e.mu.RUnlock()

	if !ok {
		e.logger.Debug("no handler for event", ports.String("endpoint", e.name), ports.String("event", env.Name))
		return
	}
	if closed {
		return
	}

	go func() {
		defer e.wg.Done()
		if err := h(e.ctx, env.Payload); err != nil {
			e.logger.Debug("handler returned error", ports.String("endpoint", e.name), ports.String("event", env.Name), ports.Err(err))
		}
	}()
}

// Close disconnects every peer and waits for running handlers.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	peers := make([]*peer, 0, len(e.peers))
	for p := range e.peers {
		peers = append(peers, p)
	}
	e.mu.Unlock()

	e.cancel()
	for _, p := range peers {
		_ = p.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		p.close()
	}
	e.wg.Wait()
	return nil
}

func (e *Endpoint) add(p *peer) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	e.peers[p] = struct{}{}
	return true
}

func (e *Endpoint) remove(p *peer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.peers, p)
}

func (e *Endpoint) snapshot() []*peer {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*peer, 0, len(e.peers))
	for p := range e.peers {
		out = append(out, p)
	}
	return out
}

// peer is one connection. Writes are serialized by mu.
type peer struct {
	conn   *websocket.Conn
	remote string

	mu       sync.Mutex
	done     chan struct{}
	doneOnce sync.Once
}

func (p *peer) write(messageType int, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return p.conn.WriteMessage(messageType, data)
}

func (p *peer) keepalive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			if err := p.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (p *peer) close() {
	p.doneOnce.Do(func() {
		close(p.done)
		_ = p.conn.Close()
	})
}
