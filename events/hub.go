package events

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/songzhibin97/gkit/generator"
	"go.uber.org/zap"
)

// DefaultWriteTimeout bounds how long one broadcast waits for slow peers.
const DefaultWriteTimeout = 5 * time.Second

// Conn is a connected dashboard client as seen by the hub.
type Conn interface {
	// Send delivers one encoded envelope. Implementations must honour ctx's deadline.
	Send(ctx context.Context, data []byte) error
	Close() error
}

// Broadcaster is what mutating code needs from the hub.
type Broadcaster interface {
	Broadcast(ctx context.Context, event Event)
}

type peer struct {
	id   uint64
	conn Conn
	live atomic.Bool
}

// Hub is the registry of live connections and fans change notifications out to them.
type Hub struct {
	peers        map[Conn]*peer
	mu           sync.RWMutex
	sendMu       sync.Mutex
	writeTimeout time.Duration
	logger       *zap.Logger
	metrics      *Metrics
	generate     generator.Generator
	closed       bool
}

// HubOption defines functional options for configuring Hub.
type HubOption func(*Hub)

// WithWriteTimeout sets the per-broadcast delivery bound.
func WithWriteTimeout(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// WithLogger sets the logger used for connection lifecycle messages.
func WithLogger(logger *zap.Logger) HubOption {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *Metrics) HubOption {
	return func(h *Hub) {
		h.metrics = m
	}
}

// WithIDGenerator sets the generator of connection ids.
func WithIDGenerator(g generator.Generator) HubOption {
	return func(h *Hub) {
		h.generate = g
	}
}

// NewHub creates an empty hub. Connections get snowflake ids unless
// WithIDGenerator says otherwise.
func NewHub(options ...HubOption) *Hub {
	h := &Hub{
		peers:        make(map[Conn]*peer),
		writeTimeout: DefaultWriteTimeout,
		logger:       zap.NewNop(),
	}
	for _, option := range options {
		option(h)
	}
	if h.generate == nil {
		h.generate = generator.NewSnowflake(time.Now().Add(-1*time.Second), 1)
	}
	return h
}

// Register adds conn to the live set. Registering the same connection twice is a no-op.
// A hub that has been closed closes the connection instead.
func (h *Hub) Register(conn Conn) {
	id, err := h.generate.NextID()
	if err != nil {
		h.logger.Warn("failed to generate connection id", zap.Error(err))
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	if _, ok := h.peers[conn]; ok {
		h.mu.Unlock()
		return
	}
	p := &peer{id: id, conn: conn}
	p.live.Store(true)
	h.peers[conn] = p
	n := len(h.peers)
	h.mu.Unlock()

	h.metrics.setConnections(n)
	h.logger.Debug("connection registered", zap.Uint64("conn_id", id), zap.Int("connections", n))
}

// Unregister removes conn. It is safe to call any number of times, including
// for a connection that was never registered.
func (h *Hub) Unregister(conn Conn) {
	if p, ok := h.remove(conn); ok {
		h.logger.Debug("connection unregistered", zap.Uint64("conn_id", p.id))
	}
}

func (h *Hub) remove(conn Conn) (*peer, bool) {
	h.mu.Lock()
	p, ok := h.peers[conn]
	if ok {
		p.live.Store(false)
		delete(h.peers, conn)
	}
	n := len(h.peers)
	h.mu.Unlock()

	if ok {
		h.metrics.setConnections(n)
	}
	return p, ok
}

// ConnID returns the id the hub gave conn at registration. It reports false
// once the connection is no longer live.
func (h *Hub) ConnID(conn Conn) (uint64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.peers[conn]
	if !ok {
		return 0, false
	}
	return p.id, true
}

// Len returns the number of live connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Broadcast encodes event once and delivers the same bytes to every live
// connection. Peers that fail to receive it are unregistered and closed; no
// delivery error reaches the caller.
func (h *Hub) Broadcast(ctx context.Context, event Event) {
	if data, ok := h.encode(event); ok {
		h.BroadcastRaw(ctx, data)
	}
}

func (h *Hub) encode(event Event) ([]byte, bool) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event", zap.String("kind", string(event.Kind())), zap.Error(err))
		return nil, false
	}
	h.metrics.incBroadcast(event.Kind())
	return data, true
}

// BroadcastRaw fans out an already encoded envelope.
// Calls are serialized, so every peer sees envelopes in call order.
func (h *Hub) BroadcastRaw(ctx context.Context, data []byte) {
	h.sendMu.Lock()
	defer h.sendMu.Unlock()

	peers := h.snapshot()
	if len(peers) == 0 {
		return
	}

	// Delivery must not depend on the lifetime of the request that triggered it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.writeTimeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, p := range peers {
		wg.Add(1)
		go func(p *peer) {
			defer wg.Done()
			if err := h.send(ctx, p, data); err != nil {
				h.drop(p, err)
			}
		}(p)
	}
	wg.Wait()
}

func (h *Hub) snapshot() []*peer {
	h.mu.RLock()
	defer h.mu.RUnlock()
	peers := make([]*peer, 0, len(h.peers))
	for _, p := range h.peers {
		if p.live.Load() {
			peers = append(peers, p)
		}
	}
	return peers
}

func (h *Hub) send(ctx context.Context, p *peer, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during send: %v", r)
			h.logger.Error("connection send panicked",
				zap.Uint64("conn_id", p.id), zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
		}
	}()
	return p.conn.Send(ctx, data)
}

func (h *Hub) drop(p *peer, cause error) {
	if _, ok := h.remove(p.conn); !ok {
		return
	}
	h.metrics.incDropped()
	h.logger.Info("dropping connection after failed send", zap.Uint64("conn_id", p.id), zap.Error(cause))
	if err := p.conn.Close(); err != nil {
		h.logger.Debug("failed to close dropped connection", zap.Uint64("conn_id", p.id), zap.Error(err))
	}
}

// Close closes every connection and refuses new registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	peers := make([]*peer, 0, len(h.peers))
	for conn, p := range h.peers {
		p.live.Store(false)
		peers = append(peers, p)
		delete(h.peers, conn)
	}
	h.mu.Unlock()

	h.metrics.setConnections(0)
	for _, p := range peers {
		_ = p.conn.Close()
	}
}
