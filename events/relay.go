package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultRelayChannel is the Redis channel instances exchange envelopes on.
const DefaultRelayChannel = "careflow:events"

type relayMessage struct {
	Origin   string          `json:"origin"`
	Envelope json.RawMessage `json:"envelope"`
}

// Relay shares one event stream between server instances through Redis pub/sub.
// Local broadcasts are fanned out on the hub and published; envelopes published
// by other instances are fanned out on the hub as received. Cross-instance
// delivery is best effort.
type Relay struct {
	hub     *Hub
	client  *redis.Client
	channel string
	origin  string
	logger  *zap.Logger
}

func NewRelay(hub *Hub, client *redis.Client, channel string, logger *zap.Logger) *Relay {
	if channel == "" {
		channel = DefaultRelayChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		hub:     hub,
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger,
	}
}

// Broadcast delivers event to local connections, then publishes it for the other instances.
func (r *Relay) Broadcast(ctx context.Context, event Event) {
	data, ok := r.hub.encode(event)
	if !ok {
		return
	}
	r.hub.BroadcastRaw(ctx, data)

	msg, err := json.Marshal(relayMessage{Origin: r.origin, Envelope: data})
	if err != nil {
		r.logger.Error("failed to encode relay message", zap.Error(err))
		return
	}
	if err := r.client.Publish(context.WithoutCancel(ctx), r.channel, msg).Err(); err != nil {
		r.logger.Warn("failed to publish event", zap.String("kind", string(event.Kind())), zap.Error(err))
	}
}

// Run consumes the channel until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	r.logger.Info("event relay subscribed", zap.String("channel", r.channel), zap.String("origin", r.origin))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(ctx, []byte(m.Payload))
		}
	}
}

func (r *Relay) handle(ctx context.Context, payload []byte) {
	var msg relayMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		r.logger.Warn("dropping malformed relay message", zap.Error(err))
		return
	}
	if msg.Origin == r.origin {
		return
	}
	env, err := Decode(msg.Envelope)
	if err != nil {
		r.logger.Warn("dropping malformed relayed envelope", zap.Error(err))
		return
	}
	if !env.Known() {
		r.logger.Debug("relaying unknown event kind", zap.String("kind", string(env.Type)))
	}
	r.hub.BroadcastRaw(ctx, msg.Envelope)
}
