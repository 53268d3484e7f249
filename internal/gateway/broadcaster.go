package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Envelope is the JSON message published on a room channel.
type Envelope struct {
	Room    string `json:"room"`
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// RedisBroadcaster fans room events out over Redis pub/sub. Socket servers
// subscribe to prefix+room and relay to connected clients.
type RedisBroadcaster struct {
	client redis.Cmdable
	prefix string
	log    *zap.Logger
}

func NewRedisBroadcaster(client redis.Cmdable, prefix string, log *zap.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{
		client: client,
		prefix: prefix,
		log:    log.With(zap.String("gateway", "redis_broadcaster")),
	}
}

func (b *RedisBroadcaster) Channel(room string) string {
	return b.prefix + room
}

func (b *RedisBroadcaster) Publish(ctx context.Context, room, event string, payload any) error {
	body, err := json.Marshal(Envelope{Room: room, Event: event, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}

	receivers, err := b.client.Publish(ctx, b.Channel(room), string(body)).Result()
	if err != nil {
		b.log.Error("Failed to publish event",
			zap.Error(err),
			zap.String("room", room),
			zap.String("event", event),
		)
		return fmt.Errorf("publish %s to %s: %w", event, room, err)
	}

	b.log.Debug("Event published",
		zap.String("room", room),
		zap.String("event", event),
		zap.Int64("receivers", receivers),
	)
	return nil
}

// LogBroadcaster only logs events. Used when no Redis URL is configured.
type LogBroadcaster struct {
	log *zap.Logger
}

func NewLogBroadcaster(log *zap.Logger) *LogBroadcaster {
	return &LogBroadcaster{log: log.With(zap.String("gateway", "log_broadcaster"))}
}

// Publish logs the room, the event and the payload keys. Values stay out of
// the log: consultationOtp payloads carry the plaintext code.
func (b *LogBroadcaster) Publish(_ context.Context, room, event string, payload any) error {
	b.log.Debug("Event",
		zap.String("room", room),
		zap.String("event", event),
		zap.Strings("payload_keys", payloadKeys(payload)),
	)
	return nil
}

func payloadKeys(payload any) []string {
	m, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
