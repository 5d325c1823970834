package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"CoreBridge/internal/domain/models"
)

// RedisTransport appends signals to capped Redis streams, one stream per
// topic under a shared prefix. Consumers read with XREAD/XREADGROUP.
type RedisTransport struct {
	client *redis.Client
	prefix string
	maxLen int64
}

// NewRedisTransport connects to Redis and verifies the connection.
func NewRedisTransport(ctx context.Context, url, prefix string, maxLen int64) (*RedisTransport, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisTransport{client: client, prefix: prefix, maxLen: maxLen}, nil
}

func (t *RedisTransport) Publish(ctx context.Context, sig models.UnifiedTradingSignal, topic string) error {
	payload, err := json.Marshal(sig.ToMap())
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}

	stream := fmt.Sprintf("%s:%s", t.prefix, topic)
	err = t.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: t.maxLen,
		Approx: true,
		Values: map[string]any{
			"signal_id": sig.SignalID,
			"ecosystem": sig.Ecosystem,
			"payload":   string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", stream, err)
	}
	return nil
}

func (t *RedisTransport) Name() string { return "redis" }
func (t *RedisTransport) Close() error { return t.client.Close() }
