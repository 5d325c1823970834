package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"CoreBridge/pkg/clickhouse"
)

func buildFactory(cfg Config) (Factory, error) {
	switch cfg.Driver {
	case "clickhouse", "":
		return clickhouseFactory(cfg), nil
	case "redis":
		return redisFactory(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported datastore driver '%s' for ecosystem '%s'", cfg.Driver, cfg.Ecosystem)
	}
}

// --- ClickHouse ---

type clickhouseConn struct {
	client *clickhouse.Client
}

func clickhouseFactory(cfg Config) Factory {
	return func(ctx context.Context) (Conn, error) {
		client, err := clickhouse.Open(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &clickhouseConn{client: client}, nil
	}
}

func (c *clickhouseConn) Fetch(ctx context.Context, source string, limit int) ([]map[string]any, error) {
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY timestamp DESC LIMIT ?", source)
	return c.client.QueryMaps(ctx, query, limit)
}

func (c *clickhouseConn) Ping(ctx context.Context) error { return c.client.Health(ctx) }
func (c *clickhouseConn) Close() error                   { return c.client.Close() }

// --- Redis ---

// redisConn reads raw records from lists of JSON documents, the drop-off
// format used by agents that have no relational store.
type redisConn struct {
	client *redis.Client
}

func redisFactory(cfg Config) Factory {
	return func(ctx context.Context) (Conn, error) {
		opts, err := redis.ParseURL(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return &redisConn{client: client}, nil
	}
}

func (c *redisConn) Fetch(ctx context.Context, source string, limit int) ([]map[string]any, error) {
	raw, err := c.client.LRange(ctx, source, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", source, err)
	}

	out := make([]map[string]any, 0, len(raw))
	for _, doc := range raw {
		var record map[string]any
		if err := json.Unmarshal([]byte(doc), &record); err != nil {
			// skip documents that are not JSON objects
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (c *redisConn) Ping(ctx context.Context) error { return c.client.Ping(ctx).Err() }
func (c *redisConn) Close() error                   { return c.client.Close() }
