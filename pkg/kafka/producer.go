package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"CoreBridge/pkg/logger"
)

// Producer wraps a kafka-go writer with sane defaults for publishing
// JSON-encoded events keyed by record identity.
type Producer struct {
	writer *kafka.Writer
	logger *logger.Logger
}

// NewProducer creates a producer. Brokers are required.
func NewProducer(lgr *logger.Logger, opts ...ProducerOption) (*Producer, error) {
	cfg := &ProducerConfig{
		Compression:  "snappy",
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		BatchSize:    100,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	compression, err := parseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		Compression:  compression,
		RequiredAcks: cfg.RequiredAcks,
		MaxAttempts:  cfg.MaxAttempts,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		Async:        false,
	}

	return &Producer{writer: writer, logger: lgr}, nil
}

// Publish writes one message to the topic. The key selects the partition, so
// records with the same key stay ordered.
func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	msg := kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write topic '%s': %w", topic, err)
	}
	return nil
}

// Close flushes buffered messages and releases the writer.
func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("kafka close: %w", err)
	}
	return nil
}

func parseCompression(codec string) (kafka.Compression, error) {
	switch codec {
	case "", "none":
		return 0, nil
	case "gzip":
		return kafka.Gzip, nil
	case "snappy":
		return kafka.Snappy, nil
	case "lz4":
		return kafka.Lz4, nil
	case "zstd":
		return kafka.Zstd, nil
	default:
		return 0, fmt.Errorf("unsupported compression codec '%s'", codec)
	}
}
