package kafka

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// ProducerOption configures the Producer.
type ProducerOption func(*ProducerConfig)

// ProducerConfig holds producer settings.
type ProducerConfig struct {
	Brokers      []string
	Compression  string
	RequiredAcks kafka.RequiredAcks
	MaxAttempts  int
	BatchSize    int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
}

// WithBrokers sets the broker list.
func WithBrokers(brokers ...string) ProducerOption {
	return func(c *ProducerConfig) {
		c.Brokers = brokers
	}
}

// WithCompression sets the compression codec: none, gzip, snappy, lz4, zstd.
func WithCompression(codec string) ProducerOption {
	return func(c *ProducerConfig) {
		c.Compression = codec
	}
}

// WithRequiredAcks sets the ack level for produced messages.
func WithRequiredAcks(acks kafka.RequiredAcks) ProducerOption {
	return func(c *ProducerConfig) {
		c.RequiredAcks = acks
	}
}

// WithMaxAttempts sets how many times a write is retried before failing.
func WithMaxAttempts(n int) ProducerOption {
	return func(c *ProducerConfig) {
		c.MaxAttempts = n
	}
}

// WithBatching sets batch size and the max time a batch may linger.
func WithBatching(size int, timeout time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		c.BatchSize = size
		c.BatchTimeout = timeout
	}
}

// WithTimeouts sets read and write timeouts.
func WithTimeouts(read, write time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		c.ReadTimeout = read
		c.WriteTimeout = write
	}
}
