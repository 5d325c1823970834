package eventbus

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"CoreBridge/internal/domain/repository"
	"CoreBridge/pkg/config"
	pkgkafka "CoreBridge/pkg/kafka"
	"CoreBridge/pkg/logger"
)

// NewFromConfig builds an EventBus for the configured backend. A backend that
// cannot be brought up because its settings are missing or its endpoint is
// unreachable degrades to memory with a warning; signal flow inside the
// process must not stop because an external broker is down.
func NewFromConfig(ctx context.Context, cfg *config.Config, lgr *logger.Logger, m repository.Metrics) *EventBus {
	transport := buildTransport(ctx, cfg, lgr)

	return New(lgr, transport,
		WithWorkers(cfg.EventBus.Workers),
		WithTimeout(cfg.EventBus.Timeout),
		WithMetrics(m),
	)
}

func buildTransport(ctx context.Context, cfg *config.Config, lgr *logger.Logger) repository.Transport {
	bus := cfg.EventBus

	switch bus.Backend {
	case "redis":
		if bus.RedisURL == "" {
			return fallback(lgr, "redis", "redis_url is not set", nil)
		}
		t, err := NewRedisTransport(ctx, bus.RedisURL, bus.StreamPrefix, bus.StreamMaxLen)
		if err != nil {
			return fallback(lgr, "redis", "connect failed", err)
		}
		return t

	case "webhook":
		t, err := NewWebhookTransport(bus.WebhookURL, bus.WebhookSecret, bus.Timeout)
		if err != nil {
			return fallback(lgr, "webhook", "incomplete settings", err)
		}
		return t

	case "kafka":
		if len(bus.Kafka.Brokers) == 0 {
			return fallback(lgr, "kafka", "no brokers configured", nil)
		}
		opts := []pkgkafka.ProducerOption{
			pkgkafka.WithBrokers(bus.Kafka.Brokers...),
			pkgkafka.WithCompression(compressionOrDefault(bus.Kafka.Compression)),
			pkgkafka.WithMaxAttempts(maxAttemptsOrDefault(bus.Kafka.MaxAttempts)),
			pkgkafka.WithTimeouts(timeoutOrDefault(bus.Kafka.ReadTimeout), timeoutOrDefault(bus.Kafka.WriteTimeout)),
		}
		if bus.Kafka.RequiredAcks != 0 {
			opts = append(opts, pkgkafka.WithRequiredAcks(kafkago.RequiredAcks(bus.Kafka.RequiredAcks)))
		}
		producer, err := pkgkafka.NewProducer(lgr, opts...)
		if err != nil {
			return fallback(lgr, "kafka", "producer init failed", err)
		}
		return NewKafkaTransport(producer, bus.Kafka.TopicPrefix)

	case "memory", "":
		return NoopTransport{}

	default:
		// config.Validate rejects unknown backend names before we get here
		return fallback(lgr, bus.Backend, "unknown backend name", nil)
	}
}

func fallback(lgr *logger.Logger, backend, reason string, err error) repository.Transport {
	fields := []logger.Field{
		logger.String("backend", backend),
		logger.String("reason", reason),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	lgr.Warn("event bus backend unavailable, falling back to memory", fields...)
	return NoopTransport{}
}

func compressionOrDefault(codec string) string {
	if codec == "" {
		return "snappy"
	}
	return codec
}

func maxAttemptsOrDefault(n int) int {
	if n <= 0 {
		return 3
	}
	return n
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}
