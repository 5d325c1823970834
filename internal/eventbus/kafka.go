package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"CoreBridge/internal/domain/models"
	pkgkafka "CoreBridge/pkg/kafka"
)

// KafkaTransport publishes signals to Kafka topics, keyed by signal id so
// replays of the same signal land on the same partition.
type KafkaTransport struct {
	producer    *pkgkafka.Producer
	topicPrefix string
}

func NewKafkaTransport(producer *pkgkafka.Producer, topicPrefix string) *KafkaTransport {
	return &KafkaTransport{producer: producer, topicPrefix: topicPrefix}
}

func (t *KafkaTransport) Publish(ctx context.Context, sig models.UnifiedTradingSignal, topic string) error {
	value, err := json.Marshal(sig.ToMap())
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}

	name := topic
	if t.topicPrefix != "" {
		name = fmt.Sprintf("%s.%s", t.topicPrefix, topic)
	}
	return t.producer.Publish(ctx, name, []byte(sig.SignalID), value)
}

func (t *KafkaTransport) Name() string { return "kafka" }
func (t *KafkaTransport) Close() error { return t.producer.Close() }
