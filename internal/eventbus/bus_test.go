package eventbus

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"CoreBridge/internal/domain/models"
	"CoreBridge/pkg/config"
	"CoreBridge/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return lgr
}

func testSignal(id string) models.UnifiedTradingSignal {
	return models.NewUnifiedTradingSignal(models.UnifiedTradingSignal{
		SignalID:   id,
		Ecosystem:  "crypto",
		Timestamp:  time.Now().UTC(),
		Symbol:     "BTCUSDT",
		Action:     models.ActionBuy,
		SignalType: "MOMENTUM",
	})
}

func TestMemoryDeliveryInOrder(t *testing.T) {
	bus := New(testLogger(t), NoopTransport{})

	var got []string
	bus.Subscribe("signals", func(sig models.UnifiedTradingSignal) {
		got = append(got, "first:"+sig.SignalID)
	})
	bus.Subscribe("signals", func(sig models.UnifiedTradingSignal) {
		got = append(got, "second:"+sig.SignalID)
	})

	if err := bus.Publish(context.Background(), testSignal("sig-1"), "signals"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	want := []string{"first:sig-1", "second:sig-1"}
	if len(got) != len(want) {
		t.Fatalf("expected %d deliveries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("delivery %d: want %q, got %q", i, want[i], got[i])
		}
	}
}

func TestTopicsAreIsolated(t *testing.T) {
	bus := New(testLogger(t), NoopTransport{})

	var wrongTopic int
	bus.Subscribe("whale_rankings", func(models.UnifiedTradingSignal) { wrongTopic++ })

	if err := bus.Publish(context.Background(), testSignal("sig-1"), "signals"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if wrongTopic != 0 {
		t.Fatalf("subscriber on another topic received the signal")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := New(testLogger(t), NoopTransport{})

	var calls int
	id := bus.Subscribe("signals", func(models.UnifiedTradingSignal) { calls++ })
	bus.Unsubscribe("signals", id)

	if err := bus.Publish(context.Background(), testSignal("sig-1"), "signals"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if calls != 0 {
		t.Fatalf("unsubscribed handler was still invoked")
	}
}

func TestPanickingSubscriberDoesNotBreakFanout(t *testing.T) {
	bus := New(testLogger(t), NoopTransport{})

	var survived bool
	bus.Subscribe("signals", func(models.UnifiedTradingSignal) { panic("boom") })
	bus.Subscribe("signals", func(models.UnifiedTradingSignal) { survived = true })

	if err := bus.Publish(context.Background(), testSignal("sig-1"), "signals"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !survived {
		t.Fatalf("panic in one subscriber broke delivery to the next")
	}
}

type recordingTransport struct {
	mu     sync.Mutex
	topics []string
}

func (r *recordingTransport) Publish(_ context.Context, _ models.UnifiedTradingSignal, topic string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	return nil
}
func (r *recordingTransport) Name() string { return "recording" }
func (r *recordingTransport) Close() error { return nil }

func (r *recordingTransport) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.topics)
}

func TestRemoteDeliveryDrainsOnShutdown(t *testing.T) {
	transport := &recordingTransport{}
	bus := New(testLogger(t), transport, WithWorkers(2))

	for i := 0; i < 10; i++ {
		if err := bus.Publish(context.Background(), testSignal(fmt.Sprintf("sig-%d", i)), "signals"); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := bus.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if transport.count() != 10 {
		t.Fatalf("expected 10 remote deliveries after drain, got %d", transport.count())
	}
	// second shutdown must be a no-op
	if err := bus.Shutdown(ctx); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
}

func TestFallbackToMemoryWhenBackendUnconfigured(t *testing.T) {
	cfg := &config.Config{}
	cfg.Environment = "test"
	cfg.EventBus.Backend = "redis" // no redis_url set

	bus := NewFromConfig(context.Background(), cfg, testLogger(t), nil)
	if bus.Backend() != "memory" {
		t.Fatalf("expected memory fallback, got %q", bus.Backend())
	}

	var delivered int
	bus.Subscribe("signals", func(models.UnifiedTradingSignal) { delivered++ })
	if err := bus.Publish(context.Background(), testSignal("sig-1"), "signals"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if delivered != 1 {
		t.Fatalf("local delivery must keep working after fallback")
	}
}

func TestWebhookTransportRequiresSecret(t *testing.T) {
	if _, err := NewWebhookTransport("https://partner.example/hook", "", 0); err == nil {
		t.Fatalf("expected error for missing secret")
	}
	if _, err := NewWebhookTransport("", "s3cret", 0); err == nil {
		t.Fatalf("expected error for missing url")
	}
}
