package eventbus

import (
	"context"
	"sync"
	"time"

	"CoreBridge/internal/domain/models"
	"CoreBridge/internal/domain/repository"
	"CoreBridge/pkg/logger"
)

// Handler receives a published signal. Handlers run synchronously on the
// publisher's goroutine, in subscription order per topic.
type Handler func(sig models.UnifiedTradingSignal)

type subscription struct {
	id      int
	handler Handler
}

// EventBus fans published signals out to in-process subscribers and, when a
// remote transport is configured, hands each signal to a bounded worker pool
// for fire-and-forget delivery. Local delivery never depends on remote
// delivery succeeding.
type EventBus struct {
	mu     sync.RWMutex
	subs   map[string][]subscription
	nextID int

	transport repository.Transport
	timeout   time.Duration
	workers   int
	jobs      chan job
	wg        sync.WaitGroup
	closed    bool

	logger  *logger.Logger
	metrics repository.Metrics
}

type job struct {
	sig   models.UnifiedTradingSignal
	topic string
}

// Option configures the EventBus.
type Option func(*EventBus)

// WithWorkers sets the remote delivery pool size and queue capacity.
func WithWorkers(n int) Option {
	return func(b *EventBus) {
		if n > 0 {
			b.jobs = make(chan job, n*16)
			b.workers = n
		}
	}
}

// WithTimeout bounds each remote delivery attempt.
func WithTimeout(d time.Duration) Option {
	return func(b *EventBus) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithMetrics installs a metrics recorder.
func WithMetrics(m repository.Metrics) Option {
	return func(b *EventBus) {
		if m != nil {
			b.metrics = m
		}
	}
}

// New creates an EventBus over the given transport. A NoopTransport makes a
// pure in-memory bus; its workers still run but never leave the process.
func New(lgr *logger.Logger, transport repository.Transport, opts ...Option) *EventBus {
	b := &EventBus{
		subs:      make(map[string][]subscription),
		transport: transport,
		timeout:   10 * time.Second,
		workers:   8,
		logger:    lgr,
		metrics:   repository.NopMetrics{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.jobs == nil {
		b.jobs = make(chan job, b.workers*16)
	}

	if b.remote() {
		for i := 0; i < b.workers; i++ {
			b.wg.Add(1)
			go b.deliverLoop()
		}
	}
	return b
}

// Subscribe registers a handler for a topic and returns a subscription id.
func (b *EventBus) Subscribe(topic string, handler Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: handler})
	return id
}

// Unsubscribe removes a subscription by topic and id. Unknown ids are ignored.
func (b *EventBus) Unsubscribe(topic string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			b.subs[topic] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers a signal to all local subscribers of the topic, in order,
// then queues remote delivery if a remote transport is configured. A panicking
// handler is logged and skipped; it never breaks the fan-out.
func (b *EventBus) Publish(ctx context.Context, sig models.UnifiedTradingSignal, topic string) error {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs[topic]))
	copy(subs, b.subs[topic])
	b.mu.RUnlock()

	for _, s := range subs {
		b.invoke(s, sig, topic)
	}

	if !b.remote() {
		b.metrics.RecordPublished(b.Backend(), topic)
		return nil
	}

	// the read lock also excludes Shutdown closing the queue mid-send
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.metrics.RecordDropped("bus", "shutdown")
		return nil
	}
	select {
	case b.jobs <- job{sig: sig, topic: topic}:
		b.metrics.RecordQueueDepth(len(b.jobs))
	default:
		b.logger.Warn("event bus queue full, dropping remote delivery",
			logger.String("topic", topic), logger.String("signal_id", sig.SignalID))
		b.metrics.RecordDropped("bus", "queue_full")
	}
	return nil
}

// Backend reports the effective transport name.
func (b *EventBus) Backend() string {
	return b.transport.Name()
}

// Shutdown stops accepting remote deliveries, drains the queue, and closes
// the transport. Local subscriptions keep working until the process exits.
func (b *EventBus) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	if b.remote() {
		close(b.jobs)
	}
	b.mu.Unlock()

	if b.remote() {
		done := make(chan struct{})
		go func() {
			b.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			b.logger.Warn("event bus shutdown timed out with deliveries pending")
		}
	}
	return b.transport.Close()
}

func (b *EventBus) remote() bool {
	return b.transport.Name() != "memory"
}

func (b *EventBus) invoke(s subscription, sig models.UnifiedTradingSignal, topic string) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("subscriber panicked",
				logger.String("topic", topic),
				logger.Int("subscription", s.id),
				logger.Any("panic", r))
			b.metrics.RecordError("subscriber_panic")
		}
	}()
	s.handler(sig)
}

func (b *EventBus) deliverLoop() {
	defer b.wg.Done()
	for j := range b.jobs {
		b.metrics.RecordQueueDepth(len(b.jobs))

		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		err := b.transport.Publish(ctx, j.sig, j.topic)
		cancel()

		if err != nil {
			b.logger.Warn("remote delivery failed",
				logger.String("backend", b.transport.Name()),
				logger.String("topic", j.topic),
				logger.String("signal_id", j.sig.SignalID),
				logger.Error(err))
			b.metrics.RecordError("delivery")
			continue
		}
		b.metrics.RecordPublished(b.transport.Name(), j.topic)
	}
}
