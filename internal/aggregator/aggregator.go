package aggregator

import (
	"context"
	"sync"
	"time"

	"CoreBridge/internal/domain/models"
	"CoreBridge/internal/domain/repository"
	"CoreBridge/internal/health"
	"CoreBridge/internal/transform"
	"CoreBridge/pkg/logger"
)

// DataAggregator drives the collection pipeline: on every cycle each adapter
// is collected, its raw batches normalized, validated, and handed to every
// exporter. Failures are isolated per adapter and per exporter; a broken
// source never blocks the others.
type DataAggregator struct {
	adapters   []repository.Adapter
	signals    *transform.SignalNormalizer
	rankings   *transform.WhaleRankingTransformer
	strategies *transform.StrategyMetadataTransformer
	trades     *transform.TradeTransformer
	validators []repository.Validator
	exporters  []repository.Exporter
	interval   time.Duration

	mu      sync.Mutex
	lastErr map[string]error
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	logger  *logger.Logger
	metrics repository.Metrics
}

// Transformers bundles the four per-kind transformers the pipeline threads
// raw batches through.
type Transformers struct {
	Signals    *transform.SignalNormalizer
	Rankings   *transform.WhaleRankingTransformer
	Strategies *transform.StrategyMetadataTransformer
	Trades     *transform.TradeTransformer
}

func New(
	adapters []repository.Adapter,
	transformers Transformers,
	validators []repository.Validator,
	exporters []repository.Exporter,
	checker *health.Checker,
	interval time.Duration,
	lgr *logger.Logger,
	m repository.Metrics,
) *DataAggregator {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	if m == nil {
		m = repository.NopMetrics{}
	}
	agg := &DataAggregator{
		adapters:   adapters,
		signals:    transformers.Signals,
		rankings:   transformers.Rankings,
		strategies: transformers.Strategies,
		trades:     transformers.Trades,
		validators: validators,
		exporters:  exporters,
		interval:   interval,
		lastErr:    make(map[string]error),
		logger:     lgr,
		metrics:    m,
	}

	// One probe per adapter, reporting the outcome of its latest collection.
	// Probes never collect on their own; some adapters consume their source.
	if checker != nil {
		for _, adapter := range adapters {
			name := adapter.Name()
			checker.Register(name, func() error {
				return agg.lastCollectErr(name)
			})
		}
	}
	return agg
}

// RunOnce executes a single aggregation cycle.
func (a *DataAggregator) RunOnce(ctx context.Context) {
	start := time.Now()
	for _, adapter := range a.adapters {
		a.processAdapter(ctx, adapter)
	}
	a.metrics.RecordLatency("aggregation_cycle", time.Since(start).Seconds())
}

func (a *DataAggregator) processAdapter(ctx context.Context, adapter repository.Adapter) {
	batch, err := adapter.Collect(ctx)
	a.setCollectErr(adapter.Name(), err)
	if err != nil {
		a.logger.Warn("adapter collection failed, skipping",
			logger.String("adapter", adapter.Name()), logger.Error(err))
		a.metrics.RecordError("collect")
		return
	}
	if batch == nil {
		return
	}

	ecosystem := adapter.Ecosystem()
	signals := applyValidators(a.validators, a.signals.Normalize(ecosystem, batch.RawSignals))
	rankings := applyValidators(a.validators, a.rankings.Normalize(ecosystem, batch.RawWhaleRankings))
	strategies := applyValidators(a.validators, a.strategies.Normalize(ecosystem, batch.RawStrategyMetadata))
	trades := applyValidators(a.validators, a.trades.Normalize(ecosystem, batch.RawExecutedTrades))

	for _, exporter := range a.exporters {
		a.export(ctx, exporter, signals, rankings, strategies, trades)
	}
}

func (a *DataAggregator) export(
	ctx context.Context,
	exporter repository.Exporter,
	signals []models.UnifiedTradingSignal,
	rankings []models.WhaleRankingRecord,
	strategies []models.StrategyMetadataRecord,
	trades []models.ExecutedTradeRecord,
) {
	steps := []struct {
		kind string
		run  func() error
	}{
		{"signals", func() error { return exporter.ExportSignals(ctx, signals) }},
		{"whale_rankings", func() error { return exporter.ExportWhaleRankings(ctx, rankings) }},
		{"strategy_metadata", func() error { return exporter.ExportStrategyMetadata(ctx, strategies) }},
		{"executed_trades", func() error { return exporter.ExportExecutedTrades(ctx, trades) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			a.logger.Warn("exporter failed",
				logger.String("kind", step.kind), logger.Error(err))
			a.metrics.RecordError("export")
		}
	}
}

// Start runs aggregation cycles on a background loop. The loop self-paces:
// sleep = max(0, interval - elapsed), so a slow cycle never builds a backlog.
func (a *DataAggregator) Start(ctx context.Context) {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return
	}
	a.running = true
	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	stopCh, doneCh := a.stopCh, a.doneCh
	a.mu.Unlock()

	go func() {
		defer close(doneCh)
		for {
			start := time.Now()
			a.RunOnce(ctx)

			sleep := a.interval - time.Since(start)
			if sleep < 0 {
				sleep = 0
			}
			timer := time.NewTimer(sleep)
			select {
			case <-stopCh:
				timer.Stop()
				return
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
	a.logger.Info("aggregator started", logger.Duration("interval", a.interval))
}

// Stop halts the loop and waits for the in-flight cycle to finish.
func (a *DataAggregator) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	stopCh, doneCh := a.stopCh, a.doneCh
	a.mu.Unlock()

	close(stopCh)
	<-doneCh
	a.logger.Info("aggregator stopped")
}

func (a *DataAggregator) setCollectErr(name string, err error) {
	a.mu.Lock()
	a.lastErr[name] = err
	a.mu.Unlock()
}

func (a *DataAggregator) lastCollectErr(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr[name]
}

// applyValidators threads a typed record slice through the validator chain.
// Validators only filter, so every surviving element keeps its concrete type.
func applyValidators[T models.Record](validators []repository.Validator, items []T) []T {
	if len(validators) == 0 || len(items) == 0 {
		return items
	}
	records := make([]models.Record, len(items))
	for i, item := range items {
		records[i] = item
	}
	for _, v := range validators {
		records = v.Validate(records)
	}
	out := make([]T, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.(T))
	}
	return out
}
