package repository

import (
	"context"

	"CoreBridge/internal/domain/models"
)

// RawBatch carries the raw payloads one adapter collected in a cycle, before
// normalization. Values are JSON-shaped maps straight from the source.
type RawBatch struct {
	RawSignals          []map[string]any
	RawWhaleRankings    []map[string]any
	RawStrategyMetadata []map[string]any
	RawExecutedTrades   []map[string]any
}

// Adapter pulls source-specific records from one ecosystem.
type Adapter interface {
	Name() string
	Ecosystem() string
	Collect(ctx context.Context) (*RawBatch, error)
}

// Exporter pushes validated canonical records downstream.
type Exporter interface {
	ExportSignals(ctx context.Context, signals []models.UnifiedTradingSignal) error
	ExportWhaleRankings(ctx context.Context, rankings []models.WhaleRankingRecord) error
	ExportStrategyMetadata(ctx context.Context, items []models.StrategyMetadataRecord) error
	ExportExecutedTrades(ctx context.Context, trades []models.ExecutedTradeRecord) error
}

// Transport delivers a published signal to a remote destination. The in-process
// memory backend uses NoopTransport.
type Transport interface {
	Publish(ctx context.Context, sig models.UnifiedTradingSignal, topic string) error
	Name() string
	Close() error
}

// Validator filters a normalized record stream for integrity. Validators
// compose; the output of one feeds the next.
type Validator interface {
	Validate(records []models.Record) []models.Record
}

// Metrics is the recording surface used across the pipeline.
type Metrics interface {
	RecordPublished(backend, topic string)
	RecordDropped(stage, reason string)
	RecordError(kind string)
	RecordRateLimited(key string)
	RecordLatency(op string, seconds float64)
	RecordQueueDepth(n int)
}

// NopMetrics discards all observations; used in tests and optional wiring.
type NopMetrics struct{}

func (NopMetrics) RecordPublished(string, string) {}
func (NopMetrics) RecordDropped(string, string)   {}
func (NopMetrics) RecordError(string)             {}
func (NopMetrics) RecordRateLimited(string)       {}
func (NopMetrics) RecordLatency(string, float64)  {}
func (NopMetrics) RecordQueueDepth(int)           {}
