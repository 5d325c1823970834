package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"CoreBridge/internal/domain/repository"
	"CoreBridge/internal/registry"
	"CoreBridge/pkg/logger"
)

// Source names the adapters read from each ecosystem datastore. Every
// ecosystem exposes the same four collections under these names.
const (
	sourceSignals          = "trading_signals"
	sourceWhaleRankings    = "whale_rankings"
	sourceStrategyMetadata = "strategy_metadata"
	sourceExecutedTrades   = "executed_trades"
)

// EcosystemAdapter collects raw records from one ecosystem's datastore via
// the connection registry. Each collect opens a scoped connection, pulls the
// four collections, and closes it.
type EcosystemAdapter struct {
	name      string
	ecosystem string
	registry  *registry.ConnectionFactoryRegistry
	batchSize int
	logger    *logger.Logger
}

func NewEcosystemAdapter(ecosystem string, reg *registry.ConnectionFactoryRegistry, batchSize int, lgr *logger.Logger) *EcosystemAdapter {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &EcosystemAdapter{
		name:      ecosystem + "_adapter",
		ecosystem: ecosystem,
		registry:  reg,
		batchSize: batchSize,
		logger:    lgr,
	}
}

func (a *EcosystemAdapter) Name() string      { return a.name }
func (a *EcosystemAdapter) Ecosystem() string { return a.ecosystem }

func (a *EcosystemAdapter) Collect(ctx context.Context) (*repository.RawBatch, error) {
	batch := &repository.RawBatch{}

	err := a.registry.WithConnection(ctx, a.ecosystem, func(conn registry.Conn) error {
		var err error
		if batch.RawSignals, err = a.fetch(ctx, conn, sourceSignals); err != nil {
			return err
		}
		if batch.RawWhaleRankings, err = a.fetch(ctx, conn, sourceWhaleRankings); err != nil {
			return err
		}
		if batch.RawStrategyMetadata, err = a.fetch(ctx, conn, sourceStrategyMetadata); err != nil {
			return err
		}
		if batch.RawExecutedTrades, err = a.fetch(ctx, conn, sourceExecutedTrades); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect from ecosystem '%s': %w", a.ecosystem, err)
	}

	return batch, nil
}

func (a *EcosystemAdapter) fetch(ctx context.Context, conn registry.Conn, source string) ([]map[string]any, error) {
	rows, err := conn.Fetch(ctx, source, a.batchSize)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", source, err)
	}
	for _, row := range rows {
		decodeEmbeddedJSON(row)
	}
	return rows, nil
}

// decodeEmbeddedJSON expands column values that are JSON documents stored as
// text. Columnar stores keep maps and lists serialized; transformers expect
// them structured.
func decodeEmbeddedJSON(row map[string]any) {
	for k, v := range row {
		s, ok := v.(string)
		if !ok {
			continue
		}
		trimmed := strings.TrimSpace(s)
		if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
			continue
		}
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			row[k] = decoded
		}
	}
}
