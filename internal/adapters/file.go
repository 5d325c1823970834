package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"CoreBridge/internal/domain/repository"
	"CoreBridge/pkg/logger"
)

// FileAdapter consumes JSON drop-off files from a directory. Agents without
// a datastore or a feed write one document per file; a consumed file is
// removed so it is collected exactly once.
//
// A file holds either an object keyed by collection name (trading_signals,
// whale_rankings, strategy_metadata, executed_trades) or a bare array, which
// is treated as trading signals.
type FileAdapter struct {
	name      string
	ecosystem string
	dir       string
	logger    *logger.Logger
}

func NewFileAdapter(ecosystem, dir string, lgr *logger.Logger) *FileAdapter {
	return &FileAdapter{
		name:      ecosystem + "_dropoff",
		ecosystem: ecosystem,
		dir:       dir,
		logger:    lgr,
	}
}

func (a *FileAdapter) Name() string      { return a.name }
func (a *FileAdapter) Ecosystem() string { return a.ecosystem }

func (a *FileAdapter) Collect(ctx context.Context) (*repository.RawBatch, error) {
	paths, err := filepath.Glob(filepath.Join(a.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan drop-off dir: %w", err)
	}
	sort.Strings(paths)

	batch := &repository.RawBatch{}
	for _, path := range paths {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err := a.consumeFile(path, batch); err != nil {
			a.logger.Warn("skipping malformed drop-off file",
				logger.String("path", path), logger.Error(err))
			continue
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("remove consumed file %s: %w", path, err)
		}
	}
	return batch, nil
}

func (a *FileAdapter) consumeFile(path string, batch *repository.RawBatch) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	var asList []map[string]any
	if err := json.Unmarshal(b, &asList); err == nil {
		batch.RawSignals = append(batch.RawSignals, asList...)
		return nil
	}

	var asDoc map[string][]map[string]any
	if err := json.Unmarshal(b, &asDoc); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	batch.RawSignals = append(batch.RawSignals, asDoc[sourceSignals]...)
	batch.RawWhaleRankings = append(batch.RawWhaleRankings, asDoc[sourceWhaleRankings]...)
	batch.RawStrategyMetadata = append(batch.RawStrategyMetadata, asDoc[sourceStrategyMetadata]...)
	batch.RawExecutedTrades = append(batch.RawExecutedTrades, asDoc[sourceExecutedTrades]...)
	return nil
}
