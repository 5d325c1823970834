package transform

import (
	"time"

	"CoreBridge/internal/domain/models"
	"CoreBridge/pkg/logger"
	"CoreBridge/pkg/util"
)

// StrategyMetadataTransformer normalizes aggregated strategy performance rows.
type StrategyMetadataTransformer struct {
	opts   options
	logger *logger.Logger
}

func NewStrategyMetadataTransformer(lgr *logger.Logger, opts ...Option) *StrategyMetadataTransformer {
	return &StrategyMetadataTransformer{opts: buildOptions(opts), logger: lgr}
}

func (t *StrategyMetadataTransformer) Normalize(ecosystem string, raws []map[string]any) []models.StrategyMetadataRecord {
	out := make([]models.StrategyMetadataRecord, 0, len(raws))
	for _, raw := range raws {
		name := util.FirstNonEmpty(raw, "strategy_name", "name")
		if name == "" {
			dropLog(t.logger, "strategy_metadata", "missing name")
			t.opts.metrics.RecordDropped("transform", "missing_name")
			continue
		}
		metrics := metadataMap(firstAny(raw, "metrics", "stats"))
		if t.opts.oversized(metrics) {
			dropLog(t.logger, "strategy_metadata", "metrics too large")
			t.opts.metrics.RecordDropped("transform", "payload_too_large")
			continue
		}

		id := util.FirstNonEmpty(raw, "strategy_id", "id")
		if id == "" {
			id = newID()
		}

		ts := time.Now().UTC()
		if v, ok := util.FirstPresent(raw, "timestamp", "updated_at", "created_at"); ok {
			ts = util.CoerceTime(v, ts)
		}

		out = append(out, models.StrategyMetadataRecord{
			StrategyID:  id,
			Ecosystem:   ecosystem,
			Name:        name,
			AgentSource: util.FirstNonEmpty(raw, "agent_source", "agent", "source_agent"),
			Timestamp:   ts,
			SharpeRatio: maybeFloatAlias(raw, "sharpe_ratio", "sharpe"),
			WinRate:     maybeFloatAlias(raw, "win_rate", "winrate"),
			Drawdown:    maybeFloatAlias(raw, "drawdown", "max_drawdown"),
			ValueAtRisk: maybeFloatAlias(raw, "value_at_risk", "var"),
			Notes:       util.FirstNonEmpty(raw, "notes", "comment"),
			Metrics:     metrics,
		})
	}
	return out
}
