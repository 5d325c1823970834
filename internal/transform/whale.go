package transform

import (
	"time"

	"CoreBridge/internal/domain/models"
	"CoreBridge/pkg/logger"
	"CoreBridge/pkg/util"
)

// WhaleRankingTransformer normalizes large-account leaderboard rows. Identity
// is the wallet address; rows without one carry no information worth keeping.
type WhaleRankingTransformer struct {
	opts   options
	logger *logger.Logger
}

func NewWhaleRankingTransformer(lgr *logger.Logger, opts ...Option) *WhaleRankingTransformer {
	return &WhaleRankingTransformer{opts: buildOptions(opts), logger: lgr}
}

func (t *WhaleRankingTransformer) Normalize(ecosystem string, raws []map[string]any) []models.WhaleRankingRecord {
	out := make([]models.WhaleRankingRecord, 0, len(raws))
	for _, raw := range raws {
		address := util.FirstNonEmpty(raw, "address", "wallet", "wallet_address")
		if address == "" {
			dropLog(t.logger, "whale_ranking", "missing address")
			t.opts.metrics.RecordDropped("transform", "missing_address")
			continue
		}
		// keep the full source row so unrecognized fields stay traceable
		metadata := models.DeepCopyMap(raw)
		if t.opts.oversized(metadata) {
			dropLog(t.logger, "whale_ranking", "metadata too large")
			t.opts.metrics.RecordDropped("transform", "payload_too_large")
			continue
		}

		id := util.FirstNonEmpty(raw, "ranking_id", "id")
		if id == "" {
			id = newID()
		}

		lastActive := time.Now().UTC()
		if v, ok := util.FirstPresent(raw, "last_active", "updated_at", "timestamp"); ok {
			lastActive = util.CoerceTime(v, lastActive)
		}

		var score float64
		if f := maybeFloatAlias(raw, "score", "ranking_score"); f != nil {
			score = *f
		}

		out = append(out, models.WhaleRankingRecord{
			RankingID:  id,
			Ecosystem:  ecosystem,
			Address:    address,
			Rank:       util.MaybeInt(firstAny(raw, "rank", "position"), 0),
			Score:      score,
			PnL30d:     maybeFloatAlias(raw, "pnl_30d", "pnl30d"),
			PnL7d:      maybeFloatAlias(raw, "pnl_7d", "pnl7d"),
			PnL1d:      maybeFloatAlias(raw, "pnl_1d", "pnl1d"),
			Winrate7d:  maybeFloatAlias(raw, "winrate_7d", "winrate"),
			LastActive: lastActive,
			IsActive:   util.MaybeBool(firstAny(raw, "is_active", "active"), true),
			Metadata:   metadata,
		})
	}
	return out
}
