package transform

import (
	"time"

	"CoreBridge/internal/domain/models"
	"CoreBridge/pkg/logger"
	"CoreBridge/pkg/util"
)

// TradeTransformer normalizes executed trade fills. A fill needs a symbol and
// a positive quantity to be meaningful downstream.
type TradeTransformer struct {
	opts   options
	logger *logger.Logger
}

func NewTradeTransformer(lgr *logger.Logger, opts ...Option) *TradeTransformer {
	return &TradeTransformer{opts: buildOptions(opts), logger: lgr}
}

func (t *TradeTransformer) Normalize(ecosystem string, raws []map[string]any) []models.ExecutedTradeRecord {
	out := make([]models.ExecutedTradeRecord, 0, len(raws))
	for _, raw := range raws {
		symbol := util.FirstNonEmpty(raw, "symbol", "pair", "ticker")
		if symbol == "" {
			dropLog(t.logger, "executed_trade", "missing symbol")
			t.opts.metrics.RecordDropped("transform", "missing_symbol")
			continue
		}

		var quantity float64
		if f := maybeFloatAlias(raw, "quantity", "amount", "size"); f != nil {
			quantity = *f
		}
		if quantity <= 0 {
			dropLog(t.logger, "executed_trade", "non-positive quantity")
			t.opts.metrics.RecordDropped("transform", "invalid_quantity")
			continue
		}

		metadata := metadataMap(raw["metadata"])
		if t.opts.oversized(metadata) {
			dropLog(t.logger, "executed_trade", "metadata too large")
			t.opts.metrics.RecordDropped("transform", "payload_too_large")
			continue
		}

		id := util.FirstNonEmpty(raw, "trade_id", "id")
		if id == "" {
			id = newID()
		}

		ts := time.Now().UTC()
		if v, ok := util.FirstPresent(raw, "executed_at", "timestamp", "time"); ok {
			ts = util.CoerceTime(v, ts)
		}

		var price float64
		if f := maybeFloatAlias(raw, "price", "fill_price"); f != nil {
			price = *f
		}

		out = append(out, models.ExecutedTradeRecord{
			TradeID:          id,
			Ecosystem:        ecosystem,
			Timestamp:        ts,
			Symbol:           symbol,
			Side:             models.NormalizeAction(util.FirstNonEmpty(raw, "side", "action")),
			Quantity:         quantity,
			Price:            price,
			Fees:             maybeFloatAlias(raw, "fees", "fee"),
			PnL:              maybeFloatAlias(raw, "pnl", "profit"),
			AccountReference: util.FirstNonEmpty(raw, "account_reference", "account", "account_id"),
			Metadata:         metadata,
		})
	}
	return out
}
