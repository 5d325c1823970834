package transform

import (
	"time"

	"CoreBridge/internal/domain/models"
	"CoreBridge/pkg/logger"
	"CoreBridge/pkg/util"
)

// SignalNormalizer maps raw agent payloads onto UnifiedTradingSignal. Field
// names vary per ecosystem, so every field is resolved through an alias list
// and coerced defensively; a record only needs a symbol to survive.
type SignalNormalizer struct {
	opts   options
	logger *logger.Logger
}

func NewSignalNormalizer(lgr *logger.Logger, opts ...Option) *SignalNormalizer {
	return &SignalNormalizer{opts: buildOptions(opts), logger: lgr}
}

// Normalize converts raw payloads from one ecosystem into canonical signals.
// Malformed records are dropped individually; the rest of the batch proceeds.
func (t *SignalNormalizer) Normalize(ecosystem string, raws []map[string]any) []models.UnifiedTradingSignal {
	out := make([]models.UnifiedTradingSignal, 0, len(raws))
	for _, raw := range raws {
		sig, ok := t.normalizeOne(ecosystem, raw)
		if !ok {
			continue
		}
		out = append(out, sig)
	}
	return out
}

func (t *SignalNormalizer) normalizeOne(ecosystem string, raw map[string]any) (models.UnifiedTradingSignal, bool) {
	symbol := util.FirstNonEmpty(raw, "symbol", "pair", "ticker")
	if symbol == "" {
		dropLog(t.logger, "signal", "missing symbol")
		t.opts.metrics.RecordDropped("transform", "missing_symbol")
		return models.UnifiedTradingSignal{}, false
	}
	if t.opts.oversized(raw) {
		dropLog(t.logger, "signal", "payload too large")
		t.opts.metrics.RecordDropped("transform", "payload_too_large")
		return models.UnifiedTradingSignal{}, false
	}

	id := util.FirstNonEmpty(raw, "signal_id", "id")
	if id == "" {
		id = newID()
	}

	ts := time.Now().UTC()
	if v, ok := util.FirstPresent(raw, "timestamp", "created_at", "time", "datetime"); ok {
		ts = util.CoerceTime(v, ts)
	}

	action := models.NormalizeAction(util.FirstNonEmpty(raw, "action", "side", "direction"))

	signalType := util.FirstNonEmpty(raw, "signal_type", "type")
	if signalType == "" {
		signalType = "MARKET"
	}

	tags := parseTags(firstAny(raw, "tags", "labels", "strategies"))

	return models.NewUnifiedTradingSignal(models.UnifiedTradingSignal{
		SignalID:    id,
		Ecosystem:   ecosystem,
		Timestamp:   ts,
		Symbol:      symbol,
		Action:      action,
		SignalType:  signalType,
		EntryPrice:  maybeFloatAlias(raw, "entry_price", "price"),
		StopLoss:    maybeFloatAlias(raw, "stop_loss", "sl"),
		TakeProfit:  maybeFloatAlias(raw, "take_profit", "tp"),
		Confidence:  clampConfidence(maybeFloatAlias(raw, "confidence", "score")),
		Volume:      maybeFloatAlias(raw, "volume", "size"),
		AgentSource: util.FirstNonEmpty(raw, "agent_source", "agent", "source_agent"),
		Tags:        tags,
		RawPayload:  raw,
	}), true
}

func firstAny(raw map[string]any, keys ...string) any {
	v, _ := util.FirstPresent(raw, keys...)
	return v
}

func maybeFloatAlias(raw map[string]any, keys ...string) *float64 {
	if v, ok := util.FirstPresent(raw, keys...); ok {
		return util.MaybeFloat(v)
	}
	return nil
}

// clampConfidence keeps confidence inside [0, 1]; out-of-range values are
// treated as absent rather than trusted.
func clampConfidence(f *float64) *float64 {
	if f == nil {
		return nil
	}
	if *f < 0 || *f > 1 {
		return nil
	}
	return f
}
