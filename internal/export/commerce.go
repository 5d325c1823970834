package export

import (
	"context"
	"fmt"

	"CoreBridge/internal/domain/models"
	"CoreBridge/internal/eventbus"
	"CoreBridge/pkg/logger"
)

// Bus topics by record kind.
const (
	TopicSignals          = "signals"
	TopicWhaleRankings    = "whale_rankings"
	TopicStrategyMetadata = "strategy_metadata"
	TopicExecutedTrades   = "executed_trades"
)

// CommerceExporter republishes validated canonical records onto the event bus
// for the commerce ecosystem and any other subscriber. Non-signal records are
// wrapped as signals so every topic carries one uniform envelope; the full
// original record rides in raw_payload.
type CommerceExporter struct {
	bus    *eventbus.EventBus
	logger *logger.Logger
}

func NewCommerceExporter(bus *eventbus.EventBus, lgr *logger.Logger) *CommerceExporter {
	return &CommerceExporter{bus: bus, logger: lgr}
}

func (e *CommerceExporter) ExportSignals(ctx context.Context, signals []models.UnifiedTradingSignal) error {
	for _, sig := range signals {
		if err := e.bus.Publish(ctx, sig, TopicSignals); err != nil {
			return fmt.Errorf("publish signal '%s': %w", sig.SignalID, err)
		}
	}
	return nil
}

func (e *CommerceExporter) ExportWhaleRankings(ctx context.Context, rankings []models.WhaleRankingRecord) error {
	for _, r := range rankings {
		sig := models.NewUnifiedTradingSignal(models.UnifiedTradingSignal{
			SignalID:   "whale:" + r.RankingID,
			Ecosystem:  r.Ecosystem,
			Timestamp:  r.LastActive,
			Symbol:     r.Address,
			Action:     models.ActionHold,
			SignalType: "ANALYTICS",
			Tags:       []string{"whale_ranking"},
			RawPayload: r.ToMap(),
		})
		if err := e.bus.Publish(ctx, sig, TopicWhaleRankings); err != nil {
			return fmt.Errorf("publish whale ranking '%s': %w", r.RankingID, err)
		}
	}
	return nil
}

func (e *CommerceExporter) ExportStrategyMetadata(ctx context.Context, items []models.StrategyMetadataRecord) error {
	for _, s := range items {
		sig := models.NewUnifiedTradingSignal(models.UnifiedTradingSignal{
			SignalID:    "strategy:" + s.StrategyID,
			Ecosystem:   s.Ecosystem,
			Timestamp:   s.Timestamp,
			Symbol:      s.Name,
			Action:      models.ActionHold,
			SignalType:  "ANALYTICS",
			AgentSource: s.AgentSource,
			Tags:        []string{"strategy_metadata"},
			RawPayload:  s.ToMap(),
		})
		if err := e.bus.Publish(ctx, sig, TopicStrategyMetadata); err != nil {
			return fmt.Errorf("publish strategy metadata '%s': %w", s.StrategyID, err)
		}
	}
	return nil
}

func (e *CommerceExporter) ExportExecutedTrades(ctx context.Context, trades []models.ExecutedTradeRecord) error {
	for _, t := range trades {
		quantity := t.Quantity
		price := t.Price
		sig := models.NewUnifiedTradingSignal(models.UnifiedTradingSignal{
			SignalID:   "trade:" + t.TradeID,
			Ecosystem:  t.Ecosystem,
			Timestamp:  t.Timestamp,
			Symbol:     t.Symbol,
			Action:     t.Side,
			SignalType: "TRADE",
			EntryPrice: &price,
			Volume:     &quantity,
			Tags:       []string{"executed_trade"},
			RawPayload: t.ToMap(),
		})
		if err := e.bus.Publish(ctx, sig, TopicExecutedTrades); err != nil {
			return fmt.Errorf("publish executed trade '%s': %w", t.TradeID, err)
		}
	}
	return nil
}
