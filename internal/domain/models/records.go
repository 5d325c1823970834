package models

import "time"

// WhaleRankingRecord is the canonical whale ranking format shared by the
// crypto ecosystem and any other source that tracks large accounts.
type WhaleRankingRecord struct {
	RankingID  string
	Ecosystem  string
	Address    string
	Rank       int
	Score      float64
	PnL30d     *float64
	PnL7d      *float64
	PnL1d      *float64
	Winrate7d  *float64
	LastActive time.Time
	IsActive   bool
	Metadata   map[string]any
}

func (r WhaleRankingRecord) ToMap() map[string]any {
	return map[string]any{
		"ranking_id":  r.RankingID,
		"ecosystem":   r.Ecosystem,
		"address":     r.Address,
		"rank":        r.Rank,
		"score":       r.Score,
		"pnl_30d":     floatValue(r.PnL30d),
		"pnl_7d":      floatValue(r.PnL7d),
		"pnl_1d":      floatValue(r.PnL1d),
		"winrate_7d":  floatValue(r.Winrate7d),
		"last_active": r.LastActive.Format(time.RFC3339Nano),
		"is_active":   r.IsActive,
		"metadata":    DeepCopyMap(r.Metadata),
	}
}

// StrategyMetadataRecord carries aggregated performance metrics for trading
// strategies.
type StrategyMetadataRecord struct {
	StrategyID  string
	Ecosystem   string
	Name        string
	AgentSource string
	Timestamp   time.Time
	SharpeRatio *float64
	WinRate     *float64
	Drawdown    *float64
	ValueAtRisk *float64
	Notes       string
	Metrics     map[string]any
}

func (r StrategyMetadataRecord) ToMap() map[string]any {
	return map[string]any{
		"strategy_id":   r.StrategyID,
		"ecosystem":     r.Ecosystem,
		"name":          r.Name,
		"agent_source":  r.AgentSource,
		"timestamp":     r.Timestamp.Format(time.RFC3339Nano),
		"sharpe_ratio":  floatValue(r.SharpeRatio),
		"win_rate":      floatValue(r.WinRate),
		"drawdown":      floatValue(r.Drawdown),
		"value_at_risk": floatValue(r.ValueAtRisk),
		"notes":         r.Notes,
		"metrics":       DeepCopyMap(r.Metrics),
	}
}

// ExecutedTradeRecord is the normalized representation of executed trades.
type ExecutedTradeRecord struct {
	TradeID          string
	Ecosystem        string
	Timestamp        time.Time
	Symbol           string
	Side             Action
	Quantity         float64
	Price            float64
	Fees             *float64
	PnL              *float64
	AccountReference string
	Metadata         map[string]any
}

func (r ExecutedTradeRecord) ToMap() map[string]any {
	return map[string]any{
		"trade_id":          r.TradeID,
		"ecosystem":         r.Ecosystem,
		"timestamp":         r.Timestamp.Format(time.RFC3339Nano),
		"symbol":            r.Symbol,
		"side":              string(r.Side),
		"quantity":          r.Quantity,
		"price":             r.Price,
		"fees":              floatValue(r.Fees),
		"pnl":               floatValue(r.PnL),
		"account_reference": r.AccountReference,
		"metadata":          DeepCopyMap(r.Metadata),
	}
}
