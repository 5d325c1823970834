package models

import (
	"fmt"
	"strings"
	"time"
)

// Action is the normalized directive carried by a trading signal.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// NormalizeAction maps free-form source text onto the three-value enum.
// Unknown text falls back to HOLD; this never fails.
func NormalizeAction(text string) Action {
	upper := strings.ToUpper(strings.TrimSpace(text))
	switch upper {
	case "BUY", "SELL", "HOLD":
		return Action(upper)
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "buy") || strings.Contains(lower, "long") {
		return ActionBuy
	}
	if strings.Contains(lower, "sell") || strings.Contains(lower, "short") {
		return ActionSell
	}
	return ActionHold
}

// Record is the common surface of all canonical records: a JSON-shaped map
// used by validators and transports. Implementations must return a copy that
// shares no mutable state with the record.
type Record interface {
	ToMap() map[string]any
}

// UnifiedTradingSignal is the canonical representation for trading signals
// across ecosystems. Every source normalizes into this shape; signal_id is
// the dedup key.
type UnifiedTradingSignal struct {
	SignalID    string
	Ecosystem   string
	Timestamp   time.Time
	Symbol      string
	Action      Action
	SignalType  string
	EntryPrice  *float64
	StopLoss    *float64
	TakeProfit  *float64
	Confidence  *float64
	Volume      *float64
	AgentSource string
	Tags        []string
	RawPayload  map[string]any
}

// NewUnifiedTradingSignal copies tags and payload so the record shares no
// state with the producer.
func NewUnifiedTradingSignal(s UnifiedTradingSignal) UnifiedTradingSignal {
	s.Tags = append([]string(nil), s.Tags...)
	s.RawPayload = DeepCopyMap(s.RawPayload)
	return s
}

// ToMap serializes the signal into a JSON-shaped map.
func (s UnifiedTradingSignal) ToMap() map[string]any {
	return map[string]any{
		"signal_id":    s.SignalID,
		"ecosystem":    s.Ecosystem,
		"timestamp":    s.Timestamp.Format(time.RFC3339Nano),
		"symbol":       s.Symbol,
		"action":       string(s.Action),
		"signal_type":  s.SignalType,
		"entry_price":  floatValue(s.EntryPrice),
		"stop_loss":    floatValue(s.StopLoss),
		"take_profit":  floatValue(s.TakeProfit),
		"confidence":   floatValue(s.Confidence),
		"volume":       floatValue(s.Volume),
		"agent_source": s.AgentSource,
		"tags":         append([]string(nil), s.Tags...),
		"raw_payload":  DeepCopyMap(s.RawPayload),
	}
}

// SignalFromMap reconstructs a signal from its serialized form.
func SignalFromMap(data map[string]any) (UnifiedTradingSignal, error) {
	id, _ := data["signal_id"].(string)
	if id == "" {
		return UnifiedTradingSignal{}, fmt.Errorf("signal_id is required")
	}
	symbol, _ := data["symbol"].(string)
	if symbol == "" {
		return UnifiedTradingSignal{}, fmt.Errorf("symbol is required")
	}

	ts := time.Now().UTC()
	if raw, ok := data["timestamp"].(string); ok {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			parsed, err = time.Parse(time.RFC3339, raw)
		}
		if err != nil {
			return UnifiedTradingSignal{}, fmt.Errorf("parse timestamp: %w", err)
		}
		ts = parsed
	}

	action, _ := data["action"].(string)
	signalType, _ := data["signal_type"].(string)
	agent, _ := data["agent_source"].(string)

	sig := UnifiedTradingSignal{
		SignalID:    id,
		Ecosystem:   stringValue(data["ecosystem"]),
		Timestamp:   ts,
		Symbol:      symbol,
		Action:      NormalizeAction(action),
		SignalType:  signalType,
		EntryPrice:  maybeFloatValue(data["entry_price"]),
		StopLoss:    maybeFloatValue(data["stop_loss"]),
		TakeProfit:  maybeFloatValue(data["take_profit"]),
		Confidence:  maybeFloatValue(data["confidence"]),
		Volume:      maybeFloatValue(data["volume"]),
		AgentSource: agent,
	}

	switch tags := data["tags"].(type) {
	case []string:
		sig.Tags = append([]string(nil), tags...)
	case []any:
		for _, t := range tags {
			sig.Tags = append(sig.Tags, stringValue(t))
		}
	}

	if payload, ok := data["raw_payload"].(map[string]any); ok {
		sig.RawPayload = DeepCopyMap(payload)
	}
	return sig, nil
}

func floatValue(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func maybeFloatValue(v any) *float64 {
	switch f := v.(type) {
	case float64:
		return &f
	case int:
		parsed := float64(f)
		return &parsed
	case int64:
		parsed := float64(f)
		return &parsed
	default:
		return nil
	}
}

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// DeepCopyMap copies nested maps and slices so no mutable state is shared
// between producers and downstream consumers.
func DeepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return DeepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}
