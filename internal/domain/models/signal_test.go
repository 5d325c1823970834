package models

import (
    "testing"
    "time"
)

func floatPtr(f float64) *float64 { return &f }

func TestSignalRoundTrip(t *testing.T) {
    sig := NewUnifiedTradingSignal(UnifiedTradingSignal{
        SignalID:    "sig-1",
        Ecosystem:   "crypto",
        Timestamp:   time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC),
        Symbol:      "BTCUSDT",
        Action:      ActionBuy,
        SignalType:  "MARKET",
        EntryPrice:  floatPtr(65000),
        Confidence:  floatPtr(0.8),
        AgentSource: "trading_agent",
        Tags:        []string{"momentum", "breakout"},
        RawPayload:  map[string]any{"source": "binance", "nested": map[string]any{"a": 1.0}},
    })

    got, err := SignalFromMap(sig.ToMap())
    if err != nil {
        t.Fatalf("from map: %v", err)
    }
    if got.SignalID != sig.SignalID || got.Symbol != sig.Symbol || got.Action != sig.Action {
        t.Fatalf("identity fields diverged: %+v", got)
    }
    if !got.Timestamp.Equal(sig.Timestamp) {
        t.Fatalf("timestamp diverged: %v vs %v", got.Timestamp, sig.Timestamp)
    }
    if got.EntryPrice == nil || *got.EntryPrice != 65000 {
        t.Fatalf("entry price diverged: %v", got.EntryPrice)
    }
    if got.StopLoss != nil {
        t.Fatalf("expected nil stop loss")
    }
    if len(got.Tags) != 2 || got.Tags[0] != "momentum" {
        t.Fatalf("tags diverged: %v", got.Tags)
    }
    if got.RawPayload["source"] != "binance" {
        t.Fatalf("raw payload diverged: %v", got.RawPayload)
    }
}

func TestSignalFromMapRejectsMissingIdentity(t *testing.T) {
    if _, err := SignalFromMap(map[string]any{"symbol": "EURUSD"}); err == nil {
        t.Fatalf("expected error for missing signal_id")
    }
    if _, err := SignalFromMap(map[string]any{"signal_id": "sig-2"}); err == nil {
        t.Fatalf("expected error for missing symbol")
    }
}

func TestToMapDoesNotAliasPayload(t *testing.T) {
    payload := map[string]any{"k": "v"}
    sig := NewUnifiedTradingSignal(UnifiedTradingSignal{
        SignalID: "sig-3", Symbol: "ETHUSDT", Action: ActionHold, RawPayload: payload,
    })
    payload["k"] = "mutated"

    m := sig.ToMap()
    inner := m["raw_payload"].(map[string]any)
    if inner["k"] != "v" {
        t.Fatalf("payload aliased to producer map")
    }
    inner["k"] = "mutated-again"
    if sig.RawPayload["k"] != "v" {
        t.Fatalf("ToMap leaked internal map")
    }
}

func TestNormalizeAction(t *testing.T) {
    cases := map[string]Action{
        "BUY":          ActionBuy,
        "sell":         ActionSell,
        "HOLD":         ActionHold,
        "strong buy!!": ActionBuy,
        "go short":     ActionSell,
        "":             ActionHold,
        "banana":       ActionHold,
    }
    for in, want := range cases {
        if got := NormalizeAction(in); got != want {
            t.Fatalf("NormalizeAction(%q) = %s, want %s", in, got, want)
        }
    }
}
