package adapters

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"CoreBridge/internal/registry"
	"CoreBridge/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return lgr
}

type fakeConn struct {
	rows map[string][]map[string]any
}

func (f *fakeConn) Fetch(_ context.Context, source string, _ int) ([]map[string]any, error) {
	return f.rows[source], nil
}
func (f *fakeConn) Ping(context.Context) error { return nil }
func (f *fakeConn) Close() error               { return nil }

func TestEcosystemAdapterCollectsFourSources(t *testing.T) {
	lgr := testLogger(t)
	reg := registry.New(lgr)
	reg.RegisterFactory("crypto", func(context.Context) (registry.Conn, error) {
		return &fakeConn{rows: map[string][]map[string]any{
			sourceSignals:          {{"signal_id": "s1", "symbol": "BTCUSDT"}},
			sourceWhaleRankings:    {{"address": "0xabc"}},
			sourceStrategyMetadata: {{"name": "mr-v2"}},
			sourceExecutedTrades:   {{"trade_id": "t1", "symbol": "ETHUSDT", "quantity": 1.0}},
		}}, nil
	})

	a := NewEcosystemAdapter("crypto", reg, 100, lgr)
	batch, err := a.Collect(context.Background())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(batch.RawSignals) != 1 || len(batch.RawWhaleRankings) != 1 ||
		len(batch.RawStrategyMetadata) != 1 || len(batch.RawExecutedTrades) != 1 {
		t.Fatalf("expected one row per source, got %+v", batch)
	}
}

func TestEcosystemAdapterDecodesEmbeddedJSON(t *testing.T) {
	lgr := testLogger(t)
	reg := registry.New(lgr)
	reg.RegisterFactory("crypto", func(context.Context) (registry.Conn, error) {
		return &fakeConn{rows: map[string][]map[string]any{
			sourceSignals: {{
				"signal_id": "s1",
				"symbol":    "BTCUSDT",
				"tags":      `["momentum","breakout"]`,
				"metadata":  `{"window": 14}`,
				"note":      "plain text stays a string",
			}},
		}}, nil
	})

	a := NewEcosystemAdapter("crypto", reg, 100, lgr)
	batch, err := a.Collect(context.Background())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	row := batch.RawSignals[0]
	if _, ok := row["tags"].([]any); !ok {
		t.Fatalf("serialized list must be decoded, got %T", row["tags"])
	}
	if _, ok := row["metadata"].(map[string]any); !ok {
		t.Fatalf("serialized map must be decoded, got %T", row["metadata"])
	}
	if _, ok := row["note"].(string); !ok {
		t.Fatalf("plain strings must be untouched")
	}
}

func TestEcosystemAdapterFailsWhenUnconfigured(t *testing.T) {
	lgr := testLogger(t)
	a := NewEcosystemAdapter("ghost", registry.New(lgr), 100, lgr)
	if _, err := a.Collect(context.Background()); err == nil {
		t.Fatalf("expected error for unconfigured ecosystem")
	}
}

func TestFileAdapterConsumesDropoffs(t *testing.T) {
	dir := t.TempDir()

	doc := `{"trading_signals": [{"signal_id": "s1", "symbol": "BTCUSDT"}], "executed_trades": [{"trade_id": "t1", "symbol": "ETHUSDT", "quantity": 1}]}`
	list := `[{"signal_id": "s2", "symbol": "SOLUSDT"}]`
	garbage := `not json at all`
	if err := os.WriteFile(filepath.Join(dir, "a.json"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.json"), []byte(list), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "c.json"), []byte(garbage), 0o644); err != nil {
		t.Fatal(err)
	}

	a := NewFileAdapter("commerce", dir, testLogger(t))
	batch, err := a.Collect(context.Background())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(batch.RawSignals) != 2 {
		t.Fatalf("expected 2 signals across files, got %d", len(batch.RawSignals))
	}
	if len(batch.RawExecutedTrades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(batch.RawExecutedTrades))
	}

	// consumed files are removed, malformed ones are left for inspection
	remaining, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	if len(remaining) != 1 || filepath.Base(remaining[0]) != "c.json" {
		t.Fatalf("expected only the malformed file left, got %v", remaining)
	}

	again, err := a.Collect(context.Background())
	if err != nil {
		t.Fatalf("second collect: %v", err)
	}
	if len(again.RawSignals) != 0 {
		t.Fatalf("drop-offs must be collected exactly once")
	}
}

func TestStreamAdapterCollectFailsWhenDisconnected(t *testing.T) {
	a := NewStreamAdapter("crypto", "ws://127.0.0.1:1/feed", nil, testLogger(t))
	if _, err := a.Collect(context.Background()); err == nil {
		t.Fatalf("expected error while disconnected with empty buffer")
	}
}
