package validate

import (
	"fmt"
	"testing"
	"time"

	"CoreBridge/internal/domain/models"
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

func signal(id string) models.Record {
	return models.UnifiedTradingSignal{
		SignalID:  id,
		Ecosystem: "crypto",
		Timestamp: time.Now().UTC(),
		Symbol:    "BTCUSDT",
		Action:    models.ActionBuy,
	}
}

func TestDuplicateCheckerDropsRepeats(t *testing.T) {
	dc := NewDuplicateChecker("signal_id", 100, testLogger(t), nil)

	first := dc.Validate([]models.Record{signal("a"), signal("b"), signal("a")})
	if len(first) != 2 {
		t.Fatalf("expected in-batch duplicate dropped, got %d", len(first))
	}

	second := dc.Validate([]models.Record{signal("b"), signal("c")})
	if len(second) != 1 {
		t.Fatalf("expected cross-batch duplicate dropped, got %d", len(second))
	}
}

func TestDuplicateCheckerCapacityBounded(t *testing.T) {
	dc := NewDuplicateChecker("signal_id", 3, testLogger(t), nil)

	var batch []models.Record
	for i := 0; i < 10; i++ {
		batch = append(batch, signal(fmt.Sprintf("sig-%d", i)))
	}
	dc.Validate(batch)

	if dc.Len() != 3 {
		t.Fatalf("expected tracked set capped at 3, got %d", dc.Len())
	}

	// the oldest key aged out, so it is accepted again
	again := dc.Validate([]models.Record{signal("sig-0")})
	if len(again) != 1 {
		t.Fatalf("aged-out key must be accepted again")
	}
	// the newest key is still tracked
	still := dc.Validate([]models.Record{signal("sig-9")})
	if len(still) != 0 {
		t.Fatalf("recent key must still be rejected")
	}
}

func TestDuplicateCheckerKeylessRecordsPass(t *testing.T) {
	dc := NewDuplicateChecker("signal_id", 10, testLogger(t), nil)
	out := dc.Validate([]models.Record{signal(""), signal("")})
	if len(out) != 2 {
		t.Fatalf("keyless records must pass through, got %d", len(out))
	}
}

func TestDataQualityValidator(t *testing.T) {
	v := NewDataQualityValidator(testLogger(t), nil, "signal_id", "symbol")

	broken := models.UnifiedTradingSignal{SignalID: "x", Timestamp: time.Now()}
	out := v.Validate([]models.Record{signal("ok"), broken})
	if len(out) != 1 {
		t.Fatalf("expected record with empty symbol dropped, got %d", len(out))
	}
}
