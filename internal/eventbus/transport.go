package eventbus

import (
	"context"

	"CoreBridge/internal/domain/models"
)

// NoopTransport is the memory backend: everything stays in-process.
type NoopTransport struct{}

func (NoopTransport) Publish(context.Context, models.UnifiedTradingSignal, string) error {
	return nil
}
func (NoopTransport) Name() string { return "memory" }
func (NoopTransport) Close() error { return nil }
