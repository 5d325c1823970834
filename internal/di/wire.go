//go:build wireinject
// +build wireinject

package di

import (
	"CoreBridge/pkg/config"
	"CoreBridge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideRegistry,
		ProvideEventBus,
		ProvideHealthChecker,

		// Security
		ProvideRateLimiter,
		ProvideAuthManager,

		// Pipeline
		ProvideAdapters,
		ProvideTransformers,
		ProvideValidators,
		ProvideExporters,
		ProvideAggregator,

		// HTTP
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
