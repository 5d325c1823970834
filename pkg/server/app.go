package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"CoreBridge/internal/adapters"
	"CoreBridge/internal/aggregator"
	"CoreBridge/internal/eventbus"
	"CoreBridge/internal/health"
	"CoreBridge/pkg/config"
	xhttp "CoreBridge/pkg/http"
	applogger "CoreBridge/pkg/logger"
)

// App encapsulates the application lifecycle: health checking, stream feeds,
// the aggregation loop, and the HTTP ingress, brought up in that order and
// torn down in reverse.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	bus        *eventbus.EventBus
	agg        *aggregator.DataAggregator
	checker    *health.Checker
	streams    []*adapters.StreamAdapter
	handler    xhttp.Handler
	httpServer *xhttp.Server
}

func New(
	cfg *config.Config,
	lgr *applogger.Logger,
	bus *eventbus.EventBus,
	agg *aggregator.DataAggregator,
	checker *health.Checker,
	streams []*adapters.StreamAdapter,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:     cfg,
		logger:  lgr,
		bus:     bus,
		agg:     agg,
		checker: checker,
		streams: streams,
		handler: handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.checker.Start()
	for _, stream := range a.streams {
		stream.Start(ctx)
	}
	a.agg.Start(ctx)

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestMetrics(a.logger, 0),
	)
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("started",
		applogger.String("environment", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("bus_backend", a.bus.Backend()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) shutdown(ctx context.Context) error {
	// stop producing before draining the bus
	a.agg.Stop()
	for _, stream := range a.streams {
		stream.Stop()
	}
	a.checker.Stop()

	drainCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.bus.Shutdown(drainCtx); err != nil {
		a.logger.Warn("event bus shutdown error", applogger.Error(err))
	}

	httpCtx, cancelHTTP := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancelHTTP()
	if err := a.httpServer.Stop(httpCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		return err
	}

	a.logger.Info("shutdown complete")
	return nil
}
