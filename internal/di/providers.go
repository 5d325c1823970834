package di

import (
	"context"

	"CoreBridge/internal/adapters"
	"CoreBridge/internal/aggregator"
	"CoreBridge/internal/domain/repository"
	"CoreBridge/internal/eventbus"
	"CoreBridge/internal/export"
	"CoreBridge/internal/handler/api"
	"CoreBridge/internal/health"
	"CoreBridge/internal/registry"
	"CoreBridge/internal/security"
	"CoreBridge/internal/transform"
	"CoreBridge/internal/validate"
	"CoreBridge/pkg/config"
	xhttp "CoreBridge/pkg/http"
	applogger "CoreBridge/pkg/logger"
	"CoreBridge/pkg/metrics"
	"CoreBridge/pkg/server"
)

// AdapterSet groups every collection source. Stream adapters are listed twice
// because the app has to start and stop their read loops.
type AdapterSet struct {
	All     []repository.Adapter
	Streams []*adapters.StreamAdapter
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRegistry configures the connection registry from the databases
// section. Unsupported drivers surface at first use, not here.
func ProvideRegistry(cfg *config.Config, lgr *applogger.Logger) *registry.ConnectionFactoryRegistry {
	reg := registry.New(lgr)
	for ecosystem, db := range cfg.Databases {
		reg.Configure(ecosystem, db.DSN, db.Driver, nil)
	}
	return reg
}

// ProvideEventBus builds the bus for the configured backend, falling back to
// memory when the backend cannot be brought up.
func ProvideEventBus(cfg *config.Config, lgr *applogger.Logger, m repository.Metrics) *eventbus.EventBus {
	return eventbus.NewFromConfig(context.Background(), cfg, lgr, m)
}

// ProvideHealthChecker creates the periodic health checker.
func ProvideHealthChecker(cfg *config.Config, lgr *applogger.Logger) *health.Checker {
	return health.NewChecker(cfg.Health.Interval, lgr)
}

// ProvideRateLimiter configures token buckets from the rate limit rules.
func ProvideRateLimiter(cfg *config.Config) *security.RateLimiter {
	limiter := security.NewRateLimiter()
	for _, rule := range cfg.RateLimits {
		limiter.Configure(rule.Key, rule.Capacity, rule.RefillPerSec)
	}
	return limiter
}

// ProvideAuthManager loads registered API keys.
func ProvideAuthManager(cfg *config.Config, lgr *applogger.Logger) *security.AuthManager {
	auth := security.NewAuthManager(cfg.Auth.Secret, lgr)
	auth.LoadKeys(cfg.Auth.Keys)
	return auth
}

// ProvideAdapters builds one adapter per configured source: a datastore
// adapter per database, a stream adapter per feed, a drop-off adapter per
// directory.
func ProvideAdapters(cfg *config.Config, reg *registry.ConnectionFactoryRegistry, lgr *applogger.Logger) *AdapterSet {
	set := &AdapterSet{}
	for ecosystem := range cfg.Databases {
		set.All = append(set.All, adapters.NewEcosystemAdapter(ecosystem, reg, cfg.Aggregator.BatchSize, lgr))
	}
	for _, stream := range cfg.Streams {
		sa := adapters.NewStreamAdapter(stream.Ecosystem, stream.URL, stream.Topics, lgr)
		set.All = append(set.All, sa)
		set.Streams = append(set.Streams, sa)
	}
	for _, dropoff := range cfg.Dropoffs {
		set.All = append(set.All, adapters.NewFileAdapter(dropoff.Ecosystem, dropoff.Dir, lgr))
	}
	return set
}

// ProvideTransformers builds the four per-kind transformers sharing the
// payload size cap.
func ProvideTransformers(cfg *config.Config, lgr *applogger.Logger, m repository.Metrics) aggregator.Transformers {
	opts := []transform.Option{
		transform.WithMaxPayloadSize(cfg.Aggregator.MaxPayloadSize),
		transform.WithMetrics(m),
	}
	return aggregator.Transformers{
		Signals:    transform.NewSignalNormalizer(lgr, opts...),
		Rankings:   transform.NewWhaleRankingTransformer(lgr, opts...),
		Strategies: transform.NewStrategyMetadataTransformer(lgr, opts...),
		Trades:     transform.NewTradeTransformer(lgr, opts...),
	}
}

// ProvideValidators builds the validator chain: dedup before quality, so
// records about to be dropped are not re-validated.
func ProvideValidators(cfg *config.Config, lgr *applogger.Logger, m repository.Metrics) []repository.Validator {
	return []repository.Validator{
		validate.NewDuplicateChecker("signal_id", cfg.Aggregator.DedupeCapacity, lgr, m),
		validate.NewDataQualityValidator(lgr, m, "ecosystem"),
	}
}

// ProvideExporters wires the bus-backed exporter.
func ProvideExporters(bus *eventbus.EventBus, lgr *applogger.Logger) []repository.Exporter {
	return []repository.Exporter{export.NewCommerceExporter(bus, lgr)}
}

// ProvideAggregator assembles the pipeline orchestrator.
func ProvideAggregator(
	cfg *config.Config,
	set *AdapterSet,
	transformers aggregator.Transformers,
	validators []repository.Validator,
	exporters []repository.Exporter,
	checker *health.Checker,
	lgr *applogger.Logger,
	m repository.Metrics,
) *aggregator.DataAggregator {
	return aggregator.New(set.All, transformers, validators, exporters, checker, cfg.Aggregator.Interval, lgr, m)
}

// ProvideHandler assembles the HTTP ingress handler.
func ProvideHandler(
	cfg *config.Config,
	lgr *applogger.Logger,
	bus *eventbus.EventBus,
	checker *health.Checker,
	limiter *security.RateLimiter,
	auth *security.AuthManager,
	m repository.Metrics,
) xhttp.Handler {
	return api.NewIngressHandler(lgr, bus, checker, limiter, auth,
		cfg.Auth.Secret, cfg.Ingress.DefaultTopic, m)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	bus *eventbus.EventBus,
	agg *aggregator.DataAggregator,
	checker *health.Checker,
	set *AdapterSet,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, lgr, bus, agg, checker, set.Streams, handler)
}
