package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"CoreBridge/pkg/logger"
)

// Conn is a scoped connection to one ecosystem datastore. Fetch returns raw
// rows as JSON-shaped maps; each driver maps "source" onto its own notion of
// a table, stream, or key.
type Conn interface {
	Fetch(ctx context.Context, source string, limit int) ([]map[string]any, error)
	Ping(ctx context.Context) error
	Close() error
}

// Factory opens a fresh connection. Connections are never pooled or reused
// across calls; every acquisition gets its own.
type Factory func(ctx context.Context) (Conn, error)

// Config describes how to connect to one ecosystem datastore.
type Config struct {
	Ecosystem string
	DSN       string
	Driver    string
	Options   map[string]any
}

// ConnectionFactoryRegistry resolves an ecosystem name to a connection
// factory. It is an explicitly constructed, dependency-injected instance;
// one per process by convention, not by singleton enforcement.
type ConnectionFactoryRegistry struct {
	mu        sync.Mutex
	factories map[string]Factory
	configs   map[string]Config
	logger    *logger.Logger
}

func New(lgr *logger.Logger) *ConnectionFactoryRegistry {
	return &ConnectionFactoryRegistry{
		factories: make(map[string]Factory),
		configs:   make(map[string]Config),
		logger:    lgr,
	}
}

// Configure registers or updates connection settings for an ecosystem.
// Driver support is not checked here; an unsupported driver fails at first
// use, like any other configuration error surfaced by the factory.
func (r *ConnectionFactoryRegistry) Configure(ecosystem, dsn, driver string, options map[string]any) {
	key := strings.ToLower(ecosystem)
	r.mu.Lock()
	r.configs[key] = Config{Ecosystem: key, DSN: dsn, Driver: strings.ToLower(driver), Options: options}
	delete(r.factories, key) // rebuilt lazily from the new config
	r.mu.Unlock()
	r.logger.Debug("configured datastore", logger.String("ecosystem", key), logger.String("driver", driver))
}

// RegisterFactory installs a custom connection factory for an ecosystem,
// bypassing driver resolution.
func (r *ConnectionFactoryRegistry) RegisterFactory(ecosystem string, factory Factory) {
	key := strings.ToLower(ecosystem)
	r.mu.Lock()
	r.factories[key] = factory
	r.mu.Unlock()
	r.logger.Debug("registered connection factory", logger.String("ecosystem", key))
}

// GetFactory returns the factory for an ecosystem, building it from
// configuration on first use.
func (r *ConnectionFactoryRegistry) GetFactory(ecosystem string) (Factory, error) {
	key := strings.ToLower(ecosystem)

	r.mu.Lock()
	defer r.mu.Unlock()

	if factory, ok := r.factories[key]; ok {
		return factory, nil
	}

	cfg, ok := r.configs[key]
	if !ok {
		return nil, fmt.Errorf("no datastore configured for ecosystem '%s'", ecosystem)
	}

	factory, err := buildFactory(cfg)
	if err != nil {
		return nil, err
	}
	r.factories[key] = factory
	return factory, nil
}

// WithConnection opens a connection for the ecosystem, hands it to fn, and
// guarantees closure on every exit path.
func (r *ConnectionFactoryRegistry) WithConnection(ctx context.Context, ecosystem string, fn func(Conn) error) error {
	factory, err := r.GetFactory(ecosystem)
	if err != nil {
		return err
	}

	conn, err := factory(ctx)
	if err != nil {
		return fmt.Errorf("open connection for ecosystem '%s': %w", ecosystem, err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			r.logger.Warn("close connection", logger.String("ecosystem", ecosystem), logger.Error(cerr))
		}
	}()

	return fn(conn)
}
