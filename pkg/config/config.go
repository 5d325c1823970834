package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Database describes one ecosystem datastore.
type Database struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"`
}

// StreamSource describes one WebSocket feed to subscribe to.
type StreamSource struct {
	Ecosystem string   `yaml:"ecosystem"`
	URL       string   `yaml:"url"`
	Topics    []string `yaml:"topics"`
}

// DropoffSource describes one JSON drop-off directory to consume.
type DropoffSource struct {
	Ecosystem string `yaml:"ecosystem"`
	Dir       string `yaml:"dir"`
}

// RateLimitRule configures a token bucket for one caller key.
type RateLimitRule struct {
	Key          string  `yaml:"key"`
	Capacity     float64 `yaml:"capacity"`
	RefillPerSec float64 `yaml:"refill_per_sec"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	EventBus struct {
		Backend       string        `yaml:"backend"`
		Workers       int           `yaml:"workers"`
		RedisURL      string        `yaml:"redis_url"`
		StreamPrefix  string        `yaml:"stream_prefix"`
		StreamMaxLen  int64         `yaml:"stream_maxlen"`
		WebhookURL    string        `yaml:"webhook_url"`
		WebhookSecret string        `yaml:"webhook_secret"`
		Timeout       time.Duration `yaml:"timeout"`
		Kafka         struct {
			Brokers      []string      `yaml:"brokers"`
			TopicPrefix  string        `yaml:"topic_prefix"`
			RequiredAcks int           `yaml:"required_acks"`
			Compression  string        `yaml:"compression"`
			MaxAttempts  int           `yaml:"max_attempts"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
		} `yaml:"kafka"`
	} `yaml:"event_bus"`
	Aggregator struct {
		Interval       time.Duration `yaml:"interval"`
		BatchSize      int           `yaml:"batch_size"`
		MaxPayloadSize int           `yaml:"max_payload_size"`
		DedupeCapacity int           `yaml:"dedupe_capacity"`
	} `yaml:"aggregator"`
	Health struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"health"`
	Auth struct {
		Secret string `yaml:"secret"`
		Keys   string `yaml:"keys"` // key_id1:key_value1|key_id2:key_value2
	} `yaml:"auth"`
	RateLimits []RateLimitRule     `yaml:"rate_limits"`
	Databases  map[string]Database `yaml:"databases"`
	Streams    []StreamSource      `yaml:"streams"`
	Dropoffs   []DropoffSource     `yaml:"dropoffs"`
	Ingress    struct {
		DefaultTopic string `yaml:"default_topic"`
	} `yaml:"ingress"`
	AggregatorEndpoint string `yaml:"aggregator_endpoint"`
}

// SupportedBackends lists the valid event bus backend names.
var SupportedBackends = []string{"memory", "redis", "webhook", "kafka"}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// The CORE_* variables are the shared contract with the agent ecosystems.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("CORE_EVENT_BUS_BACKEND"); v != "" {
		c.EventBus.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("CORE_REDIS_URL"); v != "" {
		c.EventBus.RedisURL = v
	}
	if v := os.Getenv("CORE_EVENT_STREAM_PREFIX"); v != "" {
		c.EventBus.StreamPrefix = v
	}
	if v := os.Getenv("CORE_EVENT_WEBHOOK_URL"); v != "" {
		c.EventBus.WebhookURL = v
	}
	if v := os.Getenv("CORE_EVENT_WEBHOOK_SECRET"); v != "" {
		c.EventBus.WebhookSecret = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.EventBus.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CORE_AUTH_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("CORE_API_KEYS"); v != "" {
		c.Auth.Keys = v
	}
	if v := os.Getenv("AGG_SIGNAL_ENDPOINT"); v != "" {
		c.AggregatorEndpoint = v
	}

	// Per-ecosystem database DSNs: CORE_DB_URL plus CORE_<ECOSYSTEM>_DB_URL.
	for ecosystem, env := range map[string]string{
		"core":   "CORE_DB_URL",
		"crypto": "CORE_CRYPTO_DB_URL",
		"forex":  "CORE_FOREX_DB_URL",
		"stock":  "CORE_STOCK_DB_URL",
	} {
		if dsn := os.Getenv(env); dsn != "" {
			if c.Databases == nil {
				c.Databases = make(map[string]Database)
			}
			db := c.Databases[ecosystem]
			db.DSN = dsn
			if db.Driver == "" {
				db.Driver = "clickhouse"
			}
			c.Databases[ecosystem] = db
		}
	}

	// overrides can introduce values Load never saw
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.EventBus.Backend == "" {
		c.EventBus.Backend = "memory"
	}
	if c.EventBus.Workers <= 0 {
		c.EventBus.Workers = 8
	}
	if c.EventBus.StreamPrefix == "" {
		c.EventBus.StreamPrefix = "core_signals"
	}
	if c.EventBus.StreamMaxLen <= 0 {
		c.EventBus.StreamMaxLen = 10000
	}
	if c.EventBus.Timeout <= 0 {
		c.EventBus.Timeout = 10 * time.Second
	}
	if c.Aggregator.Interval <= 0 {
		c.Aggregator.Interval = 60 * time.Second
	}
	if c.Aggregator.BatchSize <= 0 {
		c.Aggregator.BatchSize = 500
	}
	if c.Aggregator.MaxPayloadSize <= 0 {
		c.Aggregator.MaxPayloadSize = 64 * 1024
	}
	if c.Aggregator.DedupeCapacity <= 0 {
		c.Aggregator.DedupeCapacity = 10000
	}
	if c.Health.Interval <= 0 {
		c.Health.Interval = 30 * time.Second
	}
	if c.Ingress.DefaultTopic == "" {
		c.Ingress.DefaultTopic = "signals"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate checks if the configuration is valid. An unsupported backend name
// is a configuration error and must stop startup; missing optional transport
// settings are not (the bus falls back to memory).
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}

	backend := strings.ToLower(strings.TrimSpace(c.EventBus.Backend))
	valid := false
	for _, b := range SupportedBackends {
		if backend == b {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("event_bus.backend must be one of %s, got '%s'",
			strings.Join(SupportedBackends, "/"), c.EventBus.Backend)
	}

	for ecosystem, db := range c.Databases {
		if db.DSN == "" {
			return fmt.Errorf("databases.%s.dsn is required", ecosystem)
		}
	}
	return nil
}
