package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.EventBus.Backend != "memory" {
		t.Fatalf("expected memory default, got %s", c.EventBus.Backend)
	}
	if c.Aggregator.Interval <= 0 || c.Health.Interval <= 0 {
		t.Fatalf("expected interval defaults")
	}
	if c.Ingress.DefaultTopic != "signals" {
		t.Fatalf("unexpected default topic %s", c.Ingress.DefaultTopic)
	}
}

func TestLoadRejectsUnsupportedBackend(t *testing.T) {
	path := writeConfig(t, "environment: test\nevent_bus:\n  backend: carrier-pigeon\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unsupported backend")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "environment: test\n")
	t.Setenv("CORE_EVENT_BUS_BACKEND", "redis")
	t.Setenv("CORE_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CORE_CRYPTO_DB_URL", "clickhouse://localhost:9000/crypto")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.EventBus.Backend != "redis" {
		t.Fatalf("expected redis backend, got %s", c.EventBus.Backend)
	}
	if c.EventBus.RedisURL == "" {
		t.Fatalf("expected redis url override")
	}
	db, ok := c.Databases["crypto"]
	if !ok || db.Driver != "clickhouse" {
		t.Fatalf("expected crypto database with clickhouse driver, got %+v", db)
	}
}

func TestLoadWithEnvRejectsUnsupportedBackend(t *testing.T) {
	path := writeConfig(t, "environment: test\n")
	t.Setenv("CORE_EVENT_BUS_BACKEND", "carrier-pigeon")

	if _, err := LoadWithEnv(path); err == nil {
		t.Fatalf("backend override must pass the same validation as the file")
	}
}
