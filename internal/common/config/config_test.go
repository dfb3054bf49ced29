// filename: internal/common/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTestConfig записывает временный конфиг и возвращает путь к нему
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "dataserver.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeTestConfig(t, "logging:\n  level: debug\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	// Проверяем значения по умолчанию
	if cfg.Search.Index != "logstash-*" {
		t.Errorf("Expected index logstash-*, got %s", cfg.Search.Index)
	}
	if len(cfg.Search.EventTypes) != 29 {
		t.Errorf("Expected 29 default event types, got %d", len(cfg.Search.EventTypes))
	}
	if cfg.Sink.Kind != "redis" {
		t.Errorf("Expected sink kind redis, got %s", cfg.Sink.Kind)
	}
	if cfg.Sink.Channel != "attack-map-production" {
		t.Errorf("Expected channel attack-map-production, got %s", cfg.Sink.Channel)
	}
	if cfg.Poller.Tick != 500*time.Millisecond {
		t.Errorf("Expected tick 500ms, got %s", cfg.Poller.Tick)
	}
	if cfg.Poller.Lag != 10*time.Second {
		t.Errorf("Expected lag 10s, got %s", cfg.Poller.Lag)
	}
	if cfg.Poller.PageSize != 100 {
		t.Errorf("Expected page size 100, got %d", cfg.Poller.PageSize)
	}
	if len(cfg.Poller.StatsWindows) != 3 {
		t.Errorf("Expected 3 stats windows, got %d", len(cfg.Poller.StatsWindows))
	}
	if cfg.Supervisor.SearchRetry != 10*time.Second {
		t.Errorf("Expected search retry 10s, got %s", cfg.Supervisor.SearchRetry)
	}
	if cfg.Supervisor.ErrorRetry != 15*time.Second {
		t.Errorf("Expected error retry 15s, got %s", cfg.Supervisor.ErrorRetry)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected level debug from file, got %s", cfg.Logging.Level)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeTestConfig(t, `
search:
  addresses: ["http://127.0.0.1:64298"]
  timeout: 10s
sink:
  kind: nats
  channel: attack-map-test
poller:
  tick: 250ms
  page_size: 50
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Search.Addresses[0] != "http://127.0.0.1:64298" {
		t.Errorf("Unexpected search address: %v", cfg.Search.Addresses)
	}
	if cfg.Search.Timeout != 10*time.Second {
		t.Errorf("Expected timeout 10s, got %s", cfg.Search.Timeout)
	}
	if cfg.Sink.Kind != "nats" {
		t.Errorf("Expected sink kind nats, got %s", cfg.Sink.Kind)
	}
	if cfg.Poller.Tick != 250*time.Millisecond {
		t.Errorf("Expected tick 250ms, got %s", cfg.Poller.Tick)
	}
	if cfg.Poller.PageSize != 50 {
		t.Errorf("Expected page size 50, got %d", cfg.Poller.PageSize)
	}
}

func TestLoadConfig_InvalidSinkKind(t *testing.T) {
	path := writeTestConfig(t, "sink:\n  kind: kafka\n")

	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected validation error for unknown sink kind")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	// Явно указанный несуществующий файл — ошибка
	if _, err := LoadConfig("/nonexistent/dataserver.yaml"); err == nil {
		t.Error("Expected error for missing explicit config file")
	}
}

func TestValidate_NegativeTick(t *testing.T) {
	path := writeTestConfig(t, "poller:\n  tick: -1s\n")

	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected validation error for negative tick")
	}
}

func TestGetRedisAddr(t *testing.T) {
	cfg := &Config{Redis: RedisConfig{Host: "map_redis", Port: 6379}}
	if addr := cfg.GetRedisAddr(); addr != "map_redis:6379" {
		t.Errorf("Expected map_redis:6379, got %s", addr)
	}
}
