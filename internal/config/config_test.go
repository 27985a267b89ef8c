package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MIRADOR_SCHEDULER_CONFIG", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Optimizer.TopK != 5 || cfg.Optimizer.DefaultTimezone != "America/New_York" {
		t.Fatalf("unexpected optimizer defaults: %+v", cfg.Optimizer)
	}
	if cfg.Cache.Enabled || cfg.Events.Enabled {
		t.Fatalf("cache and events should be off by default")
	}
	if !cfg.Server.Reflection {
		t.Fatalf("reflection should be on by default")
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  grpcAddress: ":6000"
optimizer:
  topK: 3
  stepMinutes: 30
cache:
  enabled: true
  backend: redis
  addr: "localhost:6379"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MIRADOR_SCHEDULER_TOP_K", "7")
	t.Setenv("MIRADOR_SCHEDULER_CACHE_RESULT_TTL", "90s")
	t.Setenv("MIRADOR_SCHEDULER_EVENTS_ENABLED", "true")
	t.Setenv("MIRADOR_SCHEDULER_EVENTS_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("MIRADOR_SCHEDULER_GRPC_REFLECTION", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.GRPCAddress != ":6000" || cfg.Server.HTTPAddress != ":8080" || cfg.Server.Reflection {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Optimizer.TopK != 7 || cfg.Optimizer.StepMinutes != 30 {
		t.Fatalf("unexpected optimizer config: %+v", cfg.Optimizer)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.ResultTTL != 90*time.Second {
		t.Fatalf("unexpected cache config: %+v", cfg.Cache)
	}
	if len(cfg.Events.Brokers) != 2 || cfg.Events.Brokers[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.Events.Brokers)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("MIRADOR_SCHEDULER_CACHE_BACKEND", "memcached")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for unsupported backend")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestSampleConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Optimizer.MaxWindow != 31*24*time.Hour || cfg.Cache.Backend != "redis" {
		t.Fatalf("unexpected sample config: %+v", cfg.Optimizer)
	}
}
