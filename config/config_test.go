package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scholar.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: test-key
search:
  serper_api_key: serper-key
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Listen != ":10002" {
		t.Fatalf("server.listen = %q", cfg.Server.Listen)
	}
	if cfg.LLM.Model != "gpt-4o-mini" || cfg.LLM.Timeout != 2*time.Minute {
		t.Fatalf("llm defaults = %+v", cfg.LLM)
	}
	if cfg.Search.Provider != "serper" || cfg.Search.MaxResults != 5 {
		t.Fatalf("search defaults = %+v", cfg.Search)
	}
	if cfg.Checkpoint.Backend != "memory" {
		t.Fatalf("checkpoint.backend = %q", cfg.Checkpoint.Backend)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen: ":8080"
llm:
  api_key: test-key
  model: gpt-4o
  temperature: 0.3
search:
  provider: brave
  brave_api_key: brave-key
  max_results: 3
checkpoint:
  backend: redis
  ttl: 24h
  redis:
    host: localhost
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Listen != ":8080" || cfg.LLM.Model != "gpt-4o" {
		t.Fatalf("overrides lost: %+v", cfg)
	}
	if cfg.Search.Provider != "brave" || cfg.Search.MaxResults != 3 {
		t.Fatalf("search = %+v", cfg.Search)
	}
	if cfg.Checkpoint.TTL != 24*time.Hour {
		t.Fatalf("ttl = %v", cfg.Checkpoint.TTL)
	}
}

func TestLoadConfigRejectsMissingAPIKey(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: ""
search:
  serper_api_key: serper-key
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected validation error for missing llm.api_key")
	}
}

func TestSearchConfigValidate(t *testing.T) {
	if err := (SearchConfig{Provider: "serper"}).Validate(); err == nil {
		t.Fatalf("serper without key must fail")
	}
	if err := (SearchConfig{Provider: "duckduckgo"}).Validate(); err == nil {
		t.Fatalf("unknown provider must fail")
	}
	if err := (SearchConfig{Provider: "brave", BraveAPIKey: "k"}).Validate(); err != nil {
		t.Fatalf("valid brave config rejected: %v", err)
	}
}

func TestRedisAddrDefaultsPort(t *testing.T) {
	if got := (RedisConfig{Host: "cache"}).Addr(); got != "cache:6379" {
		t.Fatalf("addr = %q", got)
	}
	if got := (RedisConfig{Host: "cache", Port: "6380"}).Addr(); got != "cache:6380" {
		t.Fatalf("addr = %q", got)
	}
}

func TestPostgresDSN(t *testing.T) {
	if _, err := (PostgresConfig{}).DSN(); err == nil {
		t.Fatalf("unconfigured postgres must fail")
	}

	dsn, err := (PostgresConfig{Host: "db", User: "scholar", Password: "pw", DBName: "scholar"}).DSN()
	if err != nil {
		t.Fatalf("DSN: %v", err)
	}
	if dsn != "postgres://scholar:pw@db:5432/scholar?sslmode=disable" {
		t.Fatalf("dsn = %q", dsn)
	}

	dsn, _ = (PostgresConfig{URL: "postgres://explicit"}).DSN()
	if dsn != "postgres://explicit" {
		t.Fatalf("url passthrough = %q", dsn)
	}
}

func TestCheckpointValidate(t *testing.T) {
	if err := (CheckpointConfig{Backend: "redis"}).Validate(); err == nil {
		t.Fatalf("redis without host must fail")
	}
	if err := (CheckpointConfig{Backend: "etcd"}).Validate(); err == nil {
		t.Fatalf("unknown backend must fail")
	}
	if err := (CheckpointConfig{Backend: "memory"}).Validate(); err != nil {
		t.Fatalf("memory backend rejected: %v", err)
	}
}
