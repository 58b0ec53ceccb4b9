package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("RATE_PROVIDER", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.RateProvider != "dummy" {
		t.Fatalf("expected dummy provider, got %q", cfg.RateProvider)
	}
	if cfg.QuoteCacheTTL != 10*time.Minute {
		t.Fatalf("unexpected cache ttl: %v", cfg.QuoteCacheTTL)
	}
	if cfg.CompareConcurrency != 4 {
		t.Fatalf("unexpected concurrency: %d", cfg.CompareConcurrency)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_PROVIDER", " Upstream ")
	t.Setenv("RATE_UPSTREAM_URL", "https://rates.example.com/api/v1/freightEstimates.json")
	t.Setenv("QUOTE_TIMEOUT", "3s")
	t.Setenv("INSURANCE_RATE", "0.005")
	t.Setenv("HISTORY_MAX_CONNS", "12")
	t.Setenv("HISTORY_STATEMENT_TIMEOUT", "1500ms")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" || cfg.RateProvider != "upstream" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.RateUpstreamURL == "" {
		t.Fatalf("expected upstream url from env")
	}
	if cfg.QuoteTimeout != 3*time.Second {
		t.Fatalf("unexpected quote timeout: %v", cfg.QuoteTimeout)
	}
	if cfg.InsuranceRate != 0.005 {
		t.Fatalf("unexpected insurance rate: %v", cfg.InsuranceRate)
	}
	if cfg.HistoryMaxConns != 12 || cfg.HistoryStmtTimeout != 1500*time.Millisecond {
		t.Fatalf("unexpected history pool settings: %d %v", cfg.HistoryMaxConns, cfg.HistoryStmtTimeout)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api.yaml")
	if err := os.WriteFile(path, []byte("redis_addr: localhost:6379\ncompare_concurrency: 8\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RedisAddr != "localhost:6379" || cfg.CompareConcurrency != 8 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
