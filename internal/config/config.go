package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL        string
	HistoryMaxConns    int
	HistoryStmtTimeout time.Duration
	Port               string
	RateProvider       string
	RateUpstreamURL    string
	RateAPIKey         string
	RateTimeout        time.Duration
	QuoteTimeout       time.Duration
	QuoteCacheTTL      time.Duration
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	CompareConcurrency int
	InsuranceRate      float64
	LogLevel           string
}

// Load reads settings from the environment, and from CONFIG_FILE when set.
// Environment variables win over the file.
func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("history_max_conns", 5)
	v.SetDefault("history_statement_timeout", "5s")
	v.SetDefault("rate_provider", "dummy")
	v.SetDefault("rate_timeout", "15s")
	v.SetDefault("quote_timeout", "20s")
	v.SetDefault("quote_cache_ttl", "10m")
	v.SetDefault("redis_db", 0)
	v.SetDefault("compare_concurrency", 4)
	v.SetDefault("insurance_rate", 0)
	v.SetDefault("log_level", "info")
	v.AutomaticEnv()

	for _, key := range []string{"database_url", "rate_upstream_url", "rate_api_key", "redis_addr", "redis_password"} {
		_ = v.BindEnv(key)
	}

	if path := strings.TrimSpace(v.GetString("config_file")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	return Config{
		DatabaseURL:        v.GetString("database_url"),
		HistoryMaxConns:    v.GetInt("history_max_conns"),
		HistoryStmtTimeout: v.GetDuration("history_statement_timeout"),
		Port:               v.GetString("port"),
		RateProvider:       strings.ToLower(strings.TrimSpace(v.GetString("rate_provider"))),
		RateUpstreamURL:    v.GetString("rate_upstream_url"),
		RateAPIKey:         v.GetString("rate_api_key"),
		RateTimeout:        v.GetDuration("rate_timeout"),
		QuoteTimeout:       v.GetDuration("quote_timeout"),
		QuoteCacheTTL:      v.GetDuration("quote_cache_ttl"),
		RedisAddr:          v.GetString("redis_addr"),
		RedisPassword:      v.GetString("redis_password"),
		RedisDB:            v.GetInt("redis_db"),
		CompareConcurrency: v.GetInt("compare_concurrency"),
		InsuranceRate:      v.GetFloat64("insurance_rate"),
		LogLevel:           v.GetString("log_level"),
	}, nil
}
