// Package db opens the Postgres pool that backs comparison history.
package db

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolOptions tunes the history pool. Zero values take the defaults below.
type PoolOptions struct {
	AppName          string
	MaxConns         int32
	StatementTimeout time.Duration
}

const (
	defaultAppName          = "landedcost-api"
	defaultMaxConns         = 5
	defaultStatementTimeout = 5 * time.Second
)

func (o PoolOptions) withDefaults() PoolOptions {
	if o.AppName == "" {
		o.AppName = defaultAppName
	}
	if o.MaxConns <= 0 {
		o.MaxConns = defaultMaxConns
	}
	if o.StatementTimeout <= 0 {
		o.StatementTimeout = defaultStatementTimeout
	}
	return o
}

// PoolConfig parses databaseURL and applies opts without connecting.
func PoolConfig(databaseURL string, opts PoolOptions) (*pgxpool.Config, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	// history rows are written once per saved comparison and read on demand
	cfg.MaxConns = opts.MaxConns
	cfg.MinConns = 0
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = time.Minute
	params := cfg.ConnConfig.RuntimeParams
	params["application_name"] = opts.AppName
	params["timezone"] = "UTC"
	params["statement_timeout"] = strconv.FormatInt(opts.StatementTimeout.Milliseconds(), 10)
	return cfg, nil
}

func NewPool(ctx context.Context, databaseURL string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := PoolConfig(databaseURL, opts)
	if err != nil {
		return nil, err
	}
	return pgxpool.NewWithConfig(ctx, cfg)
}
