package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"landedcost/internal/config"
	"landedcost/internal/db"
	"landedcost/internal/history"
	"landedcost/internal/logging"
	"landedcost/internal/rate"
	"landedcost/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Select rate provider from config
	provider := rate.NewByName(cfg.RateProvider, rate.Options{
		UpstreamURL: cfg.RateUpstreamURL,
		APIKey:      cfg.RateAPIKey,
		Timeout:     cfg.RateTimeout,
	})
	if cfg.QuoteCacheTTL > 0 {
		var cache rate.Cache = rate.NewMemoryCache(nil)
		if strings.TrimSpace(cfg.RedisAddr) != "" {
			rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
			defer rdb.Close()
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := rdb.Ping(pingCtx).Err()
			cancel()
			if err != nil {
				logger.Fatal("redis ping failed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			}
			cache = rate.NewRedisCache(rdb, "")
		}
		provider = rate.NewCached(provider, cache, cfg.QuoteCacheTTL, logger)
	}

	var repo history.Repository = history.NewMemoryRepository()
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := db.NewPool(dbCtx, cfg.DatabaseURL, db.PoolOptions{
			MaxConns:         int32(cfg.HistoryMaxConns),
			StatementTimeout: cfg.HistoryStmtTimeout,
		})
		if err != nil {
			cancel()
			logger.Fatal("failed to connect db", zap.Error(err))
		}
		defer pool.Close()
		pg := history.NewPostgresRepository(pool)
		if err := pg.EnsureSchema(dbCtx); err != nil {
			cancel()
			logger.Fatal("failed to prepare history schema", zap.Error(err))
		}
		cancel()
		repo = pg
	} else {
		logger.Warn("DATABASE_URL not set; comparison history is kept in memory")
	}

	h := server.New(server.Deps{
		Provider:           provider,
		History:            repo,
		Logger:             logger,
		QuoteTimeout:       cfg.QuoteTimeout,
		CompareConcurrency: cfg.CompareConcurrency,
		InsuranceRate:      cfg.InsuranceRate,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("api listening", zap.String("port", cfg.Port), zap.String("rate_provider", cfg.RateProvider))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}
