package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newzify/newzify/internal/cache"
	"github.com/newzify/newzify/internal/config"
	"github.com/newzify/newzify/internal/db"
	httpx "github.com/newzify/newzify/internal/http"
	"github.com/newzify/newzify/internal/observability"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	if cfg.JWTSecretFallback {
		log.Warn("JWT_SECRET not set, using a development-only default. Do not run this in production.")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// tracing (optional)
	if cfg.TracingEnabled {
		shutdownTracer, err := observability.InitTracer(rootCtx, "newzify-api", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			defer func() {
				ctx, cancel := config.WithTimeout(3 * time.Second)
				defer cancel()
				_ = shutdownTracer(ctx)
			}()
		}
	}

	// database: the connect attempt is bounded, a down DB fails fast
	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		if !cfg.AllowStartWithoutDB {
			log.Error("database connection failed. Set ALLOW_START_WITHOUT_DB=true to start anyway.", "err", err)
			os.Exit(1)
		}

		log.Warn("starting without DB connection. Register/login will return 503.", "err", err)
		pool = nil
	}

	if pool != nil {
		defer pool.Close()
	}

	// availability gate, refreshed in the background
	var pinger db.Pinger

	if pool != nil {
		pinger = pool
	}

	health := db.NewHealth(pinger, 5*time.Second, log)

	go health.Run(rootCtx)

	// redis cache for the news proxy (optional)
	rdb := cache.NewRedisClient(cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if rdb != nil {
		pingCtx, cancel := config.WithTimeout(2 * time.Second)

		if err := cache.PingRedis(pingCtx, rdb); err != nil {
			log.Warn("redis unreachable, news responses will not be cached", "err", err)
		}
		cancel()

		defer func() { _ = rdb.Close() }()
	}

	// set up routers with the log
	router := httpx.NewRouter(log, pool, rdb, health, cfg)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "cors_origins", cfg.ClientOrigins)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	<-rootCtx.Done()
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
