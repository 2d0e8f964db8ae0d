package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/config"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/database"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/handlers"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/locking"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/services/party"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/services/printer"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/services/stock"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/websocket"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		config.NewLogger("info").WithError(err).Fatal("failed to load configuration")
	}
	log := config.NewLogger(cfg.LogLevel)

	// 2. Initialize database (embedded Postgres, external Postgres or sqlite)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	// 3. Auto-Migrate Schema
	log.Info("synchronizing database schema")
	if err := db.Migrate(); err != nil {
		log.WithError(err).Fatal("schema migration failed")
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// 4. Allocation locks: Redis when configured, in-process otherwise
	var (
		locker stock.Locker = locking.NewLocalLocker()
		rdb    *redis.Client
	)
	if cfg.Redis.Address != "" {
		pingCtx, cancel := context.WithTimeout(rootCtx, 5*time.Second)
		redisLocker, client, err := locking.NewRedisLocker(pingCtx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Stock.LockTTL)
		cancel()
		if err != nil {
			log.WithError(err).Warn("redis unavailable, falling back to in-process allocation locks")
		} else {
			locker, rdb = redisLocker, client
			log.WithField("address", cfg.Redis.Address).Info("allocation locks backed by redis")
		}
	}

	// 5. Event hub and services
	hub := websocket.NewHub(log)
	go hub.Run(rootCtx)

	svc := stock.NewService(db.DB, stock.Options{
		LPNPrefix: cfg.Stock.LPNPrefix,
		PageSize:  cfg.Stock.CandidatePage,
		Locker:    locker,
		Publisher: hub,
		Logger:    log,
		Parties:   party.NewResolver(db.DB, log),
	})

	layout := printer.DefaultLayout()
	layout.Cols = cfg.Stock.LabelsPerRow
	layout.Rows = cfg.Stock.LabelsPerColumn

	router := handlers.NewRouter(handlers.Deps{
		DB:        db,
		Stock:     svc,
		Hub:       hub,
		Logger:    log,
		JWTSecret: cfg.JWTSecret,
		Labels:    layout,
	})

	// 6. Start server with graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	sig := <-shutdown
	log.WithField("signal", sig.String()).Info("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("http server shutdown error")
	}

	// stops the hub and closes websocket clients
	stop()

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.WithError(err).Warn("redis close error")
		}
	}
	if err := db.Close(); err != nil {
		log.WithError(err).Error("database close error")
	}
	log.Info("shutdown complete")
}
