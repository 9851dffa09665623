package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	webAdapter "shopdesk/internal/adapters/web"
	"shopdesk/internal/app"
	"shopdesk/internal/cache"
	"shopdesk/internal/config"
	"shopdesk/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.RequireServer(); err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	applied, err := db.Migrate(ctx, pool)
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}
	for _, name := range applied {
		log.Printf("applied migration %s", name)
	}

	svc := app.New(pool, cfg.BillNumberPrefix)

	opts := webAdapter.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		JWTSecret:      cfg.JWTSecret,
		TokenTTL:       cfg.JWTTTL,
		IdempotencyTTL: cfg.IdempotencyTTL,
	}
	if cfg.RedisURL != "" {
		store, err := cache.NewRedisIdempotencyStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer store.Close()
		opts.Idempotency = store
	} else {
		log.Println("Warning: REDIS_URL is not set, Idempotency-Key headers are ignored")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           webAdapter.NewHandler(svc, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("server starting on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
	log.Println("server stopped")
}
