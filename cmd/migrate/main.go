package main

import (
	"context"
	"log"
	"time"

	"shopdesk/internal/config"
	"shopdesk/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[CONFIG] %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[CONNECT] %v", err)
	}
	defer pool.Close()
	log.Println("[CONNECT] success")

	applied, err := db.Migrate(ctx, pool)
	for _, name := range applied {
		log.Printf("[APPLY] %s", name)
	}
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	if len(applied) == 0 {
		log.Println("[SKIP] schema is up to date")
	}
	log.Println("[DONE] All migrations processed.")
}
