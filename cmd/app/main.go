package main

import (
	"context"
	"log"
	"os"

	"shopdesk/internal/adapters/cli"
	"shopdesk/internal/app"
	"shopdesk/internal/config"
	"shopdesk/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	svc := app.New(pool, cfg.BillNumberPrefix)

	if err := cli.Run(ctx, svc, os.Args[1:], os.Stdout); err != nil {
		pool.Close()
		log.Fatal(err)
	}
}
