package main

import (
	"context"
	"log"
	nethttp "net/http"
	"os/signal"
	"syscall"

	"github.com/gridforge/microgrid-planner/config"
	"github.com/gridforge/microgrid-planner/db"
	httpserver "github.com/gridforge/microgrid-planner/http"
	"github.com/gridforge/microgrid-planner/power"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cache httpserver.SeriesCache
	if cfg.DatabaseURL != "" {
		store, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db connection error: %v", err)
		}
		defer store.Close()
		cache = store
		log.Printf("irradiance cache enabled (coordinate precision %d)", cfg.CacheCoordPrecision)
	}

	client := power.NewClient(&nethttp.Client{Timeout: cfg.RequestTimeout}, cfg.PowerAPIURL)

	srv := httpserver.New(cfg, client, cache)
	log.Printf("microgrid planner API listening on %s", cfg.ListenAddr())

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
