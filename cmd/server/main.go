package main

import (
	"flag"
	"log/slog"
	"os"

	"guardian/internal/cache"
	"guardian/internal/catalog"
	"guardian/internal/config"
	"guardian/internal/handler"
	"guardian/internal/logger"
	"guardian/internal/store"
)

func main() {
	configFile := flag.String("config", "", "config file path (e.g. etc/config-dev.yaml)")
	flag.Parse()

	cfg := config.Load(*configFile)
	logger.Init(cfg.Log)

	db, err := cfg.OpenGormDB()
	if err != nil {
		slog.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	if err := store.Migrate(db); err != nil {
		slog.Error("migrate failed", "err", err)
		os.Exit(1)
	}

	c, err := cache.New(cfg.Cache.RedisURL)
	if err != nil {
		slog.Warn("redis unavailable, using in-memory cache", "err", err)
		c = cache.NewMemory()
	}
	defer c.Close()

	if cfg.Coach.APIKey == "" {
		slog.Warn("ANTHROPIC_API_KEY not set, /api/chat will fail")
	}
	if cfg.Realtime.APIKey == "" {
		slog.Warn("OPENAI_API_KEY not set, /api/voice/session will fail")
	}

	r := handler.NewRouter(handler.Deps{
		Config:  cfg,
		DB:      db,
		Cache:   c,
		Catalog: catalog.Default(),
	})

	slog.Info("server starting", "addr", cfg.Addr(), "db", cfg.Database.Type)
	if err := r.Run(cfg.Addr()); err != nil {
		slog.Error("server failed", "err", err)
	}
}
