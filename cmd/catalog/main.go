package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"RocketShoes/internal/catalog"
	"RocketShoes/internal/config"
	"RocketShoes/internal/pgdb"
	"RocketShoes/pkg/kit"
)

func main() {
	service := "catalog"
	cfg := config.LoadCatalog()

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store catalog.Store = catalog.NewMemStore()
	if cfg.DatabaseURL != "" {
		if err := pgdb.Migrate(cfg.DatabaseURL); err != nil {
			log.Fatal("migrate failed", zap.Error(err))
		}
		pool, err := pgdb.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("db connect failed", zap.Error(err))
		}
		defer pool.Close()

		pg := catalog.NewPostgresStore(pool)
		if err := pg.Seed(ctx); err != nil {
			log.Fatal("seed catalog failed", zap.Error(err))
		}
		store = pg
	} else {
		log.Warn("DATABASE_URL is empty, serving the in-memory catalog")
	}

	reg := prometheus.NewRegistry()
	h := catalog.NewHandler(&catalog.Server{Store: store, Log: log}, kit.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: true,
		MetricsToken:   cfg.MetricsToken,
	})

	if err := kit.RunHTTPServer(ctx, ":"+cfg.Port, h, log); err != nil {
		log.Error("http server stopped", zap.Error(err))
	}
}
