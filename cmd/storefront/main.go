package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"RocketShoes/internal/cart"
	"RocketShoes/internal/config"
	"RocketShoes/internal/events"
	"RocketShoes/internal/pgdb"
	"RocketShoes/internal/session"
	"RocketShoes/internal/slot"
	"RocketShoes/internal/storefront"
	"RocketShoes/internal/upstream"
	"RocketShoes/pkg/kit"
)

func main() {
	service := "storefront"

	cfg, err := config.LoadStorefront()
	if err != nil {
		boot := kit.NewLogger(service, "info")
		boot.Fatal("invalid config", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cartSlot, closeSlot, err := openSlot(ctx, cfg, log)
	if err != nil {
		log.Fatal("open cart slot failed", zap.String("backend", cfg.SlotBackend), zap.Error(err))
	}
	defer closeSlot()

	pub, err := openPublisher(cfg)
	if err != nil {
		log.Fatal("connect events broker failed", zap.String("backend", cfg.EventsBackend), zap.Error(err))
	}
	defer func() { _ = pub.Close() }()

	reg := prometheus.NewRegistry()
	app, err := storefront.New(
		storefront.Deps{
			Upstream: upstream.NewClient(cfg.CatalogURL, upstream.Options{
				Timeout: cfg.UpstreamTimeout,
				Log:     log,
			}),
			Slot:            cartSlot,
			KeyPrefix:       cfg.SlotKey,
			Sessions:        session.NewTokenMaker(cfg.SessionSecret, cfg.SessionTTL),
			Publisher:       pub,
			RateLimitPerMin: cfg.RateLimitPerMin,
			CartIdleTTL:     cfg.CartIdleTTL,
			MaxOpenCarts:    cfg.MaxOpenCarts,
		},
		kit.HTTPDeps{
			Log:            log,
			Service:        service,
			Registry:       reg,
			MetricsEnabled: true,
			MetricsToken:   cfg.MetricsToken,
		},
	)
	if err != nil {
		log.Fatal("init storefront failed", zap.Error(err))
	}
	defer app.Close()
	go app.Run(ctx)

	log.Info("storefront configured",
		zap.String("slot_backend", cfg.SlotBackend),
		zap.String("events_backend", cfg.EventsBackend),
		zap.String("catalog_url", cfg.CatalogURL),
	)

	if err := kit.RunHTTPServer(ctx, ":"+cfg.Port, app.Handler, log); err != nil {
		log.Error("http server stopped", zap.Error(err))
	}
}

func openSlot(ctx context.Context, cfg config.Storefront, log *zap.Logger) (cart.Slot, func(), error) {
	switch cfg.SlotBackend {
	case config.SlotMemory:
		log.Warn("memory cart slot: carts are lost on restart")
		return slot.NewMemSlot(), func() {}, nil

	case config.SlotRedis:
		client, err := slot.ConnectRedis(ctx, slot.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return slot.NewRedisSlot(client, cfg.SlotTTL), func() { _ = client.Close() }, nil

	case config.SlotPostgres:
		if err := pgdb.Migrate(cfg.DatabaseURL); err != nil {
			return nil, nil, err
		}
		pool, err := pgdb.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return slot.NewPostgresSlot(pool), pool.Close, nil

	default:
		fs, err := slot.NewFileSlot(cfg.SlotDir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}

func openPublisher(cfg config.Storefront) (events.Publisher, error) {
	switch cfg.EventsBackend {
	case config.EventsNATS:
		return events.ConnectNATS(cfg.NATSURL)
	case config.EventsKafka:
		return events.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...), nil
	default:
		return events.Nop{}, nil
	}
}
