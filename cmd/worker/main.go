package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/legalinmo/config"
	"github.com/Domenick1991/legalinmo/internal/apiclient"
	"github.com/Domenick1991/legalinmo/internal/cache"
	"github.com/Domenick1991/legalinmo/internal/email"
	"github.com/Domenick1991/legalinmo/internal/kafka"
	"github.com/Domenick1991/legalinmo/internal/logger"
	"github.com/Domenick1991/legalinmo/internal/service/booking"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	defer zap.ReplaceGlobals(zl)()

	loc, err := cfg.Booking.Location()
	if err != nil {
		zl.Fatal("resolve business timezone", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := apiclient.NewClient(
		cfg.API.BaseURL,
		apiclient.WithTimeout(cfg.API.Timeout()),
		apiclient.WithLocation(loc),
		apiclient.WithLogger(zl),
	)
	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.ServicesCacheTTL())
	defer redisCache.Close()
	catalog := booking.NewCatalogService(client, redisCache, loc, zl)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, zl)
	defer consumer.Close()

	notifier := email.NewReservationNotifier(email.NewSender(cfg.Email, zl))

	go func() {
		err := consumer.ConsumeReservations(ctx, func(ctx context.Context, event kafka.ReservationEvent) error {
			if err := notifier.Notify(ctx, event); err != nil {
				zl.Error("send confirmation email",
					zap.String("reservation_id", event.ReservationID),
					zap.Error(err),
				)
			}
			return nil
		})
		if err != nil {
			zl.Error("consumer stopped", zap.Error(err))
		}
	}()

	refreshTicker := time.NewTicker(time.Duration(cfg.Worker.ServicesRefreshMinutes) * time.Minute)
	defer refreshTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	zl.Info("worker started",
		zap.String("topic", cfg.Kafka.NotificationsTopic),
		zap.Int("services_refresh_minutes", cfg.Worker.ServicesRefreshMinutes),
	)

	for {
		select {
		case <-refreshTicker.C:
			services, err := catalog.Refresh(ctx)
			if err != nil {
				zl.Warn("refresh services cache", zap.Error(err))
				continue
			}
			zl.Debug("services cache refreshed", zap.Int("count", len(services)))
		case s := <-sig:
			zl.Info("shutting down", zap.Stringer("signal", s))
			return
		}
	}
}
