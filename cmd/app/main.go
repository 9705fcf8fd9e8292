package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/legalinmo/api"
	"github.com/Domenick1991/legalinmo/config"
	"github.com/Domenick1991/legalinmo/internal/apiclient"
	"github.com/Domenick1991/legalinmo/internal/bootstrap"
	"github.com/Domenick1991/legalinmo/internal/cache"
	"github.com/Domenick1991/legalinmo/internal/kafka"
	"github.com/Domenick1991/legalinmo/internal/logger"
	"github.com/Domenick1991/legalinmo/internal/metrics"
	"github.com/Domenick1991/legalinmo/internal/middleware"
	"github.com/Domenick1991/legalinmo/internal/service/admin"
	"github.com/Domenick1991/legalinmo/internal/service/booking"
	"github.com/Domenick1991/legalinmo/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
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
	if logger.IsProduction(cfg.Log.Env) {
		gin.SetMode(gin.ReleaseMode)
	}

	loc, err := cfg.Booking.Location()
	if err != nil {
		zl.Fatal("resolve business timezone", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client := apiclient.NewClient(
		cfg.API.BaseURL,
		apiclient.WithTimeout(cfg.API.Timeout()),
		apiclient.WithLocation(loc),
		apiclient.WithLogger(zl),
		apiclient.WithMetrics(metrics.NewUpstreamMetrics(registry)),
	)

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.ServicesCacheTTL())
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		zl.Warn("redis not reachable at startup", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, zl)
	defer producer.Close()

	sessions := session.NewManager(redisCache, client, cfg.Session.TTL(), session.WithLogger(zl))

	catalog := booking.NewCatalogService(client, redisCache, loc, zl)
	flows := booking.NewFlowService(
		redisCache,
		client,
		catalog,
		producer,
		cfg.Kafka.ReservationsTopic,
		cfg.Booking.FlowTTL(),
		cfg.Booking.FlowLockTTL(),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithLocation(loc),
		booking.WithTimeSlots(cfg.Booking.TimeSlots),
		booking.WithTimezones(cfg.Booking.Timezones),
		booking.WithPaymentEnabled(cfg.Payment.PublicKey != ""),
		booking.WithMetrics(metrics.NewBookingMetrics(registry)),
		booking.WithLogger(zl),
	)

	sessionCookie := api.CookieSettings{Name: cfg.Session.CookieName, TTL: cfg.Session.TTL(), Secure: cfg.Session.Secure}
	flowCookie := api.CookieSettings{Name: cfg.Booking.FlowCookieName, TTL: cfg.Booking.FlowTTL(), Secure: cfg.Session.Secure}

	handlers := bootstrap.Handlers{
		Public: api.NewPublicHandler(catalog, api.PublicSettings{
			PaymentPublicKey: cfg.Payment.PublicKey,
			PaymentLocale:    cfg.Payment.Locale,
			TimeSlots:        cfg.Booking.TimeSlots,
			Timezones:        cfg.Booking.Timezones,
		}, loc, zl),
		Booking: api.NewBookingHandler(flows, sessions, flowCookie, cfg.Session.CookieName, zl),
		Auth: api.NewAuthHandler(
			sessions,
			sessionCookie,
			middleware.RateLimit(cfg.HTTP.LoginRatePerMinute, cfg.HTTP.LoginBurst, zl),
			zl,
		),
		Admin: api.NewAdminHandler(
			sessions,
			client,
			admin.NewServicesAdmin(client, catalog, zl),
			admin.NewUsersAdmin(client),
			cfg.Session.CookieName,
			loc,
			zl,
		),
	}

	router := bootstrap.NewRouter(cfg, handlers, redisCache, registry, zl)
	if err := bootstrap.Run(ctx, cfg, router, zl); err != nil {
		zl.Fatal("server error", zap.Error(err))
	}
}
