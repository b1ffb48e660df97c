package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/auth"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/clients"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/repository"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/server"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/service"
)

func main() {
	cfg := config.Load()
	defer logging.Sync()

	logger := logging.NewLogger("storefront")
	logging.Infof("Starting storefront on port %d", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := middleware.InitTracing(cfg.Tracing)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", logging.Fields{"error": err.Error()})
	}

	stores, err := repository.OpenStores(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to open stores", logging.Fields{"error": err.Error()})
	}
	defer stores.Close()

	var orderCache repository.OrderCache = repository.NewMemoryOrderCache()
	var redisCache *repository.RedisOrderCache
	if cfg.Features.EnableOrderCaching && cfg.Database.Driver != repository.DriverMemory {
		redisCache = repository.NewRedisOrderCache(cfg.Redis, logger)
		defer redisCache.Close()
		orderCache = redisCache
	}

	var eventPublisher service.OrderEventPublisher
	if cfg.Features.EnableOrderEvents && len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka, logger)
		defer kafkaPublisher.Close()
		eventPublisher = kafkaPublisher
	} else {
		eventPublisher = events.NewLogPublisher(logger)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	gateway := clients.NewPaymentGateway(cfg.Razorpay, logger)

	orderService := service.NewOrderService(
		stores.Orders,
		stores.Intents,
		stores.Users,
		stores.Products,
		orderCache,
		tokens,
		eventPublisher,
		cfg,
		logger,
	)

	paymentService := service.NewPaymentService(
		gateway,
		stores.Intents,
		eventPublisher,
		cfg,
		logger,
	)

	h := handlers.NewHandlers(
		orderService,
		paymentService,
		service.NewCartService(stores.Users, stores.Products, cfg, logger),
		service.NewAuthService(stores.Users, tokens, logger),
		service.NewCatalogService(stores.Products, logger),
		cfg,
		logger,
	)
	h.AddReadinessCheck("database", stores.Ping)
	if redisCache != nil {
		h.AddReadinessCheck("redis", redisCache.Ping)
	}

	srv := server.NewServer(cfg, h, logging.Base())

	go func() {
		logger.Info("Server starting", logging.Fields{
			"port":           cfg.Server.Port,
			"db_driver":      cfg.Database.Driver,
			"order_caching":  cfg.Features.EnableOrderCaching,
			"order_events":   cfg.Features.EnableOrderEvents,
			"payments_feed":  cfg.Features.EnablePaymentsFeed,
			"razorpay_ready": cfg.Razorpay.Enabled(),
		})
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed to start", logging.Fields{"error": err.Error()})
		}
	}()

	var consumer *events.KafkaConsumer
	if cfg.Features.EnablePaymentsFeed && len(cfg.Kafka.Brokers) > 0 {
		consumer = events.NewKafkaConsumer(cfg.Kafka, paymentService, logger)
		go func() {
			if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Event consumer failed", logging.Fields{"error": err.Error()})
			}
		}()
	}

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if consumer != nil {
		consumer.Stop()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", logging.Fields{"error": err.Error()})
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("Failed to flush traces", logging.Fields{"error": err.Error()})
	}

	logger.Info("Server exited")
}
