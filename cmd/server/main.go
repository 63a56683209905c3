package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-orders/config"
	"storefront-orders/internal/api"
	"storefront-orders/internal/broker"
	"storefront-orders/internal/notify"
	"storefront-orders/internal/redisclient"
	"storefront-orders/internal/service"
	"storefront-orders/internal/store"
	"storefront-orders/internal/store/memory"
	"storefront-orders/internal/util"
	"storefront-orders/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// repositories is everything the services need from a store driver
type repositories interface {
	service.ProductRepository
	service.CartRepository
	service.OrderRepository
	service.ProcessedEventStore
	api.Pinger
}

func main() {
	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront orders service")

	tp, err := util.InitTracer("storefront-orders", cfg.Observ.JaegerEndpoint, cfg.Observ.SampleRatio)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	repos, closeStore, err := openStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer closeStore()

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrderEvents)
	defer producer.Close()
	logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicOrderEvents))

	eventPublisher := broker.NewEventPublisher(producer)
	hub := notify.NewHub(cfg.Server.AllowedOrigins)
	defer hub.Close()

	fees := service.FeeSchedule{
		CODFee:                cfg.Business.CODFee,
		FreeShippingThreshold: cfg.Business.FreeShippingThreshold,
		ShippingFee:           cfg.Business.ShippingFee,
		DeliveryLeadDays:      cfg.Business.DeliveryLeadDays,
	}

	cartService := service.NewCartService(repos, repos)
	orderService := service.NewOrderService(repos, repos, repos, eventPublisher, hub, fees)
	orderService.UseLocker(redisClient, cfg.Business.CheckoutLockTTL)
	orderService.UseIdempotency(redisClient, cfg.Business.IdempotencyTTL)
	lifecycle := service.NewLifecycleManager(repos, eventPublisher, hub)
	reconciler := service.NewPaymentReconciler(repos, orderService, lifecycle)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	paymentConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicPaymentEvents, cfg.Kafka.ConsumerGroup)
	paymentWorker := worker.NewPaymentWorker(paymentConsumer, reconciler)
	go func() {
		if err := paymentWorker.Start(workerCtx); err != nil && err != context.Canceled {
			logger.Error("Payment worker error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(cartService, orderService, lifecycle, repos, hub,
		api.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.AdminRole))
	handler.AddReadinessCheck("store", repos)
	handler.AddReadinessCheck("redis", redisClient)
	handler.SetupRoutes(router, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if err := paymentWorker.Stop(); err != nil {
		logger.Warn("Error stopping payment worker", zap.Error(err))
	}

	logger.Info("Server exited")
}

func openStore(cfg config.DatabaseConfig) (repositories, func(), error) {
	logger := util.GetLogger()

	switch cfg.Driver {
	case "memory":
		logger.Warn("Using in-memory store; data is lost on restart")
		return memory.New(), func() {}, nil

	case "postgres", "":
		if cfg.AutoMigrate {
			if err := store.Migrate(cfg.MigrationsPath, cfg.URL); err != nil {
				return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			logger.Info("Database migrations applied", zap.String("source", cfg.MigrationsPath))
		}

		db, err := store.NewStore(cfg.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		logger.Info("Database connected")
		return db, func() { db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Driver)
	}
}
