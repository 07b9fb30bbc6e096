package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"promomarket/pkg/logger"
	"promomarket/storefront-service/internal/app/storefront/config"
	"promomarket/storefront-service/internal/app/storefront/entity"
	"promomarket/storefront-service/internal/app/storefront/handler"
	"promomarket/storefront-service/internal/app/storefront/infrastructure/cache"
	"promomarket/storefront-service/internal/app/storefront/infrastructure/database"
	"promomarket/storefront-service/internal/app/storefront/processor"
	"promomarket/storefront-service/internal/app/storefront/repository"
	"promomarket/storefront-service/internal/app/storefront/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "storefront-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.Init(serviceName, logLevel)

	if logstashAddr := os.Getenv("LOGSTASH_ADDR"); logstashAddr != "" {
		if err := logger.InitLogstash(logstashAddr, serviceName, logLevel); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === MONGODB ===
	mongoClient, err := database.ConnectMongoDB(cfg.MongoDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer disconnectCancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			logger.Error().Err(err).Msg("Error disconnecting from MongoDB")
		}
	}()
	db := mongoClient.Database(cfg.MongoDB.Database)

	// === POSTGRESQL (журнал пересинхронизаций) ===
	ledgerDB, err := database.ConnectPostgres(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	sqlDB, err := ledgerDB.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to get sql.DB from gorm")
	}
	defer sqlDB.Close()

	// === REDIS (drift store) ===
	redisClient, err := cache.NewRedisClient(cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	logger.Info().Msg("Storage connections established")

	productRepo := repository.NewCatalogRepository(db, entity.ItemKindProduct)
	eventRepo := repository.NewCatalogRepository(db, entity.ItemKindEvent)
	orderRepo := repository.NewOrderRepository(db)
	ledgerRepo := repository.NewLedgerRepository(ledgerDB)
	driftStore := cache.NewRedisDriftStore(redisClient)

	// Воркер событий не публикует: повторная публикация замкнула бы цикл consumer -> producer
	reconciler := service.NewReviewReconciler(
		[]repository.CatalogRepository{productRepo, eventRepo},
		orderRepo,
		driftStore,
		nil,
		time.Now,
	)
	runner := service.NewResyncRunner(reconciler, ledgerRepo, driftStore)

	// === KAFKA CONSUMER ===
	kafkaConsumer := processor.NewKafkaConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.Topic,
		cfg.Kafka.GroupID,
		cfg.Kafka.MinBytes,
		cfg.Kafka.MaxBytes,
		runner,
	)
	kafkaConsumer.Start(ctx)

	// === CRON SWEEPER ===
	cronScheduler := processor.NewCronScheduler(runner, driftStore, cfg.Sweep.BatchSize)
	if err := cronScheduler.Start(ctx, cfg.Sweep.Schedule); err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.Sweep.Schedule).Msg("Failed to start cron scheduler")
	}

	// === HEALTH + METRICS ===
	healthHandler := handler.NewHealthCheckHandler(
		map[string]handler.HealthCheck{
			"mongodb":  func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"postgres": sqlDB.PingContext,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
		map[string]handler.HealthCheck{
			"drift_store": func(ctx context.Context) error {
				size, err := driftStore.Size(ctx)
				if err != nil {
					return err
				}
				if size > cfg.Sweep.BatchSize*10 {
					return fmt.Errorf("%d entries pending", size)
				}
				return nil
			},
		},
	)

	mux := http.NewServeMux()
	healthHandler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:    cfg.Worker.Address(),
		Handler: mux,
	}

	go func() {
		logger.Info().Str("address", cfg.Worker.Address()).Msg("Starting health and metrics server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	logger.Info().
		Str("topic", cfg.Kafka.Topic).
		Str("group", cfg.Kafka.GroupID).
		Str("schedule", cfg.Sweep.Schedule).
		Msg("Storefront worker is running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Storefront worker...")

	cronScheduler.Stop()
	kafkaConsumer.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Health server forced to shutdown")
	}

	logger.Info().Msg("Storefront worker stopped gracefully")
}
