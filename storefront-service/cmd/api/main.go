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
	"promomarket/storefront-service/internal/app/storefront/infrastructure/messaging"
	"promomarket/storefront-service/internal/app/storefront/repository"
	"promomarket/storefront-service/internal/app/storefront/service"
)

const serviceName = "storefront-service"

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

	logstashAddr := os.Getenv("LOGSTASH_ADDR")
	if logstashAddr != "" {
		if err := logger.InitLogstash(logstashAddr, serviceName, logLevel); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", logstashAddr).Msg("Connected to Logstash")
		}
	}

	mongoClient, err := database.ConnectMongoDB(cfg.MongoDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			logger.Error().Err(err).Msg("Error disconnecting from MongoDB")
		}
	}()
	logger.Info().Str("database", cfg.MongoDB.Database).Msg("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB.Database)

	ledgerDB, err := database.ConnectPostgres(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	sqlDB, err := ledgerDB.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to get sql.DB from gorm")
	}
	defer sqlDB.Close()
	logger.Info().Str("database", cfg.Database.DBName).Msg("Connected to PostgreSQL")

	redisClient, err := cache.NewRedisClient(cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Str("address", cfg.Redis.Address()).Msg("Connected to Redis")

	kafkaProducer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaProducer.Close()
	logger.Info().Str("topic", cfg.Kafka.Topic).Msg("Initialized Kafka producer")

	productRepo := repository.NewCatalogRepository(db, entity.ItemKindProduct)
	eventRepo := repository.NewCatalogRepository(db, entity.ItemKindEvent)
	orderRepo := repository.NewOrderRepository(db)
	ledgerRepo := repository.NewLedgerRepository(ledgerDB)
	driftStore := cache.NewRedisDriftStore(redisClient)

	reconciler := service.NewReviewReconciler(
		[]repository.CatalogRepository{productRepo, eventRepo},
		orderRepo,
		driftStore,
		kafkaProducer,
		time.Now,
	)
	analytics := service.NewOrderAnalytics(orderRepo, productRepo, time.Now)
	ranking := service.NewCatalogRanking(productRepo, eventRepo, time.Now)
	runner := service.NewResyncRunner(reconciler, ledgerRepo, driftStore)

	healthHandler := handler.NewHealthCheckHandler(
		map[string]handler.HealthCheck{
			"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis":   func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
		map[string]handler.HealthCheck{
			"postgres": sqlDB.PingContext,
		},
	)

	authMiddleware := handler.NewAuthMiddleware(cfg.JWT.Secret)
	storefrontHandler := handler.NewStorefrontHandler(reconciler, analytics, ranking, runner)
	router := handler.SetupRoutes(storefrontHandler, authMiddleware, healthHandler, cfg.CORS.AllowOrigins)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("Starting Storefront Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Storefront Service...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Storefront Service stopped gracefully")
}
