// Package main is the entry point of the wallet API.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dompet/internal/config"
	"dompet/internal/events"
	"dompet/internal/handlers"
	"dompet/internal/observability"
	"dompet/internal/repositories"
	"dompet/internal/repositories/cache"
	"dompet/internal/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	log := observability.NewLogger(cfg.ServiceName, cfg.LogLevel, config.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracerProvider, shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.Version,
		Endpoint:       cfg.Tracing.Endpoint,
		Environment:    cfg.Env,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	obs := observability.Observer{
		Log:     log,
		Tracer:  tracerProvider.Tracer(cfg.ServiceName),
		Metrics: observability.NewPrometheusMetrics(registry),
	}

	// Initialize databases (PostgreSQL or MySQL + Redis)
	db, err := repositories.InitDB(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get database instance")
	}

	redisClient := cache.NewRedisClient(cache.RedisConfig{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	redisStore := cache.NewRedisStore(redisClient, cfg.Redis.OpTimeout)
	if err := redisStore.HealthCheck(ctx); err != nil {
		// Reads fall through to the database while Redis is away.
		log.Warn().Err(err).Msg("redis unreachable at startup, continuing without cache")
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publishing mutation events to kafka")
	}

	go reportPoolStats(ctx, obs, sqlDB.Stats)

	h := routes.BuildHandlers(cfg, routes.Dependencies{
		Cards:        repositories.NewCardRepository(db),
		Merchants:    repositories.NewMerchantRepository(db),
		Saldos:       repositories.NewSaldoRepository(db),
		Topups:       repositories.NewTopupRepository(db),
		Withdraws:    repositories.NewWithdrawRepository(db),
		Transfers:    repositories.NewTransferRepository(db),
		Transactions: repositories.NewTransactionRepository(db),
		Cache:        cache.New(redisStore, obs),
		Publisher:    publisher,
		Obs:          obs,
		Checkers: map[string]handlers.Checker{
			"database": sqlDB.PingContext,
			"redis":    redisStore.HealthCheck,
		},
		Metrics: adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.ServiceName,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, " + handlers.APIKeyHeader,
		AllowMethods: "GET,POST,PUT",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
	}))

	routes.SetupRoutes(app, h, routes.Options{WriteLimit: cfg.WriteRateLimit})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		log.Error().Err(err).Msg("failed to shut down server")
	}
	if err := publisher.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close event publisher")
	}
	if err := redisClient.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close redis connection")
	}
	if err := repositories.Close(db); err != nil {
		log.Error().Err(err).Msg("failed to close database connection")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to flush traces")
	}
}
