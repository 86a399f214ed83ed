package main

import (
	"context"

	"dompet/internal/config"
	"dompet/internal/events"
	"dompet/internal/observability"
	"dompet/internal/repositories"
	"dompet/internal/repositories/cache"
	"dompet/internal/services/reconcile"
)

// openService connects to the same stores as the server and returns the
// reconciliation service with a cleanup func.
func openService(ctx context.Context, withPublisher bool) (*reconcile.Service, func(), error) {
	config.LoadEnv()
	cfg := config.Load()
	log := observability.NewLogger(cfg.ServiceName+"-reconcile", cfg.LogLevel, config.IsProduction())
	obs := observability.Observer{Log: log}.WithDefaults()

	db, err := repositories.InitDB(cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}

	redisClient := cache.NewRedisClient(cache.RedisConfig{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	store := cache.NewRedisStore(redisClient, cfg.Redis.OpTimeout)
	if err := store.HealthCheck(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, cached views will expire on their own")
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if withPublisher && len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	svc := reconcile.NewService(reconcile.Repositories{
		Topups:       repositories.NewTopupRepository(db),
		Withdraws:    repositories.NewWithdrawRepository(db),
		Transfers:    repositories.NewTransferRepository(db),
		Transactions: repositories.NewTransactionRepository(db),
	}, publisher, cache.New(store, obs), obs)

	cleanup := func() {
		_ = publisher.Close()
		_ = redisClient.Close()
		_ = repositories.Close(db)
	}
	return svc, cleanup, nil
}
