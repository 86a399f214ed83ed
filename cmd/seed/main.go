// Command seed creates a customer card, a merchant card and the merchant
// that owns it, each card with its saldo row. Running it twice is harmless.
package main

import (
	"context"
	"os"
	"os/signal"

	"dompet/internal/config"
	"dompet/internal/observability"
	"dompet/internal/repositories"
	"dompet/internal/repositories/cache"
	cachekeys "dompet/internal/utils/cache"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()
	log := observability.NewLogger(cfg.ServiceName+"-seed", cfg.LogLevel, config.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	plan := Plan{
		CustomerCard:    os.Getenv("SEED_CUSTOMER_CARD"),
		CustomerBalance: config.GetInt64Env("SEED_CUSTOMER_BALANCE", 0),
		MerchantCard:    os.Getenv("SEED_MERCHANT_CARD"),
		MerchantName:    config.GetEnv("SEED_MERCHANT_NAME", "Demo Merchant"),
		MerchantAPIKey:  os.Getenv("SEED_MERCHANT_API_KEY"),
	}
	if plan.CustomerCard == "" || plan.MerchantCard == "" {
		log.Fatal().Msg("SEED_CUSTOMER_CARD and SEED_MERCHANT_CARD must be set in environment")
	}

	db, err := repositories.InitDB(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			log.Warn().Err(err).Msg("failed to close database connection")
		}
	}()

	result, err := Seed(ctx, db, plan)
	if err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}

	redisClient := cache.NewRedisClient(cache.RedisConfig{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	c := cache.New(cache.NewRedisStore(redisClient, cfg.Redis.OpTimeout), observability.Observer{Log: log})
	c.Invalidate(ctx,
		cachekeys.ByCard(cachekeys.EntitySaldo, plan.CustomerCard),
		cachekeys.ByCard(cachekeys.EntitySaldo, plan.MerchantCard),
		cachekeys.AllLists(cachekeys.EntitySaldo),
	)

	log.Info().
		Str("customer_card", observability.MaskCard(plan.CustomerCard)).
		Str("merchant_card", observability.MaskCard(plan.MerchantCard)).
		Uint("merchant_id", result.Merchant.ID).
		Str("api_key", result.Merchant.APIKey).
		Bool("created", result.Created).
		Msg("seed complete")
}
