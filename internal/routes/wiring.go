package routes

import (
	"dompet/internal/config"
	"dompet/internal/events"
	"dompet/internal/handlers"
	"dompet/internal/observability"
	"dompet/internal/repositories"
	"dompet/internal/repositories/cache"
	"dompet/internal/services/saga"
	"dompet/internal/services/saldo"
	"dompet/internal/services/topup"
	"dompet/internal/services/transaction"
	"dompet/internal/services/transfer"
	"dompet/internal/services/withdraw"

	"github.com/gofiber/fiber/v2"
)

// Dependencies are the stores and infrastructure the services run on.
type Dependencies struct {
	Cards        repositories.CardRepository
	Merchants    repositories.MerchantRepository
	Saldos       repositories.SaldoRepository
	Topups       repositories.TopupRepository
	Withdraws    repositories.WithdrawRepository
	Transfers    repositories.TransferRepository
	Transactions repositories.TransactionRepository

	Cache     *cache.Cache
	Publisher events.Publisher
	Obs       observability.Observer
	Checkers  map[string]handlers.Checker
	Metrics   fiber.Handler
}

// BuildHandlers wires every service to one shared saga coordinator so that
// all mutation families serialize on the same per-card locks.
func BuildHandlers(cfg config.Config, deps Dependencies) Handlers {
	ledger := saga.NewLedger(deps.Saldos, cfg.Mutation.CASRetries, deps.Obs)
	coordinator := saga.NewCoordinator(saga.NewLocker(), ledger, deps.Publisher, deps.Obs, saga.Config{
		LockTimeout:  cfg.Mutation.LockTimeout,
		WriteTimeout: cfg.Mutation.WriteTimeout,
	})

	topupService := topup.NewService(deps.Cards, deps.Topups, deps.Cache, coordinator, deps.Obs, topup.Config{
		MinAmount: cfg.Mutation.MinAmount,
		RecordTTL: cfg.Cache.RecordTTL,
		ListTTL:   cfg.Cache.ListTTL,
	})
	withdrawService := withdraw.NewService(deps.Cards, deps.Withdraws, deps.Cache, coordinator, deps.Obs, withdraw.Config{
		MinAmount: cfg.Mutation.MinAmount,
		RecordTTL: cfg.Cache.RecordTTL,
		ListTTL:   cfg.Cache.ListTTL,
	})
	transferService := transfer.NewService(deps.Cards, deps.Transfers, deps.Cache, coordinator, deps.Obs, transfer.Config{
		MinAmount: cfg.Mutation.MinAmount,
		RecordTTL: cfg.Cache.RecordTTL,
		ListTTL:   cfg.Cache.ListTTL,
	})
	transactionService := transaction.NewService(deps.Cards, deps.Merchants, deps.Transactions, deps.Cache, coordinator, deps.Obs, transaction.Config{
		MinAmount: cfg.Mutation.MinAmount,
		RecordTTL: cfg.Cache.RecordTTL,
		ListTTL:   cfg.Cache.ListTTL,
	})
	saldoService := saldo.NewService(deps.Saldos, deps.Cache, deps.Obs, saldo.Config{
		SaldoTTL: cfg.Cache.SaldoTTL,
		ListTTL:  cfg.Cache.ListTTL,
	})

	return Handlers{
		Topup:       handlers.NewTopupHandler(topupService),
		Withdraw:    handlers.NewWithdrawHandler(withdrawService),
		Transfer:    handlers.NewTransferHandler(transferService),
		Transaction: handlers.NewTransactionHandler(transactionService),
		Saldo:       handlers.NewSaldoHandler(saldoService),
		Health:      handlers.NewHealthHandler(cfg.Version, deps.Checkers),
		Metrics:     deps.Metrics,
	}
}
