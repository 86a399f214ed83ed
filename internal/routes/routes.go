// Package routes defines the API routing configuration.
package routes

import (
	"time"

	"dompet/internal/handlers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Topup       *handlers.TopupHandler
	Withdraw    *handlers.WithdrawHandler
	Transfer    *handlers.TransferHandler
	Transaction *handlers.TransactionHandler
	Saldo       *handlers.SaldoHandler
	Health      *handlers.HealthHandler
	Metrics     fiber.Handler
}

type Options struct {
	// WriteLimit caps mutation requests per client per minute. Zero disables it.
	WriteLimit int
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, h Handlers, opts Options) {
	app.Get("/health", h.Health.HealthCheck)
	if h.Metrics != nil {
		app.Get("/metrics", h.Metrics)
	}

	api := app.Group("/api")
	writes := writeLimiter(opts.WriteLimit)

	topups := api.Group("/topups")
	topups.Get("/", h.Topup.FindAll)
	topups.Get("/card/:card_number", h.Topup.FindByCard)
	mountTrash(topups, h.Topup, writes)
	topups.Get("/:id", h.Topup.FindByID)
	topups.Post("/", writes, h.Topup.Create)
	topups.Put("/:id", writes, h.Topup.Update)

	withdraws := api.Group("/withdraws")
	withdraws.Get("/", h.Withdraw.FindAll)
	withdraws.Get("/card/:card_number", h.Withdraw.FindByCard)
	mountTrash(withdraws, h.Withdraw, writes)
	withdraws.Get("/:id", h.Withdraw.FindByID)
	withdraws.Post("/", writes, h.Withdraw.Create)
	withdraws.Put("/:id", writes, h.Withdraw.Update)

	transfers := api.Group("/transfers")
	transfers.Get("/", h.Transfer.FindAll)
	transfers.Get("/card/:card_number", h.Transfer.FindByCard)
	mountTrash(transfers, h.Transfer, writes)
	transfers.Get("/:id", h.Transfer.FindByID)
	transfers.Post("/", writes, h.Transfer.Create)
	transfers.Put("/:id", writes, h.Transfer.Update)

	transactions := api.Group("/transactions")
	transactions.Get("/", h.Transaction.FindAll)
	transactions.Get("/merchant", h.Transaction.FindByAPIKey)
	transactions.Get("/merchant/:merchant_id", h.Transaction.FindByMerchant)
	transactions.Get("/card/:card_number", h.Transaction.FindByCard)
	mountTrash(transactions, h.Transaction, writes)
	transactions.Get("/:id", h.Transaction.FindByID)
	transactions.Post("/", writes, h.Transaction.Create)
	transactions.Put("/:id", writes, h.Transaction.Update)

	saldos := api.Group("/saldos")
	saldos.Get("/", h.Saldo.FindAll)
	saldos.Get("/card/:card_number", h.Saldo.FindByCard)
}

// trashRoutes is implemented by every record family handler.
type trashRoutes interface {
	FindTrashed(c *fiber.Ctx) error
	Trash(c *fiber.Ctx) error
	Restore(c *fiber.Ctx) error
	DeletePermanent(c *fiber.Ctx) error
	RestoreAll(c *fiber.Ctx) error
	DeleteAllPermanent(c *fiber.Ctx) error
}

// mountTrash registers the soft delete routes. It must run before the /:id
// lookup so /trashed is not read as an id.
func mountTrash(g fiber.Router, h trashRoutes, writes fiber.Handler) {
	g.Get("/trashed", h.FindTrashed)
	g.Post("/trashed/restore", writes, h.RestoreAll)
	g.Delete("/trashed", writes, h.DeleteAllPermanent)
	g.Delete("/:id", writes, h.Trash)
	g.Post("/:id/restore", writes, h.Restore)
	g.Delete("/:id/permanent", writes, h.DeletePermanent)
}

func writeLimiter(max int) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"status":  "error",
				"message": "Too many requests. Please try again later.",
			})
		},
	})
}
