package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Checker reports whether one dependency is reachable.
type Checker func(ctx context.Context) error

type HealthHandler struct {
	version  string
	checkers map[string]Checker
	timeout  time.Duration
}

func NewHealthHandler(version string, checkers map[string]Checker) *HealthHandler {
	return &HealthHandler{version: version, checkers: checkers, timeout: 2 * time.Second}
}

// HealthCheck answers 503 when the database is down. A failing cache only
// degrades the report since reads fall through to the database.
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	status := "ok"
	code := fiber.StatusOK
	services := fiber.Map{}
	for name, check := range h.checkers {
		if err := check(ctx); err != nil {
			services[name] = err.Error()
			if name == "database" {
				status, code = "unavailable", fiber.StatusServiceUnavailable
			} else if status == "ok" {
				status = "degraded"
			}
			continue
		}
		services[name] = "connected"
	}

	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"version":  h.version,
		"services": services,
	})
}
