package handlers

import (
	"dompet/internal/services/saldo"
	"dompet/internal/utils/pagination"
	"dompet/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type SaldoHandler struct {
	service saldo.Service
}

func NewSaldoHandler(s saldo.Service) *SaldoHandler { return &SaldoHandler{service: s} }

func (h *SaldoHandler) FindAll(c *fiber.Ctx) error {
	res, err := h.service.FindAll(c.UserContext(), pagination.ParseFromRequest(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}

func (h *SaldoHandler) FindByCard(c *fiber.Ctx) error {
	res, err := h.service.FindByCard(c.UserContext(), c.Params("card_number"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}
