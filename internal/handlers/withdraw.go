package handlers

import (
	"dompet/internal/services/withdraw"
	"dompet/internal/utils/pagination"
	"dompet/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type WithdrawHandler struct {
	*TrashHandler[withdraw.WithdrawResponse]

	service withdraw.Service
}

func NewWithdrawHandler(s withdraw.Service) *WithdrawHandler {
	return &WithdrawHandler{TrashHandler: NewTrashHandler[withdraw.WithdrawResponse](s, "withdraw"), service: s}
}

// Create handles POST /api/withdraws.
func (h *WithdrawHandler) Create(c *fiber.Ctx) error {
	var req withdraw.CreateWithdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	res, err := h.service.Create(c.UserContext(), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusCreated, res)
}

// Update handles PUT /api/withdraws/:id.
func (h *WithdrawHandler) Update(c *fiber.Ctx) error {
	id, ok := pagination.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid withdraw id")
	}
	var req withdraw.UpdateWithdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	req.WithdrawID = id

	res, err := h.service.Update(c.UserContext(), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}

func (h *WithdrawHandler) FindByID(c *fiber.Ctx) error {
	id, ok := pagination.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid withdraw id")
	}
	res, err := h.service.FindByID(c.UserContext(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}

func (h *WithdrawHandler) FindAll(c *fiber.Ctx) error {
	res, err := h.service.FindAll(c.UserContext(), pagination.ParseFromRequest(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}

func (h *WithdrawHandler) FindByCard(c *fiber.Ctx) error {
	res, err := h.service.FindByCard(c.UserContext(), c.Params("card_number"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}
