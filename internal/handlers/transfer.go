package handlers

import (
	"dompet/internal/services/transfer"
	"dompet/internal/utils/pagination"
	"dompet/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type TransferHandler struct {
	*TrashHandler[transfer.TransferResponse]

	service transfer.Service
}

func NewTransferHandler(s transfer.Service) *TransferHandler {
	return &TransferHandler{TrashHandler: NewTrashHandler[transfer.TransferResponse](s, "transfer"), service: s}
}

// Create handles POST /api/transfers.
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var req transfer.CreateTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	res, err := h.service.Create(c.UserContext(), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusCreated, res)
}

// Update handles PUT /api/transfers/:id.
func (h *TransferHandler) Update(c *fiber.Ctx) error {
	id, ok := pagination.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid transfer id")
	}
	var req transfer.UpdateTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	req.TransferID = id

	res, err := h.service.Update(c.UserContext(), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}

func (h *TransferHandler) FindByID(c *fiber.Ctx) error {
	id, ok := pagination.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid transfer id")
	}
	res, err := h.service.FindByID(c.UserContext(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}

func (h *TransferHandler) FindAll(c *fiber.Ctx) error {
	res, err := h.service.FindAll(c.UserContext(), pagination.ParseFromRequest(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}

func (h *TransferHandler) FindByCard(c *fiber.Ctx) error {
	res, err := h.service.FindByCard(c.UserContext(), c.Params("card_number"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}
