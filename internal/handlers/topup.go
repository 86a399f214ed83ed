package handlers

import (
	"dompet/internal/services/topup"
	"dompet/internal/utils/pagination"
	"dompet/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type TopupHandler struct {
	*TrashHandler[topup.TopupResponse]

	service topup.Service
}

func NewTopupHandler(s topup.Service) *TopupHandler {
	return &TopupHandler{TrashHandler: NewTrashHandler[topup.TopupResponse](s, "topup"), service: s}
}

// Create handles POST /api/topups.
func (h *TopupHandler) Create(c *fiber.Ctx) error {
	var req topup.CreateTopupRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	res, err := h.service.Create(c.UserContext(), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusCreated, res)
}

// Update handles PUT /api/topups/:id.
func (h *TopupHandler) Update(c *fiber.Ctx) error {
	id, ok := pagination.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid topup id")
	}
	var req topup.UpdateTopupRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	req.TopupID = id

	res, err := h.service.Update(c.UserContext(), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}

func (h *TopupHandler) FindByID(c *fiber.Ctx) error {
	id, ok := pagination.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid topup id")
	}
	res, err := h.service.FindByID(c.UserContext(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}

func (h *TopupHandler) FindAll(c *fiber.Ctx) error {
	res, err := h.service.FindAll(c.UserContext(), pagination.ParseFromRequest(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}

func (h *TopupHandler) FindByCard(c *fiber.Ctx) error {
	res, err := h.service.FindByCard(c.UserContext(), c.Params("card_number"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}
