package handlers

import (
	"dompet/internal/services/transaction"
	"dompet/internal/utils/pagination"
	"dompet/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// APIKeyHeader carries the merchant api key on payment requests.
const APIKeyHeader = "X-Api-Key"

type TransactionHandler struct {
	*TrashHandler[transaction.TransactionResponse]

	service transaction.Service
}

func NewTransactionHandler(s transaction.Service) *TransactionHandler {
	return &TransactionHandler{TrashHandler: NewTrashHandler[transaction.TransactionResponse](s, "transaction"), service: s}
}

// Create handles POST /api/transactions. The merchant is identified by
// the api key header.
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	var req transaction.CreateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	req.ApiKey = c.Get(APIKeyHeader)

	res, err := h.service.Create(c.UserContext(), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusCreated, res)
}

func (h *TransactionHandler) Update(c *fiber.Ctx) error {
	id, ok := pagination.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid transaction id")
	}
	var req transaction.UpdateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	req.TransactionID = id
	req.ApiKey = c.Get(APIKeyHeader)

	res, err := h.service.Update(c.UserContext(), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}

func (h *TransactionHandler) FindByID(c *fiber.Ctx) error {
	id, ok := pagination.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid transaction id")
	}
	res, err := h.service.FindByID(c.UserContext(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}

func (h *TransactionHandler) FindAll(c *fiber.Ctx) error {
	res, err := h.service.FindAll(c.UserContext(), pagination.ParseFromRequest(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}

func (h *TransactionHandler) FindByCard(c *fiber.Ctx) error {
	res, err := h.service.FindByCard(c.UserContext(), c.Params("card_number"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}

func (h *TransactionHandler) FindByMerchant(c *fiber.Ctx) error {
	id, ok := pagination.ParamID(c, "merchant_id")
	if !ok {
		return response.BadRequest(c, "invalid merchant id")
	}
	res, err := h.service.FindByMerchant(c.UserContext(), id, pagination.ParseFromRequest(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}

// FindByAPIKey handles GET /api/transactions/merchant, listing the
// transactions of the calling merchant.
func (h *TransactionHandler) FindByAPIKey(c *fiber.Ctx) error {
	res, err := h.service.FindByAPIKey(c.UserContext(), c.Get(APIKeyHeader), pagination.ParseFromRequest(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}
