package handlers

import (
	"dompet/internal/services/trash"
	"dompet/internal/utils/pagination"
	"dompet/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// TrashHandler serves the soft delete routes of one record family.
type TrashHandler[R any] struct {
	trash trash.Service[R]
	noun  string
}

func NewTrashHandler[R any](s trash.Service[R], noun string) *TrashHandler[R] {
	return &TrashHandler[R]{trash: s, noun: noun}
}

func (h *TrashHandler[R]) FindTrashed(c *fiber.Ctx) error {
	res, err := h.trash.FindTrashed(c.UserContext(), pagination.ParseFromRequest(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}

// Trash handles DELETE /:id.
func (h *TrashHandler[R]) Trash(c *fiber.Ctx) error {
	id, ok := pagination.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid "+h.noun+" id")
	}
	res, err := h.trash.Trash(c.UserContext(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}

func (h *TrashHandler[R]) Restore(c *fiber.Ctx) error {
	id, ok := pagination.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid "+h.noun+" id")
	}
	res, err := h.trash.Restore(c.UserContext(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}

func (h *TrashHandler[R]) DeletePermanent(c *fiber.Ctx) error {
	id, ok := pagination.ParamID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid "+h.noun+" id")
	}
	res, err := h.trash.DeletePermanent(c.UserContext(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}

func (h *TrashHandler[R]) RestoreAll(c *fiber.Ctx) error {
	res, err := h.trash.RestoreAll(c.UserContext())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}

func (h *TrashHandler[R]) DeleteAllPermanent(c *fiber.Ctx) error {
	res, err := h.trash.DeleteAllPermanent(c.UserContext())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusOK, res)
}
