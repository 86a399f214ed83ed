package transfer

import (
	"context"

	"dompet/internal/domain/response"
	apperrors "dompet/internal/errors"
	"dompet/internal/observability"
	"dompet/internal/repositories"
	"dompet/internal/repositories/cache"
	"dompet/internal/services/saga"
	cachekeys "dompet/internal/utils/cache"
	"dompet/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

func (s *service) FindByID(ctx context.Context, id uint) (*response.ApiResponse[TransferResponse], error) {
	ctx, op := s.obs.Begin(ctx, component, "find_by_id", attribute.Int("transfer_id", int(id)))

	key := cachekeys.ByID(cachekeys.EntityTransfer, id)
	transfer, err := cache.GetOrLoad(ctx, s.cache, key, s.config.RecordTTL, func(ctx context.Context) (TransferResponse, error) {
		record, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return TransferResponse{}, err
		}
		return toResponse(record), nil
	})
	if err != nil {
		return nil, op.Fail(saga.LookupError(err, repositories.ErrRecordNotFound, apperrors.CodeTransferNotFound, "transfer"))
	}

	op.Succeed()
	return response.Success("Transfer retrieved successfully", transfer), nil
}

func (s *service) FindAll(ctx context.Context, q repositories.ListQuery) (*response.ApiResponsePagination[[]TransferResponse], error) {
	q = q.Normalize()
	ctx, op := s.obs.Begin(ctx, component, "find_all", attribute.Int("page", q.Page), attribute.Int("page_size", q.PageSize))

	key := cachekeys.List(cachekeys.EntityTransfer, q.Page, q.PageSize, q.Search)
	page, err := cache.GetOrLoad(ctx, s.cache, key, s.config.ListTTL, func(ctx context.Context) (transferPage, error) {
		records, total, err := s.repo.FindAll(ctx, q)
		if err != nil {
			return transferPage{}, err
		}
		return transferPage{Items: toResponses(records), Total: total}, nil
	})
	if err != nil {
		return nil, op.Fail(apperrors.Downstream(apperrors.CodeLookupFailed, "failed to list transfers", err))
	}

	op.Succeed()
	return response.Paginated("Transfers retrieved successfully", page.Items, q.Page, q.PageSize, page.Total), nil
}

func (s *service) FindByCard(ctx context.Context, cardNumber string) (*response.ApiResponse[[]TransferResponse], error) {
	ctx, op := s.obs.Begin(ctx, component, "find_by_card", attribute.String("card_number", observability.MaskCard(cardNumber)))

	if !validation.IsCardNumber(cardNumber) {
		return nil, op.Fail(apperrors.Validation("invalid request", map[string]string{"card_number": "must be 12 to 19 digits"}))
	}

	key := cachekeys.ByCard(cachekeys.EntityTransfer, cardNumber)
	transfers, err := cache.GetOrLoad(ctx, s.cache, key, s.config.ListTTL, func(ctx context.Context) ([]TransferResponse, error) {
		records, err := s.repo.FindByCardNumber(ctx, cardNumber)
		if err != nil {
			return nil, err
		}
		return toResponses(records), nil
	})
	if err != nil {
		return nil, op.Fail(apperrors.Downstream(apperrors.CodeLookupFailed, "failed to list transfers", err))
	}

	op.Succeed()
	return response.Success("Transfers retrieved successfully", transfers), nil
}
