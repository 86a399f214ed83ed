package transaction

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

func (s *service) FindByID(ctx context.Context, id uint) (*response.ApiResponse[TransactionResponse], error) {
	ctx, op := s.obs.Begin(ctx, component, "find_by_id", attribute.Int("transaction_id", int(id)))

	key := cachekeys.ByID(cachekeys.EntityTransaction, id)
	transaction, err := cache.GetOrLoad(ctx, s.cache, key, s.config.RecordTTL, func(ctx context.Context) (TransactionResponse, error) {
		record, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return TransactionResponse{}, err
		}
		return toResponse(record), nil
	})
	if err != nil {
		return nil, op.Fail(saga.LookupError(err, repositories.ErrRecordNotFound, apperrors.CodeTxNotFound, "transaction"))
	}

	op.Succeed()
	return response.Success("Transaction retrieved successfully", transaction), nil
}

func (s *service) FindAll(ctx context.Context, q repositories.ListQuery) (*response.ApiResponsePagination[[]TransactionResponse], error) {
	q = q.Normalize()
	ctx, op := s.obs.Begin(ctx, component, "find_all", attribute.Int("page", q.Page), attribute.Int("page_size", q.PageSize))

	key := cachekeys.List(cachekeys.EntityTransaction, q.Page, q.PageSize, q.Search)
	page, err := cache.GetOrLoad(ctx, s.cache, key, s.config.ListTTL, func(ctx context.Context) (transactionPage, error) {
		records, total, err := s.repo.FindAll(ctx, q)
		if err != nil {
			return transactionPage{}, err
		}
		return transactionPage{Items: toResponses(records), Total: total}, nil
	})
	if err != nil {
		return nil, op.Fail(apperrors.Downstream(apperrors.CodeLookupFailed, "failed to list transactions", err))
	}

	op.Succeed()
	return response.Paginated("Transactions retrieved successfully", page.Items, q.Page, q.PageSize, page.Total), nil
}

func (s *service) FindByCard(ctx context.Context, cardNumber string) (*response.ApiResponse[[]TransactionResponse], error) {
	ctx, op := s.obs.Begin(ctx, component, "find_by_card", attribute.String("card_number", observability.MaskCard(cardNumber)))

	if !validation.IsCardNumber(cardNumber) {
		return nil, op.Fail(apperrors.Validation("invalid request", map[string]string{"card_number": "must be 12 to 19 digits"}))
	}

	key := cachekeys.ByCard(cachekeys.EntityTransaction, cardNumber)
	transactions, err := cache.GetOrLoad(ctx, s.cache, key, s.config.ListTTL, func(ctx context.Context) ([]TransactionResponse, error) {
		records, err := s.repo.FindByCardNumber(ctx, cardNumber)
		if err != nil {
			return nil, err
		}
		return toResponses(records), nil
	})
	if err != nil {
		return nil, op.Fail(apperrors.Downstream(apperrors.CodeLookupFailed, "failed to list transactions", err))
	}

	op.Succeed()
	return response.Success("Transactions retrieved successfully", transactions), nil
}

func (s *service) FindByMerchant(ctx context.Context, merchantID uint, q repositories.ListQuery) (*response.ApiResponsePagination[[]TransactionResponse], error) {
	q = q.Normalize()
	ctx, op := s.obs.Begin(ctx, component, "find_by_merchant", attribute.Int("merchant_id", int(merchantID)))

	if _, err := s.merchants.FindByID(ctx, merchantID); err != nil {
		return nil, op.Fail(saga.LookupError(err, repositories.ErrMerchantNotFound, apperrors.CodeMerchantNotFound, "merchant"))
	}

	key := cachekeys.ByMerchant(cachekeys.EntityTransaction, merchantID, q.Page, q.PageSize)
	page, err := s.merchantPage(ctx, key, merchantID, q)
	if err != nil {
		return nil, op.Fail(err)
	}

	op.Succeed()
	return response.Paginated("Transactions retrieved successfully", page.Items, q.Page, q.PageSize, page.Total), nil
}

// FindByAPIKey lists the transactions of the merchant owning apiKey.
func (s *service) FindByAPIKey(ctx context.Context, apiKey string, q repositories.ListQuery) (*response.ApiResponsePagination[[]TransactionResponse], error) {
	q = q.Normalize()
	ctx, op := s.obs.Begin(ctx, component, "find_by_api_key")

	if apiKey == "" {
		return nil, op.Fail(apperrors.Validation("invalid request", map[string]string{"api_key": "is required"}))
	}
	merchant, err := s.merchants.FindByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, op.Fail(saga.LookupError(err, repositories.ErrMerchantNotFound, apperrors.CodeMerchantNotFound, "merchant"))
	}

	key := cachekeys.ByAPIKey(cachekeys.EntityTransaction, apiKey, q.Page, q.PageSize)
	page, err := s.merchantPage(ctx, key, merchant.ID, q)
	if err != nil {
		return nil, op.Fail(err)
	}

	op.Succeed()
	return response.Paginated("Transactions retrieved successfully", page.Items, q.Page, q.PageSize, page.Total), nil
}

func (s *service) merchantPage(ctx context.Context, key string, merchantID uint, q repositories.ListQuery) (transactionPage, error) {
	page, err := cache.GetOrLoad(ctx, s.cache, key, s.config.ListTTL, func(ctx context.Context) (transactionPage, error) {
		records, total, err := s.repo.FindByMerchant(ctx, merchantID, q)
		if err != nil {
			return transactionPage{}, err
		}
		return transactionPage{Items: toResponses(records), Total: total}, nil
	})
	if err != nil {
		return transactionPage{}, apperrors.Downstream(apperrors.CodeLookupFailed, "failed to list merchant transactions", err)
	}
	return page, nil
}
