// Package saldo serves cached reads of card balances. Balances are only
// written by the mutation services.
package saldo

import (
	"context"
	"time"

	"dompet/internal/domain/response"
	apperrors "dompet/internal/errors"
	"dompet/internal/models"
	"dompet/internal/observability"
	"dompet/internal/repositories"
	"dompet/internal/repositories/cache"
	"dompet/internal/services/saga"
	cachekeys "dompet/internal/utils/cache"
	"dompet/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const component = "saldo"

type Config struct {
	SaldoTTL time.Duration
	ListTTL  time.Duration
}

type SaldoResponse struct {
	ID           uint      `json:"id"`
	CardNumber   string    `json:"card_number"`
	TotalBalance int64     `json:"total_balance"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type saldoPage struct {
	Items []SaldoResponse `json:"items"`
	Total int64           `json:"total"`
}

type Service interface {
	FindByCard(ctx context.Context, cardNumber string) (*response.ApiResponse[SaldoResponse], error)
	FindAll(ctx context.Context, q repositories.ListQuery) (*response.ApiResponsePagination[[]SaldoResponse], error)
}

type service struct {
	saldos repositories.SaldoRepository
	cache  *cache.Cache
	obs    observability.Observer
	config Config
}

func NewService(saldos repositories.SaldoRepository, cache *cache.Cache, obs observability.Observer, config Config) Service {
	if saldos == nil {
		panic("saldo repository is required")
	}
	if cache == nil {
		panic("cache is required")
	}
	if config.SaldoTTL == 0 {
		config.SaldoTTL = 10 * time.Minute
	}
	if config.ListTTL == 0 {
		config.ListTTL = 10 * time.Minute
	}
	return &service{
		saldos: saldos,
		cache:  cache,
		obs:    obs.WithDefaults().Component(component),
		config: config,
	}
}

func (s *service) FindByCard(ctx context.Context, cardNumber string) (*response.ApiResponse[SaldoResponse], error) {
	ctx, op := s.obs.Begin(ctx, component, "find_by_card", attribute.String("card_number", observability.MaskCard(cardNumber)))

	if !validation.IsCardNumber(cardNumber) {
		return nil, op.Fail(apperrors.Validation("invalid request", map[string]string{"card_number": "must be 12 to 19 digits"}))
	}

	key := cachekeys.ByCard(cachekeys.EntitySaldo, cardNumber)
	saldo, err := cache.GetOrLoad(ctx, s.cache, key, s.config.SaldoTTL, func(ctx context.Context) (SaldoResponse, error) {
		record, err := s.saldos.FindByCardNumber(ctx, cardNumber)
		if err != nil {
			return SaldoResponse{}, err
		}
		return toResponse(record), nil
	})
	if err != nil {
		return nil, op.Fail(saga.LookupError(err, repositories.ErrSaldoNotFound, apperrors.CodeSaldoNotFound, "saldo"))
	}

	op.Succeed()
	return response.Success("Saldo retrieved successfully", saldo), nil
}

func (s *service) FindAll(ctx context.Context, q repositories.ListQuery) (*response.ApiResponsePagination[[]SaldoResponse], error) {
	q = q.Normalize()
	ctx, op := s.obs.Begin(ctx, component, "find_all", attribute.Int("page", q.Page), attribute.Int("page_size", q.PageSize))

	key := cachekeys.List(cachekeys.EntitySaldo, q.Page, q.PageSize, q.Search)
	page, err := cache.GetOrLoad(ctx, s.cache, key, s.config.ListTTL, func(ctx context.Context) (saldoPage, error) {
		records, total, err := s.saldos.FindAll(ctx, q)
		if err != nil {
			return saldoPage{}, err
		}
		items := make([]SaldoResponse, 0, len(records))
		for _, r := range records {
			items = append(items, toResponse(r))
		}
		return saldoPage{Items: items, Total: total}, nil
	})
	if err != nil {
		return nil, op.Fail(apperrors.Downstream(apperrors.CodeLookupFailed, "failed to list saldos", err))
	}

	op.Succeed()
	return response.Paginated("Saldos retrieved successfully", page.Items, q.Page, q.PageSize, page.Total), nil
}

func toResponse(s *models.Saldo) SaldoResponse {
	return SaldoResponse{
		ID:           s.ID,
		CardNumber:   s.CardNumber,
		TotalBalance: s.TotalBalance,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}
