package withdraw

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
	"dompet/internal/services/trash"
	cachekeys "dompet/internal/utils/cache"
	"dompet/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type Service interface {
	trash.Service[WithdrawResponse]

	Create(ctx context.Context, req CreateWithdrawRequest) (*response.ApiResponse[WithdrawResponse], error)
	Update(ctx context.Context, req UpdateWithdrawRequest) (*response.ApiResponse[WithdrawResponse], error)
	FindByID(ctx context.Context, id uint) (*response.ApiResponse[WithdrawResponse], error)
	FindAll(ctx context.Context, q repositories.ListQuery) (*response.ApiResponsePagination[[]WithdrawResponse], error)
	FindByCard(ctx context.Context, cardNumber string) (*response.ApiResponse[[]WithdrawResponse], error)
}

type service struct {
	*trash.Lifecycle[models.Withdraw, *models.Withdraw, WithdrawResponse]

	cards  repositories.CardRepository
	repo   repositories.WithdrawRepository
	cache  *cache.Cache
	saga   *saga.Coordinator
	obs    observability.Observer
	config Config
}

func NewService(
	cards repositories.CardRepository,
	repo repositories.WithdrawRepository,
	cache *cache.Cache,
	coordinator *saga.Coordinator,
	obs observability.Observer,
	config Config,
) Service {
	if cards == nil {
		panic("card repository is required")
	}
	if repo == nil {
		panic("withdraw repository is required")
	}
	if cache == nil {
		panic("cache is required")
	}
	if coordinator == nil {
		panic("saga coordinator is required")
	}

	if config.MinAmount < 1 {
		config.MinAmount = 1
	}
	if config.RecordTTL == 0 {
		config.RecordTTL = 15 * time.Minute
	}
	if config.ListTTL == 0 {
		config.ListTTL = 10 * time.Minute
	}

	obs = obs.WithDefaults().Component(component)
	return &service{
		Lifecycle: trash.New[models.Withdraw, *models.Withdraw](repo, cache, coordinator, obs, trash.Family[models.Withdraw, WithdrawResponse]{
			Entity:   cachekeys.EntityWithdraw,
			Noun:     component,
			Title:    "Withdraw",
			NotFound: apperrors.CodeWithdrawNotFound,
			Convert:  toResponse,
		}),
		cards:  cards,
		repo:   repo,
		cache:  cache,
		saga:   coordinator,
		obs:    obs,
		config: config,
	}
}

func (s *service) Create(ctx context.Context, req CreateWithdrawRequest) (*response.ApiResponse[WithdrawResponse], error) {
	ctx, op := s.obs.Begin(ctx, component, "create",
		attribute.String("card_number", observability.MaskCard(req.CardNumber)),
		attribute.Int64("amount", req.WithdrawAmount),
	)

	v := validation.New()
	v.Struct(req)
	v.MinAmount("withdraw_amount", req.WithdrawAmount, s.config.MinAmount)
	if err := v.Err(); err != nil {
		return nil, op.Fail(err)
	}

	unlock, err := s.saga.Lock(ctx, req.CardNumber)
	if err != nil {
		return nil, op.Fail(err)
	}
	defer unlock()

	if _, err := saga.FindCard(ctx, s.cards, req.CardNumber); err != nil {
		return nil, op.Fail(err)
	}

	ctx, cancel := s.saga.WritePhase(ctx)
	defer cancel()

	record := &models.Withdraw{
		WithdrawNo:     uuid.New(),
		CardNumber:     req.CardNumber,
		WithdrawAmount: req.WithdrawAmount,
		WithdrawTime:   withdrawTime(req.WithdrawTime, time.Now().UTC()),
		Status:         models.StatusPending,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, op.Fail(apperrors.Downstream(apperrors.CodeRecordWriteFailed, "failed to create withdraw", err))
	}
	op.Step("record_created", attribute.Int("withdraw_id", int(record.ID)))
	defer s.invalidate(ctx, record)

	ev := saga.Event(component, record.ID, record.WithdrawAmount, record.CardNumber)

	if _, err := s.saga.Apply(ctx, component, saga.Debit(record.CardNumber, record.WithdrawAmount)); err != nil {
		s.saga.MarkFailed(ctx, ev, s.repo.UpdateStatus)
		return nil, op.Fail(err)
	}
	op.Step("ledger_committed")

	if err := s.saga.Finalize(ctx, ev, s.repo.UpdateStatus); err != nil {
		return nil, op.Fail(err)
	}
	record.Status = models.StatusSuccess

	op.Succeed()
	return response.Success("Withdraw created successfully", toResponse(record)), nil
}

// Update re-prices a withdrawal. A larger amount debits the difference and
// is guarded against the spendable balance; a smaller one credits it back.
func (s *service) Update(ctx context.Context, req UpdateWithdrawRequest) (*response.ApiResponse[WithdrawResponse], error) {
	ctx, op := s.obs.Begin(ctx, component, "update",
		attribute.Int("withdraw_id", int(req.WithdrawID)),
		attribute.String("card_number", observability.MaskCard(req.CardNumber)),
		attribute.Int64("amount", req.WithdrawAmount),
	)

	v := validation.New()
	v.Struct(req)
	v.MinAmount("withdraw_amount", req.WithdrawAmount, s.config.MinAmount)
	if err := v.Err(); err != nil {
		return nil, op.Fail(err)
	}

	unlock, err := s.saga.Lock(ctx, req.CardNumber)
	if err != nil {
		return nil, op.Fail(err)
	}
	defer unlock()

	existing, err := s.repo.FindByID(ctx, req.WithdrawID)
	if err != nil {
		return nil, op.Fail(saga.LookupError(err, repositories.ErrRecordNotFound, apperrors.CodeWithdrawNotFound, "withdraw"))
	}
	if existing.CardNumber != req.CardNumber {
		return nil, op.Fail(apperrors.Validation("invalid request", map[string]string{
			"card_number": "does not match the withdraw",
		}))
	}

	if err := saga.Amendable(existing.Status, "withdraw"); err != nil {
		return nil, op.Fail(err)
	}

	ctx, cancel := s.saga.WritePhase(ctx)
	defer cancel()
	defer s.invalidate(ctx, existing)

	ev := saga.Event(component, existing.ID, req.WithdrawAmount, existing.CardNumber)

	if _, err := saga.FindCard(ctx, s.cards, existing.CardNumber); err != nil {
		s.saga.MarkFailed(ctx, ev, s.repo.UpdateStatus)
		return nil, op.Fail(err)
	}

	difference := req.WithdrawAmount - existing.WithdrawAmount
	applied, err := s.saga.Apply(ctx, component, saga.Debit(existing.CardNumber, difference))
	if err != nil {
		s.saga.MarkFailed(ctx, ev, s.repo.UpdateStatus)
		return nil, op.Fail(err)
	}
	op.Step("ledger_committed", attribute.Int64("difference", difference))

	amended := *existing
	amended.WithdrawAmount = req.WithdrawAmount
	amended.WithdrawTime = withdrawTime(req.WithdrawTime, existing.WithdrawTime)
	if err := s.repo.UpdateFields(ctx, &amended); err != nil {
		s.saga.Compensate(ctx, ev, applied)
		s.saga.MarkFailed(ctx, ev, s.repo.UpdateStatus)
		return nil, op.Fail(apperrors.Downstream(apperrors.CodeRecordWriteFailed, "failed to update withdraw", err))
	}

	if err := s.saga.Finalize(ctx, ev, s.repo.UpdateStatus); err != nil {
		return nil, op.Fail(err)
	}

	updated, err := s.repo.FindByID(ctx, existing.ID)
	if err != nil {
		amended.Status = models.StatusSuccess
		updated = &amended
	}

	op.Succeed()
	return response.Success("Withdraw updated successfully", toResponse(updated)), nil
}

func (s *service) invalidate(ctx context.Context, w *models.Withdraw) {
	s.cache.Invalidate(ctx,
		cachekeys.ByID(cachekeys.EntityWithdraw, w.ID),
		cachekeys.ByCard(cachekeys.EntityWithdraw, w.CardNumber),
		cachekeys.AllLists(cachekeys.EntityWithdraw),
		cachekeys.ByCard(cachekeys.EntitySaldo, w.CardNumber),
		cachekeys.AllLists(cachekeys.EntitySaldo),
	)
}
