package topup

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
	trash.Service[TopupResponse]

	Create(ctx context.Context, req CreateTopupRequest) (*response.ApiResponse[TopupResponse], error)
	Update(ctx context.Context, req UpdateTopupRequest) (*response.ApiResponse[TopupResponse], error)
	FindByID(ctx context.Context, id uint) (*response.ApiResponse[TopupResponse], error)
	FindAll(ctx context.Context, q repositories.ListQuery) (*response.ApiResponsePagination[[]TopupResponse], error)
	FindByCard(ctx context.Context, cardNumber string) (*response.ApiResponse[[]TopupResponse], error)
}

type service struct {
	*trash.Lifecycle[models.Topup, *models.Topup, TopupResponse]

	cards  repositories.CardRepository
	repo   repositories.TopupRepository
	cache  *cache.Cache
	saga   *saga.Coordinator
	obs    observability.Observer
	config Config
}

// NewService creates a new topup service
func NewService(
	cards repositories.CardRepository,
	repo repositories.TopupRepository,
	cache *cache.Cache,
	coordinator *saga.Coordinator,
	obs observability.Observer,
	config Config,
) Service {
	if cards == nil {
		panic("card repository is required")
	}
	if repo == nil {
		panic("topup repository is required")
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
		Lifecycle: trash.New[models.Topup, *models.Topup](repo, cache, coordinator, obs, trash.Family[models.Topup, TopupResponse]{
			Entity:   cachekeys.EntityTopup,
			Noun:     component,
			Title:    "Topup",
			NotFound: apperrors.CodeTopupNotFound,
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

func (s *service) Create(ctx context.Context, req CreateTopupRequest) (*response.ApiResponse[TopupResponse], error) {
	ctx, op := s.obs.Begin(ctx, component, "create",
		attribute.String("card_number", observability.MaskCard(req.CardNumber)),
		attribute.Int64("amount", req.TopupAmount),
	)

	v := validation.New()
	v.Struct(req)
	v.MinAmount("topup_amount", req.TopupAmount, s.config.MinAmount)
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

	record := &models.Topup{
		TopupNo:     uuid.New(),
		CardNumber:  req.CardNumber,
		TopupAmount: req.TopupAmount,
		TopupMethod: req.TopupMethod,
		TopupTime:   time.Now().UTC(),
		Status:      models.StatusPending,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, op.Fail(apperrors.Downstream(apperrors.CodeRecordWriteFailed, "failed to create topup", err))
	}
	op.Step("record_created", attribute.Int("topup_id", int(record.ID)))
	defer s.invalidate(ctx, record)

	ev := saga.Event(component, record.ID, record.TopupAmount, record.CardNumber)

	if _, err := s.saga.Apply(ctx, component, saga.Credit(record.CardNumber, record.TopupAmount)); err != nil {
		s.saga.MarkFailed(ctx, ev, s.repo.UpdateStatus)
		return nil, op.Fail(err)
	}
	op.Step("ledger_committed")

	if err := s.saga.Finalize(ctx, ev, s.repo.UpdateStatus); err != nil {
		return nil, op.Fail(err)
	}
	record.Status = models.StatusSuccess

	op.Succeed()
	return response.Success("Topup created successfully", toResponse(record)), nil
}

// Update amends the amount of an existing topup and moves the card balance
// by the difference. If the amendment cannot be saved after the ledger
// moved, the ledger is reverted and the topup marked failed.
func (s *service) Update(ctx context.Context, req UpdateTopupRequest) (*response.ApiResponse[TopupResponse], error) {
	ctx, op := s.obs.Begin(ctx, component, "update",
		attribute.Int("topup_id", int(req.TopupID)),
		attribute.String("card_number", observability.MaskCard(req.CardNumber)),
		attribute.Int64("amount", req.TopupAmount),
	)

	v := validation.New()
	v.Struct(req)
	v.MinAmount("topup_amount", req.TopupAmount, s.config.MinAmount)
	if err := v.Err(); err != nil {
		return nil, op.Fail(err)
	}

	unlock, err := s.saga.Lock(ctx, req.CardNumber)
	if err != nil {
		return nil, op.Fail(err)
	}
	defer unlock()

	existing, err := s.repo.FindByID(ctx, req.TopupID)
	if err != nil {
		return nil, op.Fail(saga.LookupError(err, repositories.ErrRecordNotFound, apperrors.CodeTopupNotFound, "topup"))
	}
	if existing.CardNumber != req.CardNumber {
		return nil, op.Fail(apperrors.Validation("invalid request", map[string]string{
			"card_number": "does not match the topup",
		}))
	}

	if err := saga.Amendable(existing.Status, "topup"); err != nil {
		return nil, op.Fail(err)
	}

	ctx, cancel := s.saga.WritePhase(ctx)
	defer cancel()
	defer s.invalidate(ctx, existing)

	ev := saga.Event(component, existing.ID, req.TopupAmount, existing.CardNumber)

	if _, err := saga.FindCard(ctx, s.cards, existing.CardNumber); err != nil {
		s.saga.MarkFailed(ctx, ev, s.repo.UpdateStatus)
		return nil, op.Fail(err)
	}

	difference := req.TopupAmount - existing.TopupAmount
	applied, err := s.saga.Apply(ctx, component, saga.Credit(existing.CardNumber, difference))
	if err != nil {
		s.saga.MarkFailed(ctx, ev, s.repo.UpdateStatus)
		return nil, op.Fail(err)
	}
	op.Step("ledger_committed", attribute.Int64("difference", difference))

	amended := *existing
	amended.TopupAmount = req.TopupAmount
	amended.TopupMethod = req.TopupMethod
	if err := s.repo.UpdateFields(ctx, &amended); err != nil {
		s.saga.Compensate(ctx, ev, applied)
		s.saga.MarkFailed(ctx, ev, s.repo.UpdateStatus)
		return nil, op.Fail(apperrors.Downstream(apperrors.CodeRecordWriteFailed, "failed to update topup", err))
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
	return response.Success("Topup updated successfully", toResponse(updated)), nil
}

func (s *service) invalidate(ctx context.Context, t *models.Topup) {
	s.cache.Invalidate(ctx,
		cachekeys.ByID(cachekeys.EntityTopup, t.ID),
		cachekeys.ByCard(cachekeys.EntityTopup, t.CardNumber),
		cachekeys.AllLists(cachekeys.EntityTopup),
		cachekeys.ByCard(cachekeys.EntitySaldo, t.CardNumber),
		cachekeys.AllLists(cachekeys.EntitySaldo),
	)
}
