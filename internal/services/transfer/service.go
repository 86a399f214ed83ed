package transfer

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
	trash.Service[TransferResponse]

	Create(ctx context.Context, req CreateTransferRequest) (*response.ApiResponse[TransferResponse], error)
	Update(ctx context.Context, req UpdateTransferRequest) (*response.ApiResponse[TransferResponse], error)
	FindByID(ctx context.Context, id uint) (*response.ApiResponse[TransferResponse], error)
	FindAll(ctx context.Context, q repositories.ListQuery) (*response.ApiResponsePagination[[]TransferResponse], error)
	FindByCard(ctx context.Context, cardNumber string) (*response.ApiResponse[[]TransferResponse], error)
}

type service struct {
	*trash.Lifecycle[models.Transfer, *models.Transfer, TransferResponse]

	cards  repositories.CardRepository
	repo   repositories.TransferRepository
	cache  *cache.Cache
	saga   *saga.Coordinator
	obs    observability.Observer
	config Config
}

// NewService creates the card to card transfer service.
func NewService(
	cards repositories.CardRepository,
	repo repositories.TransferRepository,
	cache *cache.Cache,
	coordinator *saga.Coordinator,
	obs observability.Observer,
	config Config,
) Service {
	if cards == nil {
		panic("card repository is required")
	}
	if repo == nil {
		panic("transfer repository is required")
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
		Lifecycle: trash.New[models.Transfer, *models.Transfer](repo, cache, coordinator, obs, trash.Family[models.Transfer, TransferResponse]{
			Entity:   cachekeys.EntityTransfer,
			Noun:     component,
			Title:    "Transfer",
			NotFound: apperrors.CodeTransferNotFound,
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

// Create moves an amount from one card to another. Both cards are locked
// for the whole saga; the debit leg is guarded against the sender balance.
func (s *service) Create(ctx context.Context, req CreateTransferRequest) (*response.ApiResponse[TransferResponse], error) {
	ctx, op := s.obs.Begin(ctx, component, "create",
		attribute.String("transfer_from", observability.MaskCard(req.TransferFrom)),
		attribute.String("transfer_to", observability.MaskCard(req.TransferTo)),
		attribute.Int64("amount", req.TransferAmount),
	)

	v := validation.New()
	v.Struct(req)
	v.MinAmount("transfer_amount", req.TransferAmount, s.config.MinAmount)
	if err := v.Err(); err != nil {
		return nil, op.Fail(err)
	}

	unlock, err := s.saga.Lock(ctx, req.TransferFrom, req.TransferTo)
	if err != nil {
		return nil, op.Fail(err)
	}
	defer unlock()

	if err := s.resolveCards(ctx, req.TransferFrom, req.TransferTo); err != nil {
		return nil, op.Fail(err)
	}

	ctx, cancel := s.saga.WritePhase(ctx)
	defer cancel()

	record := &models.Transfer{
		TransferNo:     uuid.New(),
		TransferFrom:   req.TransferFrom,
		TransferTo:     req.TransferTo,
		TransferAmount: req.TransferAmount,
		TransferTime:   time.Now().UTC(),
		Status:         models.StatusPending,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, op.Fail(apperrors.Downstream(apperrors.CodeRecordWriteFailed, "failed to create transfer", err))
	}
	op.Step("record_created", attribute.Int("transfer_id", int(record.ID)))
	defer s.invalidate(ctx, record)

	ev := saga.Event(component, record.ID, record.TransferAmount, record.TransferFrom, record.TransferTo)

	if _, err := s.saga.Apply(ctx, component, legs(record.TransferFrom, record.TransferTo, record.TransferAmount)...); err != nil {
		s.saga.MarkFailed(ctx, ev, s.repo.UpdateStatus)
		return nil, op.Fail(err)
	}
	op.Step("ledger_committed")

	if err := s.saga.Finalize(ctx, ev, s.repo.UpdateStatus); err != nil {
		return nil, op.Fail(err)
	}
	record.Status = models.StatusSuccess

	op.Succeed()
	return response.Success("Transfer created successfully", toResponse(record)), nil
}

func (s *service) Update(ctx context.Context, req UpdateTransferRequest) (*response.ApiResponse[TransferResponse], error) {
	ctx, op := s.obs.Begin(ctx, component, "update",
		attribute.Int("transfer_id", int(req.TransferID)),
		attribute.String("transfer_from", observability.MaskCard(req.TransferFrom)),
		attribute.String("transfer_to", observability.MaskCard(req.TransferTo)),
		attribute.Int64("amount", req.TransferAmount),
	)

	v := validation.New()
	v.Struct(req)
	v.MinAmount("transfer_amount", req.TransferAmount, s.config.MinAmount)
	if err := v.Err(); err != nil {
		return nil, op.Fail(err)
	}

	unlock, err := s.saga.Lock(ctx, req.TransferFrom, req.TransferTo)
	if err != nil {
		return nil, op.Fail(err)
	}
	defer unlock()

	existing, err := s.repo.FindByID(ctx, req.TransferID)
	if err != nil {
		return nil, op.Fail(saga.LookupError(err, repositories.ErrRecordNotFound, apperrors.CodeTransferNotFound, "transfer"))
	}
	if existing.TransferFrom != req.TransferFrom || existing.TransferTo != req.TransferTo {
		return nil, op.Fail(apperrors.Validation("invalid request", map[string]string{
			"transfer_from": "cards do not match the transfer",
		}))
	}

	if err := saga.Amendable(existing.Status, "transfer"); err != nil {
		return nil, op.Fail(err)
	}

	ctx, cancel := s.saga.WritePhase(ctx)
	defer cancel()
	defer s.invalidate(ctx, existing)

	ev := saga.Event(component, existing.ID, req.TransferAmount, existing.TransferFrom, existing.TransferTo)

	if err := s.resolveCards(ctx, existing.TransferFrom, existing.TransferTo); err != nil {
		s.saga.MarkFailed(ctx, ev, s.repo.UpdateStatus)
		return nil, op.Fail(err)
	}

	difference := req.TransferAmount - existing.TransferAmount
	applied, err := s.saga.Apply(ctx, component, legs(existing.TransferFrom, existing.TransferTo, difference)...)
	if err != nil {
		s.saga.MarkFailed(ctx, ev, s.repo.UpdateStatus)
		return nil, op.Fail(err)
	}
	op.Step("ledger_committed", attribute.Int64("difference", difference))

	amended := *existing
	amended.TransferAmount = req.TransferAmount
	if err := s.repo.UpdateFields(ctx, &amended); err != nil {
		s.saga.Compensate(ctx, ev, applied)
		s.saga.MarkFailed(ctx, ev, s.repo.UpdateStatus)
		return nil, op.Fail(apperrors.Downstream(apperrors.CodeRecordWriteFailed, "failed to update transfer", err))
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
	return response.Success("Transfer updated successfully", toResponse(updated)), nil
}

// legs debits the sender and credits the receiver. A negative amount runs
// the transfer backwards.
func legs(from, to string, amount int64) []saga.Leg {
	return []saga.Leg{saga.Debit(from, amount), saga.Credit(to, amount)}
}

func (s *service) resolveCards(ctx context.Context, from, to string) error {
	if _, err := saga.FindCard(ctx, s.cards, from); err != nil {
		return err
	}
	_, err := saga.FindCard(ctx, s.cards, to)
	return err
}

func (s *service) invalidate(ctx context.Context, t *models.Transfer) {
	s.cache.Invalidate(ctx,
		cachekeys.ByID(cachekeys.EntityTransfer, t.ID),
		cachekeys.ByCard(cachekeys.EntityTransfer, t.TransferFrom),
		cachekeys.ByCard(cachekeys.EntityTransfer, t.TransferTo),
		cachekeys.AllLists(cachekeys.EntityTransfer),
		cachekeys.ByCard(cachekeys.EntitySaldo, t.TransferFrom),
		cachekeys.ByCard(cachekeys.EntitySaldo, t.TransferTo),
		cachekeys.AllLists(cachekeys.EntitySaldo),
	)
}
