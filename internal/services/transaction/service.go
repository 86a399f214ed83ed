package transaction

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
	trash.Service[TransactionResponse]

	Create(ctx context.Context, req CreateTransactionRequest) (*response.ApiResponse[TransactionResponse], error)
	Update(ctx context.Context, req UpdateTransactionRequest) (*response.ApiResponse[TransactionResponse], error)
	FindByID(ctx context.Context, id uint) (*response.ApiResponse[TransactionResponse], error)
	FindAll(ctx context.Context, q repositories.ListQuery) (*response.ApiResponsePagination[[]TransactionResponse], error)
	FindByCard(ctx context.Context, cardNumber string) (*response.ApiResponse[[]TransactionResponse], error)
	FindByMerchant(ctx context.Context, merchantID uint, q repositories.ListQuery) (*response.ApiResponsePagination[[]TransactionResponse], error)
	FindByAPIKey(ctx context.Context, apiKey string, q repositories.ListQuery) (*response.ApiResponsePagination[[]TransactionResponse], error)
}

type service struct {
	*trash.Lifecycle[models.Transaction, *models.Transaction, TransactionResponse]

	cards     repositories.CardRepository
	merchants repositories.MerchantRepository
	repo      repositories.TransactionRepository
	cache     *cache.Cache
	saga      *saga.Coordinator
	obs       observability.Observer
	config    Config
}

// NewService creates the merchant payment service.
func NewService(
	cards repositories.CardRepository,
	merchants repositories.MerchantRepository,
	repo repositories.TransactionRepository,
	cache *cache.Cache,
	coordinator *saga.Coordinator,
	obs observability.Observer,
	config Config,
) Service {
	if cards == nil {
		panic("card repository is required")
	}
	if merchants == nil {
		panic("merchant repository is required")
	}
	if repo == nil {
		panic("transaction repository is required")
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
		Lifecycle: trash.New[models.Transaction, *models.Transaction](repo, cache, coordinator, obs, trash.Family[models.Transaction, TransactionResponse]{
			Entity:   cachekeys.EntityTransaction,
			Noun:     component,
			Title:    "Transaction",
			NotFound: apperrors.CodeTxNotFound,
			Convert:  toResponse,
		}),
		cards:     cards,
		merchants: merchants,
		repo:      repo,
		cache:     cache,
		saga:      coordinator,
		obs:       obs,
		config:    config,
	}
}

// Create charges a card and pays the merchant. The merchant is resolved
// from its api key and paid into the card of its owning user.
func (s *service) Create(ctx context.Context, req CreateTransactionRequest) (*response.ApiResponse[TransactionResponse], error) {
	ctx, op := s.obs.Begin(ctx, component, "create",
		attribute.String("card_number", observability.MaskCard(req.CardNumber)),
		attribute.Int64("amount", req.Amount),
	)

	v := validation.New()
	v.Struct(req)
	v.MinAmount("amount", req.Amount, s.config.MinAmount)
	if err := v.Err(); err != nil {
		return nil, op.Fail(err)
	}

	merchant, merchantCard, err := s.resolveMerchant(ctx, req.ApiKey)
	if err != nil {
		return nil, op.Fail(err)
	}
	if merchantCard.CardNumber == req.CardNumber {
		return nil, op.Fail(apperrors.Validation("invalid request", map[string]string{
			"card_number": "cannot pay the merchant's own card",
		}))
	}
	op.Step("merchant_resolved", attribute.Int("merchant_id", int(merchant.ID)))

	unlock, err := s.saga.Lock(ctx, req.CardNumber, merchantCard.CardNumber)
	if err != nil {
		return nil, op.Fail(err)
	}
	defer unlock()

	if _, err := saga.FindCard(ctx, s.cards, req.CardNumber); err != nil {
		return nil, op.Fail(err)
	}

	ctx, cancel := s.saga.WritePhase(ctx)
	defer cancel()

	record := &models.Transaction{
		TransactionNo:   uuid.New(),
		CardNumber:      req.CardNumber,
		MerchantID:      merchant.ID,
		MerchantCard:    merchantCard.CardNumber,
		Amount:          req.Amount,
		PaymentMethod:   req.PaymentMethod,
		TransactionTime: time.Now().UTC(),
		Status:          models.StatusPending,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, op.Fail(apperrors.Downstream(apperrors.CodeRecordWriteFailed, "failed to create transaction", err))
	}
	op.Step("record_created", attribute.Int("transaction_id", int(record.ID)))
	defer s.invalidate(ctx, record, req.ApiKey)

	ev := saga.Event(component, record.ID, record.Amount, record.CardNumber, record.MerchantCard)

	if _, err := s.saga.Apply(ctx, component, legs(record, record.Amount)...); err != nil {
		s.saga.MarkFailed(ctx, ev, s.repo.UpdateStatus)
		return nil, op.Fail(err)
	}
	op.Step("ledger_committed")

	if err := s.saga.Finalize(ctx, ev, s.repo.UpdateStatus); err != nil {
		return nil, op.Fail(err)
	}
	record.Status = models.StatusSuccess

	op.Succeed()
	return response.Success("Transaction created successfully", toResponse(record)), nil
}

func (s *service) Update(ctx context.Context, req UpdateTransactionRequest) (*response.ApiResponse[TransactionResponse], error) {
	ctx, op := s.obs.Begin(ctx, component, "update",
		attribute.Int("transaction_id", int(req.TransactionID)),
		attribute.String("card_number", observability.MaskCard(req.CardNumber)),
		attribute.Int64("amount", req.Amount),
	)

	v := validation.New()
	v.Struct(req)
	v.MinAmount("amount", req.Amount, s.config.MinAmount)
	if err := v.Err(); err != nil {
		return nil, op.Fail(err)
	}

	merchant, merchantCard, err := s.resolveMerchant(ctx, req.ApiKey)
	if err != nil {
		return nil, op.Fail(err)
	}

	unlock, err := s.saga.Lock(ctx, req.CardNumber, merchantCard.CardNumber)
	if err != nil {
		return nil, op.Fail(err)
	}
	defer unlock()

	existing, err := s.repo.FindByID(ctx, req.TransactionID)
	if err != nil {
		return nil, op.Fail(saga.LookupError(err, repositories.ErrRecordNotFound, apperrors.CodeTxNotFound, "transaction"))
	}
	if existing.MerchantID != merchant.ID || existing.MerchantCard != merchantCard.CardNumber || existing.CardNumber != req.CardNumber {
		return nil, op.Fail(apperrors.Validation("invalid request", map[string]string{
			"card_number": "does not match the transaction",
		}))
	}

	if err := saga.Amendable(existing.Status, "transaction"); err != nil {
		return nil, op.Fail(err)
	}

	ctx, cancel := s.saga.WritePhase(ctx)
	defer cancel()
	defer s.invalidate(ctx, existing, req.ApiKey)

	ev := saga.Event(component, existing.ID, req.Amount, existing.CardNumber, existing.MerchantCard)

	if _, err := saga.FindCard(ctx, s.cards, existing.CardNumber); err != nil {
		s.saga.MarkFailed(ctx, ev, s.repo.UpdateStatus)
		return nil, op.Fail(err)
	}

	difference := req.Amount - existing.Amount
	applied, err := s.saga.Apply(ctx, component, legs(existing, difference)...)
	if err != nil {
		s.saga.MarkFailed(ctx, ev, s.repo.UpdateStatus)
		return nil, op.Fail(err)
	}
	op.Step("ledger_committed", attribute.Int64("difference", difference))

	amended := *existing
	amended.Amount = req.Amount
	amended.PaymentMethod = req.PaymentMethod
	if err := s.repo.UpdateFields(ctx, &amended); err != nil {
		s.saga.Compensate(ctx, ev, applied)
		s.saga.MarkFailed(ctx, ev, s.repo.UpdateStatus)
		return nil, op.Fail(apperrors.Downstream(apperrors.CodeRecordWriteFailed, "failed to update transaction", err))
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
	return response.Success("Transaction updated successfully", toResponse(updated)), nil
}

func legs(t *models.Transaction, amount int64) []saga.Leg {
	return []saga.Leg{saga.Debit(t.CardNumber, amount), saga.Credit(t.MerchantCard, amount)}
}

// resolveMerchant returns an active merchant and the card it is paid into.
func (s *service) resolveMerchant(ctx context.Context, apiKey string) (*models.Merchant, *models.Card, error) {
	merchant, err := s.merchants.FindByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, nil, saga.LookupError(err, repositories.ErrMerchantNotFound, apperrors.CodeMerchantNotFound, "merchant")
	}
	if !merchant.IsActive() {
		return nil, nil, apperrors.NotFound(apperrors.CodeMerchantNotFound, "merchant not found", repositories.ErrMerchantNotFound)
	}
	card, err := s.cards.FindByUserID(ctx, merchant.UserID)
	if err != nil {
		return nil, nil, saga.LookupError(err, repositories.ErrCardNotFound, apperrors.CodeCardNotFound, "merchant card")
	}
	return merchant, card, nil
}

func (s *service) invalidate(ctx context.Context, t *models.Transaction, apiKey string) {
	s.cache.Invalidate(ctx,
		cachekeys.ByID(cachekeys.EntityTransaction, t.ID),
		cachekeys.ByCard(cachekeys.EntityTransaction, t.CardNumber),
		cachekeys.AllLists(cachekeys.EntityTransaction),
		cachekeys.AllByMerchant(cachekeys.EntityTransaction, t.MerchantID),
		cachekeys.AllByAPIKey(cachekeys.EntityTransaction, apiKey),
		cachekeys.ByCard(cachekeys.EntitySaldo, t.CardNumber),
		cachekeys.ByCard(cachekeys.EntitySaldo, t.MerchantCard),
		cachekeys.AllLists(cachekeys.EntitySaldo),
	)
}
