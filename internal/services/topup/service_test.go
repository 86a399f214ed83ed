package topup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "dompet/internal/errors"
	"dompet/internal/events"
	"dompet/internal/models"
	"dompet/internal/observability"
	"dompet/internal/repositories"
	"dompet/internal/repositories/cache"
	"dompet/internal/repositories/memory"
	"dompet/internal/services/saga"
	cachekeys "dompet/internal/utils/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const card = "4111111111111111"

type fixture struct {
	cards     *memory.CardRepository
	saldos    *memory.SaldoRepository
	repo      *memory.MutationRepository[models.Topup, *models.Topup]
	store     *cache.MemoryStore
	publisher *events.MemoryPublisher
	service   Service
}

func newFixture(t *testing.T, balance int64) *fixture {
	t.Helper()
	f := &fixture{
		cards:     memory.NewCardRepository(models.Card{UserID: 1, CardNumber: card, CardType: "debit"}),
		saldos:    memory.NewSaldoRepository(models.Saldo{CardNumber: card, TotalBalance: balance}),
		repo:      memory.NewTopupRepository(),
		store:     cache.NewMemoryStore(),
		publisher: events.NewMemoryPublisher(),
	}
	obs := observability.Noop()
	coordinator := saga.NewCoordinator(saga.NewLocker(), saga.NewLedger(f.saldos, 3, obs), f.publisher, obs, saga.Config{})
	f.service = NewService(f.cards, f.repo, cache.New(f.store, obs), coordinator, obs, Config{})
	return f
}

func (f *fixture) seedTopup(t *testing.T, amount int64) *models.Topup {
	t.Helper()
	rec := &models.Topup{CardNumber: card, TopupAmount: amount, TopupMethod: "bank_transfer", Status: models.StatusSuccess}
	require.NoError(t, f.repo.Create(context.Background(), rec))
	return rec
}

func TestService_Create(t *testing.T) {
	f := newFixture(t, 1000)
	ctx := context.Background()

	saldoKey := cachekeys.ByCard(cachekeys.EntitySaldo, card)
	listKey := cachekeys.List(cachekeys.EntityTopup, 1, 10, "")
	cardKey := cachekeys.ByCard(cachekeys.EntityTopup, card)
	for _, k := range []string{saldoKey, listKey, cardKey} {
		require.NoError(t, f.store.Set(ctx, k, "stale", time.Minute))
	}

	res, err := f.service.Create(ctx, CreateTopupRequest{CardNumber: card, TopupAmount: 500, TopupMethod: "bank_transfer"})

	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, models.StatusSuccess, res.Data.Status)
	assert.Equal(t, int64(1500), f.saldos.Balance(card))

	stored, err := f.repo.FindByID(ctx, res.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, stored.Status)

	assert.False(t, f.store.Has(saldoKey))
	assert.False(t, f.store.Has(listKey))
	assert.False(t, f.store.Has(cardKey))
	assert.Len(t, f.publisher.OfType(events.TypeMutationSucceeded), 1)
}

func TestService_CreateFailures(t *testing.T) {
	tests := []struct {
		name        string
		req         CreateTopupRequest
		setup       func(*fixture)
		wantKind    apperrors.Kind
		wantRecord  bool
		wantStatus  models.Status
		wantBalance int64
		wantRecon   int
	}{
		{
			name:        "invalid request has no side effects",
			req:         CreateTopupRequest{CardNumber: "abc", TopupAmount: 0},
			wantKind:    apperrors.KindValidation,
			wantBalance: 1000,
		},
		{
			name:        "unknown card",
			req:         CreateTopupRequest{CardNumber: "4000000000000002", TopupAmount: 500, TopupMethod: "bank_transfer"},
			wantKind:    apperrors.KindNotFound,
			wantBalance: 1000,
		},
		{
			name: "card directory down",
			req:  CreateTopupRequest{CardNumber: card, TopupAmount: 500, TopupMethod: "bank_transfer"},
			setup: func(f *fixture) {
				f.cards.Set("FindByCardNumber", errors.New("timeout"))
			},
			wantKind:    apperrors.KindDownstream,
			wantBalance: 1000,
		},
		{
			name: "record create fails",
			req:  CreateTopupRequest{CardNumber: card, TopupAmount: 500, TopupMethod: "bank_transfer"},
			setup: func(f *fixture) {
				f.repo.Set("Create", errors.New("db down"))
			},
			wantKind:    apperrors.KindDownstream,
			wantBalance: 1000,
		},
		{
			name: "ledger read fails",
			req:  CreateTopupRequest{CardNumber: card, TopupAmount: 500, TopupMethod: "bank_transfer"},
			setup: func(f *fixture) {
				f.saldos.Set("FindByCardNumber", errors.New("db down"))
			},
			wantKind:    apperrors.KindDownstream,
			wantRecord:  true,
			wantStatus:  models.StatusFailed,
			wantBalance: 1000,
		},
		{
			name: "ledger write fails",
			req:  CreateTopupRequest{CardNumber: card, TopupAmount: 500, TopupMethod: "bank_transfer"},
			setup: func(f *fixture) {
				f.saldos.Set("UpdateBalance", errors.New("db down"))
			},
			wantKind:    apperrors.KindDownstream,
			wantRecord:  true,
			wantStatus:  models.StatusFailed,
			wantBalance: 1000,
		},
		{
			name: "status finalize fails after ledger commit",
			req:  CreateTopupRequest{CardNumber: card, TopupAmount: 500, TopupMethod: "bank_transfer"},
			setup: func(f *fixture) {
				f.repo.Set("UpdateStatus", errors.New("db down"))
			},
			wantKind:    apperrors.KindDownstream,
			wantRecord:  true,
			wantStatus:  models.StatusPending,
			wantBalance: 1500,
			wantRecon:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 1000)
			if tt.setup != nil {
				tt.setup(f)
			}

			res, err := f.service.Create(context.Background(), tt.req)

			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
			assert.Equal(t, tt.wantBalance, f.saldos.Balance(card))

			records := f.repo.All()
			if !tt.wantRecord {
				assert.Empty(t, records)
			} else {
				require.Len(t, records, 1)
				assert.Equal(t, tt.wantStatus, records[0].Status)
			}
			assert.Len(t, f.publisher.OfType(events.TypeReconciliationRequired), tt.wantRecon)
		})
	}
}

func TestService_CreateMinAmount(t *testing.T) {
	f := newFixture(t, 1000)
	obs := observability.Noop()
	coordinator := saga.NewCoordinator(saga.NewLocker(), saga.NewLedger(f.saldos, 3, obs), f.publisher, obs, saga.Config{})
	svc := NewService(f.cards, f.repo, cache.New(f.store, obs), coordinator, obs, Config{MinAmount: 50000})

	_, err := svc.Create(context.Background(), CreateTopupRequest{CardNumber: card, TopupAmount: 500, TopupMethod: "bank_transfer"})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Empty(t, f.repo.All())
}

func TestService_CreateWithCacheDown(t *testing.T) {
	f := newFixture(t, 1000)
	f.store.FailWith(errors.New("redis unreachable"))

	res, err := f.service.Create(context.Background(), CreateTopupRequest{CardNumber: card, TopupAmount: 500, TopupMethod: "bank_transfer"})

	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, res.Data.Status)
	assert.Equal(t, int64(1500), f.saldos.Balance(card))
}

func TestService_ConcurrentCreates(t *testing.T) {
	f := newFixture(t, 0)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Create(context.Background(), CreateTopupRequest{CardNumber: card, TopupAmount: 100, TopupMethod: "bank_transfer"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(2500), f.saldos.Balance(card))
	assert.Len(t, f.repo.All(), 25)
}

func TestService_Update(t *testing.T) {
	f := newFixture(t, 1500)
	existing := f.seedTopup(t, 500)
	ctx := context.Background()

	idKey := cachekeys.ByID(cachekeys.EntityTopup, existing.ID)
	require.NoError(t, f.store.Set(ctx, idKey, "stale", time.Minute))

	res, err := f.service.Update(ctx, UpdateTopupRequest{TopupID: existing.ID, CardNumber: card, TopupAmount: 800, TopupMethod: "ewallet"})

	require.NoError(t, err)
	assert.Equal(t, int64(800), res.Data.TopupAmount)
	assert.Equal(t, "ewallet", res.Data.TopupMethod)
	assert.Equal(t, models.StatusSuccess, res.Data.Status)
	assert.Equal(t, int64(1800), f.saldos.Balance(card))
	assert.False(t, f.store.Has(idKey))
}

func TestService_UpdateAmendmentFailureCompensates(t *testing.T) {
	f := newFixture(t, 1500)
	existing := f.seedTopup(t, 500)
	f.repo.Set("UpdateFields", errors.New("db down"))

	_, err := f.service.Update(context.Background(), UpdateTopupRequest{TopupID: existing.ID, CardNumber: card, TopupAmount: 800, TopupMethod: "bank_transfer"})

	assert.ErrorIs(t, err, apperrors.ErrDownstream)
	assert.Equal(t, int64(1500), f.saldos.Balance(card))
	assert.Equal(t, []memory.BalanceWrite{
		{CardNumber: card, From: 1500, To: 1800},
		{CardNumber: card, From: 1800, To: 1500},
	}, f.saldos.Writes())

	stored, err := f.repo.FindByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, stored.Status)
	assert.Equal(t, int64(500), stored.TopupAmount)
}

func TestService_UpdateFailures(t *testing.T) {
	tests := []struct {
		name        string
		balance     int64
		req         func(id uint) UpdateTopupRequest
		setup       func(*fixture)
		wantKind    apperrors.Kind
		wantStatus  models.Status
		wantBalance int64
	}{
		{
			name:    "unknown topup",
			balance: 1500,
			req: func(uint) UpdateTopupRequest {
				return UpdateTopupRequest{TopupID: 99, CardNumber: card, TopupAmount: 800, TopupMethod: "bank_transfer"}
			},
			wantKind:    apperrors.KindNotFound,
			wantStatus:  models.StatusSuccess,
			wantBalance: 1500,
		},
		{
			name:    "card mismatch",
			balance: 1500,
			req: func(id uint) UpdateTopupRequest {
				return UpdateTopupRequest{TopupID: id, CardNumber: "4000000000000002", TopupAmount: 800, TopupMethod: "bank_transfer"}
			},
			wantKind:    apperrors.KindValidation,
			wantStatus:  models.StatusSuccess,
			wantBalance: 1500,
		},
		{
			name:    "card no longer in directory",
			balance: 1500,
			req: func(id uint) UpdateTopupRequest {
				return UpdateTopupRequest{TopupID: id, CardNumber: card, TopupAmount: 800, TopupMethod: "bank_transfer"}
			},
			setup: func(f *fixture) {
				f.cards.Set("FindByCardNumber", repositories.ErrCardNotFound)
			},
			wantKind:    apperrors.KindNotFound,
			wantStatus:  models.StatusFailed,
			wantBalance: 1500,
		},
		{
			name:    "lowering the amount below the spendable balance",
			balance: 100,
			req: func(id uint) UpdateTopupRequest {
				return UpdateTopupRequest{TopupID: id, CardNumber: card, TopupAmount: 200, TopupMethod: "bank_transfer"}
			},
			wantKind:    apperrors.KindInsufficientBalance,
			wantStatus:  models.StatusFailed,
			wantBalance: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.balance)
			existing := f.seedTopup(t, 500)
			if tt.setup != nil {
				tt.setup(f)
			}

			_, err := f.service.Update(context.Background(), tt.req(existing.ID))

			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
			assert.Equal(t, tt.wantBalance, f.saldos.Balance(card))
			stored, err := f.repo.FindByID(context.Background(), existing.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, stored.Status)
		})
	}
}

func TestService_ReadAfterWriteIsFresh(t *testing.T) {
	f := newFixture(t, 1500)
	existing := f.seedTopup(t, 500)
	ctx := context.Background()

	first, err := f.service.FindByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), first.Data.TopupAmount)
	assert.True(t, f.store.Has(cachekeys.ByID(cachekeys.EntityTopup, existing.ID)))

	_, err = f.service.Update(ctx, UpdateTopupRequest{TopupID: existing.ID, CardNumber: card, TopupAmount: 800, TopupMethod: "bank_transfer"})
	require.NoError(t, err)

	second, err := f.service.FindByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(800), second.Data.TopupAmount)
}

func TestService_UpdateRejectsUnsettledRecords(t *testing.T) {
	for _, status := range []models.Status{models.StatusFailed, models.StatusPending} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t, 1000)
			rec := &models.Topup{CardNumber: card, TopupAmount: 500, TopupMethod: "bank_transfer", Status: status}
			require.NoError(t, f.repo.Create(context.Background(), rec))

			_, err := f.service.Update(context.Background(), UpdateTopupRequest{TopupID: rec.ID, CardNumber: card, TopupAmount: 800, TopupMethod: "bank_transfer"})

			assert.ErrorIs(t, err, &apperrors.DomainError{Code: apperrors.CodeRecordNotAmendable})
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
			assert.Equal(t, int64(1000), f.saldos.Balance(card))
			assert.Empty(t, f.saldos.Writes())

			stored, err := f.repo.FindByID(context.Background(), rec.ID)
			require.NoError(t, err)
			assert.Equal(t, status, stored.Status)
			assert.Equal(t, int64(500), stored.TopupAmount)
		})
	}
}
