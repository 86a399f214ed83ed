package withdraw

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
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
	repo      *memory.MutationRepository[models.Withdraw, *models.Withdraw]
	store     *cache.MemoryStore
	publisher *events.MemoryPublisher
	service   Service
}

func newFixture(t *testing.T, balance int64) *fixture {
	t.Helper()
	f := &fixture{
		cards:     memory.NewCardRepository(models.Card{UserID: 1, CardNumber: card}),
		saldos:    memory.NewSaldoRepository(models.Saldo{CardNumber: card, TotalBalance: balance}),
		repo:      memory.NewWithdrawRepository(),
		store:     cache.NewMemoryStore(),
		publisher: events.NewMemoryPublisher(),
	}
	obs := observability.Noop()
	coordinator := saga.NewCoordinator(saga.NewLocker(), saga.NewLedger(f.saldos, 3, obs), f.publisher, obs, saga.Config{})
	f.service = NewService(f.cards, f.repo, cache.New(f.store, obs), coordinator, obs, Config{})
	return f
}

func (f *fixture) seedWithdraw(t *testing.T, amount int64) *models.Withdraw {
	t.Helper()
	rec := &models.Withdraw{CardNumber: card, WithdrawAmount: amount, WithdrawTime: time.Now().UTC(), Status: models.StatusSuccess}
	require.NoError(t, f.repo.Create(context.Background(), rec))
	return rec
}

func TestService_Create(t *testing.T) {
	f := newFixture(t, 1500)
	ctx := context.Background()
	saldoKey := cachekeys.ByCard(cachekeys.EntitySaldo, card)
	require.NoError(t, f.store.Set(ctx, saldoKey, "stale", time.Minute))

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	res, err := f.service.Create(ctx, CreateWithdrawRequest{CardNumber: card, WithdrawAmount: 1000, WithdrawTime: &at})

	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, res.Data.Status)
	assert.Equal(t, at, res.Data.WithdrawTime)
	assert.Equal(t, int64(500), f.saldos.Balance(card))
	assert.False(t, f.store.Has(saldoKey))
}

func TestService_CreateDefaultsWithdrawTime(t *testing.T) {
	f := newFixture(t, 1500)
	before := time.Now().UTC()

	res, err := f.service.Create(context.Background(), CreateWithdrawRequest{CardNumber: card, WithdrawAmount: 100})

	require.NoError(t, err)
	assert.False(t, res.Data.WithdrawTime.Before(before))
}

func TestService_CreateInsufficientBalance(t *testing.T) {
	f := newFixture(t, 1500)

	res, err := f.service.Create(context.Background(), CreateWithdrawRequest{CardNumber: card, WithdrawAmount: 2000})

	assert.Nil(t, res)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	assert.Equal(t, int64(1500), f.saldos.Balance(card))
	assert.Empty(t, f.saldos.Writes())

	records := f.repo.All()
	require.Len(t, records, 1)
	assert.Equal(t, models.StatusFailed, records[0].Status)
	assert.Empty(t, f.publisher.OfType(events.TypeMutationSucceeded))
}

func TestService_CreateExactBalance(t *testing.T) {
	f := newFixture(t, 1500)

	_, err := f.service.Create(context.Background(), CreateWithdrawRequest{CardNumber: card, WithdrawAmount: 1500})

	require.NoError(t, err)
	assert.Equal(t, int64(0), f.saldos.Balance(card))
}

func TestService_CreateMissingSaldo(t *testing.T) {
	f := newFixture(t, 1500)
	other := "5555555555554444"
	f.cards.Add(models.Card{UserID: 2, CardNumber: other})

	_, err := f.service.Create(context.Background(), CreateWithdrawRequest{CardNumber: other, WithdrawAmount: 100})

	assert.True(t, apperrors.Is(err, &apperrors.DomainError{Code: apperrors.CodeLedgerReadFailed}))
	records := f.repo.All()
	require.Len(t, records, 1)
	assert.Equal(t, models.StatusFailed, records[0].Status)
}

func TestService_ConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	f := newFixture(t, 1000)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
		refused   atomic.Int64
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Create(context.Background(), CreateWithdrawRequest{CardNumber: card, WithdrawAmount: 300})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, apperrors.ErrInsufficientBalance):
				refused.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(3), succeeded.Load())
	assert.Equal(t, int64(17), refused.Load())
	assert.Equal(t, int64(100), f.saldos.Balance(card))
}

func TestService_Update(t *testing.T) {
	tests := []struct {
		name        string
		balance     int64
		amount      int64
		wantErr     error
		wantBalance int64
		wantStatus  models.Status
		wantAmount  int64
	}{
		{name: "larger amount debits the difference", balance: 1000, amount: 800, wantBalance: 700, wantStatus: models.StatusSuccess, wantAmount: 800},
		{name: "smaller amount credits the difference", balance: 1000, amount: 200, wantBalance: 1300, wantStatus: models.StatusSuccess, wantAmount: 200},
		{name: "same amount leaves the ledger alone", balance: 1000, amount: 500, wantBalance: 1000, wantStatus: models.StatusSuccess, wantAmount: 500},
		{name: "difference beyond balance", balance: 100, amount: 800, wantErr: apperrors.ErrInsufficientBalance, wantBalance: 100, wantStatus: models.StatusFailed, wantAmount: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.balance)
			existing := f.seedWithdraw(t, 500)

			_, err := f.service.Update(context.Background(), UpdateWithdrawRequest{WithdrawID: existing.ID, CardNumber: card, WithdrawAmount: tt.amount})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantBalance, f.saldos.Balance(card))
			stored, err := f.repo.FindByID(context.Background(), existing.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, stored.Status)
			assert.Equal(t, tt.wantAmount, stored.WithdrawAmount)
		})
	}
}

func TestService_UpdateAmendmentFailureCompensates(t *testing.T) {
	f := newFixture(t, 1000)
	existing := f.seedWithdraw(t, 500)
	f.repo.Set("UpdateFields", errors.New("db down"))

	_, err := f.service.Update(context.Background(), UpdateWithdrawRequest{WithdrawID: existing.ID, CardNumber: card, WithdrawAmount: 800})

	assert.ErrorIs(t, err, apperrors.ErrDownstream)
	assert.Equal(t, int64(1000), f.saldos.Balance(card))
	stored, err := f.repo.FindByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, stored.Status)
}

func TestService_UpdateUnknownWithdraw(t *testing.T) {
	f := newFixture(t, 1000)

	_, err := f.service.Update(context.Background(), UpdateWithdrawRequest{WithdrawID: 7, CardNumber: card, WithdrawAmount: 800})

	assert.True(t, apperrors.Is(err, &apperrors.DomainError{Code: apperrors.CodeWithdrawNotFound}))
}

func TestService_Queries(t *testing.T) {
	f := newFixture(t, 1000)
	rec := f.seedWithdraw(t, 500)
	ctx := context.Background()

	byID, err := f.service.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), byID.Data.WithdrawAmount)

	byCard, err := f.service.FindByCard(ctx, card)
	require.NoError(t, err)
	assert.Len(t, byCard.Data, 1)

	all, err := f.service.FindAll(ctx, repositories.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, all.Pagination.Page)
	assert.Equal(t, 10, all.Pagination.PageSize)
	assert.Len(t, all.Data, 1)

	f.repo.Set("FindAll", errors.New("db down"))
	cached, err := f.service.FindAll(ctx, repositories.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, cached.Data, 1)

	f.store.FailWith(errors.New("redis unreachable"))
	_, err = f.service.FindAll(ctx, repositories.ListQuery{})
	assert.ErrorIs(t, err, apperrors.ErrDownstream)
}

func TestService_UpdateRejectsUnsettledRecords(t *testing.T) {
	for _, status := range []models.Status{models.StatusFailed, models.StatusPending} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t, 1000)
			rec := &models.Withdraw{CardNumber: card, WithdrawAmount: 500, WithdrawTime: time.Now().UTC(), Status: status}
			require.NoError(t, f.repo.Create(context.Background(), rec))

			_, err := f.service.Update(context.Background(), UpdateWithdrawRequest{WithdrawID: rec.ID, CardNumber: card, WithdrawAmount: 200})

			assert.ErrorIs(t, err, &apperrors.DomainError{Code: apperrors.CodeRecordNotAmendable})
			assert.Equal(t, int64(1000), f.saldos.Balance(card))
			assert.Empty(t, f.saldos.Writes())

			stored, err := f.repo.FindByID(context.Background(), rec.ID)
			require.NoError(t, err)
			assert.Equal(t, status, stored.Status)
			assert.Equal(t, int64(500), stored.WithdrawAmount)
		})
	}
}
