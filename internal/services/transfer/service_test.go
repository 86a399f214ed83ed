package transfer

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

const (
	cardA = "4111111111111111"
	cardB = "5555555555554444"
)

// failingCredit rejects every write that raises the balance of one card.
type failingCredit struct {
	*memory.SaldoRepository
	card string
}

func (r *failingCredit) UpdateBalance(ctx context.Context, card string, expected, next int64) error {
	if card == r.card && next > expected {
		return errors.New("ledger unavailable")
	}
	return r.SaldoRepository.UpdateBalance(ctx, card, expected, next)
}

type fixture struct {
	cards     *memory.CardRepository
	saldos    *memory.SaldoRepository
	repo      *memory.MutationRepository[models.Transfer, *models.Transfer]
	store     *cache.MemoryStore
	publisher *events.MemoryPublisher
	service   Service
}

func newFixture(t *testing.T, balanceA, balanceB int64) *fixture {
	t.Helper()
	f := &fixture{
		cards: memory.NewCardRepository(
			models.Card{UserID: 1, CardNumber: cardA},
			models.Card{UserID: 2, CardNumber: cardB},
		),
		saldos: memory.NewSaldoRepository(
			models.Saldo{CardNumber: cardA, TotalBalance: balanceA},
			models.Saldo{CardNumber: cardB, TotalBalance: balanceB},
		),
		repo:      memory.NewTransferRepository(),
		store:     cache.NewMemoryStore(),
		publisher: events.NewMemoryPublisher(),
	}
	f.service = f.build(f.saldos)
	return f
}

func (f *fixture) build(saldos repositories.SaldoRepository) Service {
	obs := observability.Noop()
	coordinator := saga.NewCoordinator(saga.NewLocker(), saga.NewLedger(saldos, 3, obs), f.publisher, obs, saga.Config{})
	return NewService(f.cards, f.repo, cache.New(f.store, obs), coordinator, obs, Config{})
}

func (f *fixture) seedTransfer(t *testing.T, amount int64) *models.Transfer {
	t.Helper()
	rec := &models.Transfer{TransferFrom: cardA, TransferTo: cardB, TransferAmount: amount, TransferTime: time.Now().UTC(), Status: models.StatusSuccess}
	require.NoError(t, f.repo.Create(context.Background(), rec))
	return rec
}

func TestService_Create(t *testing.T) {
	f := newFixture(t, 1000, 0)
	ctx := context.Background()
	keys := []string{
		cachekeys.ByCard(cachekeys.EntitySaldo, cardA),
		cachekeys.ByCard(cachekeys.EntitySaldo, cardB),
		cachekeys.ByCard(cachekeys.EntityTransfer, cardB),
		cachekeys.List(cachekeys.EntitySaldo, 1, 10, ""),
	}
	for _, k := range keys {
		require.NoError(t, f.store.Set(ctx, k, "stale", time.Minute))
	}

	res, err := f.service.Create(ctx, CreateTransferRequest{TransferFrom: cardA, TransferTo: cardB, TransferAmount: 400})

	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, res.Data.Status)
	assert.Equal(t, int64(600), f.saldos.Balance(cardA))
	assert.Equal(t, int64(400), f.saldos.Balance(cardB))
	for _, k := range keys {
		assert.False(t, f.store.Has(k), k)
	}
}

func TestService_CreateRejected(t *testing.T) {
	tests := []struct {
		name       string
		req        CreateTransferRequest
		wantErr    error
		wantRecord bool
	}{
		{
			name:    "same card on both sides",
			req:     CreateTransferRequest{TransferFrom: cardA, TransferTo: cardA, TransferAmount: 100},
			wantErr: apperrors.ErrValidation,
		},
		{
			name:    "unknown receiver",
			req:     CreateTransferRequest{TransferFrom: cardA, TransferTo: "4000000000000002", TransferAmount: 100},
			wantErr: apperrors.ErrNotFound,
		},
		{
			name:       "sender cannot cover the amount",
			req:        CreateTransferRequest{TransferFrom: cardA, TransferTo: cardB, TransferAmount: 1001},
			wantErr:    apperrors.ErrInsufficientBalance,
			wantRecord: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 1000, 0)

			_, err := f.service.Create(context.Background(), tt.req)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, int64(1000), f.saldos.Balance(cardA))
			assert.Equal(t, int64(0), f.saldos.Balance(cardB))
			if tt.wantRecord {
				records := f.repo.All()
				require.Len(t, records, 1)
				assert.Equal(t, models.StatusFailed, records[0].Status)
			} else {
				assert.Empty(t, f.repo.All())
			}
		})
	}
}

func TestService_CreateCreditLegFailureRevertsDebit(t *testing.T) {
	f := newFixture(t, 1000, 0)
	svc := f.build(&failingCredit{SaldoRepository: f.saldos, card: cardB})

	_, err := svc.Create(context.Background(), CreateTransferRequest{TransferFrom: cardA, TransferTo: cardB, TransferAmount: 400})

	assert.ErrorIs(t, err, apperrors.ErrDownstream)
	assert.Equal(t, int64(1000), f.saldos.Balance(cardA))
	assert.Equal(t, int64(0), f.saldos.Balance(cardB))
	records := f.repo.All()
	require.Len(t, records, 1)
	assert.Equal(t, models.StatusFailed, records[0].Status)
}

func TestService_OppositeTransfersConserveMoney(t *testing.T) {
	f := newFixture(t, 5000, 5000)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		from, to := cardA, cardB
		if i%2 == 1 {
			from, to = cardB, cardA
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Create(context.Background(), CreateTransferRequest{TransferFrom: from, TransferTo: to, TransferAmount: 100})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5000), f.saldos.Balance(cardA))
	assert.Equal(t, int64(5000), f.saldos.Balance(cardB))
}

func TestService_Update(t *testing.T) {
	f := newFixture(t, 600, 400)
	existing := f.seedTransfer(t, 400)

	res, err := f.service.Update(context.Background(), UpdateTransferRequest{TransferID: existing.ID, TransferFrom: cardA, TransferTo: cardB, TransferAmount: 100})

	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Data.TransferAmount)
	assert.Equal(t, int64(900), f.saldos.Balance(cardA))
	assert.Equal(t, int64(100), f.saldos.Balance(cardB))
}

func TestService_UpdateReceiverAlreadySpent(t *testing.T) {
	f := newFixture(t, 600, 50)
	existing := f.seedTransfer(t, 400)

	_, err := f.service.Update(context.Background(), UpdateTransferRequest{TransferID: existing.ID, TransferFrom: cardA, TransferTo: cardB, TransferAmount: 100})

	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	assert.Equal(t, int64(600), f.saldos.Balance(cardA))
	assert.Equal(t, int64(50), f.saldos.Balance(cardB))
}

func TestService_UpdateAmendmentFailureCompensates(t *testing.T) {
	f := newFixture(t, 600, 400)
	existing := f.seedTransfer(t, 400)
	f.repo.Set("UpdateFields", errors.New("db down"))

	_, err := f.service.Update(context.Background(), UpdateTransferRequest{TransferID: existing.ID, TransferFrom: cardA, TransferTo: cardB, TransferAmount: 500})

	assert.ErrorIs(t, err, apperrors.ErrDownstream)
	assert.Equal(t, int64(600), f.saldos.Balance(cardA))
	assert.Equal(t, int64(400), f.saldos.Balance(cardB))
	stored, err := f.repo.FindByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, stored.Status)
}

func TestService_UpdateCardsMustMatch(t *testing.T) {
	f := newFixture(t, 600, 400)
	existing := f.seedTransfer(t, 400)

	_, err := f.service.Update(context.Background(), UpdateTransferRequest{TransferID: existing.ID, TransferFrom: cardB, TransferTo: cardA, TransferAmount: 100})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Empty(t, f.saldos.Writes())
}

func TestService_FindByCardMatchesBothSides(t *testing.T) {
	f := newFixture(t, 0, 0)
	f.seedTransfer(t, 100)

	sent, err := f.service.FindByCard(context.Background(), cardA)
	require.NoError(t, err)
	received, err := f.service.FindByCard(context.Background(), cardB)
	require.NoError(t, err)

	assert.Len(t, sent.Data, 1)
	assert.Len(t, received.Data, 1)
}

func TestService_UpdateRejectsUnsettledRecords(t *testing.T) {
	for _, status := range []models.Status{models.StatusFailed, models.StatusPending} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t, 1000, 0)
			rec := &models.Transfer{TransferFrom: cardA, TransferTo: cardB, TransferAmount: 300, TransferTime: time.Now().UTC(), Status: status}
			require.NoError(t, f.repo.Create(context.Background(), rec))

			_, err := f.service.Update(context.Background(), UpdateTransferRequest{TransferID: rec.ID, TransferFrom: cardA, TransferTo: cardB, TransferAmount: 100})

			assert.ErrorIs(t, err, &apperrors.DomainError{Code: apperrors.CodeRecordNotAmendable})
			assert.Equal(t, int64(1000), f.saldos.Balance(cardA))
			assert.Equal(t, int64(0), f.saldos.Balance(cardB))
			assert.Empty(t, f.saldos.Writes())

			stored, err := f.repo.FindByID(context.Background(), rec.ID)
			require.NoError(t, err)
			assert.Equal(t, status, stored.Status)
		})
	}
}
