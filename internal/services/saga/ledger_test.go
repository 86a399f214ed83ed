package saga

import (
	"context"
	"errors"
	"testing"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
	"dompet/internal/observability"
	"dompet/internal/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	cardA = "4111111111111111"
	cardB = "5555555555554444"
)

// racingSaldo moves the balance underneath the first n writes, as another
// process would.
type racingSaldo struct {
	*memory.SaldoRepository
	races int
	bump  int64
}

func (r *racingSaldo) UpdateBalance(ctx context.Context, card string, expected, next int64) error {
	if r.races > 0 {
		r.races--
		r.Put(card, r.Balance(card)+r.bump)
	}
	return r.SaldoRepository.UpdateBalance(ctx, card, expected, next)
}

// failOnCard fails writes for a single card.
type failOnCard struct {
	*memory.SaldoRepository
	card string
}

func (r *failOnCard) UpdateBalance(ctx context.Context, card string, expected, next int64) error {
	if card == r.card {
		return errors.New("disk full")
	}
	return r.SaldoRepository.UpdateBalance(ctx, card, expected, next)
}

func TestLedger_Apply(t *testing.T) {
	tests := []struct {
		name     string
		start    map[string]int64
		legs     []Leg
		want     map[string]int64
		wantKind apperrors.Kind
	}{
		{
			name:  "credit",
			start: map[string]int64{cardA: 1000},
			legs:  []Leg{Credit(cardA, 500)},
			want:  map[string]int64{cardA: 1500},
		},
		{
			name:  "debit to zero",
			start: map[string]int64{cardA: 1500},
			legs:  []Leg{Debit(cardA, 1500)},
			want:  map[string]int64{cardA: 0},
		},
		{
			name:     "overdraw is rejected before writing",
			start:    map[string]int64{cardA: 1500},
			legs:     []Leg{Debit(cardA, 2000)},
			want:     map[string]int64{cardA: 1500},
			wantKind: apperrors.KindInsufficientBalance,
		},
		{
			name:  "transfer",
			start: map[string]int64{cardA: 1000, cardB: 0},
			legs:  []Leg{Debit(cardA, 400), Credit(cardB, 400)},
			want:  map[string]int64{cardA: 600, cardB: 400},
		},
		{
			name:     "missing saldo",
			start:    map[string]int64{cardA: 1000},
			legs:     []Leg{Debit(cardA, 100), Credit(cardB, 100)},
			want:     map[string]int64{cardA: 1000},
			wantKind: apperrors.KindDownstream,
		},
		{
			name:  "zero delta is skipped",
			start: map[string]int64{cardA: 1000},
			legs:  []Leg{Credit(cardA, 0)},
			want:  map[string]int64{cardA: 1000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saldos := memory.NewSaldoRepository()
			for card, bal := range tt.start {
				saldos.Put(card, bal)
			}
			ledger := NewLedger(saldos, 3, observability.Noop())

			_, err := ledger.Apply(context.Background(), "test", tt.legs...)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
				assert.Empty(t, saldos.Writes())
			} else {
				require.NoError(t, err)
			}
			for card, bal := range tt.want {
				assert.Equal(t, bal, saldos.Balance(card), card)
			}
		})
	}
}

func TestLedger_ApplyRevertsEarlierLegs(t *testing.T) {
	base := memory.NewSaldoRepository(models.Saldo{CardNumber: cardA, TotalBalance: 1000}, models.Saldo{CardNumber: cardB, TotalBalance: 0})
	ledger := NewLedger(&failOnCard{SaldoRepository: base, card: cardB}, 3, observability.Noop())

	_, err := ledger.Apply(context.Background(), "transfer", Debit(cardA, 300), Credit(cardB, 300))

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDownstream)
	assert.Equal(t, int64(1000), base.Balance(cardA))
	assert.Equal(t, int64(0), base.Balance(cardB))
	assert.Equal(t, []memory.BalanceWrite{
		{CardNumber: cardA, From: 1000, To: 700},
		{CardNumber: cardA, From: 700, To: 1000},
	}, base.Writes())
}

func TestLedger_ConflictRetry(t *testing.T) {
	base := memory.NewSaldoRepository(models.Saldo{CardNumber: cardA, TotalBalance: 1000})
	saldos := &racingSaldo{SaldoRepository: base, races: 1, bump: 100}
	ledger := NewLedger(saldos, 3, observability.Noop())

	applied, err := ledger.Apply(context.Background(), "topup", Credit(cardA, 500))

	require.NoError(t, err)
	assert.Equal(t, int64(1600), base.Balance(cardA))
	require.Len(t, applied.Movements, 1)
	assert.Equal(t, int64(1100), applied.Movements[0].Before)
}

func TestLedger_ConflictRetryRechecksGuard(t *testing.T) {
	base := memory.NewSaldoRepository(models.Saldo{CardNumber: cardA, TotalBalance: 1000})
	saldos := &racingSaldo{SaldoRepository: base, races: 1, bump: -800}
	ledger := NewLedger(saldos, 3, observability.Noop())

	_, err := ledger.Apply(context.Background(), "withdraw", Debit(cardA, 500))

	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	assert.Equal(t, int64(200), base.Balance(cardA))
}

func TestLedger_ConflictRetriesExhausted(t *testing.T) {
	base := memory.NewSaldoRepository(models.Saldo{CardNumber: cardA, TotalBalance: 1000})
	saldos := &racingSaldo{SaldoRepository: base, races: 10, bump: 1}
	ledger := NewLedger(saldos, 2, observability.Noop())

	_, err := ledger.Apply(context.Background(), "topup", Credit(cardA, 500))

	require.Error(t, err)
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, apperrors.CodeLedgerContended, de.Code)
}

func TestLedger_Compensate(t *testing.T) {
	saldos := memory.NewSaldoRepository(models.Saldo{CardNumber: cardA, TotalBalance: 1000})
	ledger := NewLedger(saldos, 3, observability.Noop())
	ctx := context.Background()

	applied, err := ledger.Apply(ctx, "topup", Credit(cardA, 300))
	require.NoError(t, err)
	assert.Equal(t, int64(1300), saldos.Balance(cardA))

	require.NoError(t, ledger.Compensate(ctx, "topup", applied))
	assert.Equal(t, int64(1000), saldos.Balance(cardA))
}

func TestLedger_CompensateUnderflow(t *testing.T) {
	saldos := memory.NewSaldoRepository(models.Saldo{CardNumber: cardA, TotalBalance: 100})
	ledger := NewLedger(saldos, 3, observability.Noop())

	err := ledger.Compensate(context.Background(), "topup", &Applied{Movements: []Movement{
		{CardNumber: cardA, Delta: 300, Before: 0, After: 100},
	}})
	assert.ErrorIs(t, err, ErrCompensationUnderflow)
	assert.Equal(t, int64(100), saldos.Balance(cardA))
}
