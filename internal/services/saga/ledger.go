package saga

import (
	"context"
	"errors"
	"fmt"

	apperrors "dompet/internal/errors"
	"dompet/internal/observability"
	"dompet/internal/repositories"
)

var ErrCompensationUnderflow = errors.New("compensation would make the balance negative")

// Leg is one signed balance change on one card.
type Leg struct {
	CardNumber string
	Delta      int64
}

func Credit(card string, amount int64) Leg { return Leg{CardNumber: card, Delta: amount} }
func Debit(card string, amount int64) Leg  { return Leg{CardNumber: card, Delta: -amount} }

// Movement is a committed leg.
type Movement struct {
	CardNumber string
	Delta      int64
	Before     int64
	After      int64
}

// Applied holds the movements of one Apply call, in commit order.
type Applied struct {
	Movements []Movement
}

// Ledger applies legs against the saldo store with compare-and-swap writes.
type Ledger struct {
	saldos  repositories.SaldoRepository
	retries int
	obs     observability.Observer
}

func NewLedger(saldos repositories.SaldoRepository, retries int, obs observability.Observer) *Ledger {
	if saldos == nil {
		panic("saldo repository is required")
	}
	if retries < 0 {
		retries = 0
	}
	return &Ledger{saldos: saldos, retries: retries, obs: obs.WithDefaults().Component("ledger")}
}

// Apply reads every card, checks that no debit overdraws, then writes each
// leg. When a later leg fails the earlier ones are reverted before the error
// is returned, so a failed Apply leaves no trace in the ledger.
func (l *Ledger) Apply(ctx context.Context, component string, legs ...Leg) (*Applied, error) {
	legs = nonZero(legs)
	applied := &Applied{}
	if len(legs) == 0 {
		return applied, nil
	}

	balances := make(map[string]int64, len(legs))
	for _, leg := range legs {
		if _, ok := balances[leg.CardNumber]; ok {
			continue
		}
		saldo, err := l.saldos.FindByCardNumber(ctx, leg.CardNumber)
		if err != nil {
			return nil, apperrors.Downstream(apperrors.CodeLedgerReadFailed, "failed to read balance", err)
		}
		balances[leg.CardNumber] = saldo.TotalBalance
	}

	running := make(map[string]int64, len(balances))
	for k, v := range balances {
		running[k] = v
	}
	for _, leg := range legs {
		running[leg.CardNumber] += leg.Delta
		if running[leg.CardNumber] < 0 {
			return nil, apperrors.InsufficientBalance("insufficient balance")
		}
	}

	for _, leg := range legs {
		m, err := l.write(ctx, component, leg, balances[leg.CardNumber])
		if err != nil {
			if cerr := l.Compensate(ctx, component, applied); cerr != nil {
				l.obs.Log.Error().Err(cerr).Str("family", component).Msg("failed to revert partial ledger apply")
				return nil, apperrors.Downstream(apperrors.CodeLedgerWriteFailed, "failed to write balance", errors.Join(err, cerr))
			}
			return nil, err
		}
		applied.Movements = append(applied.Movements, m)
		balances[leg.CardNumber] = m.After
	}
	return applied, nil
}

func (l *Ledger) write(ctx context.Context, component string, leg Leg, expected int64) (Movement, error) {
	for attempt := 0; ; attempt++ {
		next := expected + leg.Delta
		if next < 0 {
			return Movement{}, apperrors.InsufficientBalance("insufficient balance")
		}

		err := l.saldos.UpdateBalance(ctx, leg.CardNumber, expected, next)
		switch {
		case err == nil:
			return Movement{CardNumber: leg.CardNumber, Delta: leg.Delta, Before: expected, After: next}, nil
		case errors.Is(err, repositories.ErrNegativeBalance):
			return Movement{}, apperrors.InsufficientBalance("insufficient balance")
		case !errors.Is(err, repositories.ErrBalanceConflict):
			return Movement{}, apperrors.Downstream(apperrors.CodeLedgerWriteFailed, "failed to write balance", err)
		}

		l.obs.Metrics.RecordLedgerConflict(component)
		if attempt >= l.retries {
			return Movement{}, apperrors.Downstream(apperrors.CodeLedgerContended, "balance kept changing during update", err)
		}
		saldo, err := l.saldos.FindByCardNumber(ctx, leg.CardNumber)
		if err != nil {
			return Movement{}, apperrors.Downstream(apperrors.CodeLedgerReadFailed, "failed to read balance", err)
		}
		expected = saldo.TotalBalance
	}
}

// Compensate reverts the movements in reverse order. Every movement is
// attempted even when an earlier revert fails.
func (l *Ledger) Compensate(ctx context.Context, component string, applied *Applied) error {
	if applied == nil {
		return nil
	}
	var errs []error
	for i := len(applied.Movements) - 1; i >= 0; i-- {
		m := applied.Movements[i]
		if err := l.revert(ctx, component, m); err != nil {
			l.obs.Metrics.RecordCompensation(component, "failed")
			errs = append(errs, fmt.Errorf("revert %s: %w", observability.MaskCard(m.CardNumber), err))
			continue
		}
		l.obs.Metrics.RecordCompensation(component, "success")
		l.obs.Log.Info().
			Str("family", component).
			Str("card_number", observability.MaskCard(m.CardNumber)).
			Int64("delta", -m.Delta).
			Msg("compensating ledger write applied")
	}
	return errors.Join(errs...)
}

func (l *Ledger) revert(ctx context.Context, component string, m Movement) error {
	expected := m.After
	for attempt := 0; ; attempt++ {
		next := expected - m.Delta
		if next < 0 {
			return ErrCompensationUnderflow
		}
		err := l.saldos.UpdateBalance(ctx, m.CardNumber, expected, next)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrBalanceConflict) || attempt >= l.retries {
			return err
		}
		l.obs.Metrics.RecordLedgerConflict(component)
		saldo, err := l.saldos.FindByCardNumber(ctx, m.CardNumber)
		if err != nil {
			return err
		}
		expected = saldo.TotalBalance
	}
}

func nonZero(legs []Leg) []Leg {
	out := legs[:0:0]
	for _, leg := range legs {
		if leg.Delta != 0 {
			out = append(out, leg)
		}
	}
	return out
}
