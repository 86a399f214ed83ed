package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"dompet/internal/models"
	"dompet/internal/repositories"
)

type SaldoRepository struct {
	Faults

	mu     sync.RWMutex
	saldos map[string]models.Saldo
	writes []BalanceWrite
}

// BalanceWrite records one committed UpdateBalance call.
type BalanceWrite struct {
	CardNumber string
	From       int64
	To         int64
}

func NewSaldoRepository(saldos ...models.Saldo) *SaldoRepository {
	r := &SaldoRepository{saldos: make(map[string]models.Saldo)}
	for _, s := range saldos {
		r.Put(s.CardNumber, s.TotalBalance)
	}
	return r
}

// Put creates or overwrites the balance of a card.
func (r *SaldoRepository) Put(cardNumber string, balance int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.saldos[cardNumber]
	if !ok {
		s = models.Saldo{ID: uint(len(r.saldos) + 1), CardNumber: cardNumber, CreatedAt: time.Now()}
	}
	s.TotalBalance = balance
	s.UpdatedAt = time.Now()
	r.saldos[cardNumber] = s
}

// Balance returns the stored balance, or -1 when the card has no saldo.
func (r *SaldoRepository) Balance(cardNumber string) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.saldos[cardNumber]
	if !ok {
		return -1
	}
	return s.TotalBalance
}

func (r *SaldoRepository) Writes() []BalanceWrite {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]BalanceWrite, len(r.writes))
	copy(out, r.writes)
	return out
}

func (r *SaldoRepository) FindByCardNumber(_ context.Context, cardNumber string) (*models.Saldo, error) {
	if err := r.check("FindByCardNumber"); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.saldos[cardNumber]
	if !ok {
		return nil, repositories.ErrSaldoNotFound
	}
	return &s, nil
}

func (r *SaldoRepository) FindAll(_ context.Context, q repositories.ListQuery) ([]*models.Saldo, int64, error) {
	if err := r.check("FindAll"); err != nil {
		return nil, 0, err
	}
	q = q.Normalize()
	r.mu.RLock()
	var all []*models.Saldo
	for _, s := range r.saldos {
		if q.Search == "" || strings.Contains(s.CardNumber, q.Search) {
			s := s
			all = append(all, &s)
		}
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, q), int64(len(all)), nil
}

func (r *SaldoRepository) UpdateBalance(_ context.Context, cardNumber string, expected, newBalance int64) error {
	if err := r.check("UpdateBalance"); err != nil {
		return err
	}
	if newBalance < 0 {
		return repositories.ErrNegativeBalance
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.saldos[cardNumber]
	if !ok {
		return repositories.ErrSaldoNotFound
	}
	if s.TotalBalance != expected {
		return repositories.ErrBalanceConflict
	}
	r.writes = append(r.writes, BalanceWrite{CardNumber: cardNumber, From: expected, To: newBalance})
	s.TotalBalance = newBalance
	s.UpdatedAt = time.Now()
	r.saldos[cardNumber] = s
	return nil
}

func paginate[T any](items []T, q repositories.ListQuery) []T {
	start := q.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + q.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
