package memory

import (
	"context"
	"sync"

	"dompet/internal/models"
	"dompet/internal/repositories"
)

type MerchantRepository struct {
	Faults

	mu        sync.RWMutex
	merchants map[uint]models.Merchant
}

func NewMerchantRepository(merchants ...models.Merchant) *MerchantRepository {
	r := &MerchantRepository{merchants: make(map[uint]models.Merchant)}
	for _, m := range merchants {
		r.Add(m)
	}
	return r
}

func (r *MerchantRepository) Add(merchant models.Merchant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if merchant.ID == 0 {
		merchant.ID = uint(len(r.merchants) + 1)
	}
	r.merchants[merchant.ID] = merchant
}

func (r *MerchantRepository) FindByAPIKey(_ context.Context, apiKey string) (*models.Merchant, error) {
	if err := r.check("FindByAPIKey"); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.merchants {
		if m.APIKey == apiKey {
			m := m
			return &m, nil
		}
	}
	return nil, repositories.ErrMerchantNotFound
}

func (r *MerchantRepository) FindByID(_ context.Context, id uint) (*models.Merchant, error) {
	if err := r.check("FindByID"); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.merchants[id]
	if !ok {
		return nil, repositories.ErrMerchantNotFound
	}
	return &m, nil
}
