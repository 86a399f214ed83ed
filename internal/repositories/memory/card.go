package memory

import (
	"context"
	"sync"

	"dompet/internal/models"
	"dompet/internal/repositories"
)

type CardRepository struct {
	Faults

	mu    sync.RWMutex
	cards map[string]models.Card
}

func NewCardRepository(cards ...models.Card) *CardRepository {
	r := &CardRepository{cards: make(map[string]models.Card)}
	for _, c := range cards {
		r.Add(c)
	}
	return r
}

func (r *CardRepository) Add(card models.Card) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if card.ID == 0 {
		card.ID = uint(len(r.cards) + 1)
	}
	r.cards[card.CardNumber] = card
}

func (r *CardRepository) FindByCardNumber(_ context.Context, cardNumber string) (*models.Card, error) {
	if err := r.check("FindByCardNumber"); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	card, ok := r.cards[cardNumber]
	if !ok {
		return nil, repositories.ErrCardNotFound
	}
	return &card, nil
}

func (r *CardRepository) FindByUserID(_ context.Context, userID uint) (*models.Card, error) {
	if err := r.check("FindByUserID"); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *models.Card
	for _, c := range r.cards {
		if c.UserID == userID && (found == nil || c.ID < found.ID) {
			c := c
			found = &c
		}
	}
	if found == nil {
		return nil, repositories.ErrCardNotFound
	}
	return found, nil
}
