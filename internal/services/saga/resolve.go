package saga

import (
	"context"
	"errors"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
	"dompet/internal/repositories"
)

// LookupError maps a repository lookup failure: the sentinel becomes a
// not-found error with code, anything else a downstream failure.
func LookupError(err, sentinel error, code, message string) error {
	if errors.Is(err, sentinel) {
		return apperrors.NotFound(code, message+" not found", err)
	}
	return apperrors.Downstream(apperrors.CodeLookupFailed, "failed to look up "+message, err)
}

// FindCard resolves a card number through the account directory.
func FindCard(ctx context.Context, cards repositories.CardRepository, cardNumber string) (*models.Card, error) {
	card, err := cards.FindByCardNumber(ctx, cardNumber)
	if err != nil {
		return nil, LookupError(err, repositories.ErrCardNotFound, apperrors.CodeCardNotFound, "card")
	}
	return card, nil
}

// Amendable accepts only successful records. The amount of a pending or
// failed record is not known to be in the ledger, so amending it by the
// difference would credit or debit the wrong total.
func Amendable(status models.Status, noun string) error {
	if status == models.StatusSuccess {
		return nil
	}
	return apperrors.ValidationCode(apperrors.CodeRecordNotAmendable, noun+" cannot be amended", map[string]string{
		"status": "is " + string(status) + ", only success can be amended",
	})
}
