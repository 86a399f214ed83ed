package repositories

import (
	"context"
	"testing"
	"time"

	"dompet/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTopup(card string, amount int64, status models.Status) *models.Topup {
	return &models.Topup{
		TopupNo:     uuid.New(),
		CardNumber:  card,
		TopupAmount: amount,
		TopupMethod: "bank_transfer",
		TopupTime:   time.Now().UTC(),
		Status:      status,
	}
}

func TestMutationRepository_CreateAndFind(t *testing.T) {
	repo := NewTopupRepository(newTestDB(t))
	ctx := context.Background()

	rec := newTopup(cardA, 500, models.StatusPending)
	require.NoError(t, repo.Create(ctx, rec))
	require.NotZero(t, rec.ID)

	found, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), found.TopupAmount)
	assert.Equal(t, models.StatusPending, found.Status)

	_, err = repo.FindByID(ctx, rec.ID+100)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestMutationRepository_UpdateFieldsKeepsStatus(t *testing.T) {
	repo := NewTopupRepository(newTestDB(t))
	ctx := context.Background()

	rec := newTopup(cardA, 500, models.StatusSuccess)
	require.NoError(t, repo.Create(ctx, rec))

	amended := *rec
	amended.TopupAmount = 800
	amended.Status = models.StatusFailed
	require.NoError(t, repo.UpdateFields(ctx, &amended))

	found, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(800), found.TopupAmount)
	assert.Equal(t, models.StatusSuccess, found.Status)

	missing := *rec
	missing.ID = 999
	assert.ErrorIs(t, repo.UpdateFields(ctx, &missing), ErrRecordNotFound)
}

func TestMutationRepository_UpdateStatus(t *testing.T) {
	repo := NewWithdrawRepository(newTestDB(t))
	ctx := context.Background()

	rec := &models.Withdraw{WithdrawNo: uuid.New(), CardNumber: cardA, WithdrawAmount: 100, WithdrawTime: time.Now(), Status: models.StatusPending}
	require.NoError(t, repo.Create(ctx, rec))

	require.NoError(t, repo.UpdateStatus(ctx, rec.ID, models.StatusFailed))
	found, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, found.Status)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, 999, models.StatusSuccess), ErrRecordNotFound)
}

func TestMutationRepository_FindStuck(t *testing.T) {
	db := newTestDB(t)
	repo := NewTopupRepository(db)
	ctx := context.Background()

	old := newTopup(cardA, 100, models.StatusPending)
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, db.Model(old).Update("created_at", time.Now().Add(-time.Hour)).Error)

	oldDone := newTopup(cardA, 100, models.StatusSuccess)
	require.NoError(t, repo.Create(ctx, oldDone))
	require.NoError(t, db.Model(oldDone).Update("created_at", time.Now().Add(-time.Hour)).Error)

	require.NoError(t, repo.Create(ctx, newTopup(cardA, 100, models.StatusPending)))

	stuck, err := repo.FindStuck(ctx, time.Now().Add(-10*time.Minute))
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, old.ID, stuck[0].ID)
}

func TestMutationRepository_FindAllAndByCard(t *testing.T) {
	repo := NewTransferRepository(newTestDB(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Transfer{
			TransferNo: uuid.New(), TransferFrom: cardA, TransferTo: cardB,
			TransferAmount: int64(100 * (i + 1)), TransferTime: time.Now(), Status: models.StatusSuccess,
		}))
	}
	require.NoError(t, repo.Create(ctx, &models.Transfer{
		TransferNo: uuid.New(), TransferFrom: cardB, TransferTo: "4000000000000002",
		TransferAmount: 50, TransferTime: time.Now(), Status: models.StatusSuccess,
	}))

	page, total, err := repo.FindAll(ctx, ListQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, page, 2)
	assert.Greater(t, page[0].ID, page[1].ID)

	fromA, err := repo.FindByCardNumber(ctx, cardA)
	require.NoError(t, err)
	assert.Len(t, fromA, 3)

	touchingB, err := repo.FindByCardNumber(ctx, cardB)
	require.NoError(t, err)
	assert.Len(t, touchingB, 4)

	searched, total, err := repo.FindAll(ctx, ListQuery{Search: "40000000"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, searched, 1)
}

func TestTransactionRepository_FindByMerchant(t *testing.T) {
	repo := NewTransactionRepository(newTestDB(t))
	ctx := context.Background()

	for _, merchantID := range []uint{1, 1, 2} {
		require.NoError(t, repo.Create(ctx, &models.Transaction{
			TransactionNo: uuid.New(), CardNumber: cardA, MerchantID: merchantID, MerchantCard: cardB,
			Amount: 100, PaymentMethod: "qris", TransactionTime: time.Now(), Status: models.StatusSuccess,
		}))
	}

	records, total, err := repo.FindByMerchant(ctx, 1, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, records, 2)
}

func TestCardAndMerchantRepositories(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&[]models.Card{
		{UserID: 7, CardNumber: cardA, CardType: "debit"},
		{UserID: 7, CardNumber: cardB, CardType: "credit"},
	}).Error)
	require.NoError(t, db.Create(&models.Merchant{UserID: 7, Name: "Warung", APIKey: "mk_test"}).Error)
	ctx := context.Background()

	cards := NewCardRepository(db)
	card, err := cards.FindByUserID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, cardA, card.CardNumber)
	_, err = cards.FindByCardNumber(ctx, "4000000000000002")
	assert.ErrorIs(t, err, ErrCardNotFound)

	merchants := NewMerchantRepository(db)
	merchant, err := merchants.FindByAPIKey(ctx, "mk_test")
	require.NoError(t, err)
	assert.True(t, merchant.IsActive())
	_, err = merchants.FindByID(ctx, merchant.ID+1)
	assert.ErrorIs(t, err, ErrMerchantNotFound)
}

func TestMutationRepository_TrashLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewTopupRepository(db)
	ctx := context.Background()

	kept := newTopup(cardA, 100, models.StatusSuccess)
	trashed := newTopup(cardA, 200, models.StatusFailed)
	require.NoError(t, repo.Create(ctx, kept))
	require.NoError(t, repo.Create(ctx, trashed))

	require.NoError(t, repo.Trash(ctx, trashed.ID))
	assert.ErrorIs(t, repo.Trash(ctx, trashed.ID), ErrRecordNotFound)

	_, err := repo.FindByID(ctx, trashed.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	live, total, err := repo.FindAll(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, kept.ID, live[0].ID)
	byCard, err := repo.FindByCardNumber(ctx, cardA)
	require.NoError(t, err)
	assert.Len(t, byCard, 1)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, trashed.ID, models.StatusSuccess), ErrRecordNotFound)

	bin, total, err := repo.FindTrashed(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, trashed.ID, bin[0].ID)

	assert.ErrorIs(t, repo.Restore(ctx, kept.ID), ErrRecordNotFound)
	require.NoError(t, repo.Restore(ctx, trashed.ID))
	found, err := repo.FindByID(ctx, trashed.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), found.TopupAmount)

	assert.ErrorIs(t, repo.DeletePermanent(ctx, trashed.ID), ErrRecordNotFound)
	require.NoError(t, repo.Trash(ctx, trashed.ID))
	require.NoError(t, repo.DeletePermanent(ctx, trashed.ID))

	var count int64
	require.NoError(t, db.Unscoped().Model(&models.Topup{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMutationRepository_BulkTrashOperations(t *testing.T) {
	db := newTestDB(t)
	repo := NewWithdrawRepository(db)
	ctx := context.Background()

	var ids []uint
	for i := 0; i < 3; i++ {
		rec := &models.Withdraw{WithdrawNo: uuid.New(), CardNumber: cardA, WithdrawAmount: 100, WithdrawTime: time.Now(), Status: models.StatusSuccess}
		require.NoError(t, repo.Create(ctx, rec))
		ids = append(ids, rec.ID)
	}
	require.NoError(t, repo.Trash(ctx, ids[0]))
	require.NoError(t, repo.Trash(ctx, ids[1]))

	restored, err := repo.RestoreAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), restored)
	_, total, err := repo.FindAll(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	require.NoError(t, repo.Trash(ctx, ids[2]))
	deleted, err := repo.DeleteAllPermanent(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, total, err = repo.FindTrashed(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, total)
	_, total, err = repo.FindAll(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
