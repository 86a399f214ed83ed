package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dompet/internal/models"

	"gorm.io/gorm"
)

// mutationColumns describes where a record family keeps its card numbers
// and which columns an amendment may touch.
type mutationColumns struct {
	cards  []string
	search []string
	amend  []string
}

type mutationRepository[T any, P models.MutationPtr[T]] struct {
	db   *gorm.DB
	cols mutationColumns
}

func newMutationRepository[T any, P models.MutationPtr[T]](db *gorm.DB, cols mutationColumns) *mutationRepository[T, P] {
	return &mutationRepository[T, P]{db: db, cols: cols}
}

func (r *mutationRepository[T, P]) Create(ctx context.Context, record *T) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

func (r *mutationRepository[T, P]) FindByID(ctx context.Context, id uint) (*T, error) {
	var record T
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to find record: %w", err)
	}
	return &record, nil
}

func (r *mutationRepository[T, P]) FindAll(ctx context.Context, q ListQuery) ([]*T, int64, error) {
	return r.page(r.db.WithContext(ctx).Model(new(T)), q)
}

func (r *mutationRepository[T, P]) page(tx *gorm.DB, q ListQuery) ([]*T, int64, error) {
	q = q.Normalize()
	if q.Search != "" && len(r.cols.search) > 0 {
		cond := r.db.Where(r.cols.search[0]+" LIKE ?", "%"+q.Search+"%")
		for _, col := range r.cols.search[1:] {
			cond = cond.Or(col+" LIKE ?", "%"+q.Search+"%")
		}
		tx = tx.Where(cond)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count records: %w", err)
	}

	var records []*T
	if err := tx.Order("id DESC").Limit(q.PageSize).Offset(q.Offset()).Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list records: %w", err)
	}
	return records, total, nil
}

func (r *mutationRepository[T, P]) FindByCardNumber(ctx context.Context, cardNumber string) ([]*T, error) {
	tx := r.db.WithContext(ctx)
	cond := r.db.Where(r.cols.cards[0]+" = ?", cardNumber)
	for _, col := range r.cols.cards[1:] {
		cond = cond.Or(col+" = ?", cardNumber)
	}

	var records []*T
	if err := tx.Where(cond).Order("id DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to find records by card: %w", err)
	}
	return records, nil
}

func (r *mutationRepository[T, P]) FindStuck(ctx context.Context, olderThan time.Time) ([]*T, error) {
	var records []*T
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.StatusPending, olderThan).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find pending records: %w", err)
	}
	return records, nil
}

// UpdateFields persists the amendable columns of record. Status is never
// written here.
func (r *mutationRepository[T, P]) UpdateFields(ctx context.Context, record *T) error {
	id := P(record).RecordID()
	res := r.db.WithContext(ctx).Model(record).Where("id = ?", id).Select(r.cols.amend).Updates(record)
	if res.Error != nil {
		return fmt.Errorf("failed to update record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *mutationRepository[T, P]) UpdateStatus(ctx context.Context, id uint, status models.Status) error {
	res := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *mutationRepository[T, P]) FindTrashed(ctx context.Context, q ListQuery) ([]*T, int64, error) {
	return r.page(r.trashed(ctx).Model(new(T)), q)
}

// Trash soft deletes a live record.
func (r *mutationRepository[T, P]) Trash(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return fmt.Errorf("failed to trash record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *mutationRepository[T, P]) Restore(ctx context.Context, id uint) error {
	res := r.trashed(ctx).Model(new(T)).Where("id = ?", id).Update("deleted_at", nil)
	if res.Error != nil {
		return fmt.Errorf("failed to restore record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// DeletePermanent removes a trashed record. Live records are not touched.
func (r *mutationRepository[T, P]) DeletePermanent(ctx context.Context, id uint) error {
	res := r.trashed(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return fmt.Errorf("failed to delete record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *mutationRepository[T, P]) RestoreAll(ctx context.Context) (int64, error) {
	res := r.trashed(ctx).Model(new(T)).Update("deleted_at", nil)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to restore records: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *mutationRepository[T, P]) DeleteAllPermanent(ctx context.Context) (int64, error) {
	res := r.trashed(ctx).Delete(new(T))
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete records: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *mutationRepository[T, P]) trashed(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Unscoped().Where("deleted_at IS NOT NULL")
}
