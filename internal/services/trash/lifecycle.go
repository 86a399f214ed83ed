// Package trash manages the soft delete lifecycle of operation records.
// Trashed records leave every listing and lookup until restored. The ledger
// is never touched: a trashed record keeps the balance it moved.
package trash

import (
	"context"
	"errors"

	"dompet/internal/domain/response"
	apperrors "dompet/internal/errors"
	"dompet/internal/models"
	"dompet/internal/observability"
	"dompet/internal/repositories"
	"dompet/internal/repositories/cache"
	"dompet/internal/services/saga"
	cachekeys "dompet/internal/utils/cache"

	"go.opentelemetry.io/otel/attribute"
)

// Repository is the part of a mutation repository the lifecycle needs.
type Repository[T any] interface {
	FindByID(ctx context.Context, id uint) (*T, error)
	FindTrashed(ctx context.Context, q repositories.ListQuery) ([]*T, int64, error)
	Trash(ctx context.Context, id uint) error
	Restore(ctx context.Context, id uint) error
	DeletePermanent(ctx context.Context, id uint) error
	RestoreAll(ctx context.Context) (int64, error)
	DeleteAllPermanent(ctx context.Context) (int64, error)
}

// Service is embedded by every record family service.
type Service[R any] interface {
	FindTrashed(ctx context.Context, q repositories.ListQuery) (*response.ApiResponsePagination[[]R], error)
	Trash(ctx context.Context, id uint) (*response.ApiResponse[R], error)
	Restore(ctx context.Context, id uint) (*response.ApiResponse[R], error)
	DeletePermanent(ctx context.Context, id uint) (*response.ApiResponse[uint], error)
	RestoreAll(ctx context.Context) (*response.ApiResponse[int64], error)
	DeleteAllPermanent(ctx context.Context) (*response.ApiResponse[int64], error)
}

// Family describes one kind of record.
type Family[T any, R any] struct {
	Entity   cachekeys.EntityType
	Noun     string
	Title    string
	NotFound string
	Convert  func(*T) R
}

type Lifecycle[T any, P models.MutationPtr[T], R any] struct {
	repo   Repository[T]
	cache  *cache.Cache
	saga   *saga.Coordinator
	obs    observability.Observer
	family Family[T, R]
}

func New[T any, P models.MutationPtr[T], R any](
	repo Repository[T],
	cache *cache.Cache,
	coordinator *saga.Coordinator,
	obs observability.Observer,
	family Family[T, R],
) *Lifecycle[T, P, R] {
	return &Lifecycle[T, P, R]{
		repo:   repo,
		cache:  cache,
		saga:   coordinator,
		obs:    obs.WithDefaults(),
		family: family,
	}
}

func (l *Lifecycle[T, P, R]) FindTrashed(ctx context.Context, q repositories.ListQuery) (*response.ApiResponsePagination[[]R], error) {
	q = q.Normalize()
	ctx, op := l.obs.Begin(ctx, l.family.Noun, "find_trashed", attribute.Int("page", q.Page), attribute.Int("page_size", q.PageSize))

	records, total, err := l.repo.FindTrashed(ctx, q)
	if err != nil {
		return nil, op.Fail(apperrors.Downstream(apperrors.CodeLookupFailed, "failed to list trashed "+l.family.Noun+"s", err))
	}

	items := make([]R, 0, len(records))
	for _, rec := range records {
		items = append(items, l.family.Convert(rec))
	}

	op.Succeed()
	return response.Paginated("Trashed "+l.family.Noun+"s retrieved successfully", items, q.Page, q.PageSize, total), nil
}

// Trash soft deletes a settled record. Pending records belong to a running
// saga or to reconciliation and are refused.
func (l *Lifecycle[T, P, R]) Trash(ctx context.Context, id uint) (*response.ApiResponse[R], error) {
	ctx, op := l.obs.Begin(ctx, l.family.Noun, "trash", attribute.Int(l.family.Noun+"_id", int(id)))

	record, err := l.repo.FindByID(ctx, id)
	if err != nil {
		return nil, op.Fail(l.lookupError(err))
	}

	unlock, err := l.saga.Lock(ctx, P(record).CardNumbers()...)
	if err != nil {
		return nil, op.Fail(err)
	}
	defer unlock()

	// An amendment may have finished while the lock was awaited.
	record, err = l.repo.FindByID(ctx, id)
	if err != nil {
		return nil, op.Fail(l.lookupError(err))
	}
	if status := P(record).RecordStatus(); status == models.StatusPending {
		return nil, op.Fail(apperrors.ValidationCode(apperrors.CodeRecordPending, l.family.Noun+" is still pending", map[string]string{
			"status": "is pending, only settled records can be trashed",
		}))
	}

	ctx, cancel := l.saga.WritePhase(ctx)
	defer cancel()
	defer l.invalidate(ctx)

	if err := l.repo.Trash(ctx, id); err != nil {
		return nil, op.Fail(l.writeError(err, "trash"))
	}

	op.Succeed()
	return response.Success(l.family.Title+" trashed successfully", l.family.Convert(record)), nil
}

func (l *Lifecycle[T, P, R]) Restore(ctx context.Context, id uint) (*response.ApiResponse[R], error) {
	ctx, op := l.obs.Begin(ctx, l.family.Noun, "restore", attribute.Int(l.family.Noun+"_id", int(id)))

	ctx, cancel := l.saga.WritePhase(ctx)
	defer cancel()
	defer l.invalidate(ctx)

	if err := l.repo.Restore(ctx, id); err != nil {
		return nil, op.Fail(l.writeError(err, "restore"))
	}

	record, err := l.repo.FindByID(ctx, id)
	if err != nil {
		return nil, op.Fail(l.lookupError(err))
	}

	op.Succeed()
	return response.Success(l.family.Title+" restored successfully", l.family.Convert(record)), nil
}

// DeletePermanent removes a trashed record for good.
func (l *Lifecycle[T, P, R]) DeletePermanent(ctx context.Context, id uint) (*response.ApiResponse[uint], error) {
	ctx, op := l.obs.Begin(ctx, l.family.Noun, "delete_permanent", attribute.Int(l.family.Noun+"_id", int(id)))

	ctx, cancel := l.saga.WritePhase(ctx)
	defer cancel()
	defer l.invalidate(ctx)

	if err := l.repo.DeletePermanent(ctx, id); err != nil {
		return nil, op.Fail(l.writeError(err, "delete"))
	}

	op.Succeed()
	return response.Success(l.family.Title+" deleted permanently", id), nil
}

func (l *Lifecycle[T, P, R]) RestoreAll(ctx context.Context) (*response.ApiResponse[int64], error) {
	ctx, op := l.obs.Begin(ctx, l.family.Noun, "restore_all")

	ctx, cancel := l.saga.WritePhase(ctx)
	defer cancel()
	defer l.invalidate(ctx)

	n, err := l.repo.RestoreAll(ctx)
	if err != nil {
		return nil, op.Fail(l.writeError(err, "restore"))
	}

	op.Step("restored", attribute.Int64("count", n))
	op.Succeed()
	return response.Success("All trashed "+l.family.Noun+"s restored successfully", n), nil
}

func (l *Lifecycle[T, P, R]) DeleteAllPermanent(ctx context.Context) (*response.ApiResponse[int64], error) {
	ctx, op := l.obs.Begin(ctx, l.family.Noun, "delete_all_permanent")

	ctx, cancel := l.saga.WritePhase(ctx)
	defer cancel()
	defer l.invalidate(ctx)

	n, err := l.repo.DeleteAllPermanent(ctx)
	if err != nil {
		return nil, op.Fail(l.writeError(err, "delete"))
	}

	op.Step("deleted", attribute.Int64("count", n))
	op.Succeed()
	return response.Success("All trashed "+l.family.Noun+"s deleted permanently", n), nil
}

// invalidate drops every cached view of the family. Balances are unchanged.
func (l *Lifecycle[T, P, R]) invalidate(ctx context.Context) {
	l.cache.Invalidate(ctx, cachekeys.AllOf(l.family.Entity))
}

func (l *Lifecycle[T, P, R]) lookupError(err error) error {
	return saga.LookupError(err, repositories.ErrRecordNotFound, l.family.NotFound, l.family.Noun)
}

func (l *Lifecycle[T, P, R]) writeError(err error, verb string) error {
	if errors.Is(err, repositories.ErrRecordNotFound) {
		return apperrors.NotFound(l.family.NotFound, l.family.Noun+" not found", err)
	}
	return apperrors.Downstream(apperrors.CodeRecordWriteFailed, "failed to "+verb+" "+l.family.Noun, err)
}
