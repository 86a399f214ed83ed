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

// MutationRepository stores copies of records keyed by id. The search
// function decides which records match a list query's search term.
type MutationRepository[T any, P models.MutationPtr[T]] struct {
	Faults

	mu      sync.RWMutex
	nextID  uint
	records map[uint]T
	trashed map[uint]bool
	search  func(*T) []string
}

func newMutationRepository[T any, P models.MutationPtr[T]](search func(*T) []string) *MutationRepository[T, P] {
	return &MutationRepository[T, P]{records: make(map[uint]T), trashed: make(map[uint]bool), search: search}
}

func NewTopupRepository() *MutationRepository[models.Topup, *models.Topup] {
	return newMutationRepository[models.Topup](func(t *models.Topup) []string {
		return []string{t.CardNumber, t.TopupMethod}
	})
}

func NewWithdrawRepository() *MutationRepository[models.Withdraw, *models.Withdraw] {
	return newMutationRepository[models.Withdraw](func(w *models.Withdraw) []string {
		return []string{w.CardNumber}
	})
}

func NewTransferRepository() *MutationRepository[models.Transfer, *models.Transfer] {
	return newMutationRepository[models.Transfer](func(t *models.Transfer) []string {
		return []string{t.TransferFrom, t.TransferTo}
	})
}

func (r *MutationRepository[T, P]) Create(_ context.Context, record *T) error {
	if err := r.check("Create"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	setID(record, r.nextID)
	r.records[r.nextID] = *record
	return nil
}

func (r *MutationRepository[T, P]) FindByID(_ context.Context, id uint) (*T, error) {
	if err := r.check("FindByID"); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok || r.trashed[id] {
		return nil, repositories.ErrRecordNotFound
	}
	return &rec, nil
}

func (r *MutationRepository[T, P]) FindAll(_ context.Context, q repositories.ListQuery) ([]*T, int64, error) {
	if err := r.check("FindAll"); err != nil {
		return nil, 0, err
	}
	q = q.Normalize()
	all := r.filter(func(rec *T) bool {
		if q.Search == "" {
			return true
		}
		for _, v := range r.search(rec) {
			if strings.Contains(v, q.Search) {
				return true
			}
		}
		return false
	})
	return paginate(all, q), int64(len(all)), nil
}

func (r *MutationRepository[T, P]) FindByCardNumber(_ context.Context, cardNumber string) ([]*T, error) {
	if err := r.check("FindByCardNumber"); err != nil {
		return nil, err
	}
	return r.filter(func(rec *T) bool {
		for _, c := range P(rec).CardNumbers() {
			if c == cardNumber {
				return true
			}
		}
		return false
	}), nil
}

func (r *MutationRepository[T, P]) FindStuck(_ context.Context, olderThan time.Time) ([]*T, error) {
	if err := r.check("FindStuck"); err != nil {
		return nil, err
	}
	stuck := r.filter(func(rec *T) bool {
		p := P(rec)
		return p.RecordStatus() == models.StatusPending && p.CreatedTime().Before(olderThan)
	})
	sort.Slice(stuck, func(i, j int) bool { return P(stuck[i]).RecordID() < P(stuck[j]).RecordID() })
	return stuck, nil
}

// UpdateFields replaces the stored record but keeps its status.
func (r *MutationRepository[T, P]) UpdateFields(_ context.Context, record *T) error {
	if err := r.check("UpdateFields"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := P(record).RecordID()
	current, ok := r.records[id]
	if !ok || r.trashed[id] {
		return repositories.ErrRecordNotFound
	}
	amended := *record
	P(&amended).SetStatus(P(&current).RecordStatus())
	r.records[id] = amended
	return nil
}

func (r *MutationRepository[T, P]) UpdateStatus(_ context.Context, id uint, status models.Status) error {
	if err := r.check("UpdateStatus"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || r.trashed[id] {
		return repositories.ErrRecordNotFound
	}
	P(&rec).SetStatus(status)
	r.records[id] = rec
	return nil
}

func (r *MutationRepository[T, P]) FindTrashed(_ context.Context, q repositories.ListQuery) ([]*T, int64, error) {
	if err := r.check("FindTrashed"); err != nil {
		return nil, 0, err
	}
	q = q.Normalize()
	all := r.scan(true, func(*T) bool { return true })
	return paginate(all, q), int64(len(all)), nil
}

func (r *MutationRepository[T, P]) Trash(_ context.Context, id uint) error {
	return r.move(id, "Trash", false, func() { r.trashed[id] = true })
}

func (r *MutationRepository[T, P]) Restore(_ context.Context, id uint) error {
	return r.move(id, "Restore", true, func() { delete(r.trashed, id) })
}

// DeletePermanent removes a trashed record. Live records are not touched.
func (r *MutationRepository[T, P]) DeletePermanent(_ context.Context, id uint) error {
	return r.move(id, "DeletePermanent", true, func() {
		delete(r.trashed, id)
		delete(r.records, id)
	})
}

func (r *MutationRepository[T, P]) RestoreAll(context.Context) (int64, error) {
	if err := r.check("RestoreAll"); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.trashed))
	r.trashed = make(map[uint]bool)
	return n, nil
}

func (r *MutationRepository[T, P]) DeleteAllPermanent(context.Context) (int64, error) {
	if err := r.check("DeleteAllPermanent"); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.trashed))
	for id := range r.trashed {
		delete(r.records, id)
	}
	r.trashed = make(map[uint]bool)
	return n, nil
}

// move applies change to record id when its trashed state equals trashed.
func (r *MutationRepository[T, P]) move(id uint, method string, trashed bool, change func()) error {
	if err := r.check(method); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok || r.trashed[id] != trashed {
		return repositories.ErrRecordNotFound
	}
	change()
	return nil
}

// All returns every live record ordered newest first.
func (r *MutationRepository[T, P]) All() []*T {
	return r.filter(func(*T) bool { return true })
}

func (r *MutationRepository[T, P]) filter(keep func(*T) bool) []*T {
	return r.scan(false, keep)
}

func (r *MutationRepository[T, P]) scan(trashed bool, keep func(*T) bool) []*T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*T
	for id, rec := range r.records {
		rec := rec
		if r.trashed[id] == trashed && keep(&rec) {
			out = append(out, &rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return P(out[i]).RecordID() > P(out[j]).RecordID() })
	return out
}

// setID assigns the primary key and creation time of a freshly created record.
func setID[T any](record *T, id uint) {
	now := time.Now()
	switch rec := any(record).(type) {
	case *models.Topup:
		rec.ID, rec.CreatedAt, rec.UpdatedAt = id, now, now
	case *models.Withdraw:
		rec.ID, rec.CreatedAt, rec.UpdatedAt = id, now, now
	case *models.Transfer:
		rec.ID, rec.CreatedAt, rec.UpdatedAt = id, now, now
	case *models.Transaction:
		rec.ID, rec.CreatedAt, rec.UpdatedAt = id, now, now
	}
}

// TransactionRepository adds the merchant scoped listing.
type TransactionRepository struct {
	*MutationRepository[models.Transaction, *models.Transaction]
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		MutationRepository: newMutationRepository[models.Transaction](func(t *models.Transaction) []string {
			return []string{t.CardNumber, t.PaymentMethod}
		}),
	}
}

func (r *TransactionRepository) FindByMerchant(_ context.Context, merchantID uint, q repositories.ListQuery) ([]*models.Transaction, int64, error) {
	if err := r.check("FindByMerchant"); err != nil {
		return nil, 0, err
	}
	q = q.Normalize()
	all := r.filter(func(t *models.Transaction) bool { return t.MerchantID == merchantID })
	return paginate(all, q), int64(len(all)), nil
}
