// Package reconcile finds mutation records that never reached a terminal
// status and lets an operator settle them.
package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	apperrors "dompet/internal/errors"
	"dompet/internal/events"
	"dompet/internal/models"
	"dompet/internal/observability"
	"dompet/internal/repositories"
	"dompet/internal/repositories/cache"
	"dompet/internal/services/saga"
	cachekeys "dompet/internal/utils/cache"
)

// Families in the order they are scanned.
var Families = []string{"topup", "withdraw", "transfer", "transaction"}

type Repositories struct {
	Topups       repositories.TopupRepository
	Withdraws    repositories.WithdrawRepository
	Transfers    repositories.TransferRepository
	Transactions repositories.TransactionRepository
}

// Record is a pending mutation as shown to an operator. Cards are masked.
type Record struct {
	Family    string
	ID        uint
	Cards     []string
	Amount    int64
	Status    models.Status
	CreatedAt time.Time

	cards []string
}

type source struct {
	stuck  func(ctx context.Context, olderThan time.Time) ([]Record, error)
	find   func(ctx context.Context, id uint) (Record, error)
	status saga.StatusWriter
}

func newSource[T any, P models.MutationPtr[T]](family string, repo repositories.MutationRepository[T], amount func(*T) int64) source {
	toRecord := func(rec *T) Record {
		p := P(rec)
		raw := p.CardNumbers()
		masked := make([]string, 0, len(raw))
		for _, c := range raw {
			masked = append(masked, observability.MaskCard(c))
		}
		return Record{
			Family:    family,
			ID:        p.RecordID(),
			Cards:     masked,
			Amount:    amount(rec),
			Status:    p.RecordStatus(),
			CreatedAt: p.CreatedTime(),
			cards:     raw,
		}
	}
	return source{
		stuck: func(ctx context.Context, olderThan time.Time) ([]Record, error) {
			recs, err := repo.FindStuck(ctx, olderThan)
			if err != nil {
				return nil, err
			}
			out := make([]Record, 0, len(recs))
			for _, r := range recs {
				out = append(out, toRecord(r))
			}
			return out, nil
		},
		find: func(ctx context.Context, id uint) (Record, error) {
			rec, err := repo.FindByID(ctx, id)
			if err != nil {
				return Record{}, err
			}
			return toRecord(rec), nil
		},
		status: repo.UpdateStatus,
	}
}

type Service struct {
	sources   map[string]source
	publisher events.Publisher
	cache     *cache.Cache
	obs       observability.Observer
}

func NewService(repos Repositories, publisher events.Publisher, c *cache.Cache, obs observability.Observer) *Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{
		sources: map[string]source{
			"topup":       newSource[models.Topup](Families[0], repos.Topups, func(t *models.Topup) int64 { return t.TopupAmount }),
			"withdraw":    newSource[models.Withdraw](Families[1], repos.Withdraws, func(w *models.Withdraw) int64 { return w.WithdrawAmount }),
			"transfer":    newSource[models.Transfer](Families[2], repos.Transfers, func(t *models.Transfer) int64 { return t.TransferAmount }),
			"transaction": newSource[models.Transaction](Families[3], repos.Transactions, func(t *models.Transaction) int64 { return t.Amount }),
		},
		publisher: publisher,
		cache:     c,
		obs:       obs.WithDefaults().Component("reconcile"),
	}
}

// Stuck lists records of family still pending after olderThan. An empty
// family scans every family.
func (s *Service) Stuck(ctx context.Context, family string, olderThan time.Duration) ([]Record, error) {
	families := Families
	if family != "" {
		if _, ok := s.sources[family]; !ok {
			return nil, unknownFamily(family)
		}
		families = []string{family}
	}

	cutoff := time.Now().Add(-olderThan)
	var out []Record
	for _, f := range families {
		recs, err := s.sources[f].stuck(ctx, cutoff)
		if err != nil {
			return nil, apperrors.Downstream(apperrors.CodeLookupFailed, "failed to scan "+f+" records", err)
		}
		out = append(out, recs...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Publish emits one reconciliation event per record.
func (s *Service) Publish(ctx context.Context, records []Record) error {
	for _, r := range records {
		ev := events.Event{
			Type:       events.TypeReconciliationRequired,
			Family:     r.Family,
			RecordID:   r.ID,
			Cards:      r.Cards,
			Amount:     r.Amount,
			Reason:     events.ReasonStalePending,
			OccurredAt: time.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, ev); err != nil {
			return fmt.Errorf("publish %s %d: %w", r.Family, r.ID, err)
		}
		s.obs.Metrics.RecordReconciliation(r.Family, events.ReasonStalePending)
	}
	return nil
}

// Resolve moves a pending record to a terminal status after an operator
// checked the ledger. The ledger itself is never touched here.
func (s *Service) Resolve(ctx context.Context, family string, id uint, status models.Status) (Record, error) {
	src, ok := s.sources[family]
	if !ok {
		return Record{}, unknownFamily(family)
	}
	if !status.IsTerminal() {
		return Record{}, apperrors.Validation("invalid request", map[string]string{"status": "must be success or failed"})
	}

	rec, err := src.find(ctx, id)
	if err != nil {
		return Record{}, saga.LookupError(err, repositories.ErrRecordNotFound, notFoundCode(family), family)
	}
	if rec.Status != models.StatusPending {
		return Record{}, apperrors.Validation("invalid request", map[string]string{
			"status": fmt.Sprintf("record is already %s", rec.Status),
		})
	}

	if err := src.status(ctx, id, status); err != nil {
		return Record{}, apperrors.Downstream(apperrors.CodeRecordWriteFailed, "failed to update status", err)
	}
	rec.Status = status
	s.invalidate(ctx, rec)

	s.obs.Log.Info().
		Str("family", family).
		Uint("record_id", id).
		Str("status", string(status)).
		Msg("pending record resolved")
	return rec, nil
}

func (s *Service) invalidate(ctx context.Context, r Record) {
	if s.cache == nil {
		return
	}
	entity := cachekeys.EntityType(r.Family)
	patterns := []string{
		cachekeys.ByID(entity, r.ID),
		cachekeys.AllLists(entity),
		cachekeys.AllLists(cachekeys.EntitySaldo),
	}
	for _, c := range r.cards {
		patterns = append(patterns, cachekeys.ByCard(entity, c), cachekeys.ByCard(cachekeys.EntitySaldo, c))
	}
	if entity == cachekeys.EntityTransaction {
		patterns = append(patterns,
			cachekeys.GenerateKey(entity, cachekeys.KeyFindByMerchant)+":*",
			cachekeys.GenerateKey(entity, cachekeys.KeyFindByAPIKey)+":*",
		)
	}
	s.cache.Invalidate(ctx, patterns...)
}

func unknownFamily(family string) error {
	return apperrors.Validation("invalid request", map[string]string{
		"family": fmt.Sprintf("unknown family %q", family),
	})
}

func notFoundCode(family string) string {
	switch family {
	case "topup":
		return apperrors.CodeTopupNotFound
	case "withdraw":
		return apperrors.CodeWithdrawNotFound
	case "transfer":
		return apperrors.CodeTransferNotFound
	default:
		return apperrors.CodeTxNotFound
	}
}
