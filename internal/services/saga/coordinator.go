// Package saga holds the machinery shared by the balance mutation services:
// per-card locking, compare-and-swap ledger legs with compensation, and the
// terminal status transitions of a mutation record.
package saga

import (
	"context"
	"errors"
	"time"

	apperrors "dompet/internal/errors"
	"dompet/internal/events"
	"dompet/internal/models"
	"dompet/internal/observability"
)

// StatusWriter persists the status of one record.
type StatusWriter func(ctx context.Context, id uint, status models.Status) error

type Config struct {
	LockTimeout  time.Duration
	WriteTimeout time.Duration
}

type Coordinator struct {
	locker    *Locker
	ledger    *Ledger
	publisher events.Publisher
	obs       observability.Observer
	config    Config
}

func NewCoordinator(locker *Locker, ledger *Ledger, publisher events.Publisher, obs observability.Observer, config Config) *Coordinator {
	if locker == nil {
		panic("locker is required")
	}
	if ledger == nil {
		panic("ledger is required")
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if config.LockTimeout == 0 {
		config.LockTimeout = 5 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 30 * time.Second
	}
	return &Coordinator{
		locker:    locker,
		ledger:    ledger,
		publisher: publisher,
		obs:       obs.WithDefaults().Component("saga"),
		config:    config,
	}
}

// Lock takes the per-card locks, waiting at most LockTimeout.
func (c *Coordinator) Lock(ctx context.Context, cards ...string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, c.config.LockTimeout)
	defer cancel()
	unlock, err := c.locker.Lock(lockCtx, cards...)
	if err != nil {
		return nil, apperrors.Downstream(apperrors.CodeLockTimeout, "card is busy, try again", err)
	}
	return unlock, nil
}

// WritePhase detaches the store writes from caller cancellation so a
// disconnecting client cannot stop a saga between its ledger write and its
// status write. The phase is still bounded by WriteTimeout.
func (c *Coordinator) WritePhase(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.config.WriteTimeout)
}

func (c *Coordinator) Apply(ctx context.Context, family string, legs ...Leg) (*Applied, error) {
	return c.ledger.Apply(ctx, family, legs...)
}

// Compensate reverts applied movements. A revert that cannot be written is
// reported for reconciliation.
func (c *Coordinator) Compensate(ctx context.Context, ev events.Event, applied *Applied) {
	if err := c.ledger.Compensate(ctx, ev.Family, applied); err != nil {
		c.reconcile(ctx, ev, events.ReasonCompensationFailed, err)
	}
}

// MarkFailed moves a record to failed. The ledger is untouched at this point,
// so a lost write only leaves the record pending.
func (c *Coordinator) MarkFailed(ctx context.Context, ev events.Event, write StatusWriter) {
	if err := write(ctx, ev.RecordID, models.StatusFailed); err != nil {
		c.reconcile(ctx, ev, events.ReasonFailedMarkLost, err)
	}
}

// Finalize moves a record to success after its ledger legs committed. The
// legs are not reverted when this write fails: the record stays pending,
// a reconciliation event is published and a downstream error is returned.
func (c *Coordinator) Finalize(ctx context.Context, ev events.Event, write StatusWriter) error {
	if err := write(ctx, ev.RecordID, models.StatusSuccess); err != nil {
		c.reconcile(ctx, ev, events.ReasonStatusNotFinalized, err)
		return apperrors.Downstream(apperrors.CodeStatusNotFinalized, "operation applied but its status could not be saved", err)
	}

	ev.Type = events.TypeMutationSucceeded
	ev.OccurredAt = time.Now().UTC()
	if err := c.publisher.Publish(ctx, ev); err != nil {
		c.obs.Log.Warn().Err(err).Str("family", ev.Family).Uint("record_id", ev.RecordID).Msg("failed to publish mutation event")
	}
	return nil
}

func (c *Coordinator) reconcile(ctx context.Context, ev events.Event, reason string, cause error) {
	c.obs.Metrics.RecordReconciliation(ev.Family, reason)
	c.obs.Log.Error().
		Err(cause).
		Str("family", ev.Family).
		Uint("record_id", ev.RecordID).
		Strs("cards", ev.Cards).
		Int64("amount", ev.Amount).
		Str("reason", reason).
		Msg("record requires reconciliation")

	ev.Type = events.TypeReconciliationRequired
	ev.Reason = reason
	ev.Detail = cause.Error()
	ev.OccurredAt = time.Now().UTC()
	if err := c.publisher.Publish(ctx, ev); err != nil {
		c.obs.Log.Error().Err(errors.Join(cause, err)).Str("family", ev.Family).Uint("record_id", ev.RecordID).Msg("failed to publish reconciliation event")
	}
}

// Event builds the event skeleton for a record, masking card numbers.
func Event(family string, id uint, amount int64, cards ...string) events.Event {
	masked := make([]string, 0, len(cards))
	for _, c := range cards {
		masked = append(masked, observability.MaskCard(c))
	}
	return events.Event{Family: family, RecordID: id, Amount: amount, Cards: masked}
}
