// Package events publishes mutation lifecycle events.
package events

import (
	"context"
	"sync"
	"time"
)

type Type string

const (
	TypeMutationSucceeded      Type = "mutation.succeeded"
	TypeReconciliationRequired Type = "reconciliation.required"
)

// Reasons attached to reconciliation events.
const (
	ReasonStatusNotFinalized = "status_not_finalized"
	ReasonFailedMarkLost     = "failed_status_not_written"
	ReasonCompensationFailed = "compensation_failed"
	ReasonStalePending       = "stale_pending"
)

// Event card numbers are always masked.
type Event struct {
	Type       Type      `json:"type"`
	Family     string    `json:"family"`
	RecordID   uint      `json:"record_id"`
	Cards      []string  `json:"cards,omitempty"`
	Amount     int64     `json:"amount"`
	Reason     string    `json:"reason,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

// MemoryPublisher keeps every published event in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// FailWith makes subsequent Publish calls return err.
func (p *MemoryPublisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *MemoryPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *MemoryPublisher) Close() error { return nil }

func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// OfType filters the recorded events.
func (p *MemoryPublisher) OfType(t Type) []Event {
	var out []Event
	for _, e := range p.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
