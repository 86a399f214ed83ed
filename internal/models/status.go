package models

import "time"

// Status is the lifecycle state of a mutation record.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// IsTerminal reports whether no further transition is expected.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Mutation is implemented by every balance-mutating record so the
// repositories can store them uniformly.
type Mutation interface {
	RecordID() uint
	RecordStatus() Status
	SetStatus(Status)
	CardNumbers() []string
	CreatedTime() time.Time
}

// MutationPtr constrains a type parameter to a pointer of a Mutation record.
type MutationPtr[T any] interface {
	*T
	Mutation
}
