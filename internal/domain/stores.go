package domain

import (
	"context"
	"time"
)

type ListOpts struct {
	State *State
	Limit int
}

// RecordStore is the durable home of reconciliation records.
// CompareAndSet must be a single conditional update: it returns false
// without error when the stored state is no longer expected.
type RecordStore interface {
	Create(ctx context.Context, r *ReconciliationRecord) error
	Get(ctx context.Context, resourceID string) (*ReconciliationRecord, error)
	CompareAndSet(ctx context.Context, resourceID string, expected, next State, at time.Time) (bool, error)
	List(ctx context.Context, opts ListOpts) ([]ReconciliationRecord, error)
	Ping(ctx context.Context) error
}

type NotificationLogStore interface {
	Append(ctx context.Context, e *NotificationLogEntry) error
	ListByResource(ctx context.Context, resourceID string, limit int) ([]NotificationLogEntry, error)
}
