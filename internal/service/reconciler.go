package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/casadoar/payrecon/internal/domain"
	"github.com/casadoar/payrecon/internal/store"
	"go.uber.org/zap"
)

var (
	ErrStoreUnavailable    = errors.New("record store unavailable")
	ErrInvalidNotification = errors.New("invalid notification")
)

// casAttempts bounds the conditional write: the first try plus one retry
// against a freshly read state.
const casAttempts = 2

// ReconcileStats counts outcomes since process start.
type ReconcileStats struct {
	Applied                  int64 `json:"applied"`
	SkippedDuplicate         int64 `json:"skipped_duplicate"`
	SkippedInvalidTransition int64 `json:"skipped_invalid_transition"`
	NotFound                 int64 `json:"not_found"`
	Errors                   int64 `json:"errors"`
}

type reconcileCounters struct {
	applied  atomic.Int64
	dup      atomic.Int64
	invalid  atomic.Int64
	notFound atomic.Int64
	errors   atomic.Int64
}

// Reconciler applies provider-reported states to reconciliation records.
// A single instance is safe for concurrent use.
type Reconciler struct {
	records domain.RecordStore
	log     domain.NotificationLogStore
	dedup   *Deduplicator
	logger  *zap.Logger
	now     func() time.Time

	counters reconcileCounters
}

func NewReconciler(records domain.RecordStore, dedup *Deduplicator, logger *zap.Logger) *Reconciler {
	if dedup == nil {
		dedup = NewDeduplicator(DefaultDedupCapacity, DefaultDedupTTL)
	}
	return &Reconciler{
		records: records,
		dedup:   dedup,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetNotificationLog enables the audit trail of processed notifications.
func (r *Reconciler) SetNotificationLog(s domain.NotificationLogStore) {
	r.log = s
}

func (r *Reconciler) Deduplicator() *Deduplicator {
	return r.dedup
}

// Apply reconciles one notification. Duplicate and invalid transitions are
// reported as results, not errors. Store failures are returned wrapped in
// ErrStoreUnavailable and are never retried here.
func (r *Reconciler) Apply(ctx context.Context, n domain.Notification) (domain.ApplyResult, error) {
	n.ResourceID = strings.TrimSpace(n.ResourceID)
	if n.ResourceID == "" {
		return "", fmt.Errorf("%w: resource id is required", ErrInvalidNotification)
	}
	if !n.ReportedState.Valid() {
		return "", fmt.Errorf("%w: unknown state %q", ErrInvalidNotification, n.ReportedState)
	}
	if n.ReceivedAt.IsZero() {
		n.ReceivedAt = r.now()
	}

	result, err := r.apply(ctx, n)
	r.count(result, err)
	r.audit(ctx, n, result, err)

	fields := []zap.Field{
		zap.String("provider", n.Provider),
		zap.String("resource_id", n.ResourceID),
		zap.String("state", n.ReportedState.String()),
		zap.String("request_id", n.RequestID),
	}
	if err != nil {
		r.logger.Error("reconciliation failed", append(fields, zap.Error(err))...)
		return "", err
	}
	r.logger.Info("notification reconciled", append(fields, zap.String("result", string(result)))...)
	return result, nil
}

func (r *Reconciler) apply(ctx context.Context, n domain.Notification) (domain.ApplyResult, error) {
	rec, err := r.records.Get(ctx, n.ResourceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ResultNotFound, nil
		}
		return "", fmt.Errorf("%w: get %s: %w", ErrStoreUnavailable, n.ResourceID, err)
	}

	if !r.dedup.ShouldProcess(n.ResourceID, n.ReportedState) {
		return domain.ResultSkippedDuplicate, nil
	}

	current := rec.CurrentState
	for attempt := 0; attempt < casAttempts; attempt++ {
		if !domain.CanTransition(current, n.ReportedState) {
			return domain.ResultSkippedInvalidTransition, nil
		}

		ok, err := r.records.CompareAndSet(ctx, n.ResourceID, current, n.ReportedState, r.now())
		if err != nil {
			// Let the provider's redelivery through once the store recovers.
			r.dedup.Forget(n.ResourceID, n.ReportedState)
			return "", fmt.Errorf("%w: update %s: %w", ErrStoreUnavailable, n.ResourceID, err)
		}
		if ok {
			return domain.ResultApplied, nil
		}
		if attempt == casAttempts-1 {
			break
		}

		fresh, err := r.records.Get(ctx, n.ResourceID)
		if err != nil {
			r.dedup.Forget(n.ResourceID, n.ReportedState)
			if errors.Is(err, store.ErrNotFound) {
				return domain.ResultNotFound, nil
			}
			return "", fmt.Errorf("%w: reread %s: %w", ErrStoreUnavailable, n.ResourceID, err)
		}
		r.logger.Debug("state changed concurrently",
			zap.String("resource_id", n.ResourceID),
			zap.String("expected", current.String()),
			zap.String("found", fresh.CurrentState.String()),
		)
		current = fresh.CurrentState
	}

	return domain.ResultSkippedInvalidTransition, nil
}

func (r *Reconciler) count(result domain.ApplyResult, err error) {
	if err != nil {
		r.counters.errors.Add(1)
		return
	}
	switch result {
	case domain.ResultApplied:
		r.counters.applied.Add(1)
	case domain.ResultSkippedDuplicate:
		r.counters.dup.Add(1)
	case domain.ResultSkippedInvalidTransition:
		r.counters.invalid.Add(1)
	case domain.ResultNotFound:
		r.counters.notFound.Add(1)
	}
}

// audit never changes the outcome of Apply; failures are only logged.
func (r *Reconciler) audit(ctx context.Context, n domain.Notification, result domain.ApplyResult, err error) {
	if r.log == nil {
		return
	}
	if err != nil {
		result = domain.ResultError
	}
	entry := &domain.NotificationLogEntry{
		Provider:      n.Provider,
		ResourceID:    n.ResourceID,
		ReportedState: n.ReportedState,
		Result:        result,
		RequestID:     n.RequestID,
		RawPayload:    n.RawPayload,
		ReceivedAt:    n.ReceivedAt,
	}
	if logErr := r.log.Append(ctx, entry); logErr != nil {
		r.logger.Warn("failed to append notification log",
			zap.String("resource_id", n.ResourceID),
			zap.Error(logErr),
		)
	}
}

func (r *Reconciler) Stats() ReconcileStats {
	return ReconcileStats{
		Applied:                  r.counters.applied.Load(),
		SkippedDuplicate:         r.counters.dup.Load(),
		SkippedInvalidTransition: r.counters.invalid.Load(),
		NotFound:                 r.counters.notFound.Load(),
		Errors:                   r.counters.errors.Load(),
	}
}
