package service

import (
	"context"
	"errors"
	"strings"

	"github.com/casadoar/payrecon/internal/domain"
	"github.com/casadoar/payrecon/internal/store"
)

var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrRecordConflict     = errors.New("record with this resource_id already exists")
	ErrResourceIDRequired = errors.New("resource_id is required")
)

// RecordService registers and looks up reconciliation records.
type RecordService struct {
	store domain.RecordStore
	log   domain.NotificationLogStore
}

func NewRecordService(s domain.RecordStore, log domain.NotificationLogStore) *RecordService {
	return &RecordService{store: s, log: log}
}

// Register creates a PENDING record for a new charge.
func (s *RecordService) Register(ctx context.Context, resourceID string) (*domain.ReconciliationRecord, error) {
	resourceID = strings.TrimSpace(resourceID)
	if resourceID == "" {
		return nil, ErrResourceIDRequired
	}
	rec := &domain.ReconciliationRecord{
		ResourceID:   resourceID,
		CurrentState: domain.StatePending,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrRecordConflict
		}
		return nil, err
	}
	return rec, nil
}

func (s *RecordService) Get(ctx context.Context, resourceID string) (*domain.ReconciliationRecord, error) {
	rec, err := s.store.Get(ctx, resourceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *RecordService) List(ctx context.Context, opts domain.ListOpts) ([]domain.ReconciliationRecord, error) {
	return s.store.List(ctx, opts)
}

// History returns the audit trail for a record, newest first.
func (s *RecordService) History(ctx context.Context, resourceID string, limit int) ([]domain.NotificationLogEntry, error) {
	if s.log == nil {
		return nil, nil
	}
	return s.log.ListByResource(ctx, resourceID, limit)
}
