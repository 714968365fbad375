package service

import (
	"context"
	"sync"
	"time"

	"github.com/casadoar/payrecon/internal/domain"
	"github.com/casadoar/payrecon/internal/store"
	"github.com/stretchr/testify/mock"
)

// memRecordStore implements domain.RecordStore in memory.
type memRecordStore struct {
	mu      sync.Mutex
	records map[string]*domain.ReconciliationRecord
}

func newMemRecordStore(ids ...string) *memRecordStore {
	m := &memRecordStore{records: make(map[string]*domain.ReconciliationRecord)}
	for _, id := range ids {
		m.records[id] = &domain.ReconciliationRecord{ResourceID: id, CurrentState: domain.StatePending}
	}
	return m
}

func (m *memRecordStore) Create(ctx context.Context, r *domain.ReconciliationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[r.ResourceID]; ok {
		return store.ErrConflict
	}
	if r.CurrentState == "" {
		r.CurrentState = domain.StatePending
	}
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	m.records[r.ResourceID] = &cp
	return nil
}

func (m *memRecordStore) Get(ctx context.Context, resourceID string) (*domain.ReconciliationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[resourceID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRecordStore) CompareAndSet(ctx context.Context, resourceID string, expected, next domain.State, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[resourceID]
	if !ok || r.CurrentState != expected {
		return false, nil
	}
	r.CurrentState = next
	r.UpdatedAt = at
	return true, nil
}

func (m *memRecordStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.ReconciliationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ReconciliationRecord
	for _, r := range m.records {
		if opts.State != nil && r.CurrentState != *opts.State {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (m *memRecordStore) Ping(ctx context.Context) error {
	return nil
}

func (m *memRecordStore) state(id string) domain.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[id].CurrentState
}

// MockRecordStore mocks the RecordStore interface.
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) Create(ctx context.Context, r *domain.ReconciliationRecord) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRecordStore) Get(ctx context.Context, resourceID string) (*domain.ReconciliationRecord, error) {
	args := m.Called(ctx, resourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationRecord), args.Error(1)
}

func (m *MockRecordStore) CompareAndSet(ctx context.Context, resourceID string, expected, next domain.State, at time.Time) (bool, error) {
	args := m.Called(ctx, resourceID, expected, next, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockRecordStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.ReconciliationRecord, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReconciliationRecord), args.Error(1)
}

func (m *MockRecordStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// memNotificationLog records audit entries in memory.
type memNotificationLog struct {
	mu      sync.Mutex
	entries []domain.NotificationLogEntry
	err     error
}

func (l *memNotificationLog) Append(ctx context.Context, e *domain.NotificationLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.entries = append(l.entries, *e)
	return nil
}

func (l *memNotificationLog) ListByResource(ctx context.Context, resourceID string, limit int) ([]domain.NotificationLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.NotificationLogEntry
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].ResourceID == resourceID {
			out = append(out, l.entries[i])
		}
	}
	return out, nil
}
