// Package sqlite is a single-file backend for the record and notification
// stores, used for local runs and tests.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/casadoar/payrecon/internal/domain"
	"github.com/casadoar/payrecon/internal/store"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const defaultListLimit = 50

// Store implements domain.RecordStore and domain.NotificationLogStore.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite has a single writer; one connection also keeps :memory: alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Create(ctx context.Context, r *domain.ReconciliationRecord) error {
	if r.CurrentState == "" {
		r.CurrentState = domain.StatePending
	}
	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reconciliation_records (resource_id, current_state, created_at, updated_at)
		 VALUES (?, ?, ?, ?)`,
		r.ResourceID, string(r.CurrentState), now, now,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return store.ErrConflict
		}
		return err
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

func (s *Store) Get(ctx context.Context, resourceID string) (*domain.ReconciliationRecord, error) {
	r := &domain.ReconciliationRecord{}
	var state string
	err := s.db.QueryRowContext(ctx,
		`SELECT resource_id, current_state, created_at, updated_at
		 FROM reconciliation_records WHERE resource_id = ?`,
		resourceID,
	).Scan(&r.ResourceID, &state, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	r.CurrentState = domain.State(state)
	return r, nil
}

func (s *Store) CompareAndSet(ctx context.Context, resourceID string, expected, next domain.State, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reconciliation_records
		 SET current_state = ?, updated_at = ?
		 WHERE resource_id = ? AND current_state = ?`,
		string(next), at.UTC(), resourceID, string(expected),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Store) List(ctx context.Context, opts domain.ListOpts) ([]domain.ReconciliationRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var state any
	if opts.State != nil {
		state = string(*opts.State)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT resource_id, current_state, created_at, updated_at
		 FROM reconciliation_records
		 WHERE (?1 IS NULL OR current_state = ?1)
		 ORDER BY updated_at DESC
		 LIMIT ?2`,
		state, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.ReconciliationRecord
	for rows.Next() {
		var r domain.ReconciliationRecord
		var st string
		if err := rows.Scan(&r.ResourceID, &st, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.CurrentState = domain.State(st)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) Append(ctx context.Context, e *domain.NotificationLogEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notification_log
		   (id, provider, resource_id, reported_state, result, request_id, raw_payload, received_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Provider, e.ResourceID, string(e.ReportedState), string(e.Result), e.RequestID, e.RawPayload, e.ReceivedAt.UTC(),
	)
	return err
}

func (s *Store) ListByResource(ctx context.Context, resourceID string, limit int) ([]domain.NotificationLogEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, provider, resource_id, reported_state, result, request_id, raw_payload, received_at
		 FROM notification_log
		 WHERE resource_id = ?
		 ORDER BY received_at DESC
		 LIMIT ?`,
		resourceID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.NotificationLogEntry
	for rows.Next() {
		var e domain.NotificationLogEntry
		var state, result string
		if err := rows.Scan(&e.ID, &e.Provider, &e.ResourceID, &state, &result, &e.RequestID, &e.RawPayload, &e.ReceivedAt); err != nil {
			return nil, err
		}
		e.ReportedState = domain.State(state)
		e.Result = domain.ApplyResult(result)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var (
	_ domain.RecordStore          = (*Store)(nil)
	_ domain.NotificationLogStore = (*Store)(nil)
)
