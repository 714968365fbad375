package store

import (
	"context"
	"errors"
	"time"

	"github.com/casadoar/payrecon/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultListLimit = 50

type RecordStore struct {
	db *pgxpool.Pool
}

func NewRecordStore(db *pgxpool.Pool) *RecordStore {
	return &RecordStore{db: db}
}

func (s *RecordStore) Create(ctx context.Context, r *domain.ReconciliationRecord) error {
	if r.CurrentState == "" {
		r.CurrentState = domain.StatePending
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO reconciliation_records (resource_id, current_state)
		 VALUES ($1, $2)
		 RETURNING created_at, updated_at`,
		r.ResourceID, string(r.CurrentState),
	).Scan(&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *RecordStore) Get(ctx context.Context, resourceID string) (*domain.ReconciliationRecord, error) {
	r := &domain.ReconciliationRecord{}
	var state string
	err := s.db.QueryRow(ctx,
		`SELECT resource_id, current_state, created_at, updated_at
		 FROM reconciliation_records WHERE resource_id = $1`,
		resourceID,
	).Scan(&r.ResourceID, &state, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r.CurrentState = domain.State(state)
	return r, nil
}

// CompareAndSet moves resourceID from expected to next in one statement.
func (s *RecordStore) CompareAndSet(ctx context.Context, resourceID string, expected, next domain.State, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE reconciliation_records
		 SET current_state = $3, updated_at = $4
		 WHERE resource_id = $1 AND current_state = $2`,
		resourceID, string(expected), string(next), at,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *RecordStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.ReconciliationRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var state *string
	if opts.State != nil {
		v := string(*opts.State)
		state = &v
	}

	rows, err := s.db.Query(ctx,
		`SELECT resource_id, current_state, created_at, updated_at
		 FROM reconciliation_records
		 WHERE ($1::text IS NULL OR current_state = $1)
		 ORDER BY updated_at DESC
		 LIMIT $2`,
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

func (s *RecordStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
