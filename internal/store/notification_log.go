package store

import (
	"context"

	"github.com/casadoar/payrecon/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationLogStore struct {
	db *pgxpool.Pool
}

func NewNotificationLogStore(db *pgxpool.Pool) *NotificationLogStore {
	return &NotificationLogStore{db: db}
}

func (s *NotificationLogStore) Append(ctx context.Context, e *domain.NotificationLogEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO notification_log
		   (id, provider, resource_id, reported_state, result, request_id, raw_payload, received_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.Provider, e.ResourceID, string(e.ReportedState), string(e.Result), e.RequestID, e.RawPayload, e.ReceivedAt,
	)
	return err
}

func (s *NotificationLogStore) ListByResource(ctx context.Context, resourceID string, limit int) ([]domain.NotificationLogEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.Query(ctx,
		`SELECT id::text, provider, resource_id, reported_state, result, request_id, raw_payload, received_at
		 FROM notification_log
		 WHERE resource_id = $1
		 ORDER BY received_at DESC
		 LIMIT $2`,
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
