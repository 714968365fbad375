// Package backend opens the configured record store.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/casadoar/payrecon/internal/domain"
	"github.com/casadoar/payrecon/internal/store"
	"github.com/casadoar/payrecon/internal/store/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Backend struct {
	Records       domain.RecordStore
	Notifications domain.NotificationLogStore
	close         func()
}

func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open connects to the store named by driver and makes sure its schema exists.
// For postgres dsn is a connection URL, for sqlite a file path.
func Open(ctx context.Context, driver, dsn string) (*Backend, error) {
	switch driver {
	case DriverPostgres:
		if dsn == "" {
			return nil, errors.New("DATABASE_URL is required for postgres driver")
		}
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		if err := store.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &Backend{
			Records:       store.NewRecordStore(pool),
			Notifications: store.NewNotificationLogStore(pool),
			close:         pool.Close,
		}, nil

	case DriverSQLite:
		s, err := sqlite.Open(dsn)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Records:       s,
			Notifications: s,
			close:         func() { _ = s.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
