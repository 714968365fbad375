package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/casadoar/payrecon/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	b, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "recon.db"))
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Records.Create(ctx, &domain.ReconciliationRecord{ResourceID: "inst-1"}))
	require.NoError(t, b.Records.Ping(ctx))
	assert.NotNil(t, b.Notifications)
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(context.Background(), "mongo", "x")
	assert.ErrorContains(t, err, "unknown store driver")

	_, err = Open(context.Background(), DriverPostgres, "")
	assert.ErrorContains(t, err, "DATABASE_URL")
}
