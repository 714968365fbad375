package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/casadoar/payrecon/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func run(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	opts := &RootOptions{open: backend.Open, logger: zap.NewNop()}
	cmd := newRootCommand(opts)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--driver", "sqlite", "--dsn", dbPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRegisterApplyGet(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")

	out, err := run(t, db, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema is up to date")

	out, err = run(t, db, "register", "inst-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "inst-1\tPENDING"), out)

	out, err = run(t, db, "apply", "inst-1", "confirmed")
	require.NoError(t, err)
	assert.Equal(t, "inst-1 -> CONFIRMED: applied\n", out)

	out, err = run(t, db, "apply", "inst-1", "failed")
	require.NoError(t, err)
	assert.Equal(t, "inst-1 -> FAILED: skipped_invalid_transition\n", out)

	out, err = run(t, db, "--format", "json", "get", "inst-1")
	require.NoError(t, err)
	var rec struct {
		ResourceID string `json:"resource_id"`
		State      string `json:"state"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "CONFIRMED", rec.State)
}

func TestApplyUnknownRecord(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")

	out, err := run(t, db, "apply", "ghost", "CONFIRMED")
	require.NoError(t, err)
	assert.Equal(t, "ghost -> CONFIRMED: not_found\n", out)
}

func TestCommandErrors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")

	_, err := run(t, db, "apply", "inst-1", "PAGO")
	assert.ErrorContains(t, err, "unknown state")

	_, err = run(t, db, "--format", "yaml", "version")
	assert.ErrorContains(t, err, "invalid format")

	_, err = run(t, db, "get", "missing")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, filepath.Join(t.TempDir(), "cli.db"), "version")
	require.NoError(t, err)
	assert.Equal(t, "payrecon dev (unknown)\n", out)
}
