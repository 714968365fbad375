package provider

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/casadoar/payrecon/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PAGO", "PAGO"},
		{"pago", "PAGO"},
		{"Concluída", "CONCLUIDA"},
		{"  aguardando pagamento ", "AGUARDANDO_PAGAMENTO"},
		{"in-process", "IN_PROCESS"},
		{"REMOVIDA_PELO_PSP", "REMOVIDA_PELO_PSP"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStatus(tt.in))
		})
	}
}

func TestDefaultStatusMap(t *testing.T) {
	m := DefaultStatusMap()

	tests := []struct {
		status string
		want   domain.State
	}{
		{"PAGO", domain.StateConfirmed},
		{"approved", domain.StateConfirmed},
		{"CONCLUÍDA", domain.StateConfirmed},
		{"falha", domain.StateFailed},
		{"rejected", domain.StateFailed},
		{"AGUARDANDO_PAGAMENTO", domain.StatePending},
	}
	for _, tt := range tests {
		got, err := m.Lookup(tt.status)
		require.NoError(t, err, tt.status)
		assert.Equal(t, tt.want, got, tt.status)
	}

	_, err := m.Lookup("chargeback")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestLoadStatusMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statuses.yaml")
	data := []byte("confirmed:\n  - authorized\nfailed:\n  - charged_back\n  - pago\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	m, err := LoadStatusMap(path)
	require.NoError(t, err)

	st, err := m.Lookup("Authorized")
	require.NoError(t, err)
	assert.Equal(t, domain.StateConfirmed, st)

	st, err = m.Lookup("charged back")
	require.NoError(t, err)
	assert.Equal(t, domain.StateFailed, st)

	// File entries override the defaults.
	st, err = m.Lookup("PAGO")
	require.NoError(t, err)
	assert.Equal(t, domain.StateFailed, st)

	st, err = m.Lookup("approved")
	require.NoError(t, err)
	assert.Equal(t, domain.StateConfirmed, st)
}

func TestParseStatusMap_Errors(t *testing.T) {
	_, err := ParseStatusMap([]byte("refunded:\n  - devolvido\n"))
	assert.Error(t, err)

	_, err = ParseStatusMap([]byte("confirmed: [unterminated"))
	assert.Error(t, err)

	_, err = LoadStatusMap(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
