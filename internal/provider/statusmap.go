package provider

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/casadoar/payrecon/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// StatusMap translates provider status strings into lattice states.
// Keys are stored normalized, see NormalizeStatus.
type StatusMap struct {
	states map[string]domain.State
}

var defaultStatuses = map[domain.State][]string{
	domain.StateConfirmed: {
		"CONFIRMED", "PAGO", "PAID", "APPROVED", "CONCLUIDA", "SETTLED", "SUCCEEDED",
	},
	domain.StateFailed: {
		"FAILED", "FALHA", "REJECTED", "CANCELLED", "CANCELED", "EXPIRED",
		"REMOVIDA_PELO_USUARIO_RECEBEDOR", "REMOVIDA_PELO_PSP",
	},
	domain.StatePending: {
		"PENDING", "AGUARDANDO_PAGAMENTO", "ATIVA", "IN_PROCESS", "WAITING",
	},
}

func DefaultStatusMap() *StatusMap {
	m := &StatusMap{states: make(map[string]domain.State)}
	for state, names := range defaultStatuses {
		for _, name := range names {
			m.Set(name, state)
		}
	}
	return m
}

func (m *StatusMap) Set(status string, state domain.State) {
	m.states[NormalizeStatus(status)] = state
}

func (m *StatusMap) Lookup(status string) (domain.State, error) {
	if st, ok := m.states[NormalizeStatus(status)]; ok {
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, status)
}

func (m *StatusMap) Len() int {
	return len(m.states)
}

// LoadStatusMap reads a YAML file keyed by state, e.g.
//
//	confirmed: [approved, authorized]
//	failed: [charged_back]
//
// and layers it over the defaults.
func LoadStatusMap(path string) (*StatusMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read status map: %w", err)
	}
	return ParseStatusMap(data)
}

func ParseStatusMap(data []byte) (*StatusMap, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse status map: %w", err)
	}
	m := DefaultStatusMap()
	for key, names := range raw {
		state, err := domain.ParseState(key)
		if err != nil {
			return nil, fmt.Errorf("parse status map: %w", err)
		}
		for _, name := range names {
			m.Set(name, state)
		}
	}
	return m, nil
}

// NormalizeStatus folds accents and case and joins words with underscores,
// so "Concluída", "concluida" and "CONCLUIDA" compare equal.
func NormalizeStatus(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		folded = strings.TrimSpace(s)
	}
	folded = cases.Upper(language.Und).String(folded)
	return strings.Join(strings.FieldsFunc(folded, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_'
	}), "_")
}
