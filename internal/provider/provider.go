package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/casadoar/payrecon/internal/domain"
)

// Provider constants
const (
	ProviderEfi     = "efi"
	ProviderGeneric = "generic"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrUnknownProvider  = errors.New("unknown provider")
	ErrUnknownStatus    = errors.New("unknown provider status")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
)

// Webhook turns one provider's raw deliveries into notifications.
type Webhook interface {
	Name() string
	Verify(header http.Header, body []byte) error
	Parse(body []byte) ([]domain.Notification, error)
}

// Config carries the credentials needed to verify each provider.
type Config struct {
	EfiClientID     string
	EfiClientSecret string
	// GenericSecret signs deliveries of every other provider. Empty disables
	// the generic webhook.
	GenericSecret string
	Statuses      *StatusMap
}

// Registry resolves webhooks by the provider name in the request path.
type Registry struct {
	webhooks map[string]Webhook
	fallback func(name string) Webhook
}

// NewRegistry builds the registry from cfg. The Efí webhook is only
// registered when both client credentials are set; any other provider
// name is served by a generic webhook only when GenericSecret is set.
func NewRegistry(cfg Config) *Registry {
	statuses := cfg.Statuses
	if statuses == nil {
		statuses = DefaultStatusMap()
	}
	r := &Registry{webhooks: make(map[string]Webhook)}
	if cfg.EfiClientID != "" && cfg.EfiClientSecret != "" {
		r.Register(NewEfiWebhook(cfg.EfiClientID, cfg.EfiClientSecret))
	}
	// Without a shared secret nothing could authenticate a generic delivery.
	if cfg.GenericSecret != "" {
		r.fallback = func(name string) Webhook {
			return NewGenericWebhook(name, cfg.GenericSecret, statuses)
		}
	}
	return r
}

func (r *Registry) Register(w Webhook) {
	r.webhooks[w.Name()] = w
}

func (r *Registry) Lookup(name string) (Webhook, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, ErrUnknownProvider
	}
	if w, ok := r.webhooks[name]; ok {
		return w, nil
	}
	// A known provider that is not configured must not fall back to an
	// unsigned generic parser.
	if name == ProviderEfi || r.fallback == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return r.fallback(name), nil
}

// Names lists the explicitly registered providers.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.webhooks))
	for name := range r.webhooks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sign returns the hex HMAC-SHA256 of body.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func verifyHMAC(secret, body []byte, signature string) error {
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) == 0 {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}
