package provider

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/casadoar/payrecon/internal/domain"
)

const EfiSignatureHeader = "X-Gerencianet-Signature"

// EfiWebhook handles Efí Pay PIX notifications. Every txid listed in the
// "pix" array is a confirmed payment.
type EfiWebhook struct {
	secret []byte
}

// NewEfiWebhook signs with "client_id:client_secret", as Efí does.
func NewEfiWebhook(clientID, clientSecret string) *EfiWebhook {
	return &EfiWebhook{secret: []byte(clientID + ":" + clientSecret)}
}

func (w *EfiWebhook) Name() string {
	return ProviderEfi
}

func (w *EfiWebhook) Verify(header http.Header, body []byte) error {
	return verifyHMAC(w.secret, body, header.Get(EfiSignatureHeader))
}

type efiPixEntry struct {
	TxID       string `json:"txid"`
	EndToEndID string `json:"endToEndId"`
	Valor      string `json:"valor"`
}

type efiPayload struct {
	Pix []efiPixEntry `json:"pix"`
}

// Parse returns no notifications for deliveries without a "pix" array,
// such as Efí's webhook registration probe.
func (w *EfiWebhook) Parse(body []byte) ([]domain.Notification, error) {
	var p efiPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	out := make([]domain.Notification, 0, len(p.Pix))
	for i, entry := range p.Pix {
		txid := strings.TrimSpace(entry.TxID)
		if txid == "" {
			return nil, fmt.Errorf("%w: pix[%d] has no txid", ErrInvalidPayload, i)
		}
		out = append(out, domain.Notification{
			Provider:      ProviderEfi,
			ResourceID:    txid,
			ReportedState: domain.StateConfirmed,
		})
	}
	return out, nil
}
