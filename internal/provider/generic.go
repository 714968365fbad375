package provider

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/casadoar/payrecon/internal/domain"
)

const SignatureHeader = "X-Signature"

// GenericWebhook accepts {"resource_id": "...", "status": "..."} and maps
// the provider's own status vocabulary through a StatusMap.
type GenericWebhook struct {
	name     string
	secret   []byte
	statuses *StatusMap
}

func NewGenericWebhook(name, secret string, statuses *StatusMap) *GenericWebhook {
	if statuses == nil {
		statuses = DefaultStatusMap()
	}
	w := &GenericWebhook{name: name, statuses: statuses}
	if secret != "" {
		w.secret = []byte(secret)
	}
	return w
}

func (w *GenericWebhook) Name() string {
	return w.name
}

func (w *GenericWebhook) Verify(header http.Header, body []byte) error {
	if w.secret == nil {
		return ErrInvalidSignature
	}
	return verifyHMAC(w.secret, body, header.Get(SignatureHeader))
}

type genericPayload struct {
	ResourceID string `json:"resource_id"`
	Status     string `json:"status"`
}

func (w *GenericWebhook) Parse(body []byte) ([]domain.Notification, error) {
	var p genericPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	id := strings.TrimSpace(p.ResourceID)
	if id == "" {
		return nil, fmt.Errorf("%w: resource_id is required", ErrInvalidPayload)
	}
	state, err := w.statuses.Lookup(p.Status)
	if err != nil {
		return nil, err
	}
	return []domain.Notification{{
		Provider:      w.name,
		ResourceID:    id,
		ReportedState: state,
	}}, nil
}
