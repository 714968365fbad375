package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/casadoar/payrecon/internal/api/middleware"
	"github.com/casadoar/payrecon/internal/domain"
	"github.com/casadoar/payrecon/internal/provider"
	"github.com/casadoar/payrecon/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// Reconciler is the part of service.Reconciler the webhook handler needs.
type Reconciler interface {
	Apply(ctx context.Context, n domain.Notification) (domain.ApplyResult, error)
}

type WebhookHandler struct {
	providers  *provider.Registry
	reconciler Reconciler
	logger     *zap.Logger
	now        func() time.Time
}

func NewWebhookHandler(providers *provider.Registry, reconciler Reconciler, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		providers:  providers,
		reconciler: reconciler,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type notificationResult struct {
	ResourceID string             `json:"resource_id"`
	State      domain.State       `json:"state"`
	Result     domain.ApplyResult `json:"result,omitempty"`
	Error      string             `json:"error,omitempty"`
}

type webhookResponse struct {
	Status  string               `json:"status"`
	Results []notificationResult `json:"results"`
}

// Receive verifies and reconciles one provider delivery.
//
// Applied, duplicate and invalid-transition outcomes are acknowledged with
// 200 so the provider stops redelivering. An unknown resource answers 404
// and a store failure 503, both of which the provider retries.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	wh, err := h.providers.Lookup(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown provider")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if err := wh.Verify(r.Header, body); err != nil {
		h.logger.Warn("webhook signature rejected",
			zap.String("provider", wh.Name()),
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
		)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "invalid_signature"})
		return
	}

	notifications, err := wh.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	requestID := middleware.RequestIDFromContext(r.Context())
	receivedAt := h.now()
	status := http.StatusOK
	results := make([]notificationResult, 0, len(notifications))

	for _, n := range notifications {
		n.ReceivedAt = receivedAt
		n.RawPayload = body
		n.RequestID = requestID

		res := notificationResult{ResourceID: n.ResourceID, State: n.ReportedState}
		result, err := h.reconciler.Apply(r.Context(), n)
		switch {
		case errors.Is(err, service.ErrInvalidNotification):
			res.Error = err.Error()
			status = worse(status, http.StatusBadRequest)
		case err != nil:
			res.Error = "store unavailable"
			status = worse(status, http.StatusServiceUnavailable)
		case !result.Acknowledge():
			res.Result = result
			status = worse(status, http.StatusNotFound)
		default:
			res.Result = result
		}
		results = append(results, res)
	}

	resp := webhookResponse{Status: "received", Results: results}
	if status != http.StatusOK {
		resp.Status = "retry"
	}
	writeJSON(w, status, resp)
}

// worse keeps the status that most needs a redelivery: 503 over 404 over 400.
func worse(current, next int) int {
	rank := func(code int) int {
		switch code {
		case http.StatusServiceUnavailable:
			return 3
		case http.StatusNotFound:
			return 2
		case http.StatusBadRequest:
			return 1
		default:
			return 0
		}
	}
	if rank(next) > rank(current) {
		return next
	}
	return current
}
