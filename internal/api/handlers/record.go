package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/casadoar/payrecon/internal/api/middleware"
	"github.com/casadoar/payrecon/internal/domain"
	"github.com/casadoar/payrecon/internal/service"
	"github.com/go-chi/chi/v5"
)

const maxListLimit = 500

type RecordHandler struct {
	svc        *service.RecordService
	reconciler Reconciler
}

func NewRecordHandler(svc *service.RecordService, reconciler Reconciler) *RecordHandler {
	return &RecordHandler{svc: svc, reconciler: reconciler}
}

type createRecordRequest struct {
	ResourceID string `json:"resource_id"`
}

func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.svc.Register(r.Context(), req.ResourceID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrResourceIDRequired):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrRecordConflict):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create record")
		}
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

func (h *RecordHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get record")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	var opts domain.ListOpts

	if s := r.URL.Query().Get("state"); s != "" {
		st, err := domain.ParseState(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.State = &st
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > maxListLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		opts.Limit = n
	}

	records, err := h.svc.List(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list records")
		return
	}
	if records == nil {
		records = []domain.ReconciliationRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *RecordHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.History(r.Context(), chi.URLParam(r, "id"), 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load notification history")
		return
	}
	if entries == nil {
		entries = []domain.NotificationLogEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"notifications": entries})
}

type reconcileRequest struct {
	State string `json:"state"`
}

// Reconcile applies a manually reported state through the same path as
// provider webhooks.
func (h *RecordHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	st, err := domain.ParseState(req.State)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	result, err := h.reconciler.Apply(r.Context(), domain.Notification{
		Provider:      "manual",
		ResourceID:    id,
		ReportedState: st,
		RequestID:     middleware.RequestIDFromContext(r.Context()),
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidNotification) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	status := http.StatusOK
	if result == domain.ResultNotFound {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]any{"resource_id": id, "state": st, "result": result})
}
