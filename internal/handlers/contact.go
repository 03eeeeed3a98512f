package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cedarhouse/menu-api/internal/domain"
	"github.com/cedarhouse/menu-api/internal/platform/httpx"
	"github.com/cedarhouse/menu-api/internal/services"
)

const maxContactBodySize = 32 * 1024

// ContactHandlers exposes the contact form endpoint.
type ContactHandlers struct {
	service services.ContactService
}

// NewContactHandlers builds the contact endpoint handlers.
func NewContactHandlers(service services.ContactService) *ContactHandlers {
	return &ContactHandlers{service: service}
}

// Routes registers the contact endpoints on the provided router.
func (h *ContactHandlers) Routes(r chi.Router) {
	r.Post("/", h.submit)
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type contactResponse struct {
	ID         string `json:"id"`
	ReceivedAt string `json:"receivedAt"`
}

func (h *ContactHandlers) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := requireSession(ctx, w); !ok {
		return
	}
	if h.service == nil {
		httpx.WriteError(ctx, w, httpx.NewError("contact_service_unavailable", "contact service is not configured", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxContactBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req contactRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	receipt, err := h.service.Submit(ctx, domain.ContactSubmission{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
	})
	if err != nil {
		writeContactError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusAccepted, contactResponse{
		ID:         receipt.ID,
		ReceivedAt: receipt.ReceivedAt.UTC().Format(time.RFC3339),
	})
}

func writeContactError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrContactInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("contact_invalid_input", err.Error(), http.StatusBadRequest))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("request_cancelled", "request was cancelled", http.StatusRequestTimeout))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
