package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cedarhouse/menu-api/internal/domain"
	"github.com/cedarhouse/menu-api/internal/platform/httpx"
	"github.com/cedarhouse/menu-api/internal/services"
)

const maxDetailBodySize = 4 * 1024

// DetailHandlers exposes the item quick-view endpoints.
type DetailHandlers struct {
	service services.DetailService
}

// NewDetailHandlers builds the quick-view endpoint handlers.
func NewDetailHandlers(service services.DetailService) *DetailHandlers {
	return &DetailHandlers{service: service}
}

// Routes registers the quick-view endpoints on the provided router.
func (h *DetailHandlers) Routes(r chi.Router) {
	r.Get("/", h.current)
	r.Post("/", h.expand)
	r.Delete("/", h.collapse)
}

type expandRequest struct {
	Page   string `json:"page"`
	ItemID string `json:"itemId"`
}

type detailResponse struct {
	Open bool                     `json:"open"`
	Item *domain.ExpandedItemView `json:"item,omitempty"`
}

func (h *DetailHandlers) current(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, ok := requireSession(ctx, w)
	if !ok {
		return
	}
	if h.service == nil {
		writeDetailServiceUnavailable(ctx, w)
		return
	}

	view, open := h.service.Current(ctx, sid)
	resp := detailResponse{Open: open}
	if open {
		resp.Item = &view
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *DetailHandlers) expand(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, ok := requireSession(ctx, w)
	if !ok {
		return
	}
	if h.service == nil {
		writeDetailServiceUnavailable(ctx, w)
		return
	}

	body, err := readLimitedBody(r, maxDetailBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req expandRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	view, err := h.service.Expand(ctx, services.ExpandItemCommand{
		SessionID: sid,
		Page:      req.Page,
		ItemID:    req.ItemID,
	})
	if err != nil {
		writeDetailError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, detailResponse{Open: true, Item: &view})
}

func (h *DetailHandlers) collapse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, ok := requireSession(ctx, w)
	if !ok {
		return
	}
	if h.service == nil {
		writeDetailServiceUnavailable(ctx, w)
		return
	}

	if err := h.service.Collapse(ctx, sid); err != nil {
		writeDetailError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, detailResponse{Open: false})
}

func writeDetailServiceUnavailable(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("detail_service_unavailable", "detail service is not configured", http.StatusServiceUnavailable))
}

func writeDetailError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrDetailInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("detail_invalid_input", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrDetailNotExpandable):
		httpx.WriteError(ctx, w, httpx.NewError("detail_not_expandable", err.Error(), http.StatusUnprocessableEntity))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
