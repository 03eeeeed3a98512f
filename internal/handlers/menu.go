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

const maxMenuBodySize = 4 * 1024

// MenuHandlers exposes the menu filter endpoints.
type MenuHandlers struct {
	service services.MenuService
}

// NewMenuHandlers builds the menu endpoint handlers.
func NewMenuHandlers(service services.MenuService) *MenuHandlers {
	return &MenuHandlers{service: service}
}

// Routes registers the menu endpoints on the provided router.
func (h *MenuHandlers) Routes(r chi.Router) {
	r.Get("/{page}", h.view)
	r.Post("/{page}/filter", h.selectFilter)
	r.Post("/{page}/show-all", h.showAll)
}

type selectFilterRequest struct {
	CategoryID string `json:"categoryId"`
}

type menuResponse struct {
	Menu domain.MenuView `json:"menu"`
}

type filterResponse struct {
	Menu     *domain.MenuView          `json:"menu,omitempty"`
	Redirect *domain.NavigationRequest `json:"redirect,omitempty"`
}

func (h *MenuHandlers) view(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, ok := requireSession(ctx, w)
	if !ok {
		return
	}
	if h.service == nil {
		writeMenuServiceUnavailable(ctx, w)
		return
	}

	view, err := h.service.View(ctx, services.ViewMenuCommand{
		SessionID: sid,
		Page:      chi.URLParam(r, "page"),
	})
	if err != nil {
		writeMenuError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, menuResponse{Menu: view})
}

func (h *MenuHandlers) selectFilter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, ok := requireSession(ctx, w)
	if !ok {
		return
	}
	if h.service == nil {
		writeMenuServiceUnavailable(ctx, w)
		return
	}

	body, err := readLimitedBody(r, maxMenuBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req selectFilterRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	result, err := h.service.SelectFilter(ctx, services.SelectFilterCommand{
		SessionID:  sid,
		Page:       chi.URLParam(r, "page"),
		CategoryID: req.CategoryID,
	})
	if err != nil {
		writeMenuError(ctx, w, err)
		return
	}

	if result.Redirect != nil {
		writeJSONResponse(w, http.StatusOK, filterResponse{Redirect: result.Redirect})
		return
	}

	view := result.View
	writeJSONResponse(w, http.StatusOK, filterResponse{Menu: &view})
}

func (h *MenuHandlers) showAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, ok := requireSession(ctx, w)
	if !ok {
		return
	}
	if h.service == nil {
		writeMenuServiceUnavailable(ctx, w)
		return
	}

	view, err := h.service.ShowAll(ctx, services.ViewMenuCommand{
		SessionID: sid,
		Page:      chi.URLParam(r, "page"),
	})
	if err != nil {
		writeMenuError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, menuResponse{Menu: view})
}

func writeMenuServiceUnavailable(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("menu_service_unavailable", "menu service is not configured", http.StatusServiceUnavailable))
}

func writeMenuError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrMenuInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("menu_invalid_input", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrMenuPageNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("menu_page_not_found", err.Error(), http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
