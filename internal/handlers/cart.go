package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cedarhouse/menu-api/internal/platform/httpx"
	"github.com/cedarhouse/menu-api/internal/platform/session"
	"github.com/cedarhouse/menu-api/internal/presenter"
	"github.com/cedarhouse/menu-api/internal/services"
)

const maxCartBodySize = 16 * 1024

var (
	errEmptyBody    = errors.New("request body is empty")
	errBodyTooLarge = errors.New("request body is too large")
)

// CartHandlers exposes the session cart endpoints.
type CartHandlers struct {
	service  services.CartService
	feedback services.FeedbackService
}

// NewCartHandlers builds the cart endpoint handlers.
func NewCartHandlers(service services.CartService, feedback services.FeedbackService) *CartHandlers {
	return &CartHandlers{service: service, feedback: feedback}
}

// Routes registers the cart endpoints on the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Patch("/items/{itemID}", h.updateQuantity)
	r.Delete("/items/{itemID}", h.removeItem)
	r.Post("/coupon", h.applyCoupon)
}

type addItemRequest struct {
	Page   string `json:"page"`
	ItemID string `json:"itemId"`
	// SourceRef names the menu card the add came from; without it the
	// feedback sequence shows the toast immediately.
	SourceRef string `json:"sourceRef,omitempty"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

type cartResponse struct {
	Cart presenter.CartView `json:"cart"`
}

type addItemResponse struct {
	Cart     presenter.CartView `json:"cart"`
	Feedback feedbackResponse   `json:"feedback"`
}

type couponResponse struct {
	Coupon presenter.CouponView `json:"coupon"`
	Cart   presenter.CartView   `json:"cart"`
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, ok := requireSession(ctx, w)
	if !ok {
		return
	}
	if h.service == nil {
		writeCartServiceUnavailable(ctx, w)
		return
	}

	cart, err := h.service.GetCart(ctx, sid)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: presenter.BuildCartView(cart)})
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, ok := requireSession(ctx, w)
	if !ok {
		return
	}
	if h.service == nil {
		writeCartServiceUnavailable(ctx, w)
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req addItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	cart, err := h.service.AddItem(ctx, services.AddItemCommand{
		SessionID: sid,
		Page:      req.Page,
		ItemID:    req.ItemID,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	resp := addItemResponse{Cart: presenter.BuildCartView(cart)}
	if h.feedback != nil {
		itemName := ""
		if idx := cart.LineIndex(req.ItemID); idx >= 0 {
			itemName = cart.Lines[idx].Item.Name
		}
		snapshot, err := h.feedback.ItemAdded(ctx, services.ItemAddedCommand{
			SessionID: sid,
			ItemName:  itemName,
			SourceRef: req.SourceRef,
		})
		if err == nil {
			resp.Feedback = feedbackResponse{Phase: string(snapshot.Phase), Message: snapshot.Message}
		}
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *CartHandlers) updateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, ok := requireSession(ctx, w)
	if !ok {
		return
	}
	if h.service == nil {
		writeCartServiceUnavailable(ctx, w)
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req updateQuantityRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	cart, err := h.service.UpdateQuantity(ctx, services.UpdateQuantityCommand{
		SessionID: sid,
		ItemID:    chi.URLParam(r, "itemID"),
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: presenter.BuildCartView(cart)})
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, ok := requireSession(ctx, w)
	if !ok {
		return
	}
	if h.service == nil {
		writeCartServiceUnavailable(ctx, w)
		return
	}

	cart, err := h.service.RemoveItem(ctx, services.RemoveItemCommand{
		SessionID: sid,
		ItemID:    chi.URLParam(r, "itemID"),
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: presenter.BuildCartView(cart)})
}

func (h *CartHandlers) applyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, ok := requireSession(ctx, w)
	if !ok {
		return
	}
	if h.service == nil {
		writeCartServiceUnavailable(ctx, w)
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req applyCouponRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	result, err := h.service.ApplyDiscount(ctx, services.ApplyDiscountCommand{SessionID: sid, Code: req.Code})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, couponResponse{
		Coupon: presenter.BuildCouponView(result),
		Cart:   presenter.BuildCartView(result.Cart),
	})
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, ok := requireSession(ctx, w)
	if !ok {
		return
	}
	if h.service == nil {
		writeCartServiceUnavailable(ctx, w)
		return
	}

	cart, err := h.service.ClearCart(ctx, sid)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: presenter.BuildCartView(cart)})
}

func writeCartServiceUnavailable(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is not configured", http.StatusServiceUnavailable))
}

func writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("cart_invalid_input", err.Error(), http.StatusBadRequest))
case errors.Is(err, services.ErrCartUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart storage is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}

// requireSession resolves the browsing session minted by the session
// middleware, writing an error response when it is absent.
func requireSession(ctx context.Context, w http.ResponseWriter) (string, bool) {
	sid := session.FromContext(ctx)
	if sid == "" {
		httpx.WriteError(ctx, w, httpx.NewError("session_required", "no browsing session on request", http.StatusBadRequest))
		return "", false
	}
	return sid, true
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errEmptyBody):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("request_too_large", "request body exceeds the allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "could not read request body", http.StatusBadRequest))
	}
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, errBodyTooLarge
	}
	if len(body) == 0 {
		return nil, errEmptyBody
	}
	return body, nil
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
