package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/cedarhouse/menu-api/internal/domain"
	"github.com/cedarhouse/menu-api/internal/platform/requestctx"
	"github.com/cedarhouse/menu-api/internal/services"
)

type stubCartService struct {
	getCartFunc        func(ctx context.Context, sessionID string) (services.CartState, error)
	addItemFunc        func(ctx context.Context, cmd services.AddItemCommand) (services.CartState, error)
	updateQuantityFunc func(ctx context.Context, cmd services.UpdateQuantityCommand) (services.CartState, error)
	removeItemFunc     func(ctx context.Context, cmd services.RemoveItemCommand) (services.CartState, error)
	applyDiscountFunc  func(ctx context.Context, cmd services.ApplyDiscountCommand) (services.DiscountResult, error)
	clearCartFunc      func(ctx context.Context, sessionID string) (services.CartState, error)
}

func (s *stubCartService) GetCart(ctx context.Context, sessionID string) (services.CartState, error) {
	return s.getCartFunc(ctx, sessionID)
}

func (s *stubCartService) AddItem(ctx context.Context, cmd services.AddItemCommand) (services.CartState, error) {
	return s.addItemFunc(ctx, cmd)
}

func (s *stubCartService) UpdateQuantity(ctx context.Context, cmd services.UpdateQuantityCommand) (services.CartState, error) {
	return s.updateQuantityFunc(ctx, cmd)
}

func (s *stubCartService) RemoveItem(ctx context.Context, cmd services.RemoveItemCommand) (services.CartState, error) {
	return s.removeItemFunc(ctx, cmd)
}

func (s *stubCartService) ApplyDiscount(ctx context.Context, cmd services.ApplyDiscountCommand) (services.DiscountResult, error) {
	return s.applyDiscountFunc(ctx, cmd)
}

func (s *stubCartService) ClearCart(ctx context.Context, sessionID string) (services.CartState, error) {
	return s.clearCartFunc(ctx, sessionID)
}

type stubFeedbackService struct {
	itemAddedFunc func(ctx context.Context, cmd services.ItemAddedCommand) (services.FeedbackSnapshot, error)
	snapshotFunc  func(ctx context.Context, sessionID string) services.FeedbackSnapshot
}

func (s *stubFeedbackService) ItemAdded(ctx context.Context, cmd services.ItemAddedCommand) (services.FeedbackSnapshot, error) {
	if s.itemAddedFunc == nil {
		return services.FeedbackSnapshot{Phase: services.FeedbackTransit}, nil
	}
	return s.itemAddedFunc(ctx, cmd)
}

func (s *stubFeedbackService) Snapshot(ctx context.Context, sessionID string) services.FeedbackSnapshot {
	if s.snapshotFunc == nil {
		return services.FeedbackSnapshot{Phase: services.FeedbackIdle}
	}
	return s.snapshotFunc(ctx, sessionID)
}

func sessionRequest(method, target string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(requestctx.WithSessionID(req.Context(), "01HV9NXXF9LEBSESSION000001"))
}

func testCartState() domain.CartState {
	return domain.CartState{
		Lines: []domain.CartLine{
			{
				Item: domain.MenuItem{
					ID:         "hummus",
					Name:       "Hummus",
					PriceCents: 650,
					Category:   "mezza",
				},
				Quantity: 2,
			},
		},
	}
}

func TestCartHandlersGetCart(t *testing.T) {
	service := &stubCartService{
		getCartFunc: func(ctx context.Context, sessionID string) (services.CartState, error) {
			require.Equal(t, "01HV9NXXF9LEBSESSION000001", sessionID)
			return testCartState(), nil
		},
	}

	handler := NewCartHandlers(service, nil)
	router := chi.NewRouter()
	router.Route("/cart", handler.Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, sessionRequest(http.MethodGet, "/cart", ""))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp cartResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.False(t, resp.Cart.Empty)
	require.Equal(t, "(2 items)", resp.Cart.CountLabel)
	require.Len(t, resp.Cart.Lines, 1)
	require.Equal(t, "$6.50 each", resp.Cart.Lines[0].UnitPrice)
	require.Equal(t, "= $13.00", resp.Cart.Lines[0].LineTotal)
	require.Equal(t, "$13.00", resp.Cart.Total)
}

func TestCartHandlersGetCartWithoutSession(t *testing.T) {
	handler := NewCartHandlers(&stubCartService{}, nil)
	router := chi.NewRouter()
	router.Route("/cart", handler.Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cart", nil))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "session_required")
}

func TestCartHandlersAddItem(t *testing.T) {
	service := &stubCartService{
		addItemFunc: func(ctx context.Context, cmd services.AddItemCommand) (services.CartState, error) {
			require.Equal(t, "resto-menu", cmd.Page)
			require.Equal(t, "hummus", cmd.ItemID)
			return testCartState(), nil
		},
	}
	feedback := &stubFeedbackService{
		itemAddedFunc: func(ctx context.Context, cmd services.ItemAddedCommand) (services.FeedbackSnapshot, error) {
			require.Equal(t, "Hummus", cmd.ItemName)
			require.Equal(t, "resto-menu/hummus", cmd.SourceRef)
			return services.FeedbackSnapshot{Phase: services.FeedbackTransit, Message: "Added to cart"}, nil
		},
	}

	handler := NewCartHandlers(service, feedback)
	router := chi.NewRouter()
	router.Route("/cart", handler.Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, sessionRequest(http.MethodPost, "/cart/items", `{"page":"resto-menu","itemId":"hummus","sourceRef":"resto-menu/hummus"}`))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp addItemResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "transit", resp.Feedback.Phase)
	require.Equal(t, "Added to cart", resp.Feedback.Message)
	require.Equal(t, 2, resp.Cart.ItemCount)
}

func TestCartHandlersAddItemRejectsEmptyBody(t *testing.T) {
	handler := NewCartHandlers(&stubCartService{}, nil)
	router := chi.NewRouter()
	router.Route("/cart", handler.Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, sessionRequest(http.MethodPost, "/cart/items", ""))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "invalid_request")
}

func TestCartHandlersUpdateQuantity(t *testing.T) {
	service := &stubCartService{
		updateQuantityFunc: func(ctx context.Context, cmd services.UpdateQuantityCommand) (services.CartState, error) {
			require.Equal(t, "hummus", cmd.ItemID)
			require.Equal(t, 3, cmd.Quantity)
			state := testCartState()
			state.Lines[0].Quantity = 3
			return state, nil
		},
	}

	handler := NewCartHandlers(service, nil)
	router := chi.NewRouter()
	router.Route("/cart", handler.Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, sessionRequest(http.MethodPatch, "/cart/items/hummus", `{"quantity":3}`))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp cartResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.Cart.ItemCount)
}

func TestCartHandlersUpdateQuantityUnknownItem(t *testing.T) {
	service := &stubCartService{
		updateQuantityFunc: func(ctx context.Context, cmd services.UpdateQuantityCommand) (services.CartState, error) {
			// Absent lines are a no-op: the service hands back the cart as-is.
			return services.CartState{}, nil
		},
	}

	handler := NewCartHandlers(service, nil)
	router := chi.NewRouter()
	router.Route("/cart", handler.Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, sessionRequest(http.MethodPatch, "/cart/items/ghost", `{"quantity":1}`))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp cartResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Cart.Empty)
}

func TestCartHandlersRemoveItem(t *testing.T) {
	service := &stubCartService{
		removeItemFunc: func(ctx context.Context, cmd services.RemoveItemCommand) (services.CartState, error) {
			require.Equal(t, "hummus", cmd.ItemID)
			return domain.CartState{}, nil
		},
	}

	handler := NewCartHandlers(service, nil)
	router := chi.NewRouter()
	router.Route("/cart", handler.Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, sessionRequest(http.MethodDelete, "/cart/items/hummus", ""))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp cartResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Cart.Empty)
	require.Equal(t, "Your cart is empty", resp.Cart.EmptyMessage)
}

func TestCartHandlersApplyCoupon(t *testing.T) {
	service := &stubCartService{
		applyDiscountFunc: func(ctx context.Context, cmd services.ApplyDiscountCommand) (services.DiscountResult, error) {
			require.Equal(t, "save20", cmd.Code)
			state := testCartState()
			state.DiscountCode = "SAVE20"
			state.DiscountFraction = 0.2
			return services.DiscountResult{
				Status:   services.DiscountApplied,
				Code:     "SAVE20",
				Fraction: 0.2,
				Cart:     state,
			}, nil
		},
	}

	handler := NewCartHandlers(service, nil)
	router := chi.NewRouter()
	router.Route("/cart", handler.Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, sessionRequest(http.MethodPost, "/cart/coupon", `{"code":"save20"}`))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp couponResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Coupon.Applied)
	require.Equal(t, `Coupon "SAVE20" applied! 20% off`, resp.Coupon.Message)
	require.Equal(t, "$10.40", resp.Cart.Total)
	require.Equal(t, "-20%", resp.Cart.DiscountBadge)
}

func TestCartHandlersClearCart(t *testing.T) {
	cleared := false
	service := &stubCartService{
		clearCartFunc: func(ctx context.Context, sessionID string) (services.CartState, error) {
			cleared = true
			return domain.CartState{}, nil
		},
	}

	handler := NewCartHandlers(service, nil)
	router := chi.NewRouter()
	router.Route("/cart", handler.Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, sessionRequest(http.MethodDelete, "/cart", ""))

	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, cleared)
}

func TestCartHandlersServiceUnavailable(t *testing.T) {
	handler := NewCartHandlers(nil, nil)
	router := chi.NewRouter()
	router.Route("/cart", handler.Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, sessionRequest(http.MethodGet, "/cart", ""))

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Contains(t, rr.Body.String(), "cart_service_unavailable")
}
