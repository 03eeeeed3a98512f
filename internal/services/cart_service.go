package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	domain "github.com/cedarhouse/menu-api/internal/domain"
	"github.com/cedarhouse/menu-api/internal/repositories"
)

var (
	errCartRepositoryRequired = errors.New("cart service: repository is required")
	errCartCatalogRequired    = errors.New("cart service: catalog is required")
	errCartClockRequired      = errors.New("cart service: clock is required")
)

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// ErrCartUnavailable indicates the cart service cannot fulfil the request due to backend issues.
var ErrCartUnavailable = errors.New("cart service: unavailable")

type pageProvider interface {
	Page(page string) (domain.Catalog, error)
}

// CartServiceDeps wires the repository, catalog, and discount table for cart operations.
type CartServiceDeps struct {
	Repository repositories.CartRepository
	Catalog    pageProvider
	Discounts  map[string]float64
	Clock      func() time.Time
	Logger     func(context.Context, string, map[string]any)
}

// storedLine is the wire form of a cart line. The full item snapshot is
// persisted so the cart stays renderable even when the catalog changes.
type storedLine struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PriceCents  int64  `json:"priceCents"`
	Category    string `json:"category,omitempty"`
	Ingredients string `json:"ingredients,omitempty"`
	Image       string `json:"image,omitempty"`
	Quantity    int    `json:"quantity"`
}

type sessionDiscount struct {
	code     string
	fraction float64
}

type cartService struct {
	repo      repositories.CartRepository
	catalog   pageProvider
	discounts map[string]float64
	now       func() time.Time
	logger    func(context.Context, string, map[string]any)

	// Applied discounts live in process memory only. A session that comes
	// back after a restart keeps its cart but re-enters its coupon.
	mu      sync.Mutex
	applied map[string]sessionDiscount
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Repository == nil {
		return nil, errCartRepositoryRequired
	}
	if deps.Catalog == nil {
		return nil, errCartCatalogRequired
	}
	if deps.Clock == nil {
		return nil, errCartClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	discounts := make(map[string]float64, len(deps.Discounts))
	for code, fraction := range deps.Discounts {
		normalised := strings.ToUpper(strings.TrimSpace(code))
		if normalised == "" || fraction <= 0 || fraction > 1 {
			continue
		}
		discounts[normalised] = fraction
	}

	service := &cartService{
		repo:      deps.Repository,
		catalog:   deps.Catalog,
		discounts: discounts,
		now:       func() time.Time { return deps.Clock().UTC() },
		logger:    logger,
		applied:   make(map[string]sessionDiscount),
	}
	return service, nil
}

// GetCart loads the session cart, returning an empty cart when none is stored.
func (s *cartService) GetCart(ctx context.Context, sessionID string) (CartState, error) {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return CartState{}, ErrCartInvalidInput
	}
	return s.load(ctx, sid)
}

// AddItem appends one unit of the menu item to the session cart, bumping the
// quantity when the line already exists.
func (s *cartService) AddItem(ctx context.Context, cmd AddItemCommand) (CartState, error) {
	sid := strings.TrimSpace(cmd.SessionID)
	itemID := strings.TrimSpace(cmd.ItemID)
	if sid == "" || itemID == "" {
		return CartState{}, ErrCartInvalidInput
	}

	page, err := s.catalog.Page(strings.TrimSpace(cmd.Page))
	if err != nil {
		return CartState{}, fmt.Errorf("%w: unknown page %q", ErrCartInvalidInput, cmd.Page)
	}
	item, ok := page.ItemByID(itemID)
	if !ok {
		return CartState{}, fmt.Errorf("%w: unknown item %q", ErrCartInvalidInput, itemID)
	}
	if !item.Purchasable() {
		return CartState{}, fmt.Errorf("%w: item %q cannot be added to the cart", ErrCartInvalidInput, itemID)
	}

	cart, err := s.load(ctx, sid)
	if err != nil {
		return CartState{}, err
	}

	if idx := cart.LineIndex(itemID); idx >= 0 {
		cart.Lines[idx].Quantity++
	} else {
		cart.Lines = append(cart.Lines, CartLine{Item: item, Quantity: 1})
	}

	return s.save(ctx, cart)
}

// UpdateQuantity sets the quantity of an existing line. Zero removes the line.
func (s *cartService) UpdateQuantity(ctx context.Context, cmd UpdateQuantityCommand) (CartState, error) {
	sid := strings.TrimSpace(cmd.SessionID)
	itemID := strings.TrimSpace(cmd.ItemID)
	if sid == "" || itemID == "" || cmd.Quantity < 0 {
		return CartState{}, ErrCartInvalidInput
	}

	cart, err := s.load(ctx, sid)
	if err != nil {
		return CartState{}, err
	}

	idx := cart.LineIndex(itemID)
	if idx < 0 {
		// Adjusting a line that is not there is a no-op, not an error.
		return cart, nil
	}

	if cmd.Quantity == 0 {
		cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
	} else {
		cart.Lines[idx].Quantity = cmd.Quantity
	}

	return s.save(ctx, cart)
}

// RemoveItem drops a line from the cart regardless of its quantity.
func (s *cartService) RemoveItem(ctx context.Context, cmd RemoveItemCommand) (CartState, error) {
	sid := strings.TrimSpace(cmd.SessionID)
	itemID := strings.TrimSpace(cmd.ItemID)
	if sid == "" || itemID == "" {
		return CartState{}, ErrCartInvalidInput
	}

	cart, err := s.load(ctx, sid)
	if err != nil {
		return CartState{}, err
	}

	idx := cart.LineIndex(itemID)
	if idx < 0 {
		return cart, nil
	}
	cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)

	return s.save(ctx, cart)
}

// ApplyDiscount validates the coupon code and, when known, records it for the
// session. Unknown and empty codes report their status without touching the cart.
func (s *cartService) ApplyDiscount(ctx context.Context, cmd ApplyDiscountCommand) (DiscountResult, error) {
	sid := strings.TrimSpace(cmd.SessionID)
	if sid == "" {
		return DiscountResult{}, ErrCartInvalidInput
	}

	cart, err := s.load(ctx, sid)
	if err != nil {
		return DiscountResult{}, err
	}

	code := strings.ToUpper(strings.TrimSpace(cmd.Code))
	if code == "" {
		return DiscountResult{Status: DiscountMissingCode, Cart: cart}, nil
	}

	fraction, ok := s.discounts[code]
	if !ok {
		return DiscountResult{Status: DiscountInvalidCode, Code: code, Cart: cart}, nil
	}

	s.mu.Lock()
	s.applied[sid] = sessionDiscount{code: code, fraction: fraction}
	s.mu.Unlock()

	cart.DiscountCode = code
	cart.DiscountFraction = fraction

	s.logger(ctx, "cart.discount_applied", map[string]any{
		"code":     code,
		"fraction": fraction,
	})

	return DiscountResult{Status: DiscountApplied, Code: code, Fraction: fraction, Cart: cart}, nil
}

// ClearCart removes every line and forgets the applied discount.
func (s *cartService) ClearCart(ctx context.Context, sessionID string) (CartState, error) {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return CartState{}, ErrCartInvalidInput
	}

	if err := s.repo.Delete(ctx, sid); err != nil && !repositories.IsNotFound(err) {
		return CartState{}, s.translateRepoError(err)
	}

	s.mu.Lock()
	delete(s.applied, sid)
	s.mu.Unlock()

	return CartState{SessionID: sid, UpdatedAt: s.now()}, nil
}

func (s *cartService) load(ctx context.Context, sessionID string) (CartState, error) {
	cart := CartState{SessionID: sessionID}

	payload, err := s.repo.Load(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return s.withDiscount(cart), nil
		}
		return CartState{}, s.translateRepoError(err)
	}

	var stored []storedLine
	if err := json.Unmarshal(payload, &stored); err != nil {
		// A corrupt payload resets the cart rather than wedging the session.
		s.logger(ctx, "cart.payload_corrupt", map[string]any{
			"error": err.Error(),
		})
		return s.withDiscount(cart), nil
	}

	lines := make([]CartLine, 0, len(stored))
	for _, line := range stored {
		if strings.TrimSpace(line.ID) == "" || line.Quantity <= 0 {
			continue
		}
		lines = append(lines, CartLine{
			Item: MenuItem{
				ID:          line.ID,
				Name:        line.Name,
				PriceCents:  line.PriceCents,
				Category:    line.Category,
				Ingredients: line.Ingredients,
				Image:       line.Image,
			},
			Quantity: line.Quantity,
		})
	}
	cart.Lines = lines

	return s.withDiscount(cart), nil
}

func (s *cartService) save(ctx context.Context, cart CartState) (CartState, error) {
	stored := make([]storedLine, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		if line.Quantity <= 0 {
			continue
		}
		stored = append(stored, storedLine{
			ID:          line.Item.ID,
			Name:        line.Item.Name,
			PriceCents:  line.Item.PriceCents,
			Category:    line.Item.Category,
			Ingredients: line.Item.Ingredients,
			Image:       line.Item.Image,
			Quantity:    line.Quantity,
		})
	}

	payload, err := json.Marshal(stored)
	if err != nil {
		return CartState{}, fmt.Errorf("cart service: encode cart: %w", err)
	}
	if err := s.repo.Save(ctx, cart.SessionID, payload); err != nil {
		return CartState{}, s.translateRepoError(err)
	}

	cart.UpdatedAt = s.now()
	return s.withDiscount(cart), nil
}

func (s *cartService) withDiscount(cart CartState) CartState {
	s.mu.Lock()
	discount, ok := s.applied[cart.SessionID]
	s.mu.Unlock()
	if ok {
		cart.DiscountCode = discount.code
		cart.DiscountFraction = discount.fraction
	}
	return cart
}

// translateRepoError maps storage failures onto service errors. Missing
// carts are handled before this point, so anything left is an outage.
func (s *cartService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
}
