package services

import (
	"context"

	domain "github.com/cedarhouse/menu-api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Category          = domain.Category
	MenuItem          = domain.MenuItem
	Catalog           = domain.Catalog
	CartLine          = domain.CartLine
	CartState         = domain.CartState
	NavigationRequest = domain.NavigationRequest
	SectionHeader     = domain.SectionHeader
	MenuView          = domain.MenuView
	ExpandedItemView  = domain.ExpandedItemView
	ContactSubmission = domain.ContactSubmission
	ContactReceipt    = domain.ContactReceipt
)

// MenuService drives the category filter state for each browsing session.
type MenuService interface {
	View(ctx context.Context, cmd ViewMenuCommand) (MenuView, error)
	SelectFilter(ctx context.Context, cmd SelectFilterCommand) (FilterResult, error)
	ShowAll(ctx context.Context, cmd ViewMenuCommand) (MenuView, error)
}

// ViewMenuCommand identifies the menu page and browsing session to render.
type ViewMenuCommand struct {
	SessionID string
	Page      string
}

// SelectFilterCommand requests a category selection on a menu page.
type SelectFilterCommand struct {
	SessionID  string
	Page       string
	CategoryID string
}

// FilterResult carries either the filtered view or a navigation request when
// the selected category redirects to another page.
type FilterResult struct {
	View     MenuView
	Redirect *NavigationRequest
}

// CartService manages per-session cart state, its persistence, and discounts.
type CartService interface {
	GetCart(ctx context.Context, sessionID string) (CartState, error)
	AddItem(ctx context.Context, cmd AddItemCommand) (CartState, error)
	UpdateQuantity(ctx context.Context, cmd UpdateQuantityCommand) (CartState, error)
	RemoveItem(ctx context.Context, cmd RemoveItemCommand) (CartState, error)
	ApplyDiscount(ctx context.Context, cmd ApplyDiscountCommand) (DiscountResult, error)
	ClearCart(ctx context.Context, sessionID string) (CartState, error)
}

// AddItemCommand adds one unit of a menu item to the session cart.
type AddItemCommand struct {
	SessionID string
	Page      string
	ItemID    string
}

// UpdateQuantityCommand sets the quantity of an existing cart line. A
// quantity of zero removes the line.
type UpdateQuantityCommand struct {
	SessionID string
	ItemID    string
	Quantity  int
}

// RemoveItemCommand removes a cart line regardless of quantity.
type RemoveItemCommand struct {
	SessionID string
	ItemID    string
}

// ApplyDiscountCommand submits a coupon code for the session cart.
type ApplyDiscountCommand struct {
	SessionID string
	Code      string
}

// DiscountStatus describes the outcome of a coupon submission.
type DiscountStatus string

// Discount statuses.
const (
	DiscountApplied     DiscountStatus = "applied"
	DiscountMissingCode DiscountStatus = "missing_code"
	DiscountInvalidCode DiscountStatus = "invalid_code"
)

// DiscountResult reports the coupon outcome together with the resulting cart.
type DiscountResult struct {
	Status   DiscountStatus
	Code     string
	Fraction float64
	Cart     CartState
}

// DetailService tracks the expanded quick-view item for each session.
type DetailService interface {
	Expand(ctx context.Context, cmd ExpandItemCommand) (ExpandedItemView, error)
	Collapse(ctx context.Context, sessionID string) error
	Current(ctx context.Context, sessionID string) (ExpandedItemView, bool)
}

// ExpandItemCommand opens the quick view for a menu item.
type ExpandItemCommand struct {
	SessionID string
	Page      string
	ItemID    string
}

// FeedbackPhase identifies a stage of the add-to-cart feedback sequence.
type FeedbackPhase string

// Feedback phases, in order of progression.
const (
	FeedbackIdle    FeedbackPhase = "idle"
	FeedbackTransit FeedbackPhase = "transit"
	FeedbackBounce  FeedbackPhase = "bounce"
	FeedbackToast   FeedbackPhase = "toast"
	FeedbackExiting FeedbackPhase = "exiting"
)

// FeedbackSnapshot reports the current phase of a session's feedback sequence.
type FeedbackSnapshot struct {
	Phase   FeedbackPhase
	Message string
}

// FeedbackService sequences the visual add-to-cart confirmation for each session.
type FeedbackService interface {
	ItemAdded(ctx context.Context, cmd ItemAddedCommand) (FeedbackSnapshot, error)
	Snapshot(ctx context.Context, sessionID string) FeedbackSnapshot
}

// ItemAddedCommand starts (or restarts) the feedback sequence for a session.
// SourceRef identifies the card the add originated from; when empty the
// sequence skips the transit and bounce phases and goes straight to the toast.
type ItemAddedCommand struct {
	SessionID string
	ItemName  string
	SourceRef string
}

// ContactService accepts contact form submissions.
type ContactService interface {
	Submit(ctx context.Context, submission ContactSubmission) (ContactReceipt, error)
}
