package domain

import (
	"time"
)

// FilterAll is the sentinel selection meaning "no category filter".
const FilterAll = "all"

// Category describes one menu section. Ordering within a Catalog is display order.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// MenuItem is a single entry on a menu page. Items flagged as notes or headers
// are informational and never enter the cart or the detail view.
type MenuItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PriceCents  int64  `json:"priceCents"`
	Category    string `json:"category"`
	Ingredients string `json:"ingredients,omitempty"`
	Image       string `json:"image,omitempty"`
	IsNote      bool   `json:"isNote,omitempty"`
	IsHeader    bool   `json:"isHeader,omitempty"`
}

// Purchasable reports whether the item may be added to a cart or expanded.
func (m MenuItem) Purchasable() bool {
	return !m.IsNote && !m.IsHeader && m.PriceCents >= 0
}

// Catalog is the static set of categories and items for one menu page,
// supplied externally. Redirects maps category ids to navigation targets:
// selecting such a category navigates away instead of filtering locally.
type Catalog struct {
	Page       string            `json:"page"`
	Categories []Category        `json:"categories"`
	Items      []MenuItem        `json:"items"`
	Redirects  map[string]string `json:"redirects,omitempty"`
}

// CategoryByID resolves a category from the catalog, preserving lookup misses
// as ok=false rather than errors.
func (c Catalog) CategoryByID(id string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

// ItemByID resolves an item from the catalog.
func (c Catalog) ItemByID(id string) (MenuItem, bool) {
	for _, item := range c.Items {
		if item.ID == id {
			return item, true
		}
	}
	return MenuItem{}, false
}

// CartLine is one cart entry: a snapshot of the item taken at add time plus a
// quantity. Lines with quantity below one are never persisted or rendered.
type CartLine struct {
	Item     MenuItem `json:"item"`
	Quantity int      `json:"quantity"`
}

// Total returns the line subtotal in cents.
func (l CartLine) Total() int64 {
	return l.Item.PriceCents * int64(l.Quantity)
}

// CartState aggregates the cart owned by one session. Lines keep insertion
// order with at most one line per item id. The discount is process-local
// state: it is never persisted and resets with the session (intentional,
// mirroring the site it replaces).
type CartState struct {
	SessionID        string
	Lines            []CartLine
	DiscountFraction float64
	DiscountCode     string
	UpdatedAt        time.Time
}

// Subtotal returns the undiscounted total in cents across all lines.
func (c CartState) Subtotal() int64 {
	var total int64
	for _, line := range c.Lines {
		total += line.Total()
	}
	return total
}

// DiscountedTotal applies the active discount fraction to the subtotal,
// rounding half away from zero on the cent.
func (c CartState) DiscountedTotal() int64 {
	total := c.Subtotal()
	if c.DiscountFraction <= 0 {
		return total
	}
	discounted := float64(total) * (1 - c.DiscountFraction)
	return int64(discounted + 0.5)
}

// ItemCount returns the sum of line quantities, used for the badge display.
func (c CartState) ItemCount() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// IsEmpty reports whether the cart holds no lines.
func (c CartState) IsEmpty() bool {
	return len(c.Lines) == 0
}

// LineIndex locates the line for the given item id, or -1.
func (c CartState) LineIndex(itemID string) int {
	for i, line := range c.Lines {
		if line.Item.ID == itemID {
			return i
		}
	}
	return -1
}

// NavigationRequest signals that a selection must redirect the client to a
// different menu page instead of filtering locally.
type NavigationRequest struct {
	CategoryID string `json:"categoryId"`
	Target     string `json:"target"`
}

// SectionHeader is a synthesized heading rendered before a category's items.
type SectionHeader struct {
	CategoryID string `json:"categoryId"`
	Title      string `json:"title"`
}

// MenuView is the computed projection of a catalog under an active filter
// selection: the visible items in catalog order, the section headers for
// every category present in the result, and the grouped form used by
// consistent rendering.
type MenuView struct {
	Page      string                `json:"page"`
	Selection string                `json:"selection"`
	Headers   []SectionHeader       `json:"headers"`
	Items     []MenuItem            `json:"items"`
	Groups    map[string][]MenuItem `json:"groups"`
	GroupIDs  []string              `json:"groupIds"`
}

// ExpandedItemView is the detail projection of a single purchasable item,
// tracking which item is expanded and which source card is dimmed.
type ExpandedItemView struct {
	Item        MenuItem  `json:"item"`
	SourceRef   string    `json:"sourceRef,omitempty"`
	PriceText   string    `json:"priceText"`
	Ingredients string    `json:"ingredients,omitempty"`
	ExpandedAt  time.Time `json:"expandedAt"`
}

// ContactSubmission carries the fields of the contact form.
type ContactSubmission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message"`
}

// ContactReceipt acknowledges an accepted submission.
type ContactReceipt struct {
	ID         string    `json:"id"`
	ReceivedAt time.Time `json:"receivedAt"`
}
