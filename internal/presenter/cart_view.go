// Package presenter builds render-ready view models from domain state.
package presenter

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	domain "github.com/cedarhouse/menu-api/internal/domain"
	"github.com/cedarhouse/menu-api/internal/services"
)

const emptyCartMessage = "Your cart is empty"

var pricePrinter = message.NewPrinter(language.AmericanEnglish)

// CartLineView is one rendered cart line.
type CartLineView struct {
	ItemID      string `json:"itemId"`
	Name        string `json:"name"`
	Image       string `json:"image,omitempty"`
	Ingredients string `json:"ingredients,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	// LineTotal is only shown when more than one unit is in the line.
	LineTotal string `json:"lineTotal,omitempty"`
}

// CartView is the rendered cart sidebar.
type CartView struct {
	Lines         []CartLineView `json:"lines"`
	Empty         bool           `json:"empty"`
	EmptyMessage  string         `json:"emptyMessage,omitempty"`
	ItemCount     int            `json:"itemCount"`
	CountLabel    string         `json:"countLabel,omitempty"`
	Subtotal      string         `json:"subtotal"`
	Total         string         `json:"total"`
	DiscountCode  string         `json:"discountCode,omitempty"`
	DiscountBadge string         `json:"discountBadge,omitempty"`
}

// CouponView is the rendered outcome of a coupon submission.
type CouponView struct {
	Applied bool   `json:"applied"`
	Message string `json:"message"`
}

// FormatPrice renders an integer cent amount as a dollar string.
func FormatPrice(cents int64) string {
	value := float64(cents) / 100
	return pricePrinter.Sprintf("$%v", number.Decimal(value,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}

// BuildCartView projects the cart state into its rendered form.
func BuildCartView(cart domain.CartState) CartView {
	view := CartView{
		ItemCount: cart.ItemCount(),
		Subtotal:  FormatPrice(cart.Subtotal()),
		Total:     FormatPrice(cart.DiscountedTotal()),
	}

	if view.ItemCount > 0 {
		unit := "items"
		if view.ItemCount == 1 {
			unit = "item"
		}
		view.CountLabel = fmt.Sprintf("(%d %s)", view.ItemCount, unit)
	}

	if cart.IsEmpty() {
		view.Empty = true
		view.EmptyMessage = emptyCartMessage
		view.Lines = []CartLineView{}
		return view
	}

	view.Lines = make([]CartLineView, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		lineView := CartLineView{
			ItemID:      line.Item.ID,
			Name:        line.Item.Name,
			Image:       line.Item.Image,
			Ingredients: line.Item.Ingredients,
			Quantity:    line.Quantity,
			UnitPrice:   FormatPrice(line.Item.PriceCents) + " each",
		}
		if line.Quantity > 1 {
			lineView.LineTotal = "= " + FormatPrice(line.Total())
		}
		view.Lines = append(view.Lines, lineView)
	}

	if cart.DiscountFraction > 0 {
		view.DiscountCode = cart.DiscountCode
		view.DiscountBadge = fmt.Sprintf("-%.0f%%", cart.DiscountFraction*100)
	}

	return view
}

// BuildCouponView renders the coupon submission outcome.
func BuildCouponView(result services.DiscountResult) CouponView {
	switch result.Status {
	case services.DiscountApplied:
		return CouponView{
			Applied: true,
			Message: fmt.Sprintf("Coupon %q applied! %.0f%% off", result.Code, result.Fraction*100),
		}
	case services.DiscountMissingCode:
		return CouponView{Message: "Please enter a coupon code"}
	default:
		return CouponView{Message: "Invalid coupon code"}
	}
}
