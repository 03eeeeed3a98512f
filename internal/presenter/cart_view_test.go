package presenter

import (
	"testing"

	domain "github.com/cedarhouse/menu-api/internal/domain"
	"github.com/cedarhouse/menu-api/internal/services"
)

func TestFormatPrice(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{650, "$6.50"},
		{1450, "$14.50"},
		{123450, "$1,234.50"},
	}
	for _, tc := range cases {
		if got := FormatPrice(tc.cents); got != tc.want {
			t.Errorf("FormatPrice(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestBuildCartViewEmpty(t *testing.T) {
	view := BuildCartView(domain.CartState{SessionID: "s1"})

	if !view.Empty {
		t.Fatal("expected empty cart view")
	}
	if view.EmptyMessage != "Your cart is empty" {
		t.Errorf("unexpected empty message %q", view.EmptyMessage)
	}
	if view.Total != "$0.00" {
		t.Errorf("unexpected total %q", view.Total)
	}
	if view.CountLabel != "" {
		t.Errorf("expected no count label, got %q", view.CountLabel)
	}
}

func TestBuildCartViewLines(t *testing.T) {
	cart := domain.CartState{
		SessionID: "s1",
		Lines: []domain.CartLine{
			{Item: domain.MenuItem{ID: "hummus", Name: "Hummus", PriceCents: 650}, Quantity: 1},
			{Item: domain.MenuItem{ID: "taouk", Name: "Shish Taouk", PriceCents: 1450}, Quantity: 3},
		},
	}

	view := BuildCartView(cart)

	if view.Empty {
		t.Fatal("expected non-empty view")
	}
	if view.ItemCount != 4 || view.CountLabel != "(4 items)" {
		t.Errorf("unexpected count %d label %q", view.ItemCount, view.CountLabel)
	}
	if len(view.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(view.Lines))
	}
	if view.Lines[0].UnitPrice != "$6.50 each" {
		t.Errorf("unexpected unit price %q", view.Lines[0].UnitPrice)
	}
	if view.Lines[0].LineTotal != "" {
		t.Errorf("expected no line total for single unit, got %q", view.Lines[0].LineTotal)
	}
	if view.Lines[1].LineTotal != "= $43.50" {
		t.Errorf("unexpected line total %q", view.Lines[1].LineTotal)
	}
	if view.Subtotal != "$50.00" || view.Total != "$50.00" {
		t.Errorf("unexpected totals %q / %q", view.Subtotal, view.Total)
	}
}

func TestBuildCartViewSingleItemLabel(t *testing.T) {
	cart := domain.CartState{
		Lines: []domain.CartLine{
			{Item: domain.MenuItem{ID: "hummus", Name: "Hummus", PriceCents: 650}, Quantity: 1},
		},
	}

	if view := BuildCartView(cart); view.CountLabel != "(1 item)" {
		t.Errorf("unexpected count label %q", view.CountLabel)
	}
}

func TestBuildCartViewWithDiscount(t *testing.T) {
	cart := domain.CartState{
		Lines: []domain.CartLine{
			{Item: domain.MenuItem{ID: "taouk", Name: "Shish Taouk", PriceCents: 1450}, Quantity: 1},
		},
		DiscountCode:     "SAVE20",
		DiscountFraction: 0.2,
	}

	view := BuildCartView(cart)

	if view.Subtotal != "$14.50" {
		t.Errorf("unexpected subtotal %q", view.Subtotal)
	}
	if view.Total != "$11.60" {
		t.Errorf("unexpected discounted total %q", view.Total)
	}
	if view.DiscountBadge != "-20%" || view.DiscountCode != "SAVE20" {
		t.Errorf("unexpected discount %q %q", view.DiscountCode, view.DiscountBadge)
	}
}

func TestBuildCouponView(t *testing.T) {
	applied := BuildCouponView(services.DiscountResult{
		Status:   services.DiscountApplied,
		Code:     "SAVE20",
		Fraction: 0.2,
	})
	if !applied.Applied || applied.Message != `Coupon "SAVE20" applied! 20% off` {
		t.Errorf("unexpected applied view %+v", applied)
	}

	missing := BuildCouponView(services.DiscountResult{Status: services.DiscountMissingCode})
	if missing.Applied || missing.Message != "Please enter a coupon code" {
		t.Errorf("unexpected missing view %+v", missing)
	}

	invalid := BuildCouponView(services.DiscountResult{Status: services.DiscountInvalidCode, Code: "NOPE"})
	if invalid.Applied || invalid.Message != "Invalid coupon code" {
		t.Errorf("unexpected invalid view %+v", invalid)
	}
}
