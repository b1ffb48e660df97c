package service

import (
	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/cart"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
)

var minorUnitsPerMajor = decimal.NewFromInt(100)

// OrderTotal represents the pricing breakdown for a checkout.
type OrderTotal struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

// ToMinorUnits converts a major-unit amount (rupees) to minor units (paise),
// rounding half away from zero.
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(minorUnitsPerMajor).Round(0).IntPart()
}

// FromMinorUnits converts paise back to rupees.
func FromMinorUnits(amount int64) float64 {
	f, _ := decimal.NewFromInt(amount).Div(minorUnitsPerMajor).Float64()
	return f
}

// CalculateOrderTotal prices q against the catalog and adds shippingFee when
// the subtotal is non-zero.
func CalculateOrderTotal(q *models.Quantities, catalog []*models.Product, shippingFee float64) OrderTotal {
	subtotal := cart.TotalAmount(q, catalog)
	shipping := cart.ShippingFor(subtotal, shippingFee)
	total, _ := decimal.NewFromFloat(subtotal).Add(decimal.NewFromFloat(shipping)).Round(2).Float64()
	return OrderTotal{Subtotal: subtotal, Shipping: shipping, Total: total}
}

// sameAmount compares two money values at paisa precision.
func sameAmount(a, b float64) bool {
	return decimal.NewFromFloat(a).Round(2).Equal(decimal.NewFromFloat(b).Round(2))
}
