package pricing

import (
	"math"
	"strconv"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// Totals aggregates the figures shown to the customer for one order. All
// amounts are in minor units.
type Totals struct {
	Subtotal Money
	Discount Money
	Shipping Money
	Tax      Money
	Total    Money
}

// ShippingCents maps the total item quantity of an order to its flat
// shipping fee.
func ShippingCents(qty int) Money {
	switch {
	case qty <= 1:
		return 595
	case qty == 2:
		return 895
	case qty == 3:
		return 1195
	case qty == 4:
		return 1495
	default:
		return 1795
	}
}

// Reconcile derives the pre-discount items subtotal from the figures a
// pricing engine returned, so that
//
//	Total = Subtotal - Discount + Shipping + Tax
//
// holds for what is displayed. The subtotal never goes below zero.
func Reconcile(total, discount, tax, shipping Money) Totals {
	subtotal := total + discount - tax - shipping
	if subtotal < 0 {
		subtotal = 0
	}
	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Shipping: shipping,
		Tax:      tax,
		Total:    total,
	}
}

// ClampPercent bounds a discount percentage to [0,100]. Non-finite input
// yields 0.
func ClampPercent(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// FormatPercent renders a percentage the way the payments API expects it,
// e.g. 10 -> "10", 12.5 -> "12.5".
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
