// Package pricing derives cart and checkout totals from line items.
package pricing

import (
	"math"

	"github.com/shopspring/decimal"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

// DefaultTaxRate is the single GST rate applied to every order.
const DefaultTaxRate = 0.18

type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Shipping float64 `json:"shipping"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

type Calculator struct {
	TaxRate float64
}

func NewCalculator(taxRate float64) Calculator {
	return Calculator{TaxRate: taxRate}
}

// ComputeTotals uses DefaultTaxRate.
func ComputeTotals(items []models.CartLineItem, discount float64) Totals {
	return Calculator{TaxRate: DefaultTaxRate}.Compute(items, discount)
}

// Compute never fails: unusable prices count as 0, shipping is always free and the
// total is clamped at 0 when the discount exceeds subtotal plus tax. Amounts are
// rounded to 2 decimal places.
func (c Calculator) Compute(items []models.CartLineItem, discount float64) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		subtotal = subtotal.Add(amount(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	tax := subtotal.Mul(amount(c.TaxRate))
	shipping := decimal.Zero
	off := amount(discount)
	if off.IsNegative() {
		off = decimal.Zero
	}

	total := subtotal.Add(tax).Add(shipping).Sub(off)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal: money(subtotal),
		Tax:      money(tax),
		Shipping: money(shipping),
		Discount: money(off),
		Total:    money(total),
	}
}

func amount(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
