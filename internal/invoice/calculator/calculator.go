// Package calculator computes invoice totals.
package calculator

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/flowdesk/internal/invoice/domain"
)

var hundred = decimal.NewFromInt(100)

type Totals struct {
	Subtotal      decimal.Decimal
	TaxTotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	Total         decimal.Decimal
}

// LineAmount is quantity times unit price.
func LineAmount(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice)
}

func Subtotal(items []domain.InvoiceItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(LineAmount(item.Quantity, item.UnitPrice))
	}
	return sum
}

// TaxTotal applies rates in order. A compound rate is charged on the
// subtotal plus every tax charged before it.
func TaxTotal(subtotal decimal.Decimal, rates []domain.TaxRate) decimal.Decimal {
	base := subtotal
	total := decimal.Zero
	for _, rate := range rates {
		tax := base.Mul(rate.Rate).Div(hundred)
		total = total.Add(tax)
		if rate.IsCompound {
			base = base.Add(tax)
		}
	}
	return total
}

func DiscountTotal(subtotal decimal.Decimal, discount *domain.Discount) decimal.Decimal {
	if discount == nil {
		return decimal.Zero
	}
	switch discount.Type {
	case domain.DiscountPercentage:
		return subtotal.Mul(discount.Value).Div(hundred)
	case domain.DiscountFixed:
		return discount.Value
	default:
		return decimal.Zero
	}
}

// Compute returns subtotal, tax, discount and total = subtotal + tax - discount.
func Compute(items []domain.InvoiceItem, rates []domain.TaxRate, discount *domain.Discount) Totals {
	subtotal := Subtotal(items)
	tax := TaxTotal(subtotal, rates)
	disc := DiscountTotal(subtotal, discount)
	return Totals{
		Subtotal:      subtotal,
		TaxTotal:      tax,
		DiscountTotal: disc,
		Total:         subtotal.Add(tax).Sub(disc),
	}
}
