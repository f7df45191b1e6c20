package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/flowdesk/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func item(qty, price string) domain.InvoiceItem {
	return domain.InvoiceItem{Description: "Test Item", Quantity: d(qty), UnitPrice: d(price)}
}

func TestSubtotal(t *testing.T) {
	got := Subtotal([]domain.InvoiceItem{item("2", "50.00"), item("1", "100.00")})
	assert.True(t, got.Equal(d("200")), got.String())
}

func TestTaxTotal(t *testing.T) {
	got := TaxTotal(d("200"), []domain.TaxRate{{Name: "GST", Rate: d("18")}})
	assert.True(t, got.Equal(d("36")), got.String())
}

func TestTaxTotal_CompoundStacks(t *testing.T) {
	rates := []domain.TaxRate{
		{Name: "State", Rate: d("10"), IsCompound: true},
		{Name: "City", Rate: d("10")},
	}
	// 10% of 100, then 10% of 110.
	got := TaxTotal(d("100"), rates)
	assert.True(t, got.Equal(d("21")), got.String())
}

func TestDiscountTotal(t *testing.T) {
	assert.True(t, DiscountTotal(d("200"), &domain.Discount{Type: domain.DiscountPercentage, Value: d("10")}).Equal(d("20")))
	assert.True(t, DiscountTotal(d("200"), &domain.Discount{Type: domain.DiscountFixed, Value: d("5")}).Equal(d("5")))
	assert.True(t, DiscountTotal(d("200"), nil).IsZero())
}

func TestCompute(t *testing.T) {
	totals := Compute(
		[]domain.InvoiceItem{item("2", "100.00")},
		[]domain.TaxRate{{Name: "Tax", Rate: d("10")}},
		&domain.Discount{Type: domain.DiscountFixed, Value: d("5.00")},
	)
	assert.True(t, totals.Subtotal.Equal(d("200")))
	assert.True(t, totals.TaxTotal.Equal(d("20")))
	assert.True(t, totals.DiscountTotal.Equal(d("5")))
	assert.True(t, totals.Total.Equal(d("215")))
}
