package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/chezgustave/ordering/internal/models"
)

// Breakdown is one amount seen three ways: without tax (HT), the tax
// itself, and with tax (TTC).
type Breakdown struct {
	Exclusive decimal.Decimal `json:"exclusive"`
	Tax       decimal.Decimal `json:"tax"`
	Inclusive decimal.Decimal `json:"inclusive"`
}

// FromTaxInclusive splits a tax-inclusive amount for the given rate.
// Tax is derived by difference so exclusive + tax always equals the
// rounded inclusive amount.
func FromTaxInclusive(amount, rate decimal.Decimal) Breakdown {
	inclusive := amount.Round(2)
	exclusive := amount.Div(decimal.NewFromInt(1).Add(rate)).Round(2)
	return Breakdown{
		Exclusive: exclusive,
		Tax:       inclusive.Sub(exclusive),
		Inclusive: inclusive,
	}
}

// FromTaxExclusive adds tax at the given rate to a tax-exclusive amount.
func FromTaxExclusive(amount, rate decimal.Decimal) Breakdown {
	exclusive := amount.Round(2)
	tax := amount.Mul(rate).Round(2)
	return Breakdown{
		Exclusive: exclusive,
		Tax:       tax,
		Inclusive: exclusive.Add(tax),
	}
}

// ApplyOrderTotals is the authoritative recompute for an order's derived
// monetary fields. It re-derives every item line total from unit price and
// quantity, decomposes the tax-inclusive sum, recomputes the coupon
// discount (or clamps a manually-set one) and rebuilds the total:
//
//	total = max(Σ lineTotal + deliveryFee − discountAmount, 0)
//
// Stored values are rounded to 2 decimals; calling it twice on an
// unchanged order yields identical results. Both the order orchestrator
// and the item recalculation hook go through here so the formulas can
// never diverge.
func ApplyOrderTotals(order *models.Order, taxRate decimal.Decimal) {
	subtotalWithTax := decimal.Zero
	for i := range order.Items {
		qty := decimal.NewFromInt(int64(order.Items[i].Quantity))
		lineTotal := order.Items[i].UnitPrice.Mul(qty).Round(2)
		order.Items[i].LineTotal = lineTotal
		subtotalWithTax = subtotalWithTax.Add(lineTotal)
	}

	br := FromTaxInclusive(subtotalWithTax, taxRate)
	order.Subtotal = br.Exclusive
	order.TaxAmount = br.Tax

	order.DeliveryFee = order.DeliveryFee.Round(2)
	preDiscount := subtotalWithTax.Add(order.DeliveryFee)

	if order.Coupon != nil {
		order.DiscountAmount = order.Coupon.DiscountFor(preDiscount)
	} else {
		// A manually-set discount survives recomputes but stays inside
		// [0, preDiscount].
		if order.DiscountAmount.IsNegative() {
			order.DiscountAmount = decimal.Zero
		}
		if order.DiscountAmount.GreaterThan(preDiscount) {
			order.DiscountAmount = preDiscount
		}
		order.DiscountAmount = order.DiscountAmount.Round(2)
	}

	total := preDiscount.Sub(order.DiscountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	order.Total = total.Round(2)
}
