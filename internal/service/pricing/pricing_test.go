package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/chezgustave/ordering/internal/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func testOrder() *models.Order {
	return &models.Order{
		DeliveryMode: models.DeliveryModeDelivery,
		DeliveryFee:  dec("5.00"),
		Items: []models.OrderItem{
			{MenuItemID: 1, Name: "Margherita", UnitPrice: dec("10.00"), Quantity: 2},
			{MenuItemID: 2, Name: "Quattro Stagioni", UnitPrice: dec("15.00"), Quantity: 1},
		},
	}
}

func TestFromTaxInclusive(t *testing.T) {
	br := FromTaxInclusive(dec("35.00"), dec("0.10"))

	require.True(t, br.Exclusive.Equal(dec("31.82")), "exclusive = %s", br.Exclusive)
	require.True(t, br.Tax.Equal(dec("3.18")), "tax = %s", br.Tax)
	require.True(t, br.Inclusive.Equal(dec("35.00")))
	require.True(t, br.Exclusive.Add(br.Tax).Equal(br.Inclusive))
}

func TestFromTaxExclusive(t *testing.T) {
	br := FromTaxExclusive(dec("100.00"), dec("0.20"))

	require.True(t, br.Exclusive.Equal(dec("100.00")))
	require.True(t, br.Tax.Equal(dec("20.00")))
	require.True(t, br.Inclusive.Equal(dec("120.00")))
}

func TestRoundTrip(t *testing.T) {
	tolerance := dec("0.01")
	amounts := []string{"0.01", "9.99", "35.00", "123.45", "1000.00"}
	rates := []string{"0.055", "0.10", "0.20"}

	for _, a := range amounts {
		for _, r := range rates {
			inclusive := FromTaxExclusive(dec(a), dec(r)).Inclusive
			back := FromTaxInclusive(inclusive, dec(r)).Exclusive
			diff := back.Sub(dec(a)).Abs()
			require.True(t, diff.LessThanOrEqual(tolerance),
				"amount %s rate %s: got back %s", a, r, back)
		}
	}
}

func TestApplyOrderTotals_NoCoupon(t *testing.T) {
	order := testOrder()
	ApplyOrderTotals(order, dec("0.10"))

	require.True(t, order.Items[0].LineTotal.Equal(dec("20.00")))
	require.True(t, order.Items[1].LineTotal.Equal(dec("15.00")))
	require.True(t, order.Subtotal.Equal(dec("31.82")), "subtotal = %s", order.Subtotal)
	require.True(t, order.TaxAmount.Equal(dec("3.18")), "tax = %s", order.TaxAmount)
	require.True(t, order.Total.Equal(dec("40.00")), "total = %s", order.Total)

	// subtotal + tax must reassemble the tax-inclusive item sum exactly.
	require.True(t, order.Subtotal.Add(order.TaxAmount).Equal(dec("35.00")))
}

func TestApplyOrderTotals_FixedCoupon(t *testing.T) {
	order := testOrder()
	order.Coupon = &models.Coupon{
		Code:           "FIVE",
		DiscountType:   models.DiscountTypeFixed,
		DiscountValue:  dec("5.00"),
		MinOrderAmount: dec("20.00"),
	}
	ApplyOrderTotals(order, dec("0.10"))

	require.True(t, order.DiscountAmount.Equal(dec("5.00")))
	require.True(t, order.Total.Equal(dec("35.00")), "total = %s", order.Total)
}

func TestApplyOrderTotals_PercentageCouponCapped(t *testing.T) {
	order := testOrder()
	order.Coupon = &models.Coupon{
		Code:          "TEN",
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: dec("10"),
		MaxDiscount:   decPtr("3.00"),
	}
	ApplyOrderTotals(order, dec("0.10"))

	// 10% of 40.00 is 4.00, capped to 3.00.
	require.True(t, order.DiscountAmount.Equal(dec("3.00")), "discount = %s", order.DiscountAmount)
	require.True(t, order.Total.Equal(dec("37.00")), "total = %s", order.Total)
}

func TestApplyOrderTotals_PercentageOverHundredClamped(t *testing.T) {
	order := testOrder()
	order.Coupon = &models.Coupon{
		Code:          "MEGA",
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: dec("150"),
	}
	ApplyOrderTotals(order, dec("0.10"))

	// 150% of 40.00 would be 60.00; the discount can never exceed the
	// pre-discount amount (items + fee).
	preDiscount := order.DeliveryFee
	for _, it := range order.Items {
		preDiscount = preDiscount.Add(it.LineTotal)
	}
	require.True(t, order.DiscountAmount.Equal(dec("40.00")), "discount = %s", order.DiscountAmount)
	require.True(t, order.DiscountAmount.LessThanOrEqual(preDiscount))
	require.True(t, order.Total.IsZero())
}

func TestApplyOrderTotals_ManualDiscountClamped(t *testing.T) {
	order := testOrder()
	order.DiscountAmount = dec("100.00")
	ApplyOrderTotals(order, dec("0.10"))

	require.True(t, order.DiscountAmount.Equal(dec("40.00")))
	require.True(t, order.Total.Equal(dec("0.00")))

	order.DiscountAmount = dec("-3.00")
	ApplyOrderTotals(order, dec("0.10"))
	require.True(t, order.DiscountAmount.IsZero())
	require.True(t, order.Total.Equal(dec("40.00")))
}

func TestApplyOrderTotals_RederivesStoredLineTotals(t *testing.T) {
	order := testOrder()
	order.Items[0].LineTotal = dec("999.99") // stale stored value, never trusted
	ApplyOrderTotals(order, dec("0.10"))

	require.True(t, order.Items[0].LineTotal.Equal(dec("20.00")))
	require.True(t, order.Total.Equal(dec("40.00")))
}

func TestApplyOrderTotals_Idempotent(t *testing.T) {
	order := testOrder()
	order.Coupon = &models.Coupon{
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: dec("10"),
		MaxDiscount:   decPtr("3.00"),
	}

	ApplyOrderTotals(order, dec("0.10"))
	first := []string{
		order.Subtotal.StringFixed(2),
		order.TaxAmount.StringFixed(2),
		order.DiscountAmount.StringFixed(2),
		order.Total.StringFixed(2),
	}

	ApplyOrderTotals(order, dec("0.10"))
	second := []string{
		order.Subtotal.StringFixed(2),
		order.TaxAmount.StringFixed(2),
		order.DiscountAmount.StringFixed(2),
		order.Total.StringFixed(2),
	}

	require.Equal(t, first, second)
}

func TestApplyOrderTotals_SubtotalPlusTaxInvariant(t *testing.T) {
	tolerance := dec("0.01")
	for _, rate := range []string{"0.055", "0.10", "0.196", "0.20"} {
		order := testOrder()
		ApplyOrderTotals(order, dec(rate))

		sum := decimal.Zero
		for _, it := range order.Items {
			sum = sum.Add(it.LineTotal)
		}
		diff := order.Subtotal.Add(order.TaxAmount).Sub(sum).Abs()
		require.True(t, diff.LessThanOrEqual(tolerance), "rate %s: drift %s", rate, diff)
	}
}
