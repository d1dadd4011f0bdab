package fulfillment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/chezgustave/ordering/internal/addresscheck"
	"github.com/chezgustave/ordering/internal/models"
	"github.com/chezgustave/ordering/internal/transport"
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

type stubChecker struct {
	ok     bool
	reason string
}

func (s *stubChecker) Check(context.Context, string, string) (bool, string, error) {
	return s.ok, s.reason, nil
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry(&Delivery{Checker: &stubChecker{ok: true}}, &Pickup{})

	sel, err := r.For(models.DeliveryModeDelivery)
	require.NoError(t, err)
	require.Equal(t, models.DeliveryModeDelivery, sel.Mode())

	_, err = r.For(models.DeliveryMode("drone"))
	require.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestDeliveryRequiresAddress(t *testing.T) {
	d := &Delivery{Checker: &stubChecker{ok: true}, DefaultFee: dec("5.00")}
	var order models.Order

	err := d.ValidateAndPopulate(context.Background(), &order, transport.CreateOrderRequest{
		DeliveryAddress: "   ",
	})
	require.ErrorIs(t, err, ErrAddressRequired)
}

func TestDeliveryRejectedAddress(t *testing.T) {
	d := &Delivery{
		Checker:    &stubChecker{ok: false, reason: "address outside the delivery area"},
		DefaultFee: dec("5.00"),
	}
	var order models.Order

	err := d.ValidateAndPopulate(context.Background(), &order, transport.CreateOrderRequest{
		DeliveryAddress: "1 rue Lointaine",
		DeliveryZip:     "99999",
	})
	require.ErrorIs(t, err, ErrAddressRejected)
	require.Contains(t, err.Error(), "outside the delivery area")
}

func TestDeliveryDefaultFee(t *testing.T) {
	d := &Delivery{Checker: &stubChecker{ok: true}, DefaultFee: dec("5.00")}
	var order models.Order

	err := d.ValidateAndPopulate(context.Background(), &order, transport.CreateOrderRequest{
		DeliveryAddress:      "  12 rue de la Paix  ",
		DeliveryZip:          "75002",
		DeliveryInstructions: "3rd floor",
	})
	require.NoError(t, err)
	require.Equal(t, "12 rue de la Paix", order.DeliveryAddress)
	require.Equal(t, "75002", order.DeliveryZip)
	require.Equal(t, "3rd floor", order.DeliveryInstructions)
	require.True(t, order.DeliveryFee.Equal(dec("5.00")))
}

func TestDeliveryRequestFeeWins(t *testing.T) {
	d := &Delivery{Checker: &stubChecker{ok: true}, DefaultFee: dec("5.00")}
	var order models.Order

	err := d.ValidateAndPopulate(context.Background(), &order, transport.CreateOrderRequest{
		DeliveryAddress: "12 rue de la Paix",
		DeliveryFee:     decPtr("2.50"),
	})
	require.NoError(t, err)
	require.True(t, order.DeliveryFee.Equal(dec("2.50")))
}

func TestPickupClearsAddressAndFee(t *testing.T) {
	p := &Pickup{}
	order := models.Order{DeliveryFee: dec("5.00")}

	err := p.ValidateAndPopulate(context.Background(), &order, transport.CreateOrderRequest{
		DeliveryAddress:      "12 rue de la Paix",
		DeliveryZip:          "75002",
		DeliveryInstructions: "ring front desk",
	})
	require.NoError(t, err)
	require.Empty(t, order.DeliveryAddress)
	require.Empty(t, order.DeliveryZip)
	require.Equal(t, "ring front desk", order.DeliveryInstructions)
	require.True(t, order.DeliveryFee.IsZero())
}

func TestZipPrefixValidator(t *testing.T) {
	open := &addresscheck.ZipPrefixValidator{}
	ok, _, err := open.Check(context.Background(), "anywhere", "99999")
	require.NoError(t, err)
	require.True(t, ok, "no configured prefixes accepts everything")

	zoned := &addresscheck.ZipPrefixValidator{Prefixes: []string{"75", "92"}}
	ok, _, err = zoned.Check(context.Background(), "12 rue de la Paix", "75002")
	require.NoError(t, err)
	require.True(t, ok)

	ok, reason, err := zoned.Check(context.Background(), "1 rue Lointaine", "13001")
	require.NoError(t, err)
	require.False(t, ok)
	require.NotEmpty(t, reason)
}
