package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/chezgustave/ordering/internal/addresscheck"
	"github.com/chezgustave/ordering/internal/models"
	"github.com/chezgustave/ordering/internal/transport"
)

var (
	ErrAddressRequired = errors.New("delivery address required")
	ErrAddressRejected = errors.New("delivery address rejected")
	ErrUnsupportedMode = errors.New("unsupported delivery mode")
)

// Selector validates the mode-specific parts of an order creation request
// and populates the delivery fields, including the fee. One implementation
// per mode; adding a mode means adding a Selector, not editing one.
type Selector interface {
	Mode() models.DeliveryMode
	ValidateAndPopulate(ctx context.Context, order *models.Order, req transport.CreateOrderRequest) error
}

type Registry map[models.DeliveryMode]Selector

func NewRegistry(selectors ...Selector) Registry {
	r := make(Registry, len(selectors))
	for _, s := range selectors {
		r[s.Mode()] = s
	}
	return r
}

func (r Registry) For(mode models.DeliveryMode) (Selector, error) {
	s, ok := r[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}
	return s, nil
}

// Delivery requires an address inside the service radius and charges the
// request fee, or the configured default when the request carries none.
type Delivery struct {
	Checker    addresscheck.Validator
	DefaultFee decimal.Decimal
}

func (d *Delivery) Mode() models.DeliveryMode { return models.DeliveryModeDelivery }

func (d *Delivery) ValidateAndPopulate(ctx context.Context, order *models.Order, req transport.CreateOrderRequest) error {
	address := strings.TrimSpace(req.DeliveryAddress)
	if address == "" {
		return ErrAddressRequired
	}

	ok, reason, err := d.Checker.Check(ctx, address, req.DeliveryZip)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrAddressRejected, reason)
	}

	order.DeliveryAddress = address
	order.DeliveryZip = strings.TrimSpace(req.DeliveryZip)
	order.DeliveryInstructions = req.DeliveryInstructions
	if req.DeliveryFee != nil {
		order.DeliveryFee = *req.DeliveryFee
	} else {
		order.DeliveryFee = d.DefaultFee
	}
	return nil
}

// Pickup needs no address; any supplied one is dropped and the fee is
// forced to zero. Instructions stay ("ring front desk").
type Pickup struct{}

func (p *Pickup) Mode() models.DeliveryMode { return models.DeliveryModePickup }

func (p *Pickup) ValidateAndPopulate(_ context.Context, order *models.Order, req transport.CreateOrderRequest) error {
	order.DeliveryAddress = ""
	order.DeliveryZip = ""
	order.DeliveryInstructions = req.DeliveryInstructions
	order.DeliveryFee = decimal.Zero
	return nil
}
