package order

import (
	"errors"
	"fmt"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/pkg/errs"
)

// Pricing holds the amounts charged for an order. Total is derived:
// subtotal + delivery fee + tax - discount. Computing the amounts is out of scope.
type Pricing struct {
	subtotal    kernel.Money
	deliveryFee kernel.Money
	tax         kernel.Money
	discount    kernel.Money
	total       kernel.Money
}

func NewPricing(subtotal, deliveryFee, tax, discount int64) (Pricing, error) {
	s, subErr := kernel.NewMoney("subtotal", subtotal)
	f, feeErr := kernel.NewMoney("deliveryFee", deliveryFee)
	t, taxErr := kernel.NewMoney("tax", tax)
	d, discErr := kernel.NewMoney("discount", discount)
	if err := errors.Join(subErr, feeErr, taxErr, discErr); err != nil {
		return Pricing{}, err
	}

	gross := s + f + t
	if d > gross {
		return Pricing{}, errs.NewValueIsInvalidErrorWithCause(
			"discount", fmt.Errorf("%s exceeds %s", d, gross))
	}

	return Pricing{subtotal: s, deliveryFee: f, tax: t, discount: d, total: gross - d}, nil
}

func (p Pricing) Subtotal() kernel.Money    { return p.subtotal }
func (p Pricing) DeliveryFee() kernel.Money { return p.deliveryFee }
func (p Pricing) Tax() kernel.Money         { return p.tax }
func (p Pricing) Discount() kernel.Money    { return p.discount }
func (p Pricing) Total() kernel.Money       { return p.total }
