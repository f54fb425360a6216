package order

import (
	"errors"
	"fmt"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/pkg/errs"
)

// Item is one line of an order. The unit price is a snapshot taken at placement.
type Item struct {
	foodItemID kernel.UUID
	quantity   int
	unitPrice  kernel.Money
	note       string
}

func NewItem(foodItemID kernel.UUID, quantity int, unitPrice kernel.Money, note string) (Item, error) {
	var qtyErr error
	if quantity < 1 {
		qtyErr = errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is less than 1", quantity))
	}
	var priceErr error
	if unitPrice < 0 {
		priceErr = errs.NewValueIsInvalidErrorWithCause("unitPrice", fmt.Errorf("%d is negative", unitPrice))
	}
	if err := errors.Join(foodItemID.Validate(), qtyErr, priceErr); err != nil {
		return Item{}, err
	}

	return Item{foodItemID: foodItemID, quantity: quantity, unitPrice: unitPrice, note: note}, nil
}

func (i Item) FoodItemID() kernel.UUID {
	return i.foodItemID
}

func (i Item) Quantity() int {
	return i.quantity
}

func (i Item) UnitPrice() kernel.Money {
	return i.unitPrice
}

func (i Item) Note() string {
	return i.note
}

// LineTotal is quantity times unit price.
func (i Item) LineTotal() kernel.Money {
	return kernel.Money(int64(i.quantity) * int64(i.unitPrice))
}
