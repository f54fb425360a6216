package order

import (
	"errors"

	"turbodelivery/internal/pkg/errs"
)

const (
	RatingMin = 1
	RatingMax = 5
)

// Rating is the customer's feedback on a delivered order.
type Rating struct {
	food     int
	delivery int
	comment  string
}

func NewRating(food, delivery int, comment string) (Rating, error) {
	if err := errors.Join(checkScore("foodRating", food), checkScore("deliveryRating", delivery)); err != nil {
		return Rating{}, err
	}
	return Rating{food: food, delivery: delivery, comment: comment}, nil
}

func (r Rating) Food() int       { return r.food }
func (r Rating) Delivery() int   { return r.delivery }
func (r Rating) Comment() string { return r.comment }

func checkScore(paramName string, score int) error {
	if score < RatingMin || score > RatingMax {
		return errs.NewValueIsOutOfRangeError(paramName, score, RatingMin, RatingMax)
	}
	return nil
}
