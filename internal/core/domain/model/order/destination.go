package order

import (
	"errors"
	"strings"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/pkg/errs"
)

// Destination is the delivery address with its coordinates.
type Destination struct {
	street       string
	city         string
	state        string
	zipCode      string
	point        kernel.GeoPoint
	instructions string
}

func NewDestination(street, city, state, zipCode string, point kernel.GeoPoint, instructions string) (Destination, error) {
	if err := errors.Join(
		requireText("street", street),
		requireText("city", city),
		requireText("state", state),
		requireText("zipCode", zipCode),
		point.Validate(),
	); err != nil {
		return Destination{}, err
	}

	return Destination{
		street:       strings.TrimSpace(street),
		city:         strings.TrimSpace(city),
		state:        strings.TrimSpace(state),
		zipCode:      strings.TrimSpace(zipCode),
		point:        point,
		instructions: instructions,
	}, nil
}

func (d Destination) Street() string         { return d.street }
func (d Destination) City() string           { return d.city }
func (d Destination) State() string          { return d.state }
func (d Destination) ZipCode() string        { return d.zipCode }
func (d Destination) Point() kernel.GeoPoint { return d.point }
func (d Destination) Instructions() string   { return d.instructions }

// Validate fails for a zero-value Destination.
func (d Destination) Validate() error {
	return d.point.Validate()
}

func requireText(paramName, value string) error {
	if strings.TrimSpace(value) == "" {
		return errs.NewValueIsRequiredError(paramName)
	}
	return nil
}
