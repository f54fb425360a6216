package commands

import (
	"errors"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/pkg/guard"
)

var ErrReportCourierLocationCommandIsNotConstructed = errors.New(
	"ReportCourierLocationCommand must be created via NewReportCourierLocationCommand constructor",
)

type ReportCourierLocationCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	point     kernel.GeoPoint

	guard guard.ConstructorGuard
}

func NewReportCourierLocationCommand(courierID kernel.UUID, latitude, longitude float64) (ReportCourierLocationCommand, error) {
	point, pointErr := kernel.NewGeoPoint(latitude, longitude)
	if err := errors.Join(courierID.Validate(), pointErr); err != nil {
		return ReportCourierLocationCommand{}, err
	}

	return ReportCourierLocationCommand{
		courierID: courierID,
		point:     point,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c ReportCourierLocationCommand) Validate() error {
	return c.guard.Validate(ErrReportCourierLocationCommandIsNotConstructed)
}

func (c ReportCourierLocationCommand) CourierID() kernel.UUID { return c.courierID }
func (c ReportCourierLocationCommand) Point() kernel.GeoPoint { return c.point }
