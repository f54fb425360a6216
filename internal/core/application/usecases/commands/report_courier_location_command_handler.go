package commands

import (
	"context"
	"log/slog"
)

type ReportCourierLocationCommandHandler struct {
	presence CourierPresence
	tracker  StatusTracker
	now      Clock
	logger   *slog.Logger
}

func NewReportCourierLocationCommandHandler(
	presence CourierPresence,
	tracker StatusTracker,
	now Clock,
	logger *slog.Logger,
) *ReportCourierLocationCommandHandler {
	return &ReportCourierLocationCommandHandler{
		presence: presence,
		tracker:  tracker,
		now:      now,
		logger:   logger.With("component", "report_courier_location"),
	}
}

// Handle caches the position and relays it to the customers following the courier's
// current deliveries. Relay failures are logged; the position is kept either way.
func (h *ReportCourierLocationCommandHandler) Handle(ctx context.Context, cmd ReportCourierLocationCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	if err := h.presence.UpdateLocation(ctx, cmd.CourierID(), cmd.Point()); err != nil {
		return err
	}

	if err := h.tracker.PublishLocation(ctx, cmd.CourierID(), cmd.Point(), h.now()); err != nil {
		h.logger.ErrorContext(ctx, "failed to relay courier location",
			"courierId", cmd.CourierID().String(), "error", err)
	}
	return nil
}
