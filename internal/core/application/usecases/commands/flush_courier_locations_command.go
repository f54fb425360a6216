package commands

import (
	"context"
	"log/slog"
)

// FlushCourierLocationsCommand has no parameters.
type FlushCourierLocationsCommand struct{}

func NewFlushCourierLocationsCommand() FlushCourierLocationsCommand {
	return FlushCourierLocationsCommand{}
}

type FlushCourierLocationsCommandHandler struct {
	presence CourierPresence
	logger   *slog.Logger
}

func NewFlushCourierLocationsCommandHandler(presence CourierPresence, logger *slog.Logger) *FlushCourierLocationsCommandHandler {
	return &FlushCourierLocationsCommandHandler{
		presence: presence,
		logger:   logger.With("component", "flush_courier_locations"),
	}
}

// Handle persists the positions the presence registry held back while throttling.
func (h *FlushCourierLocationsCommandHandler) Handle(ctx context.Context, _ FlushCourierLocationsCommand) error {
	if n := h.presence.FlushLocations(ctx); n > 0 {
		h.logger.DebugContext(ctx, "courier locations flushed", "count", n)
	}
	return nil
}
