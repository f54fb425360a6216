package commands

import (
	"context"
	"log/slog"
	"time"

	"turbodelivery/internal/core/ports"
)

// CourierStatusPayload is sent with captain_status_changed to the admin room and returned
// to the courier.
type CourierStatusPayload struct {
	CourierID     string    `json:"captainId"`
	IsOnline      bool      `json:"isOnline"`
	IsAvailable   bool      `json:"isAvailable"`
	CurrentOrders int       `json:"currentOrders"`
	Timestamp     time.Time `json:"timestamp"`
}

type UpdateCourierAvailabilityCommandHandler struct {
	presence CourierPresence
	notifier ports.Notifier
	now      Clock
	logger   *slog.Logger
}

func NewUpdateCourierAvailabilityCommandHandler(
	presence CourierPresence,
	notifier ports.Notifier,
	now Clock,
	logger *slog.Logger,
) *UpdateCourierAvailabilityCommandHandler {
	return &UpdateCourierAvailabilityCommandHandler{
		presence: presence,
		notifier: notifier,
		now:      now,
		logger:   logger.With("component", "update_courier_availability"),
	}
}

func (h *UpdateCourierAvailabilityCommandHandler) Handle(
	ctx context.Context,
	cmd UpdateCourierAvailabilityCommand,
) (CourierStatusPayload, error) {
	if err := cmd.Validate(); err != nil {
		return CourierStatusPayload{}, err
	}

	snap, err := h.presence.SetAvailability(cmd.CourierID(), cmd.Online(), cmd.Available())
	if err != nil {
		return CourierStatusPayload{}, err
	}

	payload := CourierStatusPayload{
		CourierID:     cmd.CourierID().String(),
		IsOnline:      snap.Online,
		IsAvailable:   snap.Available,
		CurrentOrders: snap.CurrentOrders,
		Timestamp:     h.now(),
	}
	if err = h.notifier.EmitToRoom(ctx, ports.AdminRoom, ports.EventCourierStatusChanged, payload); err != nil {
		h.logger.WarnContext(ctx, "failed to notify admins", "courierId", payload.CourierID, "error", err)
	}

	return payload, nil
}
