package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"turbodelivery/internal/core/application/usecases/commands"
	"turbodelivery/internal/core/application/usecases/queries"
	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order"
	"turbodelivery/internal/core/ports"
	"turbodelivery/internal/pkg/errs"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

type (
	OfferResponder interface {
		Handle(ctx context.Context, cmd commands.RespondToOfferCommand) (*order.Order, error)
	}

	StatusUpdater interface {
		Handle(ctx context.Context, cmd commands.UpdateOrderStatusCommand) (*order.Order, error)
	}

	AvailabilityUpdater interface {
		Handle(ctx context.Context, cmd commands.UpdateCourierAvailabilityCommand) (commands.CourierStatusPayload, error)
	}

	LocationReporter interface {
		Handle(ctx context.Context, cmd commands.ReportCourierLocationCommand) error
	}

	CourierLocator interface {
		Handle(ctx context.Context, query queries.GetCourierLocationQuery) (queries.CourierLocationView, error)
	}

	// Presence is the part of the presence registry that follows connection lifecycles.
	Presence interface {
		Connect(ctx context.Context, courierID kernel.UUID, connRef string) error
		Disconnect(ctx context.Context, courierID kernel.UUID, connRef string) bool
	}

	Tracker interface {
		Subscribe(ctx context.Context, observer kernel.Actor, orderID kernel.UUID) (*order.Order, error)
		Unsubscribe(observerID, orderID kernel.UUID)
		DropObserver(observerID kernel.UUID)
	}
)

// Dependencies are the collaborators of the websocket handler.
type Dependencies struct {
	Identity     ports.IdentityResolver
	Presence     Presence
	Tracker      Tracker
	Respond      OfferResponder
	UpdateStatus StatusUpdater
	Availability AvailabilityUpdater
	Location     LocationReporter
	Locator      CourierLocator
}

type Handler struct {
	hub      *Hub
	deps     Dependencies
	upgrader websocket.Upgrader
	logger   *slog.Logger
	routes   map[string]route
}

type route struct {
	role   kernel.Role
	handle func(ctx context.Context, s *session, data json.RawMessage) error
}

func NewHandler(hub *Hub, deps Dependencies, logger *slog.Logger) *Handler {
	h := &Handler{
		hub:  hub,
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger.With("component", "ws_handler"),
	}

	h.routes = map[string]route{
		eventOrderResponse:       {role: kernel.RoleCourier, handle: h.onOrderResponse},
		eventCourierStatusUpdate: {role: kernel.RoleCourier, handle: h.onAvailability},
		eventLocationUpdate:      {role: kernel.RoleCourier, handle: h.onLocation},
		eventJoinAdmin:           {role: kernel.RoleAdmin, handle: h.onJoinAdmin},
		eventUpdateOrderStatus:   {handle: h.onStatusUpdate},
		eventTrackOrder:          {handle: h.onTrackOrder},
		eventStopTracking:        {handle: h.onStopTracking},
		eventGetCourierLocation:  {handle: h.onGetCourierLocation},
		eventPing: {handle: func(_ context.Context, s *session, _ json.RawMessage) error {
			s.reply(eventPong, nil)
			return nil
		}},
	}
	return h
}

// Serve upgrades GET /ws. The token comes from the token query parameter or a bearer
// Authorization header; browsers cannot set headers on websocket requests.
func (h *Handler) Serve(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		token = strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	}

	actor, err := h.deps.Identity.Resolve(c.Request().Context(), token)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errorPayload{Message: "authentication required", Code: "unauthenticated"})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return nil
	}

	h.run(c.Request().Context(), newSession(actor, conn))
	return nil
}

func (h *Handler) run(ctx context.Context, s *session) {
	userID := s.actor.ID()
	if !h.hub.join(ports.UserRoom(userID), s) {
		s.close()
		return
	}
	go s.writePump()

	isCourier := s.actor.Role() == kernel.RoleCourier
	if isCourier {
		if err := h.deps.Presence.Connect(ctx, userID, s.id); err != nil {
			h.logger.WarnContext(ctx, "courier could not connect", "courierId", userID.String(), "error", err)
			s.reply(eventError, errorPayload{Message: err.Error(), Code: errs.Code(err)})
			h.hub.leave(s)
			time.AfterFunc(time.Second, s.close)
			s.readPump(func(inboundFrame) {})
			return
		}
	}
	h.logger.InfoContext(ctx, "session opened", "userId", userID.String(), "role", s.actor.Role().String())

	s.readPump(func(frame inboundFrame) { h.dispatch(ctx, s, frame) })

	cleanup := context.WithoutCancel(ctx)
	if remaining := h.hub.leave(s); remaining == 0 {
		h.deps.Tracker.DropObserver(userID)
	}
	if isCourier {
		h.deps.Presence.Disconnect(cleanup, userID, s.id)
	}
	h.logger.InfoContext(cleanup, "session closed", "userId", userID.String())
}

func (h *Handler) dispatch(ctx context.Context, s *session, frame inboundFrame) {
	r, ok := h.routes[frame.Event]
	if !ok {
		s.reply(eventError, errorPayload{Event: frame.Event, Message: "unknown event", Code: "unknown_event"})
		return
	}
	if r.role != "" && s.actor.Role() != r.role {
		s.reply(eventError, errorPayload{
			Event:   frame.Event,
			Message: frame.Event + " is only available to " + r.role.String() + " users",
			Code:    "forbidden",
		})
		return
	}

	if err := r.handle(ctx, s, frame.Data); err != nil {
		code := errs.Code(err)
		if code == "internal" {
			h.logger.ErrorContext(ctx, "websocket event failed",
				"event", frame.Event, "userId", s.actor.ID().String(), "error", err)
		}
		s.reply(eventError, errorPayload{Event: frame.Event, Message: err.Error(), Code: code})
	}
}

func (h *Handler) onOrderResponse(ctx context.Context, s *session, data json.RawMessage) error {
	var in orderResponse
	if err := decode(data, &in); err != nil {
		return err
	}
	orderID, err := parseID("orderId", in.OrderID)
	if err != nil {
		return err
	}
	action, err := commands.ParseOfferAction(in.Action)
	if err != nil {
		return err
	}
	cmd, err := commands.NewRespondToOfferCommand(s.actor.ID(), orderID, action)
	if err != nil {
		return err
	}

	if _, err = h.deps.Respond.Handle(ctx, cmd); err != nil {
		return err
	}
	s.reply(eventOrderResponseSuccess, orderResponse{OrderID: in.OrderID, Action: in.Action})
	return nil
}

func (h *Handler) onStatusUpdate(ctx context.Context, s *session, data json.RawMessage) error {
	var in statusUpdate
	if err := decode(data, &in); err != nil {
		return err
	}
	orderID, err := parseID("orderId", in.OrderID)
	if err != nil {
		return err
	}
	status, err := order.ParseStatus(in.Status)
	if err != nil {
		return err
	}
	cmd, err := commands.NewUpdateOrderStatusCommand(s.actor, orderID, status, in.Note)
	if err != nil {
		return err
	}

	o, err := h.deps.UpdateStatus.Handle(ctx, cmd)
	if err != nil {
		return err
	}
	s.reply(eventStatusUpdateSuccess, statusUpdate{OrderID: in.OrderID, Status: o.Status().String()})
	return nil
}

func (h *Handler) onAvailability(ctx context.Context, s *session, data json.RawMessage) error {
	var in availabilityUpdate
	if err := decode(data, &in); err != nil {
		return err
	}
	cmd, err := commands.NewUpdateCourierAvailabilityCommand(s.actor.ID(), in.IsOnline, in.IsAvailable)
	if err != nil {
		return err
	}

	payload, err := h.deps.Availability.Handle(ctx, cmd)
	if err != nil {
		return err
	}
	s.reply(eventStatusUpdated, payload)
	return nil
}

// onLocation has no success reply; positions arrive every few seconds.
func (h *Handler) onLocation(ctx context.Context, s *session, data json.RawMessage) error {
	var in locationUpdate
	if err := decode(data, &in); err != nil {
		return err
	}
	cmd, err := commands.NewReportCourierLocationCommand(s.actor.ID(), in.Latitude, in.Longitude)
	if err != nil {
		return err
	}
	return h.deps.Location.Handle(ctx, cmd)
}

func (h *Handler) onTrackOrder(ctx context.Context, s *session, data json.RawMessage) error {
	orderID, err := decodeOrderRef(data)
	if err != nil {
		return err
	}

	o, err := h.deps.Tracker.Subscribe(ctx, s.actor, orderID)
	if err != nil {
		return err
	}
	s.reply(eventTrackingStarted, statusUpdate{OrderID: o.ID().String(), Status: o.Status().String()})
	return nil
}

func (h *Handler) onStopTracking(_ context.Context, s *session, data json.RawMessage) error {
	orderID, err := decodeOrderRef(data)
	if err != nil {
		return err
	}

	h.deps.Tracker.Unsubscribe(s.actor.ID(), orderID)
	s.reply(eventTrackingStopped, orderRef{OrderID: orderID.String()})
	return nil
}

func (h *Handler) onGetCourierLocation(ctx context.Context, s *session, data json.RawMessage) error {
	orderID, err := decodeOrderRef(data)
	if err != nil {
		return err
	}
	query, err := queries.NewGetCourierLocationQuery(s.actor, orderID)
	if err != nil {
		return err
	}

	view, err := h.deps.Locator.Handle(ctx, query)
	if err != nil {
		return err
	}
	s.reply(eventCourierLocation, courierLocation{
		OrderID:   view.OrderID.String(),
		CourierID: view.CourierID.String(),
		Latitude:  view.Location.Latitude(),
		Longitude: view.Location.Longitude(),
		Timestamp: view.UpdatedAt,
	})
	return nil
}

func (h *Handler) onJoinAdmin(_ context.Context, s *session, _ json.RawMessage) error {
	if !h.hub.join(ports.AdminRoom, s) {
		return errs.NewNotConnectedError(s.actor.ID())
	}
	s.reply(eventAdminJoined, nil)
	return nil
}

type courierLocation struct {
	OrderID   string    `json:"orderId"`
	CourierID string    `json:"captainId"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

func decode(data json.RawMessage, into any) error {
	if len(data) == 0 {
		return errs.NewValueIsRequiredError("data")
	}
	if err := json.Unmarshal(data, into); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("data", err)
	}
	return nil
}

func decodeOrderRef(data json.RawMessage) (kernel.UUID, error) {
	var in orderRef
	if err := decode(data, &in); err != nil {
		return kernel.UUID{}, err
	}
	return parseID("orderId", in.OrderID)
}

func parseID(paramName, raw string) (kernel.UUID, error) {
	if raw == "" {
		return kernel.UUID{}, errs.NewValueIsRequiredError(paramName)
	}
	id, err := kernel.UUIDFromString(raw)
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(paramName, err)
	}
	return id, nil
}
