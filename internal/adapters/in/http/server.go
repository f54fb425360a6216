// Package http is the REST surface of the dispatch service. Live traffic (offers, courier
// positions, status pushes) goes over the websocket mounted at /ws.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"turbodelivery/internal/adapters/in/http/openapi"
	"turbodelivery/internal/core/application/usecases/commands"
	"turbodelivery/internal/core/application/usecases/queries"
	"turbodelivery/internal/core/domain/model/courier"
	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order"
	"turbodelivery/internal/core/ports"
	"turbodelivery/internal/pkg/errs"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/oapi-codegen/runtime"
	echoSwagger "github.com/swaggo/echo-swagger"
)

type (
	OrderPlacer interface {
		Handle(ctx context.Context, cmd commands.PlaceOrderCommand) (commands.PlacedOrder, error)
	}
	OrderStatusUpdater interface {
		Handle(ctx context.Context, cmd commands.UpdateOrderStatusCommand) (*order.Order, error)
	}
	DeliveryConfirmer interface {
		Handle(ctx context.Context, cmd commands.ConfirmDeliveryCommand) (*order.Order, error)
	}
	OrderCanceller interface {
		Handle(ctx context.Context, cmd commands.CancelOrderCommand) (*order.Order, error)
	}
	OrderRater interface {
		Handle(ctx context.Context, cmd commands.RateOrderCommand) (*order.Order, error)
	}
	CourierRegistrar interface {
		Handle(ctx context.Context, cmd commands.RegisterCourierCommand) (*courier.Courier, error)
	}
	OrderReader interface {
		Handle(ctx context.Context, query queries.GetOrderQuery) (*order.Order, error)
	}
	ActiveOrdersReader interface {
		Handle(ctx context.Context, query queries.GetActiveOrdersQuery) ([]queries.ActiveOrderView, error)
	}
	CouriersReader interface {
		Handle(ctx context.Context, query queries.GetCouriersQuery) ([]queries.CourierView, error)
	}
	CourierLocator interface {
		Handle(ctx context.Context, query queries.GetCourierLocationQuery) (queries.CourierLocationView, error)
	}
)

// Handlers are the use cases behind the REST routes.
type Handlers struct {
	PlaceOrder      OrderPlacer
	UpdateStatus    OrderStatusUpdater
	ConfirmDelivery DeliveryConfirmer
	CancelOrder     OrderCanceller
	RateOrder       OrderRater
	RegisterCourier CourierRegistrar

	GetOrder           OrderReader
	GetActiveOrders    ActiveOrdersReader
	GetCouriers        CouriersReader
	GetCourierLocation CourierLocator
}

type Server struct {
	handlers Handlers
	identity ports.IdentityResolver
	logger   *slog.Logger
}

func NewServer(handlers Handlers, identity ports.IdentityResolver, logger *slog.Logger) *Server {
	return &Server{
		handlers: handlers,
		identity: identity,
		logger:   logger.With("component", "http_server"),
	}
}

// Register mounts the routes on e. liveUpdates serves the websocket endpoint.
func (s *Server) Register(e *echo.Echo, liveUpdates echo.HandlerFunc) error {
	doc, err := openapi.Load()
	if err != nil {
		return err
	}
	if err = openapi.RegisterSwagger(doc); err != nil {
		return err
	}
	return s.register(e, doc, liveUpdates)
}

func (s *Server) register(e *echo.Echo, doc *openapi3.T, liveUpdates echo.HandlerFunc) error {
	validate, err := validateRequests(doc)
	if err != nil {
		return err
	}

	e.Use(middleware.Recover())
	e.Use(requestLogger(s.logger))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if liveUpdates != nil {
		e.GET("/ws", liveUpdates)
	}

	api := e.Group("/api/v1", authenticate(s.identity), validate)
	api.POST("/orders", s.PlaceOrder)
	api.GET("/orders/active", s.GetActiveOrders)
	api.GET("/orders/:orderId", s.GetOrder)
	api.POST("/orders/:orderId/status", s.UpdateOrderStatus)
	api.POST("/orders/:orderId/confirm-delivery", s.ConfirmDelivery)
	api.PATCH("/orders/:orderId/cancel", s.CancelOrder)
	api.POST("/orders/:orderId/rate", s.RateOrder)
	api.GET("/orders/:orderId/courier-location", s.GetCourierLocation)
	api.GET("/couriers", s.GetCouriers)
	api.POST("/couriers", s.RegisterCourier)
	return nil
}

// PlaceOrder handles POST /api/v1/orders.
func (s *Server) PlaceOrder(c echo.Context) error {
	var body NewOrder
	if err := c.Bind(&body); err != nil {
		return s.fail(c, errs.NewValueIsInvalidErrorWithCause("body", err))
	}
	details, err := body.toDetails()
	if err != nil {
		return s.fail(c, err)
	}
	cmd, err := commands.NewPlaceOrderCommand(actorOf(c), details)
	if err != nil {
		return s.fail(c, err)
	}

	placed, err := s.handlers.PlaceOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, placed)
}

// GetActiveOrders handles GET /api/v1/orders/active.
func (s *Server) GetActiveOrders(c echo.Context) error {
	query, err := queries.NewGetActiveOrdersQuery(actorOf(c))
	if err != nil {
		return s.fail(c, err)
	}
	views, err := s.handlers.GetActiveOrders.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}

	response := make([]ActiveOrder, len(views))
	for i, v := range views {
		response[i] = activeOrderOf(v)
	}
	return c.JSON(http.StatusOK, response)
}

// GetOrder handles GET /api/v1/orders/{orderId}.
func (s *Server) GetOrder(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return s.fail(c, err)
	}
	query, err := queries.NewGetOrderQuery(actorOf(c), orderID)
	if err != nil {
		return s.fail(c, err)
	}
	o, err := s.handlers.GetOrder.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, orderFor(o, actorOf(c)))
}

// UpdateOrderStatus handles POST /api/v1/orders/{orderId}/status.
func (s *Server) UpdateOrderStatus(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return s.fail(c, err)
	}
	var body StatusChange
	if err = c.Bind(&body); err != nil {
		return s.fail(c, errs.NewValueIsInvalidErrorWithCause("body", err))
	}
	status, err := order.ParseStatus(body.Status)
	if err != nil {
		return s.fail(c, err)
	}
	cmd, err := commands.NewUpdateOrderStatusCommand(actorOf(c), orderID, status, body.Note)
	if err != nil {
		return s.fail(c, err)
	}

	o, err := s.handlers.UpdateStatus.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, orderFor(o, actorOf(c)))
}

// ConfirmDelivery handles POST /api/v1/orders/{orderId}/confirm-delivery.
func (s *Server) ConfirmDelivery(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return s.fail(c, err)
	}
	actor := actorOf(c)
	if actor.Role() != kernel.RoleCourier {
		return s.fail(c, errs.NewForbiddenError("only the assigned courier confirms delivery, got %s", actor))
	}
	var body DeliveryConfirmation
	if err = c.Bind(&body); err != nil {
		return s.fail(c, errs.NewValueIsInvalidErrorWithCause("body", err))
	}
	cmd, err := commands.NewConfirmDeliveryCommand(actor.ID(), orderID, body.Code)
	if err != nil {
		return s.fail(c, err)
	}

	o, err := s.handlers.ConfirmDelivery.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, orderFor(o, actor))
}

// CancelOrder handles PATCH /api/v1/orders/{orderId}/cancel.
func (s *Server) CancelOrder(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return s.fail(c, err)
	}
	var body Cancellation
	if c.Request().ContentLength != 0 {
		if err = c.Bind(&body); err != nil {
			return s.fail(c, errs.NewValueIsInvalidErrorWithCause("body", err))
		}
	}
	cmd, err := commands.NewCancelOrderCommand(actorOf(c), orderID, body.Reason)
	if err != nil {
		return s.fail(c, err)
	}

	o, err := s.handlers.CancelOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, orderFor(o, actorOf(c)))
}

// RateOrder handles POST /api/v1/orders/{orderId}/rate.
func (s *Server) RateOrder(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return s.fail(c, err)
	}
	var body RatingRequest
	if err = c.Bind(&body); err != nil {
		return s.fail(c, errs.NewValueIsInvalidErrorWithCause("body", err))
	}
	cmd, err := commands.NewRateOrderCommand(actorOf(c), orderID, body.Food, body.Delivery, body.Comment)
	if err != nil {
		return s.fail(c, err)
	}

	o, err := s.handlers.RateOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, orderFor(o, actorOf(c)))
}

// GetCourierLocation handles GET /api/v1/orders/{orderId}/courier-location.
func (s *Server) GetCourierLocation(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return s.fail(c, err)
	}
	query, err := queries.NewGetCourierLocationQuery(actorOf(c), orderID)
	if err != nil {
		return s.fail(c, err)
	}
	view, err := s.handlers.GetCourierLocation.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, courierLocationOf(view))
}

// GetCouriers handles GET /api/v1/couriers.
func (s *Server) GetCouriers(c echo.Context) error {
	query, err := queries.NewGetCouriersQuery(actorOf(c))
	if err != nil {
		return s.fail(c, err)
	}
	views, err := s.handlers.GetCouriers.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}

	response := make([]Courier, len(views))
	for i, v := range views {
		response[i] = courierOf(v)
	}
	return c.JSON(http.StatusOK, response)
}

// RegisterCourier handles POST /api/v1/couriers.
func (s *Server) RegisterCourier(c echo.Context) error {
	actor := actorOf(c)
	if !actor.IsAdmin() {
		return s.fail(c, errs.NewForbiddenError("only admins register couriers, got %s", actor))
	}
	var body NewCourier
	if err := c.Bind(&body); err != nil {
		return s.fail(c, errs.NewValueIsInvalidErrorWithCause("body", err))
	}
	courierID, err := kernel.UUIDFromString(body.CourierID)
	if err != nil {
		return s.fail(c, errs.NewValueIsInvalidErrorWithCause("courierId", err))
	}
	cmd, err := commands.NewRegisterCourierCommand(courierID, body.MaxOrders, body.Approved)
	if err != nil {
		return s.fail(c, err)
	}

	registered, err := s.handlers.RegisterCourier.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, registeredCourierOf(registered))
}

func orderIDParam(c echo.Context) (kernel.UUID, error) {
	var raw string
	err := runtime.BindStyledParameterWithOptions("simple", "orderId", c.Param("orderId"), &raw,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("orderId", err)
	}
	id, err := kernel.UUIDFromString(raw)
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("orderId", err)
	}
	return id, nil
}
