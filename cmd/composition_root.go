package cmd

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"turbodelivery/internal/adapters/in/auth"
	httpapi "turbodelivery/internal/adapters/in/http"
	"turbodelivery/internal/adapters/in/ws"
	"turbodelivery/internal/adapters/out/kafka"
	"turbodelivery/internal/adapters/out/postgres"
	"turbodelivery/internal/adapters/out/rabbitmq"
	"turbodelivery/internal/core/application/dispatch"
	"turbodelivery/internal/core/application/presence"
	"turbodelivery/internal/core/application/tracking"
	"turbodelivery/internal/core/application/usecases/commands"
	"turbodelivery/internal/core/application/usecases/queries"
	"turbodelivery/internal/core/ports"
	"turbodelivery/internal/jobs"

	"gorm.io/gorm"
)

// CompositionRoot owns the process-wide registries and builds every handler on top of them.
type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger

	gormDB     *gorm.DB
	uowFactory ports.UnitOfWorkFactory

	hub      *ws.Hub
	bus      *rabbitmq.Bus
	notifier ports.Notifier

	producer *kafka.OrderEventPublisher
	events   ports.OrderEventPublisher

	identity *auth.JWTResolver
	presence *presence.Registry
	engine   *dispatch.Engine
	tracker  *tracking.Router

	cancel *commands.CancelOrderCommandHandler
}

func NewCompositionRoot(cfg Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	return newCompositionRoot(cfg, gormDB, postgres.NewGormUnitOfWorkFactory(gormDB), logger)
}

func newCompositionRoot(
	cfg Config,
	gormDB *gorm.DB,
	uowFactory ports.UnitOfWorkFactory,
	logger *slog.Logger,
) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:        cfg,
		logger:     logger,
		gormDB:     gormDB,
		uowFactory: uowFactory,
		hub:        ws.NewHub(logger),
		identity:   auth.NewJWTResolver(cfg.JWTSecret),
	}

	c.notifier = c.hub
	if cfg.RabbitMQURL != "" {
		bus, err := rabbitmq.Dial(cfg.RabbitMQURL, cfg.RabbitMQExchange, c.hub, logger)
		if err != nil {
			return nil, err
		}
		c.bus = bus
		c.notifier = bus
	}

	c.events = kafka.NewLogPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewOrderEventPublisher(cfg.KafkaBrokers, cfg.KafkaOrderEventsTopic, logger)
		if err != nil {
			_ = c.closeBrokers()
			return nil, err
		}
		c.producer = producer
		c.events = producer
	}

	c.presence = presence.NewRegistry(uowFactory, presence.Config{
		PersistInterval: cfg.PresencePersistInterval,
	}, logger)
	c.engine = dispatch.NewEngine(c.presence, c.notifier, dispatch.Config{
		MaxDistanceKm: cfg.MaxDistanceKm,
		OfferTTL:      cfg.OfferTTL,
		MaxRounds:     cfg.MaxOfferRounds,
	}, logger)
	c.presence.OnDisconnect(c.engine.VoidCourier)
	c.tracker = tracking.NewRouter(uowFactory, c.notifier, logger)

	c.cancel = commands.NewCancelOrderCommandHandler(
		c.uowAdapter(), c.presence, c.engine, c.notifier, c.tracker, c.events, time.Now, logger,
	)
	return c, nil
}

// Bus is the cross-instance notification bus, or nil when notifications stay local.
func (c *CompositionRoot) Bus() *rabbitmq.Bus {
	return c.bus
}

func (c *CompositionRoot) CreatePlaceOrderCommandHandler() *commands.PlaceOrderCommandHandler {
	return commands.NewPlaceOrderCommandHandler(
		c.orderUoWAdapter(), c.engine, c.notifier, c.tracker, c.events, time.Now, c.logger,
	)
}

func (c *CompositionRoot) CreateRespondToOfferCommandHandler() *commands.RespondToOfferCommandHandler {
	return commands.NewRespondToOfferCommandHandler(
		c.uowAdapter(), c.presence, c.engine, c.tracker, c.events, time.Now, c.logger,
	)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() *commands.CancelOrderCommandHandler {
	return c.cancel
}

func (c *CompositionRoot) CreateUpdateOrderStatusCommandHandler() *commands.UpdateOrderStatusCommandHandler {
	return commands.NewUpdateOrderStatusCommandHandler(
		c.orderUoWAdapter(), c.cancel, c.tracker, c.events, time.Now, c.logger,
	)
}

func (c *CompositionRoot) CreateConfirmDeliveryCommandHandler() *commands.ConfirmDeliveryCommandHandler {
	return commands.NewConfirmDeliveryCommandHandler(
		c.uowAdapter(), c.presence, c.notifier, c.tracker, c.events, time.Now, c.logger,
	)
}

func (c *CompositionRoot) CreateRateOrderCommandHandler() *commands.RateOrderCommandHandler {
	return commands.NewRateOrderCommandHandler(c.orderUoWAdapter())
}

func (c *CompositionRoot) CreateRegisterCourierCommandHandler() *commands.RegisterCourierCommandHandler {
	return commands.NewRegisterCourierCommandHandler(c.courierUoWAdapter())
}

func (c *CompositionRoot) CreateUpdateCourierAvailabilityCommandHandler() *commands.UpdateCourierAvailabilityCommandHandler {
	return commands.NewUpdateCourierAvailabilityCommandHandler(c.presence, c.notifier, time.Now, c.logger)
}

func (c *CompositionRoot) CreateReportCourierLocationCommandHandler() *commands.ReportCourierLocationCommandHandler {
	return commands.NewReportCourierLocationCommandHandler(c.presence, c.tracker, time.Now, c.logger)
}

func (c *CompositionRoot) CreateReofferPendingOrdersCommandHandler() *commands.ReofferPendingOrdersCommandHandler {
	return commands.NewReofferPendingOrdersCommandHandler(
		c.orderUoWAdapter(), c.engine, c.notifier, c.tracker, c.events, time.Now, c.logger,
	)
}

func (c *CompositionRoot) CreateFlushCourierLocationsCommandHandler() *commands.FlushCourierLocationsCommandHandler {
	return commands.NewFlushCourierLocationsCommandHandler(c.presence, c.logger)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.uowFactory)
}

func (c *CompositionRoot) CreateGetActiveOrdersQueryHandler() queries.GetActiveOrdersQueryHandler {
	return queries.NewGetActiveOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetCouriersQueryHandler() queries.GetCouriersQueryHandler {
	return queries.NewGetCouriersQueryHandler(c.gormDB, c.presence)
}

func (c *CompositionRoot) CreateGetCourierLocationQueryHandler() queries.GetCourierLocationQueryHandler {
	return queries.NewGetCourierLocationQueryHandler(c.uowFactory, c.presence)
}

func (c *CompositionRoot) CreateWebsocketHandler() *ws.Handler {
	return ws.NewHandler(c.hub, ws.Dependencies{
		Identity:     c.identity,
		Presence:     c.presence,
		Tracker:      c.tracker,
		Respond:      c.CreateRespondToOfferCommandHandler(),
		UpdateStatus: c.CreateUpdateOrderStatusCommandHandler(),
		Availability: c.CreateUpdateCourierAvailabilityCommandHandler(),
		Location:     c.CreateReportCourierLocationCommandHandler(),
		Locator:      c.CreateGetCourierLocationQueryHandler(),
	}, c.logger)
}

func (c *CompositionRoot) CreateHTTPServer() *httpapi.Server {
	return httpapi.NewServer(httpapi.Handlers{
		PlaceOrder:         c.CreatePlaceOrderCommandHandler(),
		UpdateStatus:       c.CreateUpdateOrderStatusCommandHandler(),
		ConfirmDelivery:    c.CreateConfirmDeliveryCommandHandler(),
		CancelOrder:        c.CreateCancelOrderCommandHandler(),
		RateOrder:          c.CreateRateOrderCommandHandler(),
		RegisterCourier:    c.CreateRegisterCourierCommandHandler(),
		GetOrder:           c.CreateGetOrderQueryHandler(),
		GetActiveOrders:    c.CreateGetActiveOrdersQueryHandler(),
		GetCouriers:        c.CreateGetCouriersQueryHandler(),
		GetCourierLocation: c.CreateGetCourierLocationQueryHandler(),
	}, c.identity, c.logger)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		c.CreateReofferPendingOrdersCommandHandler(),
		c.CreateFlushCourierLocationsCommandHandler(),
		jobs.Schedules{
			Reoffer:       c.cfg.ReofferSchedule,
			ReofferBatch:  c.cfg.ReofferBatch,
			LocationFlush: c.cfg.LocationFlushSchedule,
		},
		c.logger,
	)
}

// Close tears the registries down. Open websocket sessions are closed first so couriers
// are disconnected and their pending positions written while the store is still there.
func (c *CompositionRoot) Close(ctx context.Context) error {
	c.hub.Close()
	c.presence.FlushLocations(ctx)
	c.presence.Close()
	c.engine.Close()
	c.tracker.Close()

	err := c.closeBrokers()
	if c.gormDB != nil {
		if sqlDB, dbErr := c.gormDB.DB(); dbErr == nil {
			err = errors.Join(err, sqlDB.Close())
		}
	}
	return err
}

func (c *CompositionRoot) closeBrokers() error {
	var err error
	if c.bus != nil {
		err = errors.Join(err, c.bus.Close())
	}
	if c.producer != nil {
		err = errors.Join(err, c.producer.Close())
	}
	return err
}

func (c *CompositionRoot) uowAdapter() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) orderUoWAdapter() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) courierUoWAdapter() commands.CourierUoWFactory {
	return FuncCourierUoWFactory(func() commands.CourierUoW {
		return c.uowFactory.Create()
	})
}

type FuncCourierUoWFactory func() commands.CourierUoW

func (f FuncCourierUoWFactory) Create() commands.CourierUoW {
	return f()
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
