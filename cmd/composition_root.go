package cmd

import (
	"fmt"

	"fulfillment/internal/adapters/in/kafka"
	"fulfillment/internal/adapters/out/catalog"
	"fulfillment/internal/adapters/out/courier"
	kafkaout "fulfillment/internal/adapters/out/kafka"
	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/adapters/out/redisguard"
	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/jobs"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CompositionRoot owns the adapters and engines and builds the handlers on top of them.
type CompositionRoot struct {
	cfg        Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	guard      *redisguard.Guard
	publisher  *kafkaout.Publisher
	logger     *zap.Logger

	engine    *fulfillment.StockReservationEngine
	registry  *fulfillment.BarcodeUnitRegistry
	lifecycle *fulfillment.OrderLifecycleManager
}

func NewCompositionRoot(cfg Config, gormDB *gorm.DB, redisClient redis.UniversalClient, logger *zap.Logger) (*CompositionRoot, error) {
	guard := redisguard.New(redisClient)
	opts := []fulfillment.Option{fulfillment.WithLogger(logger)}

	catalogClient, err := catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogTimeout)
	if err != nil {
		return nil, fmt.Errorf("catalog client: %w", err)
	}
	courierClient, err := courier.NewClient(courier.Config{
		BaseURL:   cfg.CourierBaseURL,
		APIKey:    cfg.CourierAPIKey,
		SecretKey: cfg.CourierSecretKey,
		Timeout:   cfg.CourierTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("courier client: %w", err)
	}
	publisher, err := kafkaout.NewPublisher(cfg.KafkaBrokers, cfg.KafkaOrderChangedTopic)
	if err != nil {
		return nil, fmt.Errorf("outbox publisher: %w", err)
	}

	engine := fulfillment.NewStockReservationEngine(opts...)
	registry, err := fulfillment.NewBarcodeUnitRegistry(cfg.BarcodePrefix, opts...)
	if err != nil {
		return nil, err
	}
	invoices, err := fulfillment.NewInvoiceNumberAllocator(cfg.InvoicePrefix, opts...)
	if err != nil {
		return nil, err
	}
	coordinator, err := fulfillment.NewCourierHandoffCoordinator(courierClient, guard, fulfillment.CourierConfig{
		Timeout:     cfg.CourierTimeout,
		MaxAttempts: cfg.CourierMaxAttempts,
		ScanTTL:     cfg.ScanDedupTTL,
	}, opts...)
	if err != nil {
		return nil, err
	}
	lifecycle, err := fulfillment.NewOrderLifecycleManager(catalogClient, engine, registry, coordinator, invoices,
		fulfillment.LifecycleConfig{BackorderOnInsufficientStock: cfg.BackorderOnInsufficientStock}, opts...)
	if err != nil {
		return nil, err
	}

	return &CompositionRoot{
		cfg:        cfg,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		guard:      guard,
		publisher:  publisher,
		logger:     logger,
		engine:     engine,
		registry:   registry,
		lifecycle:  lifecycle,
	}, nil
}

func (c *CompositionRoot) CreatePlaceOrderCommandHandler() commands.PlaceOrderCommandHandler {
	return commands.NewPlaceOrderCommandHandler(c.uowFactory, c.lifecycle)
}

func (c *CompositionRoot) CreateSaveIncompleteOrderCommandHandler() commands.SaveIncompleteOrderCommandHandler {
	return commands.NewSaveIncompleteOrderCommandHandler(c.uowFactory, c.lifecycle)
}

func (c *CompositionRoot) CreatePlaceExchangeOrReturnOrderCommandHandler() commands.PlaceExchangeOrReturnOrderCommandHandler {
	return commands.NewPlaceExchangeOrReturnOrderCommandHandler(c.uowFactory, c.lifecycle)
}

func (c *CompositionRoot) CreateUpdateOrderStatusCommandHandler() commands.UpdateOrderStatusCommandHandler {
	return commands.NewUpdateOrderStatusCommandHandler(c.uowFactory, c.lifecycle)
}

func (c *CompositionRoot) CreateUpdateOrderStatusBulkCommandHandler() commands.UpdateOrderStatusBulkCommandHandler {
	return commands.NewUpdateOrderStatusBulkCommandHandler(c.uowFactory, c.lifecycle)
}

func (c *CompositionRoot) CreateProcessBarcodesCommandHandler() commands.ProcessBarcodesCommandHandler {
	return commands.NewProcessBarcodesCommandHandler(c.uowFactory, c.lifecycle)
}

func (c *CompositionRoot) CreateScanParcelCommandHandler() commands.ScanParcelCommandHandler {
	return commands.NewScanParcelCommandHandler(c.uowFactory, c.lifecycle)
}

func (c *CompositionRoot) CreateHandlePaymentResultCommandHandler() commands.HandlePaymentResultCommandHandler {
	return commands.NewHandlePaymentResultCommandHandler(c.uowFactory, c.lifecycle)
}

func (c *CompositionRoot) CreateReceiveLotCommandHandler() commands.ReceiveLotCommandHandler {
	return commands.NewReceiveLotCommandHandler(c.uowFactory, c.engine)
}

func (c *CompositionRoot) CreateGenerateBarcodesCommandHandler() commands.GenerateBarcodesCommandHandler {
	return commands.NewGenerateBarcodesCommandHandler(c.uowFactory, c.registry)
}

func (c *CompositionRoot) CreateBindBarcodesToLotCommandHandler() commands.BindBarcodesToLotCommandHandler {
	return commands.NewBindBarcodesToLotCommandHandler(c.uowFactory, c.registry)
}

func (c *CompositionRoot) CreateReconcileCourierStatusesCommandHandler() commands.ReconcileCourierStatusesCommandHandler {
	return commands.NewReconcileCourierStatusesCommandHandler(c.uowFactory, c.lifecycle)
}

func (c *CompositionRoot) CreateRetryBackordersCommandHandler() commands.RetryBackordersCommandHandler {
	return commands.NewRetryBackordersCommandHandler(c.uowFactory, c.lifecycle)
}

func (c *CompositionRoot) CreateRelayOutboxCommandHandler() commands.RelayOutboxCommandHandler {
	return commands.NewRelayOutboxCommandHandler(c.uowFactory, c.publisher)
}

func (c *CompositionRoot) CreateGetOpenOrdersQueryHandler() queries.GetOpenOrdersQueryHandler {
	return queries.NewGetOpenOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetStockLevelsQueryHandler() queries.GetStockLevelsQueryHandler {
	return queries.NewGetStockLevelsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	relay := c.CreateRelayOutboxCommandHandler()
	reconcile := c.CreateReconcileCourierStatusesCommandHandler()
	retry := c.CreateRetryBackordersCommandHandler()
	return jobs.NewJobManager(&relay, &reconcile, &retry, c.cfg.SweepBatchSize, c.logger)
}

func (c *CompositionRoot) CreatePaymentConsumer() (*kafka.PaymentConsumer, error) {
	handler := c.CreateHandlePaymentResultCommandHandler()
	return kafka.NewPaymentConsumer(
		c.cfg.KafkaBrokers,
		c.cfg.KafkaConsumerGroup,
		c.cfg.KafkaPaymentResultTopic,
		&handler,
		c.guard,
		c.cfg.PaymentDedupTTL,
		kafka.WithConsumerLogger(c.logger),
	)
}

// Close releases the broker writer.
func (c *CompositionRoot) Close() error {
	return c.publisher.Close()
}
