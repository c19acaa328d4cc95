package cmd

import (
	"log/slog"

	"orderflow/internal/adapters/in/http"
	"orderflow/internal/adapters/out/inproc"
	"orderflow/internal/adapters/out/metrics"
	"orderflow/internal/adapters/out/postgres"
	"orderflow/internal/adapters/out/processing"
	"orderflow/internal/adapters/out/rabbitmq"
	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/core/ports"
	"orderflow/internal/jobs"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	uowFactory postgres.GormUnitOfWorkFactory
	logger     *slog.Logger

	orderMetrics  *metrics.OrderMetrics
	scheduler     services.RetryScheduler
	processor     ports.OrderProcessor
	registry      *jobs.HandlerRegistry
	inprocQueue   *inproc.Queue
	rabbitmqQueue *rabbitmq.Queue
	queue         ports.JobQueue
	jobManager    *jobs.JobManager
}

func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	scheduler, err := buildRetryScheduler(config)
	if err != nil {
		return nil, err
	}

	root := &CompositionRoot{
		config:       config,
		gormDB:       gormDB,
		uowFactory:   *postgres.NewGormUnitOfWorkFactory(gormDB),
		logger:       logger,
		orderMetrics: metrics.NewOrderMetrics(prometheus.DefaultRegisterer),
		scheduler:    scheduler,
		processor:    processing.NewSimulatedProcessor(config.SimulatedWorkDelay),
		registry:     jobs.NewHandlerRegistry(),
	}

	if err = root.buildQueue(); err != nil {
		return nil, err
	}

	processHandler := root.CreateProcessOrderCommandHandler()
	if err = root.registry.Register(
		ports.JobTypeProcessOrder,
		jobs.NewProcessOrderJobHandler(&processHandler),
	); err != nil {
		return nil, err
	}

	root.jobManager = jobs.NewJobManager(
		root.orderUoWFactory(),
		root.queue,
		config.SweepStaleAfter,
		logger,
	)

	return root, nil
}

func buildRetryScheduler(config Config) (services.RetryScheduler, error) {
	if config.RetryBaseDelay <= 0 && config.RetryMax <= 0 {
		return services.DefaultRetryScheduler(), nil
	}
	return services.NewRetryScheduler(config.RetryBaseDelay, config.RetryMax, 0)
}

// buildQueue selects the job transport: RabbitMQ when an AMQP URL is
// configured, otherwise the in-process worker pool.
func (c *CompositionRoot) buildQueue() error {
	if c.config.AmqpURL != "" {
		queue, err := rabbitmq.NewQueue(c.config.AmqpURL, c.config.AmqpQueueName, c.registry, c.logger)
		if err != nil {
			return err
		}
		c.rabbitmqQueue = queue
		c.queue = queue
		return nil
	}

	c.inprocQueue = inproc.NewQueue(c.registry, c.config.QueueWorkers, c.config.QueueBufferSize, c.logger)
	c.queue = c.inprocQueue
	return nil
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.orderUoWFactory(), c.queue, c.orderMetrics, c.logger)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(c.orderUoWFactory())
}

func (c *CompositionRoot) CreateProcessOrderCommandHandler() commands.ProcessOrderCommandHandler {
	return commands.NewProcessOrderCommandHandler(
		c.orderUoWFactory(),
		c.processor,
		c.scheduler,
		c.orderMetrics,
		c.logger,
	)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

// CreateHTTPServer wires the REST surface to the command and query handlers.
func (c *CompositionRoot) CreateHTTPServer() *http.Server {
	createHandler := c.CreateCreateOrderCommandHandler()
	cancelHandler := c.CreateCancelOrderCommandHandler()
	getHandler := c.CreateGetOrderQueryHandler()
	return http.NewServer(&createHandler, &cancelHandler, &getHandler)
}

// StartQueue brings the selected job transport online.
func (c *CompositionRoot) StartQueue() error {
	if c.rabbitmqQueue != nil {
		return c.rabbitmqQueue.StartConsumer(c.config.QueueWorkers)
	}
	c.inprocQueue.Start()
	return nil
}

// StopQueue drains the job transport.
func (c *CompositionRoot) StopQueue() {
	if c.rabbitmqQueue != nil {
		c.rabbitmqQueue.Close()
		return
	}
	c.inprocQueue.Stop()
}

func (c *CompositionRoot) JobManager() *jobs.JobManager {
	return c.jobManager
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}
