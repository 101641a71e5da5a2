package provider

import (
	"github.com/padaria-next/internal/cache"
	"github.com/padaria-next/internal/config"
	"github.com/padaria-next/internal/logger"
	"github.com/padaria-next/internal/metrics"
	"github.com/padaria-next/internal/models"
	"github.com/padaria-next/internal/queue"
	"github.com/padaria-next/internal/repository"
	"github.com/padaria-next/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Metrics     *metrics.Recorder

	CatalogCache   *cache.CatalogCache
	DeliveryLocker *cache.DeliveryLocker

	// Repositories
	CategoryRepo repository.CategoryRepository
	ProductRepo  repository.ProductRepository
	ClientRepo   repository.ClientRepository
	OrderRepo    repository.OrderRepository
	StockRepo    repository.StockRepository
	DeliveryRepo repository.DeliveryRepository

	// Services
	CategoryService     *service.CategoryService
	ProductService      *service.ProductService
	ClientService       *service.ClientService
	OrderService        *service.OrderService
	InventoryService    *service.InventoryService
	RequirementResolver *service.RequirementResolver
	Validator           *service.FulfillmentValidator
	DeliveryService     *service.DeliveryService
	BatchService        *service.BatchService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.New(cfg.Metrics.Namespace)
	}

	return build(cfg, models.DB, queueClient, recorder)
}

// New 基于给定数据库构建容器，不连接 Redis 与队列（测试与工具命令使用）
func New(cfg *config.Config, db *gorm.DB) *Container {
	return build(cfg, db, nil, nil)
}

func build(cfg *config.Config, db *gorm.DB, queueClient *queue.Client, recorder *metrics.Recorder) *Container {
	c := &Container{
		Config:         cfg,
		QueueClient:    queueClient,
		Metrics:        recorder,
		CatalogCache:   cache.NewCatalogCache(cfg.Fulfillment.CatalogCacheTTL()),
		DeliveryLocker: cache.NewDeliveryLocker(cfg.Fulfillment.CommitLockTTL()),
	}
	c.initRepositories(db)
	c.initServices()
	return c
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.ClientRepo = repository.NewClientRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.StockRepo = repository.NewStockRepository(db)
	c.DeliveryRepo = repository.NewDeliveryRepository(db)
}

func (c *Container) initServices() {
	fulfillment := c.Config.Fulfillment

	var catalogCache service.CatalogCache
	if cache.Enabled() {
		catalogCache = c.CatalogCache
	}
	var locker service.CommitLocker
	if cache.Enabled() {
		locker = c.DeliveryLocker
	}
	var events service.DeliveryEventPublisher
	var batchPublisher service.BatchTaskPublisher
	if c.QueueClient != nil {
		events = c.QueueClient
		batchPublisher = c.QueueClient
	}

	c.CategoryService = service.NewCategoryService(c.CategoryRepo, catalogCache)
	c.ProductService = service.NewProductService(c.ProductRepo, c.CategoryRepo, catalogCache, fulfillment.Epsilon())
	c.ClientService = service.NewClientService(c.ClientRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ClientRepo)
	c.InventoryService = service.NewInventoryService(c.StockRepo, c.ProductRepo, fulfillment.LowStockThreshold)

	c.RequirementResolver = service.NewRequirementResolver(c.ProductRepo, c.OrderRepo, catalogCache)
	c.Validator = service.NewFulfillmentValidator(c.StockRepo)
	c.DeliveryService = service.NewDeliveryService(c.OrderRepo, c.RequirementResolver, c.Validator, c.DeliveryRepo, service.DeliveryServiceOptions{
		Locker:  locker,
		Events:  events,
		Metrics: c.Metrics,
	})
	c.BatchService = service.NewBatchService(c.OrderRepo, c.RequirementResolver, c.Validator, c.DeliveryService, batchPublisher, c.Metrics)
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
