package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/padaria-next/internal/constants"
	"github.com/padaria-next/internal/models"
	"github.com/padaria-next/internal/queue"
	"github.com/padaria-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fulfillmentEnv struct {
	db         *gorm.DB
	products   *repository.GormProductRepository
	categories *repository.GormCategoryRepository
	clients    *repository.GormClientRepository
	orders     *repository.GormOrderRepository
	stock      *repository.GormStockRepository
	deliveries *repository.GormDeliveryRepository

	resolver  *RequirementResolver
	validator *FulfillmentValidator
	delivery  *DeliveryService
	batch     *BatchService
	events    *recordingPublisher

	client *models.Client
}

func openServiceTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.Client{},
		&models.DeliveryOrder{},
		&models.OrderCustomItem{},
		&models.StockMovement{},
		&models.DeliveryExecution{},
	))
	return db
}

// newFulfillmentEnv 构建完整的交付服务链；committer 为 nil 时直接使用存储层实现
func newFulfillmentEnv(t *testing.T, name string, wrap func(env *fulfillmentEnv, next DeliveryCommitter) DeliveryCommitter) *fulfillmentEnv {
	t.Helper()
	db := openServiceTestDB(t, name)
	env := &fulfillmentEnv{
		db:         db,
		products:   repository.NewProductRepository(db),
		categories: repository.NewCategoryRepository(db),
		clients:    repository.NewClientRepository(db),
		orders:     repository.NewOrderRepository(db),
		stock:      repository.NewStockRepository(db),
		deliveries: repository.NewDeliveryRepository(db),
		events:     &recordingPublisher{},
	}
	var committer DeliveryCommitter = env.deliveries
	if wrap != nil {
		committer = wrap(env, committer)
	}
	env.resolver = NewRequirementResolver(env.products, env.orders, nil)
	env.validator = NewFulfillmentValidator(env.stock)
	env.delivery = NewDeliveryService(env.orders, env.resolver, env.validator, committer, DeliveryServiceOptions{Events: env.events})
	env.batch = NewBatchService(env.orders, env.resolver, env.validator, env.delivery, env.events, nil)

	env.client = &models.Client{Name: "Mercado Central", IsActive: true}
	require.NoError(t, env.clients.Create(t.Context(), env.client))
	return env
}

func (env *fulfillmentEnv) category(t *testing.T, slug string, sortOrder int) *models.Category {
	t.Helper()
	category := &models.Category{Slug: slug, Name: slug, SortOrder: sortOrder}
	require.NoError(t, env.categories.Create(t.Context(), category))
	return category
}

func (env *fulfillmentEnv) product(t *testing.T, categoryID uint, name, pct string) *models.Product {
	t.Helper()
	product := &models.Product{
		Slug:                 normalizeSlug("", name),
		Name:                 name,
		AllocationPercentage: models.MustPercentage(pct),
		IsActive:             true,
	}
	if categoryID != 0 {
		product.CategoryID = &categoryID
	}
	require.NoError(t, env.products.Create(t.Context(), product))
	return product
}

func (env *fulfillmentEnv) order(t *testing.T, total int, mode string, items ...models.OrderCustomItem) *models.DeliveryOrder {
	t.Helper()
	order := &models.DeliveryOrder{
		OrderNo:       generateOrderNo(),
		ClientID:      env.client.ID,
		TotalQuantity: total,
		Mode:          mode,
		Status:        constants.OrderStatusPending,
	}
	require.NoError(t, env.orders.Create(t.Context(), order, items))
	return order
}

func (env *fulfillmentEnv) stockIn(t *testing.T, productID uint, qty int) {
	t.Helper()
	require.NoError(t, env.stock.Append(t.Context(), &models.StockMovement{
		ProductID: productID,
		Kind:      constants.MovementKindEntrada,
		Direction: constants.MovementDirectionIn,
		Quantity:  qty,
	}))
}

func (env *fulfillmentEnv) balance(t *testing.T, productID uint) int {
	t.Helper()
	balance, err := env.stock.BalanceOf(t.Context(), productID)
	require.NoError(t, err)
	return balance
}

func (env *fulfillmentEnv) countSaida(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, env.db.Model(&models.StockMovement{}).Where("kind = ?", constants.MovementKindSaida).Count(&count).Error)
	return count
}

func (env *fulfillmentEnv) reloadOrder(t *testing.T, id uint) *models.DeliveryOrder {
	t.Helper()
	order, err := env.orders.GetByID(t.Context(), id)
	require.NoError(t, err)
	require.NotNil(t, order)
	return order
}

// standardCatalog 创建 Pão A 60% 与 Pão B 40% 两个商品
func (env *fulfillmentEnv) standardCatalog(t *testing.T) (*models.Product, *models.Product) {
	t.Helper()
	category := env.category(t, "paes", 1)
	return env.product(t, category.ID, "Pão A", "60"), env.product(t, category.ID, "Pão B", "40")
}

type recordingPublisher struct {
	mu        sync.Mutex
	confirmed []queue.DeliveryConfirmedPayload
	batches   []queue.DeliveryBatchConfirmPayload
	err       error
}

func (p *recordingPublisher) EnqueueDeliveryConfirmed(payload queue.DeliveryConfirmedPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmed = append(p.confirmed, payload)
	return p.err
}

func (p *recordingPublisher) EnqueueDeliveryBatchConfirm(payload queue.DeliveryBatchConfirmPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, payload)
	return nil
}

type committerFunc func(ctx context.Context, cmd repository.DeliveryCommand) (*repository.DeliveryReceipt, error)

func (f committerFunc) CommitDelivery(ctx context.Context, cmd repository.DeliveryCommand) (*repository.DeliveryReceipt, error) {
	return f(ctx, cmd)
}

type memoryCatalogCache struct {
	products    []models.Product
	hit         bool
	invalidated int
}

func (c *memoryCatalogCache) Get(context.Context) ([]models.Product, bool, error) {
	return c.products, c.hit, nil
}

func (c *memoryCatalogCache) Set(_ context.Context, products []models.Product) error {
	c.products = products
	c.hit = true
	return nil
}

func (c *memoryCatalogCache) Invalidate(context.Context) error {
	c.products = nil
	c.hit = false
	c.invalidated++
	return nil
}

func pct(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}
