package main

import (
	"context"
	"errors"
	"time"

	"github.com/padaria-next/internal/config"
	"github.com/padaria-next/internal/constants"
	"github.com/padaria-next/internal/logger"
	"github.com/padaria-next/internal/models"
	"github.com/padaria-next/internal/provider"
	"github.com/padaria-next/internal/repository"
	"github.com/padaria-next/internal/service"

	"github.com/shopspring/decimal"
)

type seedProduct struct {
	category string
	slug     string
	name     string
	pct      string
	opening  int
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBOptions{
		Pool: models.DBPoolConfig{
			MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
			MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
			ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
			ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
		},
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	ctx := context.Background()
	c := provider.New(cfg, models.DB)

	// 分类（排序值决定标准订单的分配顺序）
	categories := []service.CreateCategoryInput{
		{Slug: "paes", Name: "Pães", SortOrder: 1},
		{Slug: "doces", Name: "Doces", SortOrder: 2},
	}
	categoryIDs := map[string]uint{}
	for _, input := range categories {
		category, err := c.CategoryService.Create(ctx, input)
		if errors.Is(err, service.ErrCategorySlugExists) {
			category, err = c.CategoryRepo.GetBySlug(ctx, input.Slug)
			stdLog.Printf("Category already exists: %s", input.Slug)
		} else if err == nil {
			stdLog.Printf("Created category: %s", input.Slug)
		}
		if err != nil || category == nil {
			stdLog.Fatalf("Failed to seed category %s: %v", input.Slug, err)
		}
		categoryIDs[input.Slug] = category.ID
	}

	// 商品：分配百分比合计 100
	products := []seedProduct{
		{category: "paes", slug: "pao-frances", name: "Pão Francês", pct: "50", opening: 400},
		{category: "paes", slug: "broa", name: "Broa", pct: "30", opening: 200},
		{category: "doces", slug: "sonho", name: "Sonho", pct: "20", opening: 120},
	}
	allocations := make([]service.AllocationInput, 0, len(products))
	productIDs := map[string]uint{}
	for _, item := range products {
		categoryID := categoryIDs[item.category]
		product, err := c.ProductService.Create(ctx, service.CreateProductInput{
			CategoryID: &categoryID,
			Slug:       item.slug,
			Name:       item.name,
		})
		if errors.Is(err, service.ErrProductSlugExists) {
			product, err = c.ProductRepo.GetBySlug(ctx, item.slug)
			stdLog.Printf("Product already exists: %s", item.slug)
		} else if err == nil {
			stdLog.Printf("Created product: %s", item.slug)
		}
		if err != nil || product == nil {
			stdLog.Fatalf("Failed to seed product %s: %v", item.slug, err)
		}
		productIDs[item.slug] = product.ID
		allocations = append(allocations, service.AllocationInput{
			ProductID:  product.ID,
			Percentage: decimal.RequireFromString(item.pct),
		})
	}
	if _, err := c.ProductService.UpdateAllocations(ctx, allocations); err != nil {
		stdLog.Fatalf("Failed to update allocations: %v", err)
	}
	stdLog.Printf("Allocation percentages balanced for %d products", len(allocations))

	// 期初入库：余额为 0 的商品记一笔 entrada
	for _, item := range products {
		productID := productIDs[item.slug]
		balances, err := c.InventoryService.Balances(ctx, []uint{productID})
		if err != nil {
			stdLog.Fatalf("Failed to read balance for %s: %v", item.slug, err)
		}
		if len(balances) > 0 && balances[0].Balance > 0 {
			stdLog.Printf("Stock already recorded: %s (%d)", item.slug, balances[0].Balance)
			continue
		}
		if _, err := c.InventoryService.RecordMovement(ctx, service.RecordMovementInput{
			ProductID: productID,
			Kind:      constants.MovementKindEntrada,
			Quantity:  item.opening,
			Note:      "seed: opening stock",
		}); err != nil {
			stdLog.Fatalf("Failed to record opening stock for %s: %v", item.slug, err)
		}
		stdLog.Printf("Recorded opening stock: %s +%d", item.slug, item.opening)
	}

	// 客户
	_, clientTotal, err := c.ClientService.List(ctx, repository.ClientListFilter{Page: 1, PageSize: 1})
	if err != nil {
		stdLog.Fatalf("Failed to count clients: %v", err)
	}
	if clientTotal > 0 {
		stdLog.Printf("Clients already exist, skipping clients and orders")
		return
	}
	clientInputs := []service.CreateClientInput{
		{Name: "Mercado Central", Phone: "+55 11 3333-0001", Address: "Rua das Flores, 120"},
		{Name: "Café da Esquina", Phone: "+55 11 3333-0002", Address: "Av. Paulista, 900"},
	}
	clientIDs := make([]uint, 0, len(clientInputs))
	for _, input := range clientInputs {
		client, err := c.ClientService.Create(ctx, input)
		if err != nil {
			stdLog.Fatalf("Failed to create client %s: %v", input.Name, err)
		}
		clientIDs = append(clientIDs, client.ID)
		stdLog.Printf("Created client: %s", input.Name)
	}

	// 示例订单：两张标准订单、一张定制订单
	tomorrow := time.Now().AddDate(0, 0, 1)
	orders := []service.CreateOrderInput{
		{ClientID: clientIDs[0], TotalQuantity: 33, Mode: constants.OrderModeStandard, ScheduledFor: &tomorrow},
		{ClientID: clientIDs[1], TotalQuantity: 12, Mode: constants.OrderModeStandard, ScheduledFor: &tomorrow},
		{
			ClientID:     clientIDs[1],
			Mode:         constants.OrderModeCustomized,
			ScheduledFor: &tomorrow,
			Note:         "somente doces",
			Items: []service.CustomItemInput{
				{ProductRef: "sonho", Quantity: 10},
				{ProductRef: "Broa", Quantity: 4},
			},
		},
	}
	for _, input := range orders {
		order, err := c.OrderService.Create(ctx, input)
		if err != nil {
			stdLog.Fatalf("Failed to create order: %v", err)
		}
		stdLog.Printf("Created order: %s (%s, %d units)", order.OrderNo, order.Mode, order.TotalQuantity)
	}

	stdLog.Printf("Seed completed")
}
